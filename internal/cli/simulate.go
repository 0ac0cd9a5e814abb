package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/carepath"
	"github.com/aretw0/carepath/pkg/domain"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Script describes simulated patient journeys. Sessions run in parallel; the steps of
// one session run in order.
type Script struct {
	Sessions []ScriptSession `yaml:"sessions"`
}

// ScriptSession is one simulated patient.
type ScriptSession struct {
	Patient ScriptPatient `yaml:"patient"`
	Steps   []ScriptStep  `yaml:"steps"`
	// End runs EndSession after the last step.
	End bool `yaml:"end"`
}

// ScriptPatient mirrors domain.PatientInfo with YAML keys.
type ScriptPatient struct {
	PatientID         string `yaml:"patient_id"`
	HospitalID        string `yaml:"hospital_id"`
	Name              string `yaml:"name"`
	Department        string `yaml:"department"`
	DoctorID          string `yaml:"doctor_id"`
	InsuranceProvider string `yaml:"insurance_provider"`
	HasPrescriptions  bool   `yaml:"has_prescriptions"`
	HasLabOrders      bool   `yaml:"has_lab_orders"`
	InitialArea       string `yaml:"initial_area"`
}

// ScriptStep is one inbound event. Exactly one of the event fields is expected.
type ScriptStep struct {
	Area      string         `yaml:"area"`
	Beacon    string         `yaml:"beacon"`
	Latitude  float64        `yaml:"latitude"`
	Longitude float64        `yaml:"longitude"`
	Message   string         `yaml:"message"`
	Signal    string         `yaml:"signal"`
	Data      map[string]any `yaml:"data"`
	Emergency string         `yaml:"emergency"`
}

// SimulationResult summarises one simulated session.
type SimulationResult struct {
	SessionID       string       `json:"session_id"`
	PatientID       string       `json:"patient_id"`
	Stage           domain.Stage `json:"stage"`
	EmergencyActive bool         `json:"emergency_active"`
	Notifications   int          `json:"notifications"`
	Events          int          `json:"events"`
	Ended           bool         `json:"ended"`
}

// LoadScript reads a YAML simulation script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes a YAML simulation script and checks every step.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	for i, sess := range s.Sessions {
		for j, step := range sess.Steps {
			if _, err := step.event(); err != nil {
				return nil, fmt.Errorf("session %d step %d: %w", i+1, j+1, err)
			}
		}
	}
	return &s, nil
}

func (s ScriptStep) event() (domain.Event, error) {
	var set []domain.Event
	if s.Area != "" || s.Beacon != "" || s.Latitude != 0 || s.Longitude != 0 {
		set = append(set, domain.NewLocationUpdate(domain.LocationSignal{
			Area:      domain.Area(s.Area),
			BeaconID:  s.Beacon,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
		}))
	}
	if s.Message != "" {
		set = append(set, domain.NewUserMessage(s.Message))
	}
	if s.Signal != "" {
		set = append(set, domain.NewSystemSignal(s.Signal, s.Data))
	}
	if s.Emergency != "" {
		set = append(set, domain.Event{})
	}
	if len(set) != 1 {
		return domain.Event{}, fmt.Errorf("%w: step must set exactly one of location, message, signal or emergency", domain.ErrInvalidEvent)
	}
	return set[0], nil
}

// Simulate plays the script against eng and returns one result per session, in script order.
func Simulate(ctx context.Context, eng *carepath.Engine, script *Script) ([]SimulationResult, error) {
	results := make([]SimulationResult, len(script.Sessions))
	g, ctx := errgroup.WithContext(ctx)
	for i, sess := range script.Sessions {
		g.Go(func() error {
			res, err := simulateSession(ctx, eng, sess)
			if err != nil {
				return fmt.Errorf("patient %s: %w", sess.Patient.PatientID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func simulateSession(ctx context.Context, eng *carepath.Engine, sess ScriptSession) (SimulationResult, error) {
	p := sess.Patient
	id, err := eng.InitializeSession(ctx, domain.PatientInfo{
		PatientID:         p.PatientID,
		HospitalID:        p.HospitalID,
		Name:              p.Name,
		Department:        p.Department,
		DoctorID:          p.DoctorID,
		InsuranceProvider: p.InsuranceProvider,
		HasPrescriptions:  p.HasPrescriptions,
		HasLabOrders:      p.HasLabOrders,
		InitialArea:       domain.Area(p.InitialArea),
	})
	if err != nil {
		return SimulationResult{}, err
	}

	state, err := eng.GetState(ctx, id)
	if err != nil {
		return SimulationResult{}, err
	}
	for _, step := range sess.Steps {
		if step.Emergency != "" {
			state, err = eng.TriggerEmergency(ctx, id, step.Emergency)
		} else {
			ev, evErr := step.event()
			if evErr != nil {
				return SimulationResult{}, evErr
			}
			ev.Source = "simulation"
			state, err = eng.HandleEvent(ctx, id, ev)
		}
		if err != nil {
			return SimulationResult{}, err
		}
	}

	res := SimulationResult{
		SessionID:       id,
		PatientID:       p.PatientID,
		Stage:           state.Stage,
		EmergencyActive: state.Emergency.Active,
		Notifications:   len(state.Notifications),
		Events:          len(state.EventHistory),
	}
	if sess.End {
		if err := eng.EndSession(ctx, id); err != nil {
			return SimulationResult{}, err
		}
		res.Ended = true
	}
	return res, nil
}
