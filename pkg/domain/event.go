package domain

import (
	"fmt"
	"strings"
	"time"
)

// EventKind is the tag of an inbound Event.
type EventKind string

const (
	EventLocationUpdate EventKind = "location_update"
	EventUserMessage    EventKind = "user_message"
	EventSystemSignal   EventKind = "system_signal"
)

// System signal names recognised by the router.
const (
	SignalAppointmentNear   = "appointment_time_near"
	SignalQueueChanged      = "queue_position_changed"
	SignalNextInQueue       = "next_in_queue"
	SignalDoctorReady       = "doctor_ready"
	SignalCheckInCompleted  = "check_in_completed"
	SignalVisitStarted      = "visit_started"
	SignalVisitEnded        = "visit_ended"
	SignalPrescriptionReady = "prescription_ready"
	SignalLabResultsReady   = "lab_results_ready"
	SignalEmergencyDetected = "emergency_detected"
	SignalVitalsAbnormal    = "vitals_abnormal"
	SignalEmergencyResolved = "emergency_resolved"
	SignalPatientDeparted   = "patient_departed"
)

// LocationSignal is the raw payload of a location update.
// Area is set when the sender already knows the tag; otherwise it is resolved
// from the beacon or the coordinates.
type LocationSignal struct {
	Area      Area    `json:"area,omitempty"`
	BeaconID  string  `json:"beacon_id,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Floor     string  `json:"floor,omitempty"`
	Room      string  `json:"room,omitempty"`
}

// Location converts the signal into a Location record.
func (l LocationSignal) Location() Location {
	return Location{
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		Floor:     l.Floor,
		Room:      l.Room,
		BeaconID:  l.BeaconID,
	}
}

// UserMessage is free text typed or spoken by the patient.
type UserMessage struct {
	Text string `json:"text"`
}

// SystemSignal is an internal notification from hospital systems.
type SystemSignal struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data,omitempty"`
}

// Event is the tagged union fed into a session. Exactly one payload matches Kind.
type Event struct {
	Kind      EventKind       `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source,omitempty"`
	Location  *LocationSignal `json:"location,omitempty"`
	Message   *UserMessage    `json:"message,omitempty"`
	Signal    *SystemSignal   `json:"signal,omitempty"`
}

// NewLocationUpdate builds a location event.
func NewLocationUpdate(sig LocationSignal) Event {
	return Event{Kind: EventLocationUpdate, Timestamp: time.Now(), Location: &sig}
}

// NewUserMessage builds a message event.
func NewUserMessage(text string) Event {
	return Event{Kind: EventUserMessage, Timestamp: time.Now(), Message: &UserMessage{Text: text}}
}

// NewSystemSignal builds a signal event.
func NewSystemSignal(name string, data map[string]any) Event {
	return Event{Kind: EventSystemSignal, Timestamp: time.Now(), Signal: &SystemSignal{Name: name, Data: data}}
}

// Validate checks that the payload matches the kind.
func (e Event) Validate() error {
	switch e.Kind {
	case EventLocationUpdate:
		if e.Location == nil {
			return fmt.Errorf("%w: location update without location", ErrInvalidEvent)
		}
	case EventUserMessage:
		if e.Message == nil {
			return fmt.Errorf("%w: user message without text", ErrInvalidEvent)
		}
	case EventSystemSignal:
		if e.Signal == nil || strings.TrimSpace(e.Signal.Name) == "" {
			return fmt.Errorf("%w: system signal without name", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	return nil
}

// Describe returns a short audit description of the event.
func (e Event) Describe() string {
	switch e.Kind {
	case EventLocationUpdate:
		if e.Location == nil {
			return "location"
		}
		if e.Location.Area != "" {
			return "area=" + string(e.Location.Area)
		}
		if e.Location.BeaconID != "" {
			return "beacon=" + e.Location.BeaconID
		}
		return fmt.Sprintf("coords=%.5f,%.5f", e.Location.Latitude, e.Location.Longitude)
	case EventUserMessage:
		if e.Message == nil {
			return ""
		}
		return e.Message.Text
	case EventSystemSignal:
		if e.Signal == nil {
			return ""
		}
		return e.Signal.Name
	}
	return string(e.Kind)
}
