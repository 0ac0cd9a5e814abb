package runtime

import (
	"context"
	"strings"

	"github.com/aretw0/carepath/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// areaStages maps the physical area a patient is in to the stage it implies.
var areaStages = map[domain.Area]domain.Stage{
	domain.AreaEntrance:     domain.StageArrival,
	domain.AreaRegistration: domain.StageCheckIn,
	domain.AreaWaitingRoom:  domain.StageWaiting,
	domain.AreaExamRoom:     domain.StageInVisit,
	domain.AreaPharmacy:     domain.StagePostVisit,
	domain.AreaExit:         domain.StageDeparture,
}

// safetyTerms mark messages that go to a human when they cannot be classified.
var safetyTerms = []string{
	"pain", "hurt", "dizzy", "faint", "nause", "vomit", "fever", "bleed",
	"breath", "allerg", "medication", "medicine", "dose", "symptom", "swelling",
}

// IntentEmergency is the classifier intent that forces the emergency path.
const IntentEmergency = "emergency"

// Router turns inbound events into ordered steps.
type Router struct {
	planner *Planner
	opts    options
}

// NewRouter creates a Router around the given planner.
func NewRouter(planner *Planner, opts ...Option) *Router {
	if planner == nil {
		planner = NewPlanner()
	}
	return &Router{planner: planner, opts: buildOptions(opts)}
}

// Detector returns the emergency detector the router screens messages with.
func (r *Router) Detector() *Detector {
	return r.opts.detector
}

// Route classifies the event and returns the steps it produces.
// It records the event and the produced step names in the state's audit history,
// and stores the detected area for location updates received outside an emergency.
func (r *Router) Route(ctx context.Context, state *domain.JourneyState, ev domain.Event) []domain.Step {
	var steps []domain.Step
	if err := ev.Validate(); err != nil {
		r.opts.logger.Warn("unroutable event", "session_id", state.SessionID, "err", err)
	} else {
		switch ev.Kind {
		case domain.EventLocationUpdate:
			steps = r.routeLocation(ctx, state, *ev.Location)
		case domain.EventUserMessage:
			steps = r.routeMessage(ctx, state, ev.Message.Text)
		case domain.EventSystemSignal:
			steps = r.routeSignal(state, *ev.Signal)
		}
	}

	state.RecordEvent(ev, steps)
	r.opts.logger.Debug("event routed",
		"session_id", state.SessionID,
		"event", string(ev.Kind),
		"stage", state.Stage.String(),
		"steps", domain.StepNames(steps),
	)
	if r.opts.hooks.OnEventRouted != nil {
		r.opts.hooks.OnEventRouted(ctx, &domain.RouteEvent{
			Timestamp: r.opts.now(),
			SessionID: state.SessionID,
			Kind:      ev.Kind,
			Stage:     state.Stage,
			Steps:     domain.StepNames(steps),
		})
	}
	return steps
}

func (r *Router) routeLocation(ctx context.Context, state *domain.JourneyState, sig domain.LocationSignal) []domain.Step {
	area := sig.Area
	if area == "" {
		area = r.resolve(ctx, state, sig)
	}
	if !state.Emergency.Active {
		state.DetectedArea = area
	}

	steps := []domain.Step{domain.Parameterized(domain.StepUpdateLocation, locationArgs(area, sig))}

	expected, ok := areaStages[area]
	if !ok {
		return steps
	}
	if expected != state.Stage {
		return append(steps, r.planner.CatchUp(state.Stage, expected, state)...)
	}
	return append(steps, ambientSteps(state)...)
}

func (r *Router) resolve(ctx context.Context, state *domain.JourneyState, sig domain.LocationSignal) domain.Area {
	if r.opts.resolver == nil {
		return domain.AreaUnknown
	}
	area, err := r.opts.resolver.Resolve(ctx, sig)
	if err != nil {
		r.opts.logger.Warn("location resolver failed", "session_id", state.SessionID, "err", err)
		return domain.AreaUnknown
	}
	if area == "" {
		return domain.AreaUnknown
	}
	return area
}

func locationArgs(area domain.Area, sig domain.LocationSignal) map[string]any {
	args := map[string]any{"area": string(area)}
	if sig.BeaconID != "" {
		args["beacon_id"] = sig.BeaconID
	}
	if sig.Latitude != 0 || sig.Longitude != 0 {
		args["latitude"] = sig.Latitude
		args["longitude"] = sig.Longitude
	}
	if sig.Floor != "" {
		args["floor"] = sig.Floor
	}
	if sig.Room != "" {
		args["room"] = sig.Room
	}
	return args
}

// ambientSteps are produced when the patient is where their stage expects them.
func ambientSteps(state *domain.JourneyState) []domain.Step {
	var steps []domain.Step
	switch state.Stage {
	case domain.StageArrival:
		if !state.Arrived {
			steps = append(steps, domain.Named(domain.StepHandleArrival))
		}
		if !state.CheckInStarted {
			steps = append(steps, navigateTo(domain.AreaRegistration))
		}
	case domain.StageWaiting:
		if state.QueuePosition == 0 {
			steps = append(steps, domain.Named(domain.StepUpdateQueue))
		}
		steps = append(steps, domain.Named(domain.StepUpdateWaitTime))
	}
	return steps
}

func (r *Router) routeMessage(ctx context.Context, state *domain.JourneyState, text string) []domain.Step {
	text = strings.TrimSpace(text)
	if text == "" {
		return []domain.Step{domain.Named(domain.StepAcknowledge)}
	}

	if kind, ok := r.opts.detector.Detect(text); ok {
		return []domain.Step{emergencyStep(kind, text)}
	}

	if r.opts.classifier == nil {
		return fallbackSteps(text)
	}

	cls, err := r.opts.classifier.Classify(ctx, text, state.EventHistory)
	if err != nil {
		r.opts.logger.Warn("intent classifier failed", "session_id", state.SessionID, "err", err)
		return fallbackSteps(text)
	}
	if cls.Intent == IntentEmergency {
		return []domain.Step{emergencyStep(EmergencyGeneral, text)}
	}

	steps := append([]domain.Step(nil), cls.Steps...)
	if cls.TargetStage != nil {
		steps = append(steps, r.planner.CatchUp(state.Stage, *cls.TargetStage, state)...)
	}
	if len(steps) == 0 {
		return fallbackSteps(text)
	}
	return steps
}

func fallbackSteps(text string) []domain.Step {
	if safetyRelevant(text) {
		return []domain.Step{domain.Named(domain.StepConsultHuman)}
	}
	return []domain.Step{domain.Named(domain.StepAcknowledge)}
}

func safetyRelevant(text string) bool {
	t := strings.ToLower(text)
	for _, term := range safetyTerms {
		if strings.Contains(t, term) {
			return true
		}
	}
	return false
}

// signalData is the loosely typed payload of system signals.
type signalData struct {
	Position    int    `mapstructure:"position"`
	Type        string `mapstructure:"type"`
	Description string `mapstructure:"description"`
}

func (r *Router) routeSignal(state *domain.JourneyState, sig domain.SystemSignal) []domain.Step {
	var data signalData
	if len(sig.Data) > 0 {
		cfg := &mapstructure.DecoderConfig{WeaklyTypedInput: true, Result: &data}
		dec, err := mapstructure.NewDecoder(cfg)
		if err == nil {
			err = dec.Decode(sig.Data)
		}
		if err != nil {
			r.opts.logger.Warn("malformed signal data", "session_id", state.SessionID, "signal", sig.Name, "err", err)
		}
	}

	switch sig.Name {
	case domain.SignalEmergencyDetected:
		return []domain.Step{emergencyStep(orDefault(data.Type, EmergencyGeneral), data.Description)}
	case domain.SignalVitalsAbnormal:
		return []domain.Step{emergencyStep(orDefault(data.Type, "vitals"), data.Description)}
	case domain.SignalEmergencyResolved:
		return []domain.Step{domain.Named(domain.StepResolveEmergency)}
	case domain.SignalAppointmentNear:
		switch {
		case !state.Arrived:
			return []domain.Step{domain.Named(domain.StepSendReminder)}
		case state.Stage == domain.StageArrival && !state.CheckInStarted:
			return []domain.Step{domain.Named(domain.StepRemindCheckIn)}
		}
		return nil
	case domain.SignalQueueChanged:
		steps := []domain.Step{domain.Named(domain.StepUpdateWaitTime)}
		if data.Position == 1 {
			steps = append(steps, domain.Named(domain.StepNotifyNextInQueue))
		}
		return steps
	case domain.SignalNextInQueue, domain.SignalDoctorReady:
		return []domain.Step{domain.Named(domain.StepNotifyNextInQueue), navigateTo(domain.AreaExamRoom)}
	case domain.SignalCheckInCompleted:
		return r.planner.CatchUp(state.Stage, domain.StagePreVisit, state)
	case domain.SignalVisitStarted:
		return r.planner.CatchUp(state.Stage, domain.StageInVisit, state)
	case domain.SignalVisitEnded:
		return r.planner.CatchUp(state.Stage, domain.StagePostVisit, state)
	case domain.SignalPatientDeparted:
		return r.planner.CatchUp(state.Stage, domain.StageDeparture, state)
	case domain.SignalPrescriptionReady:
		return []domain.Step{domain.Named(domain.StepNotifyPrescription)}
	case domain.SignalLabResultsReady:
		return []domain.Step{domain.Named(domain.StepNotifyLabResults)}
	}
	r.opts.logger.Debug("unhandled signal", "session_id", state.SessionID, "signal", sig.Name)
	return nil
}

func emergencyStep(kind, message string) domain.Step {
	return domain.Parameterized(domain.StepHandleEmergency, map[string]any{
		"type":    kind,
		"message": message,
	})
}

func navigateTo(area domain.Area) domain.Step {
	return domain.Parameterized(domain.StepNavigate, map[string]any{"destination": string(area)})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
