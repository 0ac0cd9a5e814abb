package runtime

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/carepath/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// EmergencyGeneral is the type used when no symptom category matched.
const EmergencyGeneral = "general"

type symptomCategory struct {
	name    string
	phrases []string
}

var defaultSymptoms = []symptomCategory{
	{"cardiac", []string{"severe chest pain", "crushing chest pain", "chest pressure", "chest pain", "pain radiating to arm", "pain radiating to jaw", "heart attack"}},
	{"neurological", []string{"sudden severe headache", "worst headache", "sudden confusion", "slurred speech", "facial drooping", "weakness on one side", "weakness one side", "loss of consciousness", "passed out", "seizure", "can't move my arm", "can't move my leg", "stroke"}},
	{"respiratory", []string{"severe difficulty breathing", "difficulty breathing", "can't breathe", "cannot breathe", "gasping", "blue lips", "choking", "can't speak"}},
	{"bleeding", []string{"uncontrolled bleeding", "severe bleeding", "blood loss", "coughing blood", "coughing up blood", "vomiting blood", "bleeding heavily"}},
	{"allergic", []string{"severe allergic reaction", "throat swelling", "throat is swelling", "tongue swelling", "anaphylaxis", "hives with breathing difficulty"}},
	{"mental_health", []string{"suicidal", "want to hurt myself", "want to hurt others", "self harm", "kill myself"}},
	{"trauma", []string{"severe injury", "broken bone", "deep wound", "severe burn", "head trauma", "hit my head"}},
}

var explicitEmergency = regexp.MustCompile(`\b(emergency|911|ambulance|dying)\b`)

// instructions are short fixed phrases attached to the emergency alert.
var instructions = map[string]string{
	"cardiac":       "Sit or lie down and stay still. Staff are on their way.",
	"neurological":  "Stay where you are and note when symptoms started. Staff are on their way.",
	"respiratory":   "Sit upright and loosen tight clothing. Staff are on their way.",
	"bleeding":      "Apply firm pressure to the wound. Staff are on their way.",
	"allergic":      "Use your epinephrine auto-injector if you have one. Staff are on their way.",
	"mental_health": "You are not alone. A staff member is coming to you now.",
	"trauma":        "Do not move the injured area. Staff are on their way.",
}

// Detector recognises emergency language in user messages.
type Detector struct {
	categories []symptomCategory
}

// NewDetector builds a detector with the standard symptom taxonomy.
func NewDetector() *Detector {
	return &Detector{categories: defaultSymptoms}
}

// Detect returns the emergency category of the text, if any.
func (d *Detector) Detect(text string) (string, bool) {
	t := normalize(text)
	if t == "" {
		return "", false
	}
	for _, cat := range d.categories {
		for _, phrase := range cat.phrases {
			if strings.Contains(t, phrase) {
				return cat.name, true
			}
		}
	}
	if explicitEmergency.MatchString(t) {
		return EmergencyGeneral, true
	}
	return "", false
}

func normalize(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.NewReplacer("’", "'", "‘", "'", "cant ", "can't ").Replace(t)
	return strings.Join(strings.Fields(t), " ")
}

// emergencyArgs are the arguments of a handle_emergency step.
type emergencyArgs struct {
	Type    string `mapstructure:"type"`
	Message string `mapstructure:"message"`
}

// Emergency owns the interrupt bookkeeping: Idle -> Active -> Idle.
type Emergency struct {
	opts options
}

// NewEmergency creates the interrupt handler.
func NewEmergency(opts ...Option) *Emergency {
	return &Emergency{opts: buildOptions(opts)}
}

// Handle activates the emergency. The stage is captured on the first activation only;
// repeated alerts while active add notifications but keep the original snapshot.
func (e *Emergency) Handle(ctx context.Context, state *domain.JourneyState, args map[string]any) (*domain.JourneyState, error) {
	var a emergencyArgs
	if err := mapstructure.Decode(args, &a); err != nil {
		return nil, fmt.Errorf("invalid emergency arguments: %w", err)
	}
	if a.Type == "" {
		a.Type = EmergencyGeneral
	}

	now := e.opts.now()
	if !state.Emergency.Active {
		state.Emergency = domain.EmergencyStatus{
			Active:            true,
			Type:              a.Type,
			PreEmergencyStage: state.Stage,
			Location:          copyLocation(state.CurrentLocation),
			StartedAt:         now,
		}
		e.opts.logger.Warn("emergency activated",
			"session_id", state.SessionID,
			"type", a.Type,
			"stage", state.Stage.String(),
		)
		if e.opts.hooks.OnEmergency != nil {
			e.opts.hooks.OnEmergency(ctx, &domain.EmergencyEvent{Timestamp: now, SessionID: state.SessionID, Type: a.Type})
		}
	}

	msg, ok := instructions[a.Type]
	if !ok {
		msg = "Stay where you are. Staff are on their way."
	}
	state.Notify(domain.Notification{
		Type:      domain.NotificationEmergency,
		Priority:  domain.PriorityCritical,
		Title:     "Emergency alert raised",
		Message:   msg,
		Step:      domain.StepHandleEmergency,
		Timestamp: now,
	})
	return state, nil
}

// Resolve clears the emergency and restores the stage captured on activation.
// It is a no-op when no emergency is active.
func (e *Emergency) Resolve(ctx context.Context, state *domain.JourneyState) (*domain.JourneyState, error) {
	if !state.Emergency.Active {
		return state, nil
	}
	now := e.opts.now()
	kind := state.Emergency.Type
	state.Stage = state.Emergency.PreEmergencyStage
	state.Emergency = domain.EmergencyStatus{}
	state.Notify(domain.Notification{
		Type:      domain.NotificationSuccess,
		Priority:  domain.PriorityHigh,
		Title:     "Emergency resolved",
		Step:      domain.StepResolveEmergency,
		Timestamp: now,
	})
	e.opts.logger.Info("emergency resolved", "session_id", state.SessionID, "type", kind)
	if e.opts.hooks.OnEmergency != nil {
		e.opts.hooks.OnEmergency(ctx, &domain.EmergencyEvent{Timestamp: now, SessionID: state.SessionID, Type: kind, Resolved: true})
	}
	return state, nil
}

func copyLocation(l *domain.Location) *domain.Location {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}
