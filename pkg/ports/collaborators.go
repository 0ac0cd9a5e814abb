package ports

import (
	"context"

	"github.com/aretw0/carepath/pkg/domain"
)

// NodeHandler performs the work of a named step.
// It receives a private copy of the state and returns the replacement.
type NodeHandler func(ctx context.Context, state *domain.JourneyState) (*domain.JourneyState, error)

// ParamHandler performs the work of a parameterized step.
type ParamHandler func(ctx context.Context, state *domain.JourneyState, args map[string]any) (*domain.JourneyState, error)

// Classification is the outcome of free-text intent classification.
type Classification struct {
	Intent string        `json:"intent"`
	Steps  []domain.Step `json:"steps,omitempty"`
	// TargetStage, when set, asks the router to catch the journey up to that stage.
	TargetStage *domain.Stage `json:"target_stage,omitempty"`
}

// IntentClassifier maps a user message to steps.
type IntentClassifier interface {
	Classify(ctx context.Context, text string, history []domain.AuditEntry) (Classification, error)
}

// LocationResolver turns a raw location signal into an area tag.
type LocationResolver interface {
	Resolve(ctx context.Context, signal domain.LocationSignal) (domain.Area, error)
}

// Notifier delivers notification records produced by a session.
type Notifier interface {
	Notify(ctx context.Context, sessionID string, n domain.Notification) error
}

// WaitList is the department queue patients join after check-in.
// Positions are 1-based; 0 means not queued.
type WaitList interface {
	Join(ctx context.Context, queue, patientID string) (int, error)
	Position(ctx context.Context, queue, patientID string) (int, error)
	Leave(ctx context.Context, queue, patientID string) error
}

// InsuranceVerifier checks the patient's coverage during check-in.
type InsuranceVerifier interface {
	Verify(ctx context.Context, patient domain.PatientInfo) (bool, error)
}
