package domain

import (
	"fmt"
	"time"
)

// EmergencyStatus holds the emergency bookkeeping of a session.
type EmergencyStatus struct {
	Active bool   `json:"active"`
	Type   string `json:"type,omitempty"`
	// PreEmergencyStage is the stage captured when the emergency became active.
	PreEmergencyStage Stage     `json:"pre_emergency_stage"`
	Location          *Location `json:"location,omitempty"`
	StartedAt         time.Time `json:"started_at,omitempty"`
}

// JourneyState is the snapshot of a single patient session.
// It is exclusively owned by its session; handlers receive a clone and return a replacement.
type JourneyState struct {
	SessionID string      `json:"session_id"`
	Patient   PatientInfo `json:"patient"`
	Stage     Stage       `json:"stage"`

	CurrentLocation *Location `json:"current_location,omitempty"`
	DetectedArea    Area      `json:"detected_area,omitempty"`
	Destination     Area      `json:"destination,omitempty"`

	// PendingSteps is the ordered work queue drained by the executor.
	PendingSteps   []Step         `json:"pending_steps,omitempty"`
	PendingTasks   []Task         `json:"pending_tasks,omitempty"`
	CompletedTasks []string       `json:"completed_tasks,omitempty"`
	Notifications  []Notification `json:"notifications,omitempty"`
	EventHistory   []AuditEntry   `json:"event_history,omitempty"`

	Arrived           bool `json:"arrived"`
	CheckInStarted    bool `json:"check_in_started"`
	CheckInCompleted  bool `json:"check_in_completed"`
	InsuranceVerified bool `json:"insurance_verified"`
	FormsCompleted    bool `json:"forms_completed"`
	CopayPaid         bool `json:"copay_paid"`
	VisitStarted      bool `json:"visit_started"`
	VisitEnded        bool `json:"visit_ended"`
	DischargeReady    bool `json:"discharge_ready"`
	DepartureStarted  bool `json:"departure_started"`

	QueuePosition        int       `json:"queue_position,omitempty"`
	EstimatedWaitMinutes int       `json:"estimated_wait_minutes,omitempty"`
	LastWaitUpdate       time.Time `json:"last_wait_update,omitempty"`

	Emergency EmergencyStatus `json:"emergency"`

	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`

	// Sealed carries the ciphertext when the state is stored through the encryption middleware.
	Sealed string `json:"sealed,omitempty"`
}

// NewJourneyState creates a session at the start of the progression.
func NewJourneyState(sessionID string, patient PatientInfo) *JourneyState {
	now := time.Now()
	return &JourneyState{
		SessionID:   sessionID,
		Patient:     patient,
		Stage:       StageArrival,
		StartedAt:   now,
		LastUpdated: now,
	}
}

// CurrentStage returns the stage the journey is in.
func (s *JourneyState) CurrentStage() Stage {
	return s.Stage
}

// EmergencyActive reports whether an emergency interrupt is in progress.
func (s *JourneyState) EmergencyActive() bool {
	return s.Emergency.Active
}

// AdvanceTo moves the journey forward. Moving to the current stage is a no-op.
func (s *JourneyState) AdvanceTo(stage Stage) error {
	if !stage.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownStage, int(stage))
	}
	if s.Emergency.Active {
		return fmt.Errorf("cannot move to %s: %w", stage, ErrEmergencyActive)
	}
	if stage.Before(s.Stage) {
		return fmt.Errorf("cannot move from %s to %s: %w", s.Stage, stage, ErrStageRegression)
	}
	s.Stage = stage
	return nil
}

// Enqueue appends steps to the pending queue.
func (s *JourneyState) Enqueue(steps ...Step) {
	s.PendingSteps = append(s.PendingSteps, steps...)
}

// Preempt puts steps at the head of the pending queue, ahead of anything already queued.
func (s *JourneyState) Preempt(steps ...Step) {
	if len(steps) == 0 {
		return
	}
	queue := make([]Step, 0, len(steps)+len(s.PendingSteps))
	queue = append(queue, steps...)
	s.PendingSteps = append(queue, s.PendingSteps...)
}

// HasPending reports whether a step with the given name is waiting in the queue.
func (s *JourneyState) HasPending(name string) bool {
	for _, st := range s.PendingSteps {
		if st.Name == name {
			return true
		}
	}
	return false
}

// AddTask adds a pending task unless a task with the same ID is pending or done.
func (s *JourneyState) AddTask(t Task) {
	if s.IsTaskComplete(t.ID) {
		return
	}
	for _, p := range s.PendingTasks {
		if p.ID == t.ID {
			return
		}
	}
	s.PendingTasks = append(s.PendingTasks, t)
}

// CompleteTask marks a task as done and removes it from the pending list.
func (s *JourneyState) CompleteTask(id string) {
	var kept []Task
	for _, p := range s.PendingTasks {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.PendingTasks = kept
	if !s.IsTaskComplete(id) {
		s.CompletedTasks = append(s.CompletedTasks, id)
	}
}

// IsTaskComplete reports whether the task ID is in the completed set.
func (s *JourneyState) IsTaskComplete(id string) bool {
	for _, c := range s.CompletedTasks {
		if c == id {
			return true
		}
	}
	return false
}

// Notify appends a notification, filling in its ID and timestamp when missing.
func (s *JourneyState) Notify(n Notification) Notification {
	if n.ID == "" {
		n.ID = fmt.Sprintf("%s-n%d", s.SessionID, len(s.Notifications)+1)
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	s.Notifications = append(s.Notifications, n)
	return n
}

// RecordEvent appends an audit entry for an inbound event.
func (s *JourneyState) RecordEvent(ev Event, steps []Step) {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	s.EventHistory = append(s.EventHistory, AuditEntry{
		Kind:      ev.Kind,
		Detail:    ev.Describe(),
		Steps:     StepNames(steps),
		Timestamp: ts,
	})
}

// Summary returns the listing view of the session.
func (s *JourneyState) Summary() SessionSummary {
	return SessionSummary{
		SessionID:       s.SessionID,
		PatientID:       s.Patient.PatientID,
		Stage:           s.Stage,
		EmergencyActive: s.Emergency.Active,
		LastUpdated:     s.LastUpdated,
	}
}

// Clone returns a deep copy of the state.
func (s *JourneyState) Clone() *JourneyState {
	if s == nil {
		return nil
	}
	out := *s
	out.CurrentLocation = cloneLocation(s.CurrentLocation)
	out.Emergency.Location = cloneLocation(s.Emergency.Location)

	if s.PendingSteps != nil {
		out.PendingSteps = make([]Step, len(s.PendingSteps))
		for i, st := range s.PendingSteps {
			out.PendingSteps[i] = st.clone()
		}
	}
	if s.PendingTasks != nil {
		out.PendingTasks = append([]Task(nil), s.PendingTasks...)
	}
	if s.CompletedTasks != nil {
		out.CompletedTasks = append([]string(nil), s.CompletedTasks...)
	}
	if s.Notifications != nil {
		out.Notifications = append([]Notification(nil), s.Notifications...)
	}
	if s.EventHistory != nil {
		out.EventHistory = make([]AuditEntry, len(s.EventHistory))
		for i, e := range s.EventHistory {
			e.Steps = append([]string(nil), e.Steps...)
			out.EventHistory[i] = e
		}
	}
	return &out
}

// Snapshot returns a read-only copy for collaborators.
func (s *JourneyState) Snapshot() JourneyState {
	return *s.Clone()
}

func cloneLocation(l *Location) *Location {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}
