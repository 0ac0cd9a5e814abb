package domain

import "reflect"

// StateDiff represents the changes between two journey states.
// It is serialized to JSON for partial updates on subscribed clients.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Stage        *Stage           `json:"stage,omitempty"`
	Emergency    *EmergencyStatus `json:"emergency,omitempty"`
	DetectedArea *Area            `json:"detected_area,omitempty"`

	QueuePosition        *int `json:"queue_position,omitempty"`
	EstimatedWaitMinutes *int `json:"estimated_wait_minutes,omitempty"`

	// PendingTasks is the full task list whenever it changed.
	PendingTasks []Task `json:"pending_tasks,omitempty"`

	// Notifications and History hold only entries appended since the old state.
	Notifications []Notification `json:"notifications,omitempty"`
	History       []AuditEntry   `json:"history,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
func Diff(oldState, newState *JourneyState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{SessionID: newState.SessionID}

	if oldState == nil || oldState.Stage != newState.Stage {
		st := newState.Stage
		diff.Stage = &st
	}
	if oldState == nil || !reflect.DeepEqual(oldState.Emergency, newState.Emergency) {
		em := newState.Emergency
		diff.Emergency = &em
	}
	if oldState == nil || oldState.DetectedArea != newState.DetectedArea {
		if newState.DetectedArea != "" {
			area := newState.DetectedArea
			diff.DetectedArea = &area
		}
	}
	if oldState == nil || oldState.QueuePosition != newState.QueuePosition {
		pos := newState.QueuePosition
		diff.QueuePosition = &pos
	}
	if oldState == nil || oldState.EstimatedWaitMinutes != newState.EstimatedWaitMinutes {
		wait := newState.EstimatedWaitMinutes
		diff.EstimatedWaitMinutes = &wait
	}
	if oldState == nil && len(newState.PendingTasks) > 0 ||
		oldState != nil && !sameTasks(oldState.PendingTasks, newState.PendingTasks) {
		diff.PendingTasks = append([]Task{}, newState.PendingTasks...)
	}

	diff.Notifications = appended(oldState, newState, func(s *JourneyState) []Notification { return s.Notifications })
	diff.History = appended(oldState, newState, func(s *JourneyState) []AuditEntry { return s.EventHistory })

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// appended assumes append-only slices and returns the new tail.
func appended[T any](old, new *JourneyState, get func(*JourneyState) []T) []T {
	items := get(new)
	if len(items) == 0 {
		return nil
	}
	if old == nil {
		return items
	}
	if n := len(get(old)); len(items) > n {
		return items[n:]
	}
	return nil
}

func sameTasks(a, b []Task) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Stage == nil &&
		d.Emergency == nil &&
		d.DetectedArea == nil &&
		d.QueuePosition == nil &&
		d.EstimatedWaitMinutes == nil &&
		d.PendingTasks == nil &&
		len(d.Notifications) == 0 &&
		len(d.History) == 0
}
