// Package guardrail holds the declarative table of step preconditions consulted by the
// executor before a named step runs. Parameterized and emergency steps are never guarded.
package guardrail

import (
	"sync"

	"github.com/aretw0/carepath/pkg/domain"
)

// Guard reports whether a named step may run against the given state.
type Guard func(state *domain.JourneyState) bool

// Table maps step names to guards. Steps without an entry are allowed.
type Table struct {
	mu     sync.RWMutex
	guards map[string]Guard
}

// New creates an empty table.
func New() *Table {
	return &Table{guards: make(map[string]Guard)}
}

// Default returns the standard clinical preconditions.
func Default() *Table {
	t := New()
	t.Register(domain.StepInitiateCheckIn, func(s *domain.JourneyState) bool {
		return s.Stage == domain.StageArrival && !s.CheckInCompleted
	})
	t.Register(domain.StepCompleteCheckIn, func(s *domain.JourneyState) bool {
		return s.CheckInStarted && s.InsuranceVerified
	})
	// Joining the queue is what moves a patient to Waiting.
	t.Register(domain.StepUpdateQueue, func(s *domain.JourneyState) bool {
		return s.CheckInCompleted
	})
	t.Register(domain.StepStartVisit, func(s *domain.JourneyState) bool {
		return s.CheckInCompleted
	})
	t.Register(domain.StepEndVisit, func(s *domain.JourneyState) bool {
		return s.VisitStarted
	})
	visitEnded := func(s *domain.JourneyState) bool { return s.VisitEnded }
	t.Register(domain.StepCreatePostVisitTasks, visitEnded)
	t.Register(domain.StepGenerateDischarge, visitEnded)
	t.Register(domain.StepInitiateDeparture, visitEnded)
	t.Register(domain.StepCompleteJourney, func(s *domain.JourneyState) bool {
		return s.Stage == domain.StageDeparture
	})
	return t
}

// Register adds or replaces the guard for a step name.
func (t *Table) Register(name string, guard Guard) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.guards[name] = guard
}

// IsAllowed evaluates the guard for the step.
func (t *Table) IsAllowed(step domain.Step, state *domain.JourneyState) bool {
	t.mu.RLock()
	guard, ok := t.guards[step.Name]
	t.mu.RUnlock()
	if !ok {
		return true
	}
	return guard(state)
}
