package domain

import (
	"fmt"
	"strings"
)

// Stage is a position in the patient journey.
type Stage int

const (
	StageArrival Stage = iota
	StageCheckIn
	StagePreVisit
	StageWaiting
	StageInVisit
	StagePostVisit
	StageDeparture
	StageCompleted
)

// Progression is the canonical order of stages. Journeys only move forward along it.
var Progression = []Stage{
	StageArrival,
	StageCheckIn,
	StagePreVisit,
	StageWaiting,
	StageInVisit,
	StagePostVisit,
	StageDeparture,
	StageCompleted,
}

var stageNames = map[Stage]string{
	StageArrival:   "arrival",
	StageCheckIn:   "check_in",
	StagePreVisit:  "pre_visit",
	StageWaiting:   "waiting",
	StageInVisit:   "in_visit",
	StagePostVisit: "post_visit",
	StageDeparture: "departure",
	StageCompleted: "completed",
}

// String returns the wire name of the stage.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Index returns the position of the stage in Progression, or -1 if unknown.
func (s Stage) Index() int {
	for i, st := range Progression {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is part of Progression.
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// Before reports whether s comes strictly earlier than other.
func (s Stage) Before(other Stage) bool {
	return s.Index() < other.Index()
}

// ParseStage converts a wire name into a Stage.
func ParseStage(name string) (Stage, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for st, n := range stageNames {
		if n == name {
			return st, nil
		}
	}
	return StageArrival, fmt.Errorf("%w: %q", ErrUnknownStage, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStage, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	st, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}
