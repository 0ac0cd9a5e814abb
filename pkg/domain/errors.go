package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrStageRegression is returned when a stage change would move the journey backwards.
var ErrStageRegression = errors.New("stage regression")

// ErrEmergencyActive is returned when a regular stage change is attempted during an emergency.
var ErrEmergencyActive = errors.New("emergency active")

// ErrUnknownStage is returned when a string does not name a journey stage.
var ErrUnknownStage = errors.New("unknown stage")

// ErrInvalidEvent is returned for events whose payload does not match their kind.
var ErrInvalidEvent = errors.New("invalid event")

// ErrHandlerTimeout is reported when a handler exceeds its time budget.
var ErrHandlerTimeout = errors.New("handler timed out")
