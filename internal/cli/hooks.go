package cli

import (
	"context"
	"log/slog"

	"github.com/aretw0/carepath/pkg/domain"
)

// debugHooks logs every routing and step decision at debug level.
func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEventRouted: func(ctx context.Context, e *domain.RouteEvent) {
			logger.Debug("event routed", "session_id", e.SessionID, "event", string(e.Kind), "steps", e.Steps)
		},
		OnStepExecuted: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("step executed", "session_id", e.SessionID, "step", e.Step, "stage", e.Stage.String(), "duration", e.Duration)
		},
		OnStepDiscarded: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("step discarded", "session_id", e.SessionID, "step", e.Step, "reason", e.Reason)
		},
		OnStepFailed: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("step failed", "session_id", e.SessionID, "step", e.Step, "err", e.Err)
		},
		OnEmergency: func(ctx context.Context, e *domain.EmergencyEvent) {
			logger.Debug("emergency transition", "session_id", e.SessionID, "type", e.Type, "resolved", e.Resolved)
		},
	}
}
