// Package notify delivers journey notifications to outbound channels.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aretw0/carepath/internal/logging"
	"github.com/aretw0/carepath/pkg/domain"
	"github.com/aretw0/carepath/pkg/ports"
)

// Log writes every notification to a structured logger.
type Log struct {
	logger *slog.Logger
}

var _ ports.Notifier = (*Log)(nil)

// NewLog creates a notifier that logs at info level, or warn for high-priority alerts.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Log{logger: logger}
}

// Notify logs the notification.
func (l *Log) Notify(ctx context.Context, sessionID string, n domain.Notification) error {
	level := slog.LevelInfo
	if n.Priority == domain.PriorityCritical || n.Priority == domain.PriorityHigh {
		level = slog.LevelWarn
	}
	l.logger.Log(ctx, level, "notification",
		"session_id", sessionID,
		"id", n.ID,
		"type", string(n.Type),
		"priority", string(n.Priority),
		"title", n.Title,
		"step", n.Step,
	)
	return nil
}

// Fanout delivers to several notifiers and joins their errors.
type Fanout []ports.Notifier

// Notify calls every notifier, even after a failure.
func (f Fanout) Notify(ctx context.Context, sessionID string, n domain.Notification) error {
	var errs []error
	for _, target := range f {
		if err := target.Notify(ctx, sessionID, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps notifications in memory, grouped by session.
type Recorder struct {
	mu   sync.Mutex
	sent map[string][]domain.Notification
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{sent: make(map[string][]domain.Notification)}
}

// Notify records n.
func (r *Recorder) Notify(ctx context.Context, sessionID string, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[sessionID] = append(r.sent[sessionID], n)
	return nil
}

// Sent returns a copy of the notifications delivered for a session.
func (r *Recorder) Sent(sessionID string) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.sent[sessionID]...)
}
