package http

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/carepath/internal/logging"
	"github.com/aretw0/carepath/pkg/domain"
)

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager. A nil logger discards output.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for the session and returns it with its cancel func.
func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, live := subs[ch]; !live {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Subscribers returns the number of open streams for the session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast sends msg to every subscriber of the session. Slow clients drop messages.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("sse client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// Publish encodes a state diff and broadcasts it. It matches carepath.StateListener.
func (sm *StreamManager) Publish(diff *domain.StateDiff) {
	if diff == nil {
		return
	}
	b, err := json.Marshal(diff)
	if err != nil {
		sm.logger.Error("failed to encode state diff", "session_id", diff.SessionID, "err", err)
		return
	}
	sm.Broadcast(diff.SessionID, string(b))
}

// watchMatches reports whether the diff carries any of the watched fields.
func watchMatches(msg string, watch []string) bool {
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watch {
		switch field {
		case "stage":
			if diff.Stage != nil {
				return true
			}
		case "emergency":
			if diff.Emergency != nil {
				return true
			}
		case "location":
			if diff.DetectedArea != nil {
				return true
			}
		case "queue":
			if diff.QueuePosition != nil || diff.EstimatedWaitMinutes != nil {
				return true
			}
		case "tasks":
			if diff.PendingTasks != nil {
				return true
			}
		case "notifications":
			if len(diff.Notifications) > 0 {
				return true
			}
		case "history":
			if len(diff.History) > 0 {
				return true
			}
		}
	}
	return false
}
