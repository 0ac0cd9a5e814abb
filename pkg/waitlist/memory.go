package waitlist

import (
	"context"
	"sync"
)

// Memory implements ports.WaitList in memory.
// Safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	queues map[string][]string
}

// NewMemory creates an empty in-memory wait list.
func NewMemory() *Memory {
	return &Memory{queues: make(map[string][]string)}
}

// Join appends the patient to the queue. Joining twice keeps the original place.
func (m *Memory) Join(ctx context.Context, queue, patientID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pos := indexOf(m.queues[queue], patientID); pos > 0 {
		return pos, nil
	}
	m.queues[queue] = append(m.queues[queue], patientID)
	return len(m.queues[queue]), nil
}

// Position returns the 1-based place of the patient, or 0 when not queued.
func (m *Memory) Position(ctx context.Context, queue, patientID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return indexOf(m.queues[queue], patientID), nil
}

// Leave removes the patient from the queue.
func (m *Memory) Leave(ctx context.Context, queue, patientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.queues[queue]
	pos := indexOf(q, patientID)
	if pos == 0 {
		return nil
	}
	q = append(q[:pos-1], q[pos:]...)
	if len(q) == 0 {
		delete(m.queues, queue)
		return nil
	}
	m.queues[queue] = q
	return nil
}

func indexOf(q []string, id string) int {
	for i, v := range q {
		if v == id {
			return i + 1
		}
	}
	return 0
}
