package ports_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/aretw0/carepath/pkg/domain"
	"github.com/aretw0/carepath/pkg/ports"
)

// jsonStore simulates serialization so the contract sees copy semantics.
type jsonStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *jsonStore) Save(ctx context.Context, sessionID string, state *domain.JourneyState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = b
	return nil
}

func (m *jsonStore) Load(ctx context.Context, sessionID string) (*domain.JourneyState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var s domain.JourneyState
	return &s, json.Unmarshal(b, &s)
}

func (m *jsonStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *jsonStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestSessionStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, &jsonStore{data: map[string][]byte{}})
}
