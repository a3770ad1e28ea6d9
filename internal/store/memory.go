package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/skyfall-io/impact-sim-service/internal/domain"
)

// MemoryStore is a mutex-guarded in-memory ScenarioStore with the same
// semantics as the SQLite backend. Used in tests and ephemeral runs.
type MemoryStore struct {
	mu        sync.Mutex
	scenarios []domain.ImpactScenario
	index     map[string]int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[string]int)}
}

func (m *MemoryStore) Ping(_ context.Context) error { return nil }

func (m *MemoryStore) Create(_ context.Context, scenario domain.ImpactScenario) (domain.ImpactScenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if scenario.ID == "" {
		scenario.ID = "sim-" + uuid.NewString()
	}
	if _, exists := m.index[scenario.ID]; exists {
		return domain.ImpactScenario{}, fmt.Errorf("%w: duplicate scenario id %s", domain.ErrStorage, scenario.ID)
	}

	m.index[scenario.ID] = len(m.scenarios)
	m.scenarios = append(m.scenarios, scenario)
	return scenario, nil
}

func (m *MemoryStore) List(_ context.Context) ([]domain.ImpactScenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.ImpactScenario, len(m.scenarios))
	copy(out, m.scenarios)
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (domain.ImpactScenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return domain.ImpactScenario{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return m.scenarios[i], nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	m.scenarios = append(m.scenarios[:i], m.scenarios[i+1:]...)
	delete(m.index, id)
	for j := i; j < len(m.scenarios); j++ {
		m.index[m.scenarios[j].ID] = j
	}
	return nil
}
