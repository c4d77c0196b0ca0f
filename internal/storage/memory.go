package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/oboricienne/ordering/internal/domain"
)

// MemoryStore keeps serialized snapshots in a map. Used in tests and for
// local development without a storage backend.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, key string) (domain.Snapshot, error) {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return domain.Snapshot{}, ErrNotFound
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("unmarshal snapshot failed: %w", err)
	}
	return snap, nil
}

func (m *MemoryStore) Save(_ context.Context, key string, snap domain.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}

	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}
