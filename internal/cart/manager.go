package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/oboricienne/ordering/internal/storage"
)

// Manager hands out one Store per cart id. The first request for a cart
// restores it from storage; singleflight keeps concurrent requests for the
// same id from racing that restore.
type Manager struct {
	storage storage.SnapshotStore
	log     zerolog.Logger
	sfg     singleflight.Group

	mu     sync.Mutex
	stores map[string]*Store
}

func NewManager(st storage.SnapshotStore, log zerolog.Logger) *Manager {
	return &Manager{
		storage: st,
		log:     log,
		stores:  make(map[string]*Store),
	}
}

// Get returns the store for cartID, restoring it from storage on first use.
func (m *Manager) Get(ctx context.Context, cartID string) *Store {
	m.mu.Lock()
	if s, ok := m.stores[cartID]; ok {
		m.mu.Unlock()
		return s
	}
	m.mu.Unlock()

	v, _, _ := m.sfg.Do(cartID, func() (interface{}, error) {
		s := NewStore(ctx, storageKey(cartID), m.storage, m.log)
		m.mu.Lock()
		m.stores[cartID] = s
		m.mu.Unlock()
		return s, nil
	})
	return v.(*Store)
}

func storageKey(cartID string) string {
	return fmt.Sprintf("cart:%s", cartID)
}
