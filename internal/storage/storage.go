package storage

import (
	"context"
	"errors"

	"github.com/oboricienne/ordering/internal/domain"
)

// SnapshotStore persists whole cart snapshots under a key. Implementations
// serialize the full snapshot as JSON; there is no partial update.
type SnapshotStore interface {
	Load(ctx context.Context, key string) (domain.Snapshot, error)
	Save(ctx context.Context, key string, snap domain.Snapshot) error
	Delete(ctx context.Context, key string) error
}

var ErrNotFound = errors.New("snapshot not found")
