package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/oboricienne/ordering/internal/domain"
)

var cartsBucket = []byte("carts")

// BoltStore persists snapshots in a single local bbolt file, one key per
// cart. This is the durable default: carts survive restarts without any
// external service.
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt file: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cartsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create carts bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Load(_ context.Context, key string) (domain.Snapshot, error) {
	var raw []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(cartsBucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		raw = make([]byte, len(v))
		copy(raw, v)
		return nil
	})
	if err != nil {
		return domain.Snapshot{}, err
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("unmarshal snapshot failed: %w", err)
	}
	return snap, nil
}

func (b *BoltStore) Save(_ context.Context, key string, snap domain.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cartsBucket).Put([]byte(key), raw)
	})
	if err != nil {
		return fmt.Errorf("bolt put failed: %w", err)
	}
	return nil
}

func (b *BoltStore) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cartsBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("bolt delete failed: %w", err)
	}
	return nil
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}
