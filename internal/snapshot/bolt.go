package snapshot

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("snapshots")

// BoltStore keeps snapshots in a single bbolt database file.
type BoltStore struct {
	db *bolt.DB
}

var _ Store = (*BoltStore)(nil)

// NewBoltStore opens (or creates) the database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Save(_ context.Context, name, payload string) error {
	if err := checkName(name); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(name), []byte(payload))
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func (s *BoltStore) Load(_ context.Context, name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	var payload string
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		// the value is only valid inside the transaction
		if v := tx.Bucket(boltBucket).Get([]byte(name)); v != nil {
			payload, found = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("load %s: %w", name, err)
	}
	if !found {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return payload, nil
}

func (s *BoltStore) List(_ context.Context) ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return names, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }
