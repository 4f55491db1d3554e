package state

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Store persists a [MigrationContext] to a bolt database, one bucket per cache.
type Store struct {
	db *bolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open state file %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Load reads every persisted entry into the context's committed state.
func (s *Store) Load(mc *MigrationContext) error {
	return s.db.View(func(tx *bolt.Tx) error {
		for _, cache := range mc.caches() {
			bucket := tx.Bucket([]byte(cache.Name()))
			if bucket == nil {
				continue
			}

			err := bucket.ForEach(func(k, v []byte) error {
				return cache.load(string(k), v)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Save writes the entries committed since the last save.
func (s *Store) Save(mc *MigrationContext) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, cache := range mc.caches() {
			entries, err := cache.dirtyEntries()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				continue
			}

			bucket, err := tx.CreateBucketIfNotExists([]byte(cache.Name()))
			if err != nil {
				return fmt.Errorf("failed to create bucket %q: %w", cache.Name(), err)
			}

			for key, value := range entries {
				if err = bucket.Put([]byte(key), value); err != nil {
					return fmt.Errorf("failed to write %s entry %q: %w", cache.Name(), key, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, cache := range mc.caches() {
		cache.clearDirty()
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
