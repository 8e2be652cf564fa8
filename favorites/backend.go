package favorites

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Backend is a key-value slot store. Load returns (nil, nil) for an empty slot.
type Backend interface {
	Load(slot string) ([]byte, error)
	Save(slot string, data []byte) error
}

var bucketName = []byte("cinedex")

// BoltBackend keeps slots in a single bbolt bucket
type BoltBackend struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the database file at path
func OpenBolt(path string) (*BoltBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create favorites directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open favorites database %s: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize favorites database: %w", err)
	}

	return &BoltBackend{db: db}, nil
}

// Load returns a copy of the slot's bytes
func (b *BoltBackend) Load(slot string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket == nil {
			return nil
		}
		// Values are only valid inside the transaction.
		if v := bucket.Get([]byte(slot)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", slot, err)
	}
	return data, nil
}

// Save replaces the slot's bytes in one transaction
func (b *BoltBackend) Save(slot string, data []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(slot), data)
	})
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", slot, err)
	}
	return nil
}

// Close closes the database file
func (b *BoltBackend) Close() error {
	return b.db.Close()
}

// MemoryBackend keeps slots in memory
type MemoryBackend struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{slots: make(map[string][]byte)}
}

// Load returns a copy of the slot's bytes
func (m *MemoryBackend) Load(slot string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.slots[slot]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// Save replaces the slot's bytes
func (m *MemoryBackend) Save(slot string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots[slot] = append([]byte(nil), data...)
	return nil
}
