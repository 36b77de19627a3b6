// Package memory implements the ability to read and write the node record
// to memory.
package memory

import (
	"sync"

	"github.com/ardanlabs/powchain/foundation/blockchain/storage"
)

// Memory represents the serialization implementation for storing the
// node record in memory. The record is kept in its encoded form so callers
// never share slices with the store. This implements the storage.Storage
// interface.
type Memory struct {
	mu    sync.RWMutex
	data  []byte
	saves int
}

// New constructs an Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Load decodes the last saved record.
func (m *Memory) Load() (storage.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.data == nil {
		return storage.Record{}, storage.ErrNotFound
	}

	return storage.Decode(m.data)
}

// Save encodes and keeps the record.
func (m *Memory) Save(record storage.Record) error {
	data, err := storage.Encode(record)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = data
	m.saves++

	return nil
}

// SetRaw replaces the stored bytes without decoding them.
func (m *Memory) SetRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = append([]byte(nil), data...)
}

// Saves returns the number of times Save succeeded.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.saves
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}
