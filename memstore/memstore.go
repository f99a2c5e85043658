// Package memstore provides an in-memory key-value storage implementation.
//
// Memstore allows storing, retrieving, and deleting client state keyed by
// a string. It is suitable for tests and for one-shot runs where nothing
// needs to survive the process. It is not persistent and does not share
// state across processes.
package memstore

import (
	"sync"
)

// Memstore is an in-memory storage for client state.
// It is safe for concurrent use by multiple goroutines.
type Memstore struct {
	entries sync.Map
}

// New creates and returns a new Memstore instance.
func New() *Memstore {
	return &Memstore{}
}

// Get retrieves the data associated with the given key. Returns the data,
// a boolean indicating whether the key was found, and an error. The
// returned slice is a copy, so callers may modify it freely.
func (m *Memstore) Get(key string) ([]byte, bool, error) {
	v, ok := m.entries.Load(key)
	if !ok {
		return []byte{}, false, nil
	}

	data := v.([]byte)
	return append([]byte(nil), data...), true, nil
}

// Set stores the data under the given key. If a value with the same key
// already exists, it is overwritten.
func (m *Memstore) Set(key string, data []byte) error {
	m.entries.Store(key, append([]byte(nil), data...))
	return nil
}

// Delete removes the data associated with the given key. If the key does
// not exist, this is a no-op.
func (m *Memstore) Delete(key string) error {
	m.entries.Delete(key)
	return nil
}

// Count returns the number of keys currently stored.
func (m *Memstore) Count() int {
	count := 0
	m.entries.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}
