package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/c360/panicstore/storeclient"
)

// MockStore is an in-memory store for testing the read and write paths.
// It records every batched read so tests can assert on store access.
type MockStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	batches [][]string
	writes  int

	// ExecuteErr, when set, fails every Execute and Set
	ExecuteErr error
}

// NewMockStore creates a store holding the given raw values
func NewMockStore(values map[string]string) *MockStore {
	m := &MockStore{data: make(map[string][]byte, len(values))}
	for k, v := range values {
		m.data[k] = []byte(v)
	}
	return m
}

// Execute answers a batched read in key order.
func (m *MockStore) Execute(_ context.Context, req storeclient.BatchRead) ([]storeclient.Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batches = append(m.batches, append([]string(nil), req.Keys...))
	if m.ExecuteErr != nil {
		return nil, m.ExecuteErr
	}

	out := make([]storeclient.Value, 0, len(req.Keys))
	for _, key := range req.Keys {
		data, ok := m.data[key]
		out = append(out, storeclient.Value{Key: key, Data: data, Found: ok})
	}
	return out, nil
}

// Set stores value under key; ttl is ignored.
func (m *MockStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ExecuteErr != nil {
		return m.ExecuteErr
	}
	m.writes++
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Reads returns how many batched reads were served
func (m *MockStore) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

// Writes returns how many values were stored
func (m *MockStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Batches returns a copy of the key lists of every read
func (m *MockStore) Batches() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]string, len(m.batches))
	for i, b := range m.batches {
		out[i] = append([]string(nil), b...)
	}
	return out
}

// Value returns the raw stored value
func (m *MockStore) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return string(v), ok
}
