package storage

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

// MemoryStore is a map-backed Store. Nothing survives Close.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	m.data[string(key)] = bytes.Clone(value)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	delete(m.data, string(key))
	return nil
}

// Scan visits a snapshot taken under the read lock, so fn may call back
// into the store.
func (m *MemoryStore) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	m.mu.RLock()
	if err := m.check(ctx); err != nil {
		m.mu.RUnlock()
		return err
	}
	type kv struct{ k, v []byte }
	var items []kv
	for k, v := range m.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			items = append(items, kv{[]byte(k), bytes.Clone(v)})
		}
	}
	m.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return bytes.Compare(items[i].k, items[j].k) < 0 })
	for _, it := range items {
		if !fn(it.k, it.v) {
			break
		}
	}
	return nil
}

func (m *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	var size uint64
	for k, v := range m.data {
		size += uint64(len(k) + len(v))
	}
	return &Stats{Keys: int64(len(m.data)), LSMSize: size}, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = nil
	return nil
}

// check must be called with the lock held.
func (m *MemoryStore) check(ctx context.Context) error {
	if m.closed {
		return ErrClosed
	}
	return ctx.Err()
}
