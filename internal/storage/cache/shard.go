package cache

import (
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShardCount is the default number of shards.
const DefaultShardCount = 16

// shardedMap is a string-keyed map split across independently locked shards.
// Keys are assigned to shards by their murmur3 hash.
type shardedMap[V any] struct {
	shards []*shard[V]
	mask   uint64
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// newShardedMap creates a map with n shards. n must be a power of 2;
// anything else falls back to DefaultShardCount.
func newShardedMap[V any](n int) *shardedMap[V] {
	if n <= 0 || n&(n-1) != 0 {
		n = DefaultShardCount
	}
	m := &shardedMap[V]{
		shards: make([]*shard[V], n),
		mask:   uint64(n - 1),
	}
	for i := range m.shards {
		m.shards[i] = &shard[V]{items: make(map[string]V)}
	}
	return m
}

func (m *shardedMap[V]) shardFor(key string) *shard[V] {
	return m.shards[murmur3.Sum64([]byte(key))&m.mask]
}

func (m *shardedMap[V]) get(key string) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

func (m *shardedMap[V]) set(key string, v V) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = v
}

// deleteIf removes every item for which match returns true and reports how
// many were removed. Shards are locked one at a time.
func (m *shardedMap[V]) deleteIf(match func(key string) bool) int {
	removed := 0
	for _, s := range m.shards {
		s.mu.Lock()
		for k := range s.items {
			if match(k) {
				delete(s.items, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

func (m *shardedMap[V]) count() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

func (m *shardedMap[V]) clear() int {
	removed := 0
	for _, s := range m.shards {
		s.mu.Lock()
		removed += len(s.items)
		s.items = make(map[string]V)
		s.mu.Unlock()
	}
	return removed
}

func (m *shardedMap[V]) keys() []string {
	out := make([]string, 0, m.count())
	for _, s := range m.shards {
		s.mu.RLock()
		for k := range s.items {
			out = append(out, k)
		}
		s.mu.RUnlock()
	}
	return out
}
