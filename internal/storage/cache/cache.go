// Package cache holds API responses in memory keyed by structured query keys.
package cache

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/ndaify-go/internal/telemetry/metric"
)

// keySep joins key parts; it cannot appear in ids or collection names.
const keySep = "\x1f"

// DefaultCacheName is the cache used for API responses.
const DefaultCacheName = "api"

// Key identifies a cached response, e.g. Key{"ndas"} or Key{"ndas", id}.
type Key []string

func (k Key) String() string {
	return strings.Join(k, keySep)
}

// Covers reports whether other equals k or starts with all of k's parts.
func (k Key) Covers(other Key) bool {
	if len(other) < len(k) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

func parseKey(s string) Key {
	return Key(strings.Split(s, keySep))
}

type entry struct {
	raw       json.RawMessage
	fetchedAt time.Time
}

// Cache is one named response cache.
//
// Every Invalidate and Clear advances the generation. A reader that fetched
// under an older generation stores its result with SetValueAt, which drops
// it, so a response started before an invalidation never lands after it.
type Cache struct {
	name       string
	items      *shardedMap[entry]
	staleAfter time.Duration
	now        func() time.Time
	metrics    *metric.Registry

	mu  sync.Mutex
	gen uint64
}

// Name returns the cache name.
func (c *Cache) Name() string {
	return c.name
}

// Get returns the raw response stored under key. Empty entries and entries
// older than the stale threshold are misses.
func (c *Cache) Get(key Key) (json.RawMessage, bool) {
	e, ok := c.items.get(key.String())
	if ok && (len(e.raw) == 0 || c.isStale(e)) {
		ok = false
	}
	c.metrics.ObserveCacheLookup(c.name, ok)
	if !ok {
		return nil, false
	}
	return e.raw, true
}

func (c *Cache) isStale(e entry) bool {
	return c.staleAfter > 0 && c.now().Sub(e.fetchedAt) >= c.staleAfter
}

// Set stores raw under key. A nil or empty value is not stored.
func (c *Cache) Set(key Key, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	c.items.set(key.String(), entry{raw: cp, fetchedAt: c.now()})
}

// SetValue stores v encoded as JSON.
func (c *Cache) SetValue(key Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.Set(key, raw)
	return nil
}

// Generation returns the current invalidation generation.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// SetValueAt stores v only if no invalidation happened since gen was read.
// It reports whether the value was stored.
func (c *Cache) SetValueAt(gen uint64, key Key, v any) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false, nil
	}
	c.Set(key, raw)
	return true, nil
}

// Invalidate removes key and every key it covers, returning the count.
func (c *Cache) Invalidate(key Key) int {
	c.mu.Lock()
	n := c.items.deleteIf(func(s string) bool {
		return key.Covers(parseKey(s))
	})
	c.gen++
	c.mu.Unlock()
	c.metrics.ObserveInvalidation(c.name, n)
	return n
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	n := c.items.clear()
	c.gen++
	c.mu.Unlock()
	c.metrics.ObserveInvalidation(c.name, n)
}

// Len returns the number of entries, stale ones included.
func (c *Cache) Len() int {
	return c.items.count()
}

// Keys returns the stored keys in sorted order.
func (c *Cache) Keys() []Key {
	raw := c.items.keys()
	sort.Strings(raw)
	out := make([]Key, len(raw))
	for i, s := range raw {
		out[i] = parseKey(s)
	}
	return out
}

// Option configures a Manager.
type Option func(*Manager)

// WithStaleAfter makes entries older than d count as misses. 0 disables.
func WithStaleAfter(d time.Duration) Option {
	return func(m *Manager) { m.staleAfter = d }
}

// WithMetrics records hits, misses and invalidations.
func WithMetrics(r *metric.Registry) Option {
	return func(m *Manager) { m.metrics = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithShards sets the shard count of new caches.
func WithShards(n int) Option {
	return func(m *Manager) { m.shards = n }
}

// Manager owns the named caches of a process.
type Manager struct {
	mu         sync.Mutex
	caches     map[string]*Cache
	staleAfter time.Duration
	shards     int
	now        func() time.Time
	metrics    *metric.Registry
}

// NewManager creates a Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		caches: make(map[string]*Cache),
		shards: DefaultShardCount,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Cache returns the named cache, creating it on first use.
func (m *Manager) Cache(name string) *Cache {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.caches[name]; ok {
		return c
	}
	c := &Cache{
		name:       name,
		items:      newShardedMap[entry](m.shards),
		staleAfter: m.staleAfter,
		now:        m.now,
		metrics:    m.metrics,
	}
	m.caches[name] = c
	return c
}

// Default returns the API response cache.
func (m *Manager) Default() *Cache {
	return m.Cache(DefaultCacheName)
}

// ClearAll empties every cache. Called when the session ends.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	caches := make([]*Cache, 0, len(m.caches))
	for _, c := range m.caches {
		caches = append(caches, c)
	}
	m.mu.Unlock()

	for _, c := range caches {
		c.Clear()
	}
}

// WithCache serves key from c when present, calling onHit with the cached
// bytes; otherwise it calls onMiss. The miss path never touches the cache,
// so callers decide whether and what to store.
func WithCache[T any](c *Cache, key Key, onHit func(Key, json.RawMessage) (T, error), onMiss func(Key) (T, error)) (T, error) {
	if raw, ok := c.Get(key); ok {
		return onHit(key, raw)
	}
	return onMiss(key)
}
