package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/ndaify-go/internal/telemetry/metric"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "ndas\x1fnda-1", Key{"ndas", "nda-1"}.String())

	assert.True(t, Key{"ndas"}.Covers(Key{"ndas"}))
	assert.True(t, Key{"ndas"}.Covers(Key{"ndas", "nda-1"}))
	assert.False(t, Key{"ndas", "nda-1"}.Covers(Key{"ndas"}))
	assert.False(t, Key{"ndas"}.Covers(Key{"ndas-archive"}))
	assert.False(t, Key{"ndas"}.Covers(Key{"session"}))
}

func TestCache_SetGet(t *testing.T) {
	c := NewManager().Default()

	_, ok := c.Get(Key{"session"})
	assert.False(t, ok)

	c.Set(Key{"session"}, json.RawMessage(`{"user":{"userId":"u1"}}`))
	raw, ok := c.Get(Key{"session"})
	require.True(t, ok)
	assert.JSONEq(t, `{"user":{"userId":"u1"}}`, string(raw))

	c.Set(Key{"empty"}, nil)
	_, ok = c.Get(Key{"empty"})
	assert.False(t, ok, "empty values are not stored")
	assert.Equal(t, 1, c.Len())
}

func TestCache_SetCopies(t *testing.T) {
	c := NewManager().Default()
	buf := []byte(`{"a":1}`)
	c.Set(Key{"x"}, buf)
	buf[2] = 'b'

	raw, ok := c.Get(Key{"x"})
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(raw))
}

func TestCache_InvalidatePrefix(t *testing.T) {
	c := NewManager().Default()
	c.Set(Key{"ndas"}, json.RawMessage(`[]`))
	c.Set(Key{"ndas", "1"}, json.RawMessage(`{}`))
	c.Set(Key{"ndas", "2"}, json.RawMessage(`{}`))
	c.Set(Key{"ndas-archive"}, json.RawMessage(`{}`))
	c.Set(Key{"session"}, json.RawMessage(`{}`))

	n := c.Invalidate(Key{"ndas"})
	assert.Equal(t, 3, n)
	assert.Equal(t, []Key{{"ndas-archive"}, {"session"}}, c.Keys())

	assert.Equal(t, 0, c.Invalidate(Key{"api-keys"}))
}

func TestCache_Stale(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := NewManager(WithStaleAfter(time.Minute), WithClock(clock)).Default()

	c.Set(Key{"ndas"}, json.RawMessage(`[]`))
	_, ok := c.Get(Key{"ndas"})
	assert.True(t, ok)

	now = now.Add(59 * time.Second)
	_, ok = c.Get(Key{"ndas"})
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get(Key{"ndas"})
	assert.False(t, ok, "entry at the threshold is stale")

	c.Set(Key{"ndas"}, json.RawMessage(`[1]`))
	raw, ok := c.Get(Key{"ndas"})
	assert.True(t, ok, "refresh resets the age")
	assert.Equal(t, `[1]`, string(raw))
}

func TestManager_ClearAll(t *testing.T) {
	m := NewManager()
	m.Default().Set(Key{"session"}, json.RawMessage(`{}`))
	m.Cache("templates").Set(Key{"t"}, json.RawMessage(`{}`))
	assert.Same(t, m.Default(), m.Cache(DefaultCacheName))

	m.ClearAll()

	assert.Equal(t, 0, m.Default().Len())
	assert.Equal(t, 0, m.Cache("templates").Len())
}

func TestCache_SetValueAtDropsAfterInvalidation(t *testing.T) {
	m := NewManager()
	c := m.Default()

	gen := c.Generation()
	stored, err := c.SetValueAt(gen, Key{"ndas"}, []string{"n1"})
	require.NoError(t, err)
	assert.True(t, stored)

	gen = c.Generation()
	c.Invalidate(Key{"other"})
	stored, err = c.SetValueAt(gen, Key{"ndas", "n1"}, "x")
	require.NoError(t, err)
	assert.False(t, stored, "an invalidation of any key advances the generation")

	gen = c.Generation()
	m.ClearAll()
	stored, err = c.SetValueAt(gen, Key{"session"}, "u1")
	require.NoError(t, err)
	assert.False(t, stored)
	assert.Zero(t, c.Len())

	_, err = c.SetValueAt(c.Generation(), Key{"bad"}, func() {})
	assert.Error(t, err)
}

func TestWithCache(t *testing.T) {
	c := NewManager().Default()
	misses := 0

	onHit := func(k Key, raw json.RawMessage) (string, error) {
		var v struct {
			Name string `json:"name"`
		}
		err := json.Unmarshal(raw, &v)
		return "hit:" + v.Name, err
	}
	onMiss := func(k Key) (string, error) {
		misses++
		_ = c.SetValue(k, map[string]string{"name": "fresh"})
		return "miss", nil
	}

	got, err := WithCache(c, Key{"session"}, onHit, onMiss)
	require.NoError(t, err)
	assert.Equal(t, "miss", got)

	got, err = WithCache(c, Key{"session"}, onHit, onMiss)
	require.NoError(t, err)
	assert.Equal(t, "hit:fresh", got)
	assert.Equal(t, 1, misses, "a hit never calls onMiss")
}

func TestWithCache_MissErrorNotCached(t *testing.T) {
	c := NewManager().Default()
	boom := errors.New("boom")

	_, err := WithCache(c, Key{"ndas"},
		func(Key, json.RawMessage) (int, error) { return 1, nil },
		func(Key) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Metrics(t *testing.T) {
	reg := metric.NewRegistry()
	c := NewManager(WithMetrics(reg)).Default()

	c.Get(Key{"a"})
	c.Set(Key{"a"}, json.RawMessage(`1`))
	c.Get(Key{"a"})
	c.Invalidate(Key{"a"})

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CacheLookups.WithLabelValues("api", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CacheLookups.WithLabelValues("api", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CacheInvalidated.WithLabelValues("api")))
}

func TestShardedMap_ShardCount(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{8, 8},
		{64, 64},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.in), func(t *testing.T) {
			assert.Len(t, newShardedMap[int](tt.in).shards, tt.want)
		})
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := NewManager(WithShards(4)).Default()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := Key{"ndas", fmt.Sprintf("%d-%d", g, i)}
				c.Set(key, json.RawMessage(`{}`))
				c.Get(key)
				if i%50 == 0 {
					c.Invalidate(Key{"ndas", fmt.Sprintf("%d-%d", g, i)})
				}
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 8*200-8*4, c.Len())
}
