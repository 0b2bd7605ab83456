package storage

import (
	"context"
	"errors"
	"time"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("store closed")
)

// Store is the embedded key-value store behind the settings.
//
// Implementations are safe for concurrent use. Values returned by Get and
// passed to Scan callbacks are copies owned by the caller.
type Store interface {
	// Get returns ErrKeyNotFound when key does not exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	Set(ctx context.Context, key, value []byte) error

	// Delete is a no-op for a missing key.
	Delete(ctx context.Context, key []byte) error

	// Scan visits keys with the given prefix in byte order until fn
	// returns false.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error

	Stats(ctx context.Context) (*Stats, error)

	Close() error
}

// Stats describes store usage.
type Stats struct {
	// Keys is exact for the memory store and -1 for Badger.
	Keys int64

	LSMSize      uint64
	ValueLogSize uint64

	// LastGC is zero until the first value log GC.
	LastGC time.Time
}

// TotalSize returns the on-disk footprint.
func (s *Stats) TotalSize() uint64 {
	return s.LSMSize + s.ValueLogSize
}

// Config configures the Badger store.
type Config struct {
	// Dir is the data directory. Empty with InMemory set.
	Dir string

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool

	// GCInterval is the period of value log GC; 0 disables it.
	GCInterval time.Duration

	// GCDiscardRatio is passed to RunValueLogGC.
	GCDiscardRatio float64

	// ValueLogFileSize caps a value log file. Settings are tiny, so the
	// default is far below Badger's 1GB.
	ValueLogFileSize int64

	// BlockCacheSize is Badger's block cache in bytes.
	BlockCacheSize int64

	// SyncWrites fsyncs every write.
	SyncWrites bool
}

// DefaultConfig returns the settings store defaults for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:              dir,
		GCInterval:       10 * time.Minute,
		GCDiscardRatio:   0.5,
		ValueLogFileSize: 16 << 20,
		BlockCacheSize:   8 << 20,
		SyncWrites:       true,
	}
}
