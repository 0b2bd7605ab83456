package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/ndaify-go/internal/telemetry/logger"
)

// BadgerEngine implements Store using Badger v3.
type BadgerEngine struct {
	db  *badger.DB
	cfg Config
	log logger.Logger

	lastGC atomic.Int64 // unix milliseconds
	closed atomic.Bool

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

var _ Store = (*BadgerEngine)(nil)

// NewBadgerEngine opens (or creates) the store described by cfg.
func NewBadgerEngine(cfg Config, log logger.Logger) (*BadgerEngine, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, errors.New("badger: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "store")

	opts := badger.DefaultOptions(cfg.Dir).
		WithLogger(&badgerLogger{log: log}).
		WithSyncWrites(cfg.SyncWrites)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("").WithInMemory(true)
	}
	if cfg.ValueLogFileSize > 0 {
		opts = opts.WithValueLogFileSize(cfg.ValueLogFileSize)
	}
	if cfg.BlockCacheSize > 0 {
		opts = opts.WithBlockCacheSize(cfg.BlockCacheSize)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	e := &BadgerEngine{
		db:     db,
		cfg:    cfg,
		log:    log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go e.gcLoop()

	log.Debug("badger store opened", "dir", cfg.Dir, "in_memory", cfg.InMemory,
		"gc_interval", cfg.GCInterval)
	return e, nil
}

// Get retrieves a value by key.
func (e *BadgerEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := e.check(ctx); err != nil {
		return nil, err
	}

	var value []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores a key-value pair.
func (e *BadgerEngine) Set(ctx context.Context, key, value []byte) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Delete removes a key.
func (e *BadgerEngine) Delete(ctx context.Context, key []byte) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Scan iterates over keys with a given prefix.
func (e *BadgerEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	return e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !fn(item.KeyCopy(nil), value) {
				break
			}
		}
		return nil
	})
}

// GC rewrites value log files until Badger reports nothing left to
// reclaim. It returns the number of rewritten files.
func (e *BadgerEngine) GC(ctx context.Context) (int, error) {
	if e.cfg.InMemory {
		return 0, nil
	}
	if err := e.check(ctx); err != nil {
		return 0, err
	}

	start := time.Now()
	rewrites := 0
	for ctx.Err() == nil {
		err := e.db.RunValueLogGC(e.cfg.GCDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			return rewrites, fmt.Errorf("gc: %w", err)
		}
		rewrites++
	}

	e.lastGC.Store(time.Now().UnixMilli())
	e.log.Debug("value log gc completed", "rewrites", rewrites, "elapsed", time.Since(start))
	return rewrites, nil
}

// Stats returns storage statistics.
func (e *BadgerEngine) Stats(ctx context.Context) (*Stats, error) {
	if err := e.check(ctx); err != nil {
		return nil, err
	}
	lsm, vlog := e.db.Size()
	st := &Stats{
		Keys:         -1,
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
	}
	if ms := e.lastGC.Load(); ms > 0 {
		st.LastGC = time.UnixMilli(ms)
	}
	return st, nil
}

// Close stops the GC loop and closes the database. It is idempotent.
func (e *BadgerEngine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.stopCh)
		<-e.doneCh
		if cerr := e.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
		}
		e.log.Debug("badger store closed")
	})
	return err
}

// RegisterMetrics exports the store size on reg. Values are read at
// scrape time.
func (e *BadgerEngine) RegisterMetrics(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}
	size := func(pick func(lsm, vlog int64) int64) func() float64 {
		return func() float64 {
			if e.closed.Load() {
				return 0
			}
			lsm, vlog := e.db.Size()
			return float64(pick(lsm, vlog))
		}
	}

	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "ndaify",
			Subsystem: "store",
			Name:      "lsm_size_bytes",
			Help:      "Settings store LSM tree size in bytes.",
		}, size(func(lsm, _ int64) int64 { return lsm })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "ndaify",
			Subsystem: "store",
			Name:      "value_log_size_bytes",
			Help:      "Settings store value log size in bytes.",
		}, size(func(_, vlog int64) int64 { return vlog })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "ndaify",
			Subsystem: "store",
			Name:      "last_gc_timestamp_seconds",
			Help:      "Unix time of the last value log GC.",
		}, func() float64 { return float64(e.lastGC.Load()) / 1000 }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("register store metrics: %w", err)
		}
	}
	return nil
}

func (e *BadgerEngine) check(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

func (e *BadgerEngine) gcLoop() {
	defer close(e.doneCh)
	if e.cfg.GCInterval <= 0 || e.cfg.InMemory {
		<-e.stopCh
		return
	}

	ticker := time.NewTicker(e.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if _, err := e.GC(ctx); err != nil && !errors.Is(err, ErrClosed) {
				e.log.Warn("value log gc failed", "error", err)
			}
			cancel()
		case <-e.stopCh:
			return
		}
	}
}

// badgerLogger routes Badger's printf logging into logger.Logger. Badger
// is chatty at info level, so info goes to debug.
type badgerLogger struct {
	log logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...))
}
