package netcache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ChrisMcGann/DigestSim/pkg/logger"
	"github.com/cockroachdb/pebble"
)

var _ Store = (*PebbleStore)(nil)

// Config holds the tunables of a PebbleStore. Use Option values with
// Open rather than building one directly.
type Config struct {
	// Namespace prefixes every key. Predictions made by different
	// predictor settings should use different namespaces.
	Namespace string

	CacheSize    int64
	MemTableSize uint64
	SyncWrites   bool

	Logger logger.Logger
}

// DefaultConfig returns a small-footprint configuration; the cache holds
// short keys and 8-byte values.
func DefaultConfig() *Config {
	return &Config{
		Namespace:    DefaultNamespace,
		CacheSize:    16 << 20, // 16 MB
		MemTableSize: 8 << 20,  // 8 MB
	}
}

// Option is applied to Config during Open.
type Option func(*Config)

// WithNamespace sets the key namespace.
func WithNamespace(ns string) Option {
	return func(c *Config) { c.Namespace = ns }
}

// WithCacheSize sets the block cache capacity in bytes.
func WithCacheSize(size int64) Option {
	return func(c *Config) { c.CacheSize = size }
}

// WithMemTableSize sets the memtable size in bytes.
func WithMemTableSize(size uint64) Option {
	return func(c *Config) { c.MemTableSize = size }
}

// WithSyncWrites syncs every write to stable storage.
func WithSyncWrites(sync bool) Option {
	return func(c *Config) { c.SyncWrites = sync }
}

// WithLogger sets the logger. The default logger is used otherwise.
func WithLogger(l logger.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// PebbleStore is a Store backed by Pebble. Keys are the namespace, a zero
// byte, then the sequence. It is safe for concurrent use.
type PebbleStore struct {
	db        *pebble.DB
	prefix    []byte
	writeOpts *pebble.WriteOptions
	path      string
	log       logger.Logger

	// Operations hold the read lock; Close takes the write lock so that
	// in-flight operations finish first.
	closed atomic.Bool
	mu     sync.RWMutex
}

// Open creates or opens a store at path. The caller must Close it.
func Open(path string, opts ...Option) (*PebbleStore, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "netcache")

	cache := pebble.NewCache(cfg.CacheSize)
	defer cache.Unref()

	db, err := pebble.Open(path, &pebble.Options{
		Cache:        cache,
		MemTableSize: cfg.MemTableSize,
	})
	if err != nil {
		return nil, fmt.Errorf("netcache: failed to open %s: %w", path, err)
	}

	writeOpts := pebble.NoSync
	if cfg.SyncWrites {
		writeOpts = pebble.Sync
	}

	s := &PebbleStore{
		db:        db,
		prefix:    namespacePrefix(cfg.Namespace),
		writeOpts: writeOpts,
		path:      path,
		log:       log,
	}
	log.Info("net cache opened", "path", path, "namespace", cfg.Namespace)
	return s, nil
}

// GetNET returns the cached NET of sequence.
func (s *PebbleStore) GetNET(sequence string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed.Load() {
		return 0, false, ErrClosed
	}
	if sequence == "" {
		return 0, false, nil
	}

	val, closer, err := s.db.Get(s.key(sequence))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("netcache: get failed: %w", err)
	}
	defer closer.Close()

	net, err := decodeNET(val)
	if err != nil {
		return 0, false, err
	}
	return net, true, nil
}

// Lookup is GetNET returning ErrNotFound for a missing sequence.
func (s *PebbleStore) Lookup(sequence string) (float64, error) {
	net, ok, err := s.GetNET(sequence)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, sequence)
	}
	return net, nil
}

// PutNET stores the NET of sequence.
func (s *PebbleStore) PutNET(sequence string, net float64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed.Load() {
		return ErrClosed
	}
	if sequence == "" {
		return ErrEmptySequence
	}

	if err := s.db.Set(s.key(sequence), encodeNET(net), s.writeOpts); err != nil {
		return fmt.Errorf("netcache: put failed: %w", err)
	}
	return nil
}

// PutBatch stores many predictions atomically.
func (s *PebbleStore) PutBatch(values map[string]float64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed.Load() {
		return ErrClosed
	}

	b := s.db.NewBatch()
	defer b.Close()
	for seq, net := range values {
		if seq == "" {
			return ErrEmptySequence
		}
		if err := b.Set(s.key(seq), encodeNET(net), nil); err != nil {
			return fmt.Errorf("netcache: batch put failed: %w", err)
		}
	}
	if err := b.Commit(s.writeOpts); err != nil {
		return fmt.Errorf("netcache: batch commit failed: %w", err)
	}
	return nil
}

// Count returns the number of sequences cached in this namespace.
func (s *PebbleStore) Count() (int, error) {
	n := 0
	err := s.Iterate(func(string, float64) error {
		n++
		return nil
	})
	return n, err
}

// Iterate calls fn for every cached sequence in key order, stopping at
// the first error fn returns.
func (s *PebbleStore) Iterate(fn func(sequence string, net float64) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed.Load() {
		return ErrClosed
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: s.prefix,
		UpperBound: upperBound(s.prefix),
	})
	if err != nil {
		return fmt.Errorf("netcache: new iterator failed: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		val, err := iter.ValueAndErr()
		if err != nil {
			return fmt.Errorf("netcache: read failed: %w", err)
		}
		net, err := decodeNET(val)
		if err != nil {
			return err
		}
		seq := string(iter.Key()[len(s.prefix):])
		if err := fn(seq, net); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Flush writes the memtable to disk.
func (s *PebbleStore) Flush() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.db.Flush(); err != nil {
		return fmt.Errorf("netcache: flush failed: %w", err)
	}
	return nil
}

// Close flushes and closes the store. Later calls return ErrClosed.
func (s *PebbleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}
	s.closed.Store(true)

	if err := s.db.Flush(); err != nil {
		s.log.Error("flush failed during shutdown", "error", err)
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("netcache: close failed: %w", err)
	}
	s.log.Info("net cache closed", "path", s.path)
	return nil
}

func (s *PebbleStore) key(sequence string) []byte {
	k := make([]byte, len(s.prefix)+len(sequence))
	copy(k, s.prefix)
	copy(k[len(s.prefix):], sequence)
	return k
}

// namespacePrefix builds "ns\x00".
func namespacePrefix(ns string) []byte {
	b := make([]byte, len(ns)+1)
	copy(b, ns)
	return b
}

// upperBound builds the exclusive iteration bound for a prefix ending in
// a zero byte: "ns\x01".
func upperBound(prefix []byte) []byte {
	b := append([]byte(nil), prefix...)
	b[len(b)-1] = 0x01
	return b
}
