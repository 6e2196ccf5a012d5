// Package netcache persists predicted NET values keyed by peptide
// sequence, so that repeated digestions skip the predictor. [PebbleStore]
// keeps them on disk; [MemoryStore] keeps them for the life of the process.
// Both satisfy props.NETStore.
package netcache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
)

// Sentinel errors returned by stores.
var (
	ErrClosed        = errors.New("netcache: store is closed")
	ErrNotFound      = errors.New("netcache: sequence not found")
	ErrBadValue      = errors.New("netcache: stored value is not a NET")
	ErrEmptySequence = errors.New("netcache: sequence must not be empty")
)

// DefaultNamespace is used when no namespace is given. Namespaces keep
// predictions of differently configured predictors apart.
const DefaultNamespace = "default"

// Store is a NET cache.
type Store interface {
	GetNET(sequence string) (float64, bool, error)
	PutNET(sequence string, net float64) error
	Count() (int, error)
	Close() error
}

func encodeNET(net float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(net))
	return b
}

func decodeNET(b []byte) (float64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: %d bytes", ErrBadValue, len(b))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a Store held in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]float64
	closed bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]float64)}
}

func (m *MemoryStore) GetNET(sequence string) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, false, ErrClosed
	}
	net, ok := m.values[sequence]
	return net, ok, nil
}

func (m *MemoryStore) PutNET(sequence string, net float64) error {
	if sequence == "" {
		return ErrEmptySequence
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.values[sequence] = net
	return nil
}

func (m *MemoryStore) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrClosed
	}
	return len(m.values), nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	m.values = nil
	return nil
}
