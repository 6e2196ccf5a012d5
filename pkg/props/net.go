package props

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ChrisMcGann/DigestSim/pkg/logger"
	"github.com/ChrisMcGann/DigestSim/pkg/progress"
)

// ErrEmptySequence is returned when predicting NET for an empty sequence.
var ErrEmptySequence = errors.New("props: empty sequence")

// NETPredictor predicts normalized elution time (0..1) for a peptide.
type NETPredictor interface {
	PredictNET(sequence string) (float64, error)
}

// NETPredictorFunc adapts a function to NETPredictor.
type NETPredictorFunc func(sequence string) (float64, error)

func (f NETPredictorFunc) PredictNET(sequence string) (float64, error) {
	return f(sequence)
}

// guoCoefficients are reversed-phase retention coefficients (Guo et al.,
// pH 2) in minutes.
var guoCoefficients = map[byte]float64{
	'W': 8.8, 'F': 8.1, 'L': 8.1, 'I': 7.4, 'M': 5.5,
	'V': 5.0, 'Y': 4.5, 'C': 2.6, 'P': 2.0, 'A': 2.0,
	'E': 1.1, 'T': 0.6, 'D': 0.2, 'Q': 0.0, 'S': -0.2,
	'G': -0.2, 'R': -0.6, 'N': -0.6, 'H': -2.1, 'K': -2.1,
}

// RetentionPredictor estimates NET from summed retention coefficients with
// a length correction, mapped linearly into [0, 1].
type RetentionPredictor struct {
	Slope     float64
	Intercept float64
}

// NewRetentionPredictor returns a predictor mapping a hydrophobicity index
// of -10 to NET 0 and 100 to NET 1.
func NewRetentionPredictor() *RetentionPredictor {
	return &RetentionPredictor{Slope: 1.0 / 110, Intercept: 10.0 / 110}
}

// PredictNET implements NETPredictor.
func (p *RetentionPredictor) PredictNET(sequence string) (float64, error) {
	sum := 0.0
	n := 0
	for i := 0; i < len(sequence); i++ {
		c := upper(sequence[i])
		if c < 'A' || c > 'Z' {
			continue
		}
		sum += guoCoefficients[c]
		n++
	}
	if n == 0 {
		return 0, ErrEmptySequence
	}

	// Short and long peptides retain less than their residue sum suggests
	switch {
	case n < 10:
		sum *= 1 - 0.027*float64(10-n)
	case n > 20:
		sum *= 1 - 0.014*float64(n-20)
	}

	net := p.Slope*sum + p.Intercept
	if net < 0 {
		net = 0
	} else if net > 1 {
		net = 1
	}
	return net, nil
}

// NETStore persists predictions across runs.
type NETStore interface {
	GetNET(sequence string) (float64, bool, error)
	PutNET(sequence string, net float64) error
}

// Memo memoizes a NETPredictor for the life of the process, optionally
// backed by a persistent NETStore. Prediction errors are reported to the
// observer, or logged when there is none, and yield NET 0. Memo is safe
// for concurrent use.
type Memo struct {
	predictor NETPredictor
	store     NETStore
	log       logger.Logger
	observer  progress.Observer

	mu     sync.Mutex
	cache  map[string]float64
	hits   int
	misses int
}

// MemoOption configures a Memo.
type MemoOption func(*Memo)

// WithStore backs the memo with a persistent store.
func WithStore(s NETStore) MemoOption {
	return func(m *Memo) { m.store = s }
}

// WithLogger sets the logger used for swallowed prediction errors.
func WithLogger(l logger.Logger) MemoOption {
	return func(m *Memo) { m.log = l }
}

// WithObserver reports swallowed prediction errors as warnings of the run
// observing o.
func WithObserver(o progress.Observer) MemoOption {
	return func(m *Memo) { m.observer = o }
}

// NewMemo wraps predictor.
func NewMemo(predictor NETPredictor, opts ...MemoOption) *Memo {
	m := &Memo{
		predictor: predictor,
		cache:     make(map[string]float64),
	}
	for _, o := range opts {
		o(m)
	}
	if m.log == nil {
		m.log = logger.Default()
	}
	m.log = m.log.With("component", "net")
	return m
}

// NET returns the predicted NET for sequence.
func (m *Memo) NET(sequence string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if net, ok := m.cache[sequence]; ok {
		m.hits++
		return net
	}
	m.misses++

	if m.store != nil {
		net, ok, err := m.store.GetNET(sequence)
		if err != nil {
			m.log.Warn("net store lookup failed", "sequence", sequence, "error", err)
		} else if ok {
			m.cache[sequence] = net
			return net
		}
	}

	net, err := m.predict(sequence)
	if err != nil {
		if m.observer != nil {
			m.observer.Warning(fmt.Sprintf("NET prediction failed for %s; using 0: %v", sequence, err))
		} else {
			m.log.Warn("net prediction failed; using 0", "sequence", sequence, "error", err)
		}
		net = 0
	}
	m.cache[sequence] = net

	if m.store != nil && err == nil {
		if err := m.store.PutNET(sequence, net); err != nil {
			m.log.Warn("net store write failed", "sequence", sequence, "error", err)
		}
	}
	return net
}

// predict calls the wrapped predictor, turning a panic into an error.
func (m *Memo) predict(sequence string) (net float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("props: predictor panic: %v", r)
		}
	}()
	return m.predictor.PredictNET(sequence)
}

// Stats returns the number of in-process cache hits and misses.
func (m *Memo) Stats() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}
