// Package match identifies features against a comparison feature set by
// mass and NET, scoring each candidate with the SLiC score.
package match

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ChrisMcGann/DigestSim/pkg/features"
	"github.com/ChrisMcGann/DigestSim/pkg/logger"
	"github.com/ChrisMcGann/DigestSim/pkg/progress"
	"github.com/ChrisMcGann/DigestSim/pkg/rangeindex"
)

// ErrNoComparisonFeatures is returned by Identify for an empty comparison set.
var ErrNoComparisonFeatures = errors.New("match: no comparison features")

const (
	progressInterval = 100
	healthInterval   = 10000
)

// FeatureSource is the set of features to identify.
type FeatureSource interface {
	Len() int
	Row(row int) (features.Feature, bool)
}

// ComparisonSource is the reference feature set.
type ComparisonSource interface {
	Len() int
	Row(row int) (features.ComparisonFeature, bool)
}

// Matcher runs peak matching with fixed thresholds.
type Matcher struct {
	thresholds SearchThresholds
	observer   progress.Observer
	log        logger.Logger

	aborted atomic.Bool
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithObserver sets the progress observer.
func WithObserver(o progress.Observer) Option {
	return func(m *Matcher) { m.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Matcher) { m.log = l }
}

// NewMatcher returns a Matcher using thresholds.
func NewMatcher(thresholds SearchThresholds, opts ...Option) *Matcher {
	m := &Matcher{thresholds: thresholds}
	for _, o := range opts {
		o(m)
	}
	if m.log == nil {
		m.log = logger.Default()
	}
	m.log = m.log.With("component", "match")
	m.observer = progress.OrNop(m.observer)
	return m
}

// Thresholds returns the effective thresholds, after auto-definition and
// range correction.
func (m *Matcher) Thresholds() SearchThresholds {
	return m.thresholds.normalized()
}

// Abort stops the current and any later Identify call before its next
// feature. It may be called from any goroutine. ResetAbort clears it.
func (m *Matcher) Abort() {
	m.aborted.Store(true)
}

// ResetAbort clears a previous Abort.
func (m *Matcher) ResetAbort() {
	m.aborted.Store(false)
}

// Identify matches every feature in toIdentify against comparison and
// writes the accepted matches to results, which is cleared first.
// complete is false when the run was aborted or ctx was cancelled; the
// matches found up to that point are kept.
func (m *Matcher) Identify(ctx context.Context, toIdentify FeatureSource, comparison ComparisonSource, results *features.MatchResults) (complete bool, err error) {
	results.Clear()

	if comparison.Len() == 0 {
		return false, ErrNoComparisonFeatures
	}

	th := m.thresholds.normalized()

	refs := make([]features.ComparisonFeature, comparison.Len())
	idx := rangeindex.New()
	for row := range refs {
		f, ok := comparison.Row(row)
		if !ok {
			return false, fmt.Errorf("match: comparison row %d unreadable", row)
		}
		refs[row] = f
		idx.Append(f.Mass)
	}
	idx.Finalize()

	m.observer.Reset()
	m.observer.Status(fmt.Sprintf("Identifying %d features against %d comparison features", toIdentify.Len(), len(refs)))

	st := &scoreState{warn: m.observer.Warning}
	total := toIdentify.Len()
	var cands []candidate

	for i := 0; i < total; i++ {
		if ctx.Err() != nil || m.aborted.Load() {
			m.log.Info("matching aborted", "processed", i, "total", total)
			return false, nil
		}

		if i%progressInterval == 0 {
			m.observer.Progress("Identifying features", 100*float64(i)/float64(total))
		}
		if i > 0 && i%healthInterval == 0 {
			m.log.Info("matching", "processed", i, "total", total, "matches", results.Len())
		}

		f, ok := toIdentify.Row(i)
		if !ok {
			continue
		}
		cands = m.candidates(th, f, idx, refs, cands[:0])
		if len(cands) == 0 {
			continue
		}
		for _, mt := range m.score(th, f, cands, st) {
			results.Add(mt)
		}
	}

	m.observer.Progress("Identifying features", 100)
	m.log.Debug("matching done", "features", total, "matches", results.Len())
	return true, nil
}

// candidates collects the comparison features inside f's search window.
func (m *Matcher) candidates(th SearchThresholds, f features.Feature, idx *rangeindex.Index, refs []features.ComparisonFeature, dst []candidate) []candidate {
	tol := th.tolerances(f.Mass)
	massTol, netTol := tol.Mass, tol.NET
	if th.UseMaxSearchDistanceMultiplierAndSLiCScore {
		massTol, netTol = tol.BroadMass, tol.BroadNET
	}

	first, last, ok := idx.FindRange(f.Mass, massTol)
	if !ok {
		return dst
	}
	for pos := first; pos <= last; pos++ {
		ref := refs[idx.OriginalIndex(pos)]
		massErr := ref.Mass - f.Mass
		netErr := float64(ref.NET) - float64(f.NET)
		if !inWindow(massErr, netErr, massTol, netTol, th.UseEllipseSearchRegion) {
			continue
		}
		dst = append(dst, candidate{
			matchingID: ref.ID,
			netStDev:   float64(ref.NETStDev),
			massErr:    massErr,
			netErr:     netErr,
		})
	}
	return dst
}

// score ranks the candidates and returns the rows to keep: those inside
// the final window, at most MaxResultsPerFeature of them.
func (m *Matcher) score(th SearchThresholds, f features.Feature, cands []candidate, st *scoreState) []features.Match {
	count := len(cands)
	scoreSLiC(th, f.Mass, cands, st)

	kept := cands
	if th.UseMaxSearchDistanceMultiplierAndSLiCScore {
		tol := th.tolerances(f.Mass)
		kept = cands[:0]
		for _, c := range cands {
			if inWindow(c.massErr, c.netErr, tol.Mass, tol.NET, th.UseEllipseSearchRegion) {
				kept = append(kept, c)
			}
		}
	}
	if len(kept) > th.MaxResultsPerFeature {
		kept = kept[:th.MaxResultsPerFeature]
	}
	return toMatches(f.ID, kept, count)
}
