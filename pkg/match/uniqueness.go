package match

import (
	"errors"
	"math"

	"github.com/ChrisMcGann/DigestSim/pkg/features"
)

// MassBin summarizes how uniquely the features in one mass range were
// identified.
type MassBin struct {
	MassStart float64
	MassEnd   float64
	Features  int
	Matched   int // features with at least one match
	Unique    int // features with exactly one match
}

// PercentUnique is the share of the bin's features with exactly one match.
func (b MassBin) PercentUnique() float64 {
	if b.Features == 0 {
		return 0
	}
	return 100 * float64(b.Unique) / float64(b.Features)
}

// SummarizeUniqueness bins the features of a completed run by mass,
// [binStart, binEnd) in steps of binWidth, and counts matched and
// uniquely matched features per bin. Features outside the range are
// skipped.
func SummarizeUniqueness(toIdentify FeatureSource, results *features.MatchResults, binStart, binEnd, binWidth float64) ([]MassBin, error) {
	if binWidth <= 0 {
		return nil, errors.New("match: bin width must be positive")
	}
	if binEnd <= binStart {
		return nil, errors.New("match: bin end must be above bin start")
	}

	n := int(math.Ceil((binEnd - binStart) / binWidth))
	bins := make([]MassBin, n)
	for i := range bins {
		bins[i].MassStart = binStart + float64(i)*binWidth
		bins[i].MassEnd = math.Min(bins[i].MassStart+binWidth, binEnd)
	}

	for row := 0; row < toIdentify.Len(); row++ {
		f, ok := toIdentify.Row(row)
		if !ok || f.Mass < binStart || f.Mass >= binEnd {
			continue
		}
		b := int((f.Mass - binStart) / binWidth)
		if b >= n {
			b = n - 1
		}
		bins[b].Features++
		switch results.MatchCount(f.ID) {
		case 0:
		case 1:
			bins[b].Matched++
			bins[b].Unique++
		default:
			bins[b].Matched++
		}
	}
	return bins, nil
}
