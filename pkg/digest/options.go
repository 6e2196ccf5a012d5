package digest

import (
	"strings"

	"github.com/ChrisMcGann/DigestSim/pkg/core"
)

// MaxMissedCleavagesLimit is the largest accepted missed cleavage count.
const MaxMissedCleavagesLimit = 500000

// MassType selects how the fragment mass bounds are read.
type MassType int

const (
	// Neutral bounds apply to the neutral (M) fragment mass.
	Neutral MassType = iota
	// MH bounds apply to the singly protonated mass.
	MH
)

func (t MassType) String() string {
	if t == MH {
		return "MH"
	}
	return "M"
}

// Options configures a digestion.
type Options struct {
	Rule               core.RuleID
	MaxMissedCleavages int

	MinFragmentResidueCount int
	MinFragmentMass         float64
	MaxFragmentMass         float64
	BoundsMassType          MassType
	ElementMode             core.MassMode

	// FilterByIsoelectricPoint drops fragments whose pI lies outside
	// [MinIsoelectricPoint, MaxIsoelectricPoint].
	FilterByIsoelectricPoint bool
	MinIsoelectricPoint      float64
	MaxIsoelectricPoint      float64

	CysteineTreatment        core.CysteineTreatment
	RemoveDuplicateSequences bool
	// IncludePrefixAndSuffixResidues records the residues flanking each
	// fragment; otherwise Fragment.Prefix and Suffix are left zero.
	IncludePrefixAndSuffixResidues bool
	// ResidueFilter, when set, keeps only fragments containing at least
	// one of its residues.
	ResidueFilter string

	ComputePI             bool
	ComputeHydrophobicity bool
	ComputeNET            bool
}

// DefaultOptions returns fully tryptic digestion with no missed
// cleavages, fragments of 4 residues or more up to 6000 Da.
func DefaultOptions() Options {
	return Options{
		Rule:                    core.ConventionalTrypsin,
		MinFragmentResidueCount: 4,
		MinFragmentMass:         0,
		MaxFragmentMass:         6000,
		MinIsoelectricPoint:     0,
		MaxIsoelectricPoint:     14,
	}
}

// Normalized returns a copy with out-of-range values clamped and the
// residue filter upper-cased.
func (o Options) Normalized() Options {
	o.ResidueFilter = strings.ToUpper(o.ResidueFilter)
	if o.MaxMissedCleavages < 0 {
		o.MaxMissedCleavages = 0
	} else if o.MaxMissedCleavages > MaxMissedCleavagesLimit {
		o.MaxMissedCleavages = MaxMissedCleavagesLimit
	}
	if o.MinFragmentResidueCount < 1 {
		o.MinFragmentResidueCount = 1
	}
	if o.MaxFragmentMass < o.MinFragmentMass {
		o.MaxFragmentMass = o.MinFragmentMass
	}
	if o.MaxIsoelectricPoint < o.MinIsoelectricPoint {
		o.MaxIsoelectricPoint = o.MinIsoelectricPoint
	}
	return o
}

// massBounds returns the neutral mass window implied by the options.
func (o Options) massBounds(table *core.MassTable) (lo, hi float64) {
	lo, hi = o.MinFragmentMass, o.MaxFragmentMass
	if o.BoundsMassType == MH {
		cc := table.ChargeCarrierMass(o.ElementMode)
		lo -= cc
		hi -= cc
	}
	return lo, hi
}
