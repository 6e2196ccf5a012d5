package match

import (
	"fmt"

	"github.com/ChrisMcGann/DigestSim/pkg/core"
)

// MassToleranceType selects how SearchThresholds.MassTolerance is read.
type MassToleranceType int

const (
	PPM MassToleranceType = iota
	Absolute
)

func (t MassToleranceType) String() string {
	if t == Absolute {
		return "absolute"
	}
	return "ppm"
}

// ParseMassToleranceType accepts "ppm" or "absolute" ("da" is an alias).
func ParseMassToleranceType(s string) (MassToleranceType, error) {
	switch s {
	case "ppm", "PPM":
		return PPM, nil
	case "absolute", "da", "Da", "Absolute":
		return Absolute, nil
	}
	return PPM, fmt.Errorf("match: unknown mass tolerance type %q", s)
}

// stdevScalingFactor widens the broad search window relative to the SLiC
// standard deviations.
const stdevScalingFactor = 2

// autoDefineReferenceMass is used to convert absolute mass tolerances to
// ppm when SLiC thresholds are derived from the search tolerances.
const autoDefineReferenceMass = 1000

// Fallbacks used when a standard deviation works out to zero or less.
const (
	fallbackMassStDev = 0.003
	fallbackNETStDev  = 0.025
)

// SearchThresholds configures a matching run.
type SearchThresholds struct {
	MassTolerance     float64
	MassToleranceType MassToleranceType
	NETTolerance      float64

	SLiCMassStDevPPM float64
	SLiCNETStDev     float64
	// UseAMTNETStDev combines SLiCNETStDev in quadrature with each
	// comparison feature's own NET standard deviation.
	UseAMTNETStDev bool

	MaxSearchDistanceMultiplier float64
	// UseMaxSearchDistanceMultiplierAndSLiCScore searches a broad window,
	// scores every candidate in it, then keeps only the candidates inside
	// the final window.
	UseMaxSearchDistanceMultiplierAndSLiCScore bool
	UseEllipseSearchRegion                     bool
	MaxResultsPerFeature                       int

	// AutoDefineSLiCScoreThresholds derives the SLiC standard deviations
	// from MassTolerance and NETTolerance.
	AutoDefineSLiCScoreThresholds bool
}

// DefaultThresholds returns 5 ppm / 0.05 NET search thresholds.
func DefaultThresholds() SearchThresholds {
	return SearchThresholds{
		MassTolerance:     5,
		MassToleranceType: PPM,
		NETTolerance:      0.05,

		SLiCMassStDevPPM: 3,
		SLiCNETStDev:     0.025,

		MaxSearchDistanceMultiplier:                2,
		UseMaxSearchDistanceMultiplierAndSLiCScore: true,
		UseEllipseSearchRegion:                     true,
		MaxResultsPerFeature:                       100,
		AutoDefineSLiCScoreThresholds:              true,
	}
}

// normalized returns a copy with out-of-range values corrected and, when
// enabled, the SLiC standard deviations derived from the tolerances.
func (s SearchThresholds) normalized() SearchThresholds {
	if s.MassTolerance < 0 {
		s.MassTolerance = -s.MassTolerance
	}
	if s.NETTolerance < 0 {
		s.NETTolerance = -s.NETTolerance
	}
	if s.MaxSearchDistanceMultiplier < 1 {
		s.MaxSearchDistanceMultiplier = 1
	}
	if s.MaxResultsPerFeature < 1 {
		s.MaxResultsPerFeature = 1
	}

	if s.AutoDefineSLiCScoreThresholds {
		ppm := s.MassTolerance
		if s.MassToleranceType == Absolute {
			ppm = core.MassToPPM(s.MassTolerance, autoDefineReferenceMass)
		}
		s.SLiCMassStDevPPM = ppm / s.MaxSearchDistanceMultiplier / stdevScalingFactor
		s.SLiCNETStDev = s.NETTolerance / s.MaxSearchDistanceMultiplier / stdevScalingFactor
	}
	return s
}

// Tolerances are the search half-widths for one feature mass.
type Tolerances struct {
	MassPPM float64
	Mass    float64
	NET     float64

	BroadMassPPM float64
	BroadMass    float64
	BroadNET     float64
}

// Tolerances computes the final and broad windows around mass. The broad
// window equals the final one unless the multiplier-and-SLiC mode is on.
func (s SearchThresholds) Tolerances(mass float64) Tolerances {
	s = s.normalized()
	return s.tolerances(mass)
}

func (s SearchThresholds) tolerances(mass float64) Tolerances {
	var t Tolerances
	if s.MassToleranceType == Absolute {
		t.Mass = s.MassTolerance
		t.MassPPM = core.MassToPPM(s.MassTolerance, mass)
	} else {
		t.MassPPM = s.MassTolerance
		t.Mass = core.PPMToMass(s.MassTolerance, mass)
	}
	t.NET = s.NETTolerance

	if !s.UseMaxSearchDistanceMultiplierAndSLiCScore {
		t.BroadMassPPM, t.BroadMass, t.BroadNET = t.MassPPM, t.Mass, t.NET
		return t
	}

	t.BroadMassPPM = s.SLiCMassStDevPPM * s.MaxSearchDistanceMultiplier * stdevScalingFactor
	if t.BroadMassPPM < t.MassPPM {
		t.BroadMassPPM = t.MassPPM
	}
	t.BroadMass = core.PPMToMass(t.BroadMassPPM, mass)
	if t.BroadMass < t.Mass {
		t.BroadMass = t.Mass
	}

	t.BroadNET = s.SLiCNETStDev * s.MaxSearchDistanceMultiplier * stdevScalingFactor
	if t.BroadNET < t.NET {
		t.BroadNET = t.NET
	}
	return t
}
