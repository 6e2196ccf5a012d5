package match

import (
	"math"
	"sort"

	"github.com/ChrisMcGann/DigestSim/pkg/core"
	"github.com/ChrisMcGann/DigestSim/pkg/features"
)

// candidate is one comparison feature inside a feature's search window.
type candidate struct {
	matchingID int
	netStDev   float64
	massErr    float64
	netErr     float64

	slic    float64
	delSLiC float64
}

// scoreState tracks which fallbacks have already been reported during a run.
type scoreState struct {
	warnedMass bool
	warnedNET  bool
	warn       func(string)
}

// scoreSLiC assigns SLiC and ΔSLiC to every candidate of a feature with
// the given mass and sorts them best first (score descending, matching ID
// ascending).
func scoreSLiC(th SearchThresholds, mass float64, cands []candidate, st *scoreState) {
	if len(cands) == 1 {
		cands[0].slic = 1
		cands[0].delSLiC = 1
		return
	}

	massStDev := core.PPMToMass(th.SLiCMassStDevPPM, mass)
	if massStDev <= 0 {
		if !st.warnedMass {
			st.warnedMass = true
			st.warn("SLiC mass standard deviation is not positive; using 0.003 Da")
		}
		massStDev = fallbackMassStDev
	}

	likelihoods := make([]float64, len(cands))
	sum := 0.0
	for i := range cands {
		netStDev := th.SLiCNETStDev
		if th.UseAMTNETStDev {
			netStDev = math.Sqrt(netStDev*netStDev + cands[i].netStDev*cands[i].netStDev)
		}
		if netStDev <= 0 {
			if !st.warnedNET {
				st.warnedNET = true
				st.warn("SLiC NET standard deviation is not positive; using 0.025")
			}
			netStDev = fallbackNETStDev
		}

		dm := cands[i].massErr / massStDev
		dn := cands[i].netErr / netStDev
		distance := dm*dm + dn*dn

		likelihoods[i] = 1 / (massStDev * netStDev) * math.Exp(-distance/2)
		sum += likelihoods[i]
	}

	for i := range cands {
		if sum > 0 {
			cands[i].slic = core.RoundFloat(likelihoods[i]/sum, 5)
		} else {
			cands[i].slic = 0
		}
		cands[i].delSLiC = 0
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].slic != cands[j].slic {
			return cands[i].slic > cands[j].slic
		}
		return cands[i].matchingID < cands[j].matchingID
	})
	cands[0].delSLiC = core.RoundFloat(cands[0].slic-cands[1].slic, 5)
}

// toMatches converts scored candidates into result rows. candidateCount is
// recorded on every row.
func toMatches(featureID int, cands []candidate, candidateCount int) []features.Match {
	matches := make([]features.Match, 0, len(cands))
	for _, c := range cands {
		matches = append(matches, features.Match{
			FeatureID:      featureID,
			MatchingID:     c.matchingID,
			SLiCScore:      c.slic,
			DelSLiC:        c.delSLiC,
			MassErr:        c.massErr,
			NETErr:         c.netErr,
			CandidateCount: candidateCount,
		})
	}
	return matches
}

// inWindow reports whether an error pair lies within the tolerance
// rectangle, and inside its inscribed ellipse when ellipse is set.
func inWindow(massErr, netErr, massTol, netTol float64, ellipse bool) bool {
	if math.Abs(massErr) > massTol || math.Abs(netErr) > netTol {
		return false
	}
	if !ellipse {
		return true
	}
	return ratioSquared(netErr, netTol)+ratioSquared(massErr, massTol) <= 1
}

func ratioSquared(err, tol float64) float64 {
	if tol == 0 {
		return 0
	}
	r := err / tol
	return r * r
}
