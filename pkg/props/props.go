// Package props computes peptide physicochemical properties: isoelectric
// point, hydrophobicity and predicted normalized elution time (NET).
package props

import (
	"math"
)

// PKSet holds the ionizable-group pK values used for charge calculations.
type PKSet struct {
	NTerm, CTerm float64
	K, R, H      float64
	D, E, C, Y   float64
}

// SolomonPK is the pK set from Solomon's Organic Chemistry.
var SolomonPK = PKSet{
	NTerm: 9.6, CTerm: 2.4,
	K: 10.5, R: 12.5, H: 6.0,
	D: 3.9, E: 4.3, C: 8.3, Y: 10.1,
}

// LehningerPK is the pK set from Lehninger's Principles of Biochemistry.
var LehningerPK = PKSet{
	NTerm: 9.69, CTerm: 2.34,
	K: 10.5, R: 12.4, H: 6.0,
	D: 3.86, E: 4.25, C: 8.33, Y: 10.0,
}

// Scale is a per-residue hydrophobicity scale.
type Scale map[byte]float64

// KyteDoolittle hydropathy scale.
var KyteDoolittle = Scale{
	'A': 1.8, 'R': -4.5, 'N': -3.5, 'D': -3.5, 'C': 2.5,
	'Q': -3.5, 'E': -3.5, 'G': -0.4, 'H': -3.2, 'I': 4.5,
	'L': 3.8, 'K': -3.9, 'M': 1.9, 'F': 2.8, 'P': -1.6,
	'S': -0.8, 'T': -0.7, 'W': -0.9, 'Y': -1.3, 'V': 4.2,
}

// HoppWoods hydrophilicity scale.
var HoppWoods = Scale{
	'A': -0.5, 'R': 3.0, 'N': 0.2, 'D': 3.0, 'C': -1.0,
	'Q': 0.2, 'E': 3.0, 'G': 0.0, 'H': -0.5, 'I': -1.8,
	'L': -1.8, 'K': 3.0, 'M': -1.3, 'F': -2.5, 'P': 0.0,
	'S': 0.3, 'T': -0.4, 'W': -3.4, 'Y': -2.3, 'V': -1.5,
}

const piPrecision = 0.001

// Calculator computes pI and hydrophobicity. The zero value uses the
// Solomon pK set, the Kyte-Doolittle scale and whole-sequence averaging.
type Calculator struct {
	PK    *PKSet
	Scale Scale
	// Window is the sliding-window width for hydrophobicity; the maximum
	// window average is reported. Window <= 0 averages the whole sequence.
	Window int
}

func (c *Calculator) pk() *PKSet {
	if c.PK == nil {
		return &SolomonPK
	}
	return c.PK
}

func (c *Calculator) scale() Scale {
	if c.Scale == nil {
		return KyteDoolittle
	}
	return c.Scale
}

type residueCounts struct {
	k, r, h, d, e, c, y int
}

func countResidues(seq string) (residueCounts, int) {
	var rc residueCounts
	n := 0
	for i := 0; i < len(seq); i++ {
		switch upper(seq[i]) {
		case 'K':
			rc.k++
		case 'R':
			rc.r++
		case 'H':
			rc.h++
		case 'D':
			rc.d++
		case 'E':
			rc.e++
		case 'C':
			rc.c++
		case 'Y':
			rc.y++
		}
		if isLetter(seq[i]) {
			n++
		}
	}
	return rc, n
}

func positive(pH, pK float64) float64 { return 1 / (1 + math.Pow(10, pH-pK)) }
func negative(pH, pK float64) float64 { return 1 / (1 + math.Pow(10, pK-pH)) }

func (c *Calculator) charge(rc residueCounts, pH float64) float64 {
	pk := c.pk()
	q := positive(pH, pk.NTerm) +
		float64(rc.k)*positive(pH, pk.K) +
		float64(rc.r)*positive(pH, pk.R) +
		float64(rc.h)*positive(pH, pk.H)
	q -= negative(pH, pk.CTerm) +
		float64(rc.d)*negative(pH, pk.D) +
		float64(rc.e)*negative(pH, pk.E) +
		float64(rc.c)*negative(pH, pk.C) +
		float64(rc.y)*negative(pH, pk.Y)
	return q
}

// ChargeAtPH returns the net charge of seq at pH.
func (c *Calculator) ChargeAtPH(seq string, pH float64) float64 {
	rc, _ := countResidues(seq)
	return c.charge(rc, pH)
}

// PI returns the isoelectric point of seq by bisection between pH 0 and
// 14. An empty sequence returns 0.
func (c *Calculator) PI(seq string) float64 {
	rc, n := countResidues(seq)
	if n == 0 {
		return 0
	}

	lo, hi := 0.0, 14.0
	for hi-lo > piPrecision {
		mid := (lo + hi) / 2
		if c.charge(rc, mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// Hydrophobicity returns the average scale value of seq, or the maximum
// sliding-window average when Window is set and shorter than seq. Unknown
// residues count as zero.
func (c *Calculator) Hydrophobicity(seq string) float64 {
	scale := c.scale()
	values := make([]float64, 0, len(seq))
	for i := 0; i < len(seq); i++ {
		if isLetter(seq[i]) {
			values = append(values, scale[upper(seq[i])])
		}
	}
	if len(values) == 0 {
		return 0
	}

	w := c.Window
	if w <= 0 || w >= len(values) {
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	}

	sum := 0.0
	for _, v := range values[:w] {
		sum += v
	}
	best := sum
	for i := w; i < len(values); i++ {
		sum += values[i] - values[i-w]
		if sum > best {
			best = sum
		}
	}
	return best / float64(w)
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func isLetter(c byte) bool {
	c = upper(c)
	return c >= 'A' && c <= 'Z'
}
