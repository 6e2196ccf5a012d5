// Package core provides the chemistry tables, cleavage rules and peptide
// mass bookkeeping used by digestion and matching.
package core

import (
	"math"
	"strings"
)

// MassMode selects which element masses are used.
type MassMode int

const (
	Monoisotopic MassMode = iota
	Average
)

func (m MassMode) String() string {
	if m == Average {
		return "average"
	}
	return "monoisotopic"
}

// Atomic masses (monoisotopic)
const (
	MassH = 1.0078246
	MassC = 12.0
	MassN = 14.003074
	MassO = 15.9949141
	MassS = 31.972072
	MassP = 30.973763

	// Proton mass for charge calculations
	ProtonMass = 1.00727649
)

// Atomic masses (average)
const (
	AvgMassH = 1.00794
	AvgMassC = 12.0107
	AvgMassN = 14.0067
	AvgMassO = 15.9994
	AvgMassS = 32.065
	AvgMassP = 30.973761

	// Average charge carrier: hydrogen minus an electron
	AvgChargeCarrierMass = 1.00739
)

// CysteineTreatment is the alkylation applied to cysteine residues.
type CysteineTreatment int

const (
	CysUntreated CysteineTreatment = iota
	CysIodoacetamide
	CysIodoaceticAcid
)

func (c CysteineTreatment) String() string {
	switch c {
	case CysIodoacetamide:
		return "iodoacetamide"
	case CysIodoaceticAcid:
		return "iodoacetic-acid"
	}
	return "untreated"
}

// ParseCysteineTreatment maps a name to a CysteineTreatment. Unknown names
// return CysUntreated and false.
func ParseCysteineTreatment(name string) (CysteineTreatment, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "untreated", "none":
		return CysUntreated, true
	case "iodoacetamide", "iaa", "carbamidomethyl":
		return CysIodoacetamide, true
	case "iodoacetic-acid", "iodoaceticacid", "carboxymethyl":
		return CysIodoaceticAcid, true
	}
	return CysUntreated, false
}

// Formulas added to each cysteine by alkylation
const (
	iodoacetamideFormula    = "C2H3NO"
	iodoaceticAcidFormula   = "C2H2O2"
	defaultNTerminusFormula = "H"
	defaultCTerminusFormula = "OH"
)

// AminoAcid describes one residue code.
type AminoAcid struct {
	Symbol      byte
	ThreeLetter string
	Formula     string // residue formula (amino acid minus water)
}

// aminoAcids lists every residue with a known composition. U (selenocysteine)
// has no formula in the supported element set and therefore weighs zero.
var aminoAcids = []AminoAcid{
	{'A', "Ala", "C3H5NO"},
	{'B', "Asx", "C4H6N2O2"},
	{'C', "Cys", "C3H5NOS"},
	{'D', "Asp", "C4H5NO3"},
	{'E', "Glu", "C5H7NO3"},
	{'F', "Phe", "C9H9NO"},
	{'G', "Gly", "C2H3NO"},
	{'H', "His", "C6H7N3O"},
	{'I', "Ile", "C6H11NO"},
	{'K', "Lys", "C6H12N2O"},
	{'L', "Leu", "C6H11NO"},
	{'M', "Met", "C5H9NOS"},
	{'N', "Asn", "C4H6N2O2"},
	{'O', "Pyl", "C12H19N3O2"},
	{'P', "Pro", "C5H7NO"},
	{'Q', "Gln", "C5H8N2O2"},
	{'R', "Arg", "C6H12N4O"},
	{'S', "Ser", "C3H5NO2"},
	{'T', "Thr", "C4H7NO2"},
	{'U', "Sec", ""},
	{'V', "Val", "C5H9NO"},
	{'W', "Trp", "C11H10N2O"},
	{'X', "Xxx", "C6H11NO"},
	{'Y', "Tyr", "C9H9NO2"},
	{'Z', "Glx", "C5H8N2O2"},
}

// MassTable holds element and residue masses for both mass modes. It is
// built once with NewMassTable and never modified afterwards, so a single
// table can be shared by every peptide and digestor in a process.
type MassTable struct {
	elements      [2]map[string]float64
	residues      [2][26]float64
	known         [26]bool
	threeLetter   [26]string
	oneLetter     map[string]byte
	chargeCarrier [2]float64
	cysDelta      [2][3]float64
}

// NewMassTable computes residue masses from their elemental formulas.
func NewMassTable() *MassTable {
	t := &MassTable{
		oneLetter: make(map[string]byte, len(aminoAcids)),
	}
	t.elements[Monoisotopic] = map[string]float64{
		"C": MassC, "H": MassH, "N": MassN, "O": MassO, "S": MassS, "P": MassP,
	}
	t.elements[Average] = map[string]float64{
		"C": AvgMassC, "H": AvgMassH, "N": AvgMassN, "O": AvgMassO, "S": AvgMassS, "P": AvgMassP,
	}
	t.chargeCarrier[Monoisotopic] = ProtonMass
	t.chargeCarrier[Average] = AvgChargeCarrierMass

	for _, aa := range aminoAcids {
		idx := aa.Symbol - 'A'
		t.known[idx] = true
		t.threeLetter[idx] = aa.ThreeLetter
		t.oneLetter[strings.ToUpper(aa.ThreeLetter)] = aa.Symbol
		for _, mode := range []MassMode{Monoisotopic, Average} {
			t.residues[mode][idx] = t.FormulaMass(aa.Formula, mode)
		}
	}

	for _, mode := range []MassMode{Monoisotopic, Average} {
		t.cysDelta[mode][CysIodoacetamide] = t.FormulaMass(iodoacetamideFormula, mode)
		t.cysDelta[mode][CysIodoaceticAcid] = t.FormulaMass(iodoaceticAcidFormula, mode)
	}
	return t
}

// ElementMass returns the mass of an element symbol, or 0 for symbols
// outside C, H, N, O, S and P.
func (t *MassTable) ElementMass(symbol string, mode MassMode) float64 {
	return t.elements[mode][symbol]
}

// ChargeCarrierMass returns the mass added per charge.
func (t *MassTable) ChargeCarrierMass(mode MassMode) float64 {
	return t.chargeCarrier[mode]
}

// ResidueMass returns the residue mass for a one-letter code (case
// insensitive). Unknown codes weigh zero.
func (t *MassTable) ResidueMass(symbol byte, mode MassMode) float64 {
	symbol = upper(symbol)
	if symbol < 'A' || symbol > 'Z' {
		return 0
	}
	return t.residues[mode][symbol-'A']
}

// IsKnownResidue reports whether symbol is a recognised one-letter code.
func (t *MassTable) IsKnownResidue(symbol byte) bool {
	symbol = upper(symbol)
	return symbol >= 'A' && symbol <= 'Z' && t.known[symbol-'A']
}

// CysteineDelta returns the mass added to each cysteine under treatment ct.
func (t *MassTable) CysteineDelta(ct CysteineTreatment, mode MassMode) float64 {
	if ct < CysUntreated || ct > CysIodoaceticAcid {
		return 0
	}
	return t.cysDelta[mode][ct]
}

// FormulaMass parses an elemental formula such as "C2H3NO" or "OH" and
// returns its mass. Each element symbol may be followed by an integer
// multiplier; parentheses are not supported. Unknown symbols contribute no
// mass.
func (t *MassTable) FormulaMass(formula string, mode MassMode) float64 {
	var mass float64
	i := 0
	for i < len(formula) {
		c := formula[i]
		if c < 'A' || c > 'Z' {
			i++
			continue
		}

		// Symbol: one upper-case letter plus any lower-case letters
		j := i + 1
		for j < len(formula) && formula[j] >= 'a' && formula[j] <= 'z' {
			j++
		}
		symbol := formula[i:j]

		count := 0
		k := j
		for k < len(formula) && formula[k] >= '0' && formula[k] <= '9' {
			count = count*10 + int(formula[k]-'0')
			k++
		}
		if k == j {
			count = 1
		}

		mass += float64(count) * t.elements[mode][symbol]
		i = k
	}
	return mass
}

// PPMToMass converts a ppm tolerance to an absolute mass at the given mass.
func PPMToMass(ppm, mass float64) float64 {
	return ppm * mass / 1e6
}

// MassToPPM converts an absolute mass difference to ppm at the given mass.
func MassToPPM(delta, mass float64) float64 {
	if mass == 0 {
		return 0
	}
	return delta * 1e6 / mass
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
