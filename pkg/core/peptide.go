package core

import (
	"strings"
)

// terminus is an N- or C-terminal group with a cached mass. The cache is
// tied to the mass mode it was computed under.
type terminus struct {
	formula string
	mass    float64
	mode    MassMode
	valid   bool
}

func (t *terminus) set(formula string) {
	t.formula = formula
	t.valid = false
}

func (t *terminus) massFor(table *MassTable, mode MassMode) float64 {
	if !t.valid || t.mode != mode {
		t.mass = table.FormulaMass(t.formula, mode)
		t.mode = mode
		t.valid = true
	}
	return t.mass
}

// Peptide is a residue sequence with N- and C-terminal groups and a lazily
// computed mass. The mass is recomputed after any change to residues,
// termini, mass mode or cysteine treatment.
type Peptide struct {
	table    *MassTable
	mode     MassMode
	residues []byte
	nTerm    terminus
	cTerm    terminus
	cys      CysteineTreatment
	prefix   byte
	suffix   byte

	mass      float64
	massValid bool
}

// NewPeptide returns an empty monoisotopic peptide with a free amine
// (H) N-terminus and free acid (OH) C-terminus.
func NewPeptide(table *MassTable) *Peptide {
	p := &Peptide{
		table:  table,
		prefix: TerminusSymbol,
		suffix: TerminusSymbol,
	}
	p.nTerm.set(defaultNTerminusFormula)
	p.cTerm.set(defaultCTerminusFormula)
	return p
}

// SetSequence replaces the residues with the letters of seq, upper-cased.
// Non-letter characters are ignored.
func (p *Peptide) SetSequence(seq string) {
	p.residues = p.residues[:0]
	for i := 0; i < len(seq); i++ {
		c := upper(seq[i])
		if c >= 'A' && c <= 'Z' {
			p.residues = append(p.residues, c)
		}
	}
	p.massValid = false
}

// SetSequenceThreeLetter replaces the residues from three-letter notation.
func (p *Peptide) SetSequenceThreeLetter(seq string) {
	p.SetSequence(p.table.ConvertSymbols(seq, false, SymbolOptions{}))
}

// Sequence returns the one-letter residues.
func (p *Peptide) Sequence() string {
	return string(p.residues)
}

// SequenceThreeLetter returns the residues in three-letter notation.
func (p *Peptide) SequenceThreeLetter(opts SymbolOptions) string {
	return p.table.ConvertSymbols(string(p.residues), true, opts)
}

// Len returns the residue count.
func (p *Peptide) Len() int {
	return len(p.residues)
}

// SetNTerminus sets the N-terminal group formula, e.g. "H" or "HH".
func (p *Peptide) SetNTerminus(formula string) {
	p.nTerm.set(formula)
	p.massValid = false
}

// SetCTerminus sets the C-terminal group formula, e.g. "OH".
func (p *Peptide) SetCTerminus(formula string) {
	p.cTerm.set(formula)
	p.massValid = false
}

func (p *Peptide) NTerminus() string { return p.nTerm.formula }
func (p *Peptide) CTerminus() string { return p.cTerm.formula }

// SetMassMode switches between monoisotopic and average masses.
func (p *Peptide) SetMassMode(mode MassMode) {
	if mode != p.mode {
		p.mode = mode
		p.massValid = false
	}
}

func (p *Peptide) MassMode() MassMode { return p.mode }

// SetCysteineTreatment sets the alkylation applied to every cysteine.
func (p *Peptide) SetCysteineTreatment(ct CysteineTreatment) {
	if ct != p.cys {
		p.cys = ct
		p.massValid = false
	}
}

func (p *Peptide) CysteineTreatment() CysteineTreatment { return p.cys }

// SetContext records the residues flanking the peptide in its protein.
// Use TerminusSymbol for a protein terminus.
func (p *Peptide) SetContext(prefix, suffix byte) {
	p.prefix = upper(prefix)
	p.suffix = upper(suffix)
}

func (p *Peptide) Prefix() byte { return p.prefix }
func (p *Peptide) Suffix() byte { return p.suffix }

// AnnotatedSequence returns "PREFIX.RESIDUES.SUFFIX".
func (p *Peptide) AnnotatedSequence() string {
	var b strings.Builder
	b.Grow(len(p.residues) + 4)
	b.WriteByte(p.prefix)
	b.WriteByte(SeparatorSymbol)
	b.Write(p.residues)
	b.WriteByte(SeparatorSymbol)
	b.WriteByte(p.suffix)
	return b.String()
}

// CheckCleavage evaluates the peptide in its flanking context against rule.
func (p *Peptide) CheckCleavage(rule CleavageRule) (matchCount int, valid bool) {
	return CheckCleavage(p.AnnotatedSequence(), rule)
}

// Mass returns the peptide mass: N-terminus, residues and C-terminus. An
// N-terminus of two hydrogens denotes a protonated amine; one hydrogen is
// removed and a charge carrier added in its place.
func (p *Peptide) Mass() float64 {
	if p.massValid {
		return p.mass
	}

	total := p.nTerm.massFor(p.table, p.mode)
	protonated := isTwoHydrogens(p.nTerm.formula)
	if protonated {
		total -= p.table.ElementMass("H", p.mode)
	}

	cysDelta := p.table.CysteineDelta(p.cys, p.mode)
	for _, r := range p.residues {
		total += p.table.ResidueMass(r, p.mode)
		if r == 'C' {
			total += cysDelta
		}
	}

	total += p.cTerm.massFor(p.table, p.mode)
	if protonated {
		total += p.table.ChargeCarrierMass(p.mode)
	}

	p.mass = total
	p.massValid = true
	return total
}

// MH returns the singly protonated mass.
func (p *Peptide) MH() float64 {
	return p.Mass() + p.table.ChargeCarrierMass(p.mode)
}

func isTwoHydrogens(formula string) bool {
	f := strings.TrimSpace(formula)
	return f == "HH" || f == "H2"
}
