package core

import (
	"math"
	"testing"
)

func TestFormulaMass(t *testing.T) {
	table := NewMassTable()

	tests := []struct {
		name      string
		formula   string
		mode      MassMode
		wantMass  float64
		tolerance float64
	}{
		{"water", "H2O", Monoisotopic, 18.010565, 0.0001},
		{"hydroxyl", "OH", Monoisotopic, 17.002739, 0.0001},
		{"carbamidomethyl", "C2H3NO", Monoisotopic, 57.021464, 0.0001},
		{"average water", "H2O", Average, 18.01528, 0.001},
		{"multi digit count", "C12H19N3O2", Monoisotopic, 237.147727, 0.0001},
		{"unknown element ignored", "C2Se", Monoisotopic, 24.0, 0.0000001},
		{"empty", "", Monoisotopic, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.FormulaMass(tt.formula, tt.mode)
			if math.Abs(got-tt.wantMass) > tt.tolerance {
				t.Errorf("FormulaMass(%q) = %.6f, want %.6f (within %.6f)", tt.formula, got, tt.wantMass, tt.tolerance)
			}
		})
	}
}

func TestResidueMass(t *testing.T) {
	table := NewMassTable()

	tests := []struct {
		name      string
		residue   byte
		wantMass  float64
		tolerance float64
	}{
		{"glycine", 'G', 57.02146, 0.0001},
		{"lysine", 'K', 128.09496, 0.0001},
		{"lower case arginine", 'r', 156.10111, 0.0001},
		{"tryptophan", 'W', 186.07931, 0.0001},
		{"selenocysteine has no formula", 'U', 0, 0},
		{"not a residue", '*', 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.ResidueMass(tt.residue, Monoisotopic)
			if math.Abs(got-tt.wantMass) > tt.tolerance {
				t.Errorf("ResidueMass(%c) = %.5f, want %.5f", tt.residue, got, tt.wantMass)
			}
		})
	}
}

func TestCysteineDelta(t *testing.T) {
	table := NewMassTable()

	if got := table.CysteineDelta(CysUntreated, Monoisotopic); got != 0 {
		t.Errorf("untreated delta = %f, want 0", got)
	}
	if got := table.CysteineDelta(CysIodoacetamide, Monoisotopic); math.Abs(got-57.021464) > 0.0001 {
		t.Errorf("iodoacetamide delta = %f, want 57.021464", got)
	}
	if got := table.CysteineDelta(CysIodoaceticAcid, Monoisotopic); math.Abs(got-58.005479) > 0.0001 {
		t.Errorf("iodoacetic acid delta = %f, want 58.005479", got)
	}
}

func TestPPMConversion(t *testing.T) {
	if got := PPMToMass(10, 1000); math.Abs(got-0.01) > 1e-12 {
		t.Errorf("PPMToMass(10, 1000) = %g, want 0.01", got)
	}
	if got := MassToPPM(0.01, 1000); math.Abs(got-10) > 1e-9 {
		t.Errorf("MassToPPM(0.01, 1000) = %g, want 10", got)
	}
	if got := MassToPPM(1, 0); got != 0 {
		t.Errorf("MassToPPM at zero mass = %g, want 0", got)
	}
}

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		name      string
		val       float64
		precision int
		want      float64
	}{
		{"round to 2 decimals", 3.14159, 2, 3.14},
		{"round to 4 decimals", 3.14159, 4, 3.1416},
		{"round to 5 decimals", 0.333333333, 5, 0.33333},
		{"round to 0 decimals", 3.6, 0, 4.0},
		{"round negative", -3.14159, 2, -3.14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundFloat(tt.val, tt.precision)
			if got != tt.want {
				t.Errorf("RoundFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvertSymbolsRoundTrip(t *testing.T) {
	table := NewMassTable()

	for _, aa := range aminoAcids {
		seq := string([]byte{aa.Symbol, 'K', aa.Symbol})
		three := table.ConvertSymbols(seq, true, SymbolOptions{})
		back := table.ConvertSymbols(three, false, SymbolOptions{})
		if back != seq {
			t.Errorf("round trip of %q via %q gave %q", seq, three, back)
		}
	}

	seq := "MSKGEELFTGVVPILVELDGDVNGHK"
	for _, opts := range []SymbolOptions{{}, {Dash: true}, {SpaceEvery10: true}, {Dash: true, SpaceEvery10: true}} {
		three := table.ConvertSymbols(seq, true, opts)
		if back := table.ConvertSymbols(three, false, opts); back != seq {
			t.Errorf("round trip with %+v gave %q", opts, back)
		}
	}
}

func TestConvertSymbolsLayout(t *testing.T) {
	table := NewMassTable()

	if got := table.ConvertSymbols("ak", true, SymbolOptions{Dash: true}); got != "Ala-Lys" {
		t.Errorf("dash layout = %q, want Ala-Lys", got)
	}
	if got := table.ConvertSymbols("A1J", true, SymbolOptions{}); got != "AlaXxx" {
		t.Errorf("unknown residue = %q, want AlaXxx", got)
	}
	if got := table.ConvertSymbols("AlaFoo", false, SymbolOptions{}); got != "AX" {
		t.Errorf("unknown three-letter residue = %q, want AX", got)
	}
}
