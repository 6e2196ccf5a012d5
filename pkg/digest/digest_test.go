package digest

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/ChrisMcGann/DigestSim/pkg/core"
	"github.com/ChrisMcGann/DigestSim/pkg/logger"
)

func newDigestor() *Digestor {
	return New(WithLogger(logger.Nop()))
}

// openOptions accepts every fragment of one residue or more.
func openOptions(rule core.RuleID, missed int) Options {
	o := DefaultOptions()
	o.Rule = rule
	o.MaxMissedCleavages = missed
	o.MinFragmentResidueCount = 1
	return o
}

type nameSeq struct {
	name string
	seq  string
}

func namesAndSequences(frags []Fragment) []nameSeq {
	var out []nameSeq
	for _, f := range frags {
		out = append(out, nameSeq{f.Name, f.Sequence})
	}
	return out
}

func TestDigest(t *testing.T) {
	tests := []struct {
		name    string
		protein string
		opts    Options
		want    []nameSeq
	}{
		{
			name:    "tryptic",
			protein: "IGKANR",
			opts:    openOptions(core.ConventionalTrypsin, 0),
			want:    []nameSeq{{"t1.1", "IGK"}, {"t2.1", "ANR"}},
		},
		{
			name:    "trailing fragment",
			protein: "IGKANRMTFGL",
			opts:    openOptions(core.ConventionalTrypsin, 0),
			want:    []nameSeq{{"t1.1", "IGK"}, {"t2.1", "ANR"}, {"t3.1", "MTFGL"}},
		},
		{
			name:    "missed cleavage",
			protein: "IGKANR",
			opts:    openOptions(core.ConventionalTrypsin, 1),
			want:    []nameSeq{{"t1.1", "IGK"}, {"t1.2", "IGKANR"}, {"t2.1", "ANR"}},
		},
		{
			name:    "proline blocks cleavage",
			protein: "AKPGRM",
			opts:    openOptions(core.ConventionalTrypsin, 0),
			want:    []nameSeq{{"t1.1", "AKPGR"}, {"t2.1", "M"}},
		},
		{
			name:    "positional names",
			protein: "AARGGRC",
			opts:    openOptions(core.ArgC, 0),
			want:    []nameSeq{{"1.3", "AAR"}, {"4.6", "GGR"}, {"7.7", "C"}},
		},
		{
			name:    "case and non-letters ignored",
			protein: "igk an-r\n",
			opts:    openOptions(core.ConventionalTrypsin, 0),
			want:    []nameSeq{{"t1.1", "IGK"}, {"t2.1", "ANR"}},
		},
		{
			name:    "minimum length",
			protein: "IGKANRMTFGL",
			opts: func() Options {
				o := openOptions(core.ConventionalTrypsin, 0)
				o.MinFragmentResidueCount = 4
				return o
			}(),
			want: []nameSeq{{"t3.1", "MTFGL"}},
		},
		{
			name:    "termini only",
			protein: "IGKANR",
			opts:    openOptions(core.TerminiOnly, 0),
			want:    []nameSeq{{"1.6", "IGKANR"}},
		},
		{
			name:    "half tryptic",
			protein: "AKGR",
			opts:    openOptions(core.KROneEnd, 1),
			want: []nameSeq{
				{"1.2", "AK"}, {"1.4", "AKGR"}, {"3.4", "GR"},
				{"1.1", "A"}, {"1.3", "AKG"}, {"3.3", "G"},
				{"4.4", "R"}, {"2.4", "KGR"}, {"2.2", "K"},
			},
		},
	}

	d := newDigestor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frags, err := d.Digest(context.Background(), tt.protein, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if got := namesAndSequences(frags); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Digest(%q) = %v, want %v", tt.protein, got, tt.want)
			}
		})
	}
}

func TestDigestCoordinatesAndMass(t *testing.T) {
	opts := openOptions(core.ConventionalTrypsin, 0)
	opts.IncludePrefixAndSuffixResidues = true

	frags, err := newDigestor().Digest(context.Background(), "IGKANRMTFGL", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(frags) != 3 {
		t.Fatalf("got %d fragments, want 3", len(frags))
	}

	ig, an, mt := frags[0], frags[1], frags[2]
	if ig.Start != 1 || ig.End != 3 || an.Start != 4 || an.End != 6 || mt.Start != 7 || mt.End != 11 {
		t.Errorf("coordinates = %d-%d, %d-%d, %d-%d", ig.Start, ig.End, an.Start, an.End, mt.Start, mt.End)
	}
	if got := ig.Annotated(); got != "-.IGK.A" {
		t.Errorf("Annotated() = %q, want -.IGK.A", got)
	}
	if got := mt.Annotated(); got != "R.MTFGL.-" {
		t.Errorf("Annotated() = %q, want R.MTFGL.-", got)
	}
	if math.Abs(ig.Mass-316.2110) > 1e-3 || math.Abs(an.Mass-359.1917) > 1e-3 {
		t.Errorf("masses = %.4f, %.4f, want 316.2110, 359.1917", ig.Mass, an.Mass)
	}
	if math.Abs(ig.MH-ig.Mass-core.ProtonMass) > 1e-6 {
		t.Errorf("MH - M = %f, want proton mass", ig.MH-ig.Mass)
	}
}

func TestDigestFilters(t *testing.T) {
	tests := []struct {
		name    string
		protein string
		modify  func(*Options)
		want    []string
	}{
		{
			name:    "neutral mass bound",
			protein: "IGKANR",
			modify:  func(o *Options) { o.MinFragmentMass = 317.2 },
			want:    []string{"ANR"},
		},
		{
			name:    "MH mass bound",
			protein: "IGKANR",
			modify: func(o *Options) {
				o.MinFragmentMass = 317.2
				o.BoundsMassType = MH
			},
			want: []string{"IGK", "ANR"},
		},
		{
			name:    "upper mass bound",
			protein: "IGKANR",
			modify:  func(o *Options) { o.MaxFragmentMass = 320 },
			want:    []string{"IGK"},
		},
		{
			name:    "duplicates removed",
			protein: "AAKAAKAAK",
			modify:  func(o *Options) { o.RemoveDuplicateSequences = true },
			want:    []string{"AAK"},
		},
		{
			name:    "duplicates kept",
			protein: "AAKAAKAAK",
			modify:  func(o *Options) {},
			want:    []string{"AAK", "AAK", "AAK"},
		},
		{
			name:    "residue filter",
			protein: "ACKDDKCCR",
			modify:  func(o *Options) { o.ResidueFilter = "C" },
			want:    []string{"ACK", "CCR"},
		},
		{
			name:    "lowercase residue filter",
			protein: "ACKDDKCCR",
			modify:  func(o *Options) { o.ResidueFilter = "c" },
			want:    []string{"ACK", "CCR"},
		},
		{
			name:    "isoelectric point",
			protein: "DDKAAR",
			modify: func(o *Options) {
				o.FilterByIsoelectricPoint = true
				o.MinIsoelectricPoint = 7
			},
			want: []string{"AAR"},
		},
	}

	d := newDigestor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := openOptions(core.ConventionalTrypsin, 0)
			tt.modify(&opts)
			frags, err := d.Digest(context.Background(), tt.protein, opts)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, f := range frags {
				got = append(got, f.Sequence)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("sequences = %v, want %v", got, tt.want)
			}
		})
	}
}

type fixedNET float64

func (n fixedNET) NET(string) float64 { return float64(n) }

func TestDigestProperties(t *testing.T) {
	d := New(WithLogger(logger.Nop()), WithNET(fixedNET(0.42)))

	opts := openOptions(core.ConventionalTrypsin, 0)
	opts.ComputeNET = true
	opts.ComputePI = true
	opts.ComputeHydrophobicity = true

	frags, err := d.Digest(context.Background(), "IGKANR", opts)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range frags {
		if f.NET != 0.42 {
			t.Errorf("%s NET = %f, want 0.42", f.Sequence, f.NET)
		}
		if f.PI <= 7 {
			t.Errorf("%s pI = %f, want basic", f.Sequence, f.PI)
		}
	}
	// Kyte-Doolittle mean of I, G, K: (4.5 - 0.4 - 3.9) / 3
	if math.Abs(frags[0].Hydrophobicity-0.2/3) > 1e-9 {
		t.Errorf("IGK hydrophobicity = %f", frags[0].Hydrophobicity)
	}
}

func TestDigestIdempotent(t *testing.T) {
	const protein = "MKWVTFISLLLLFSSAYSRGVFRRDTHKSEIAHRFKDLGEEHFKGLVLIAFSQYLQQCPFDEHVKLVNELTEFAKTCVADESHAGCEK"
	opts := openOptions(core.ConventionalTrypsin, 2)
	opts.ComputePI = true
	opts.ComputeNET = true
	opts.IncludePrefixAndSuffixResidues = true

	d := newDigestor()
	first, err := d.Digest(context.Background(), protein, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.Digest(context.Background(), protein, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two digests of the same protein differ")
	}
	if len(first) == 0 {
		t.Error("no fragments")
	}
}

func TestDigestErrors(t *testing.T) {
	d := newDigestor()

	if _, err := d.Digest(context.Background(), "IGKANR", Options{Rule: core.RuleID(999)}); !errors.Is(err, core.ErrUnknownRule) {
		t.Errorf("unknown rule error = %v, want ErrUnknownRule", err)
	}

	frags, err := d.Digest(context.Background(), "12 -", openOptions(core.ConventionalTrypsin, 0))
	if err != nil || len(frags) != 0 {
		t.Errorf("empty protein = (%v, %v), want no fragments and no error", frags, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Digest(ctx, "IGKANR", openOptions(core.ConventionalTrypsin, 0))
	if !errors.Is(err, ErrAborted) || !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled digest error = %v, want ErrAborted wrapping context.Canceled", err)
	}

	d.Abort()
	if _, err := d.Digest(context.Background(), "IGKANR", openOptions(core.ConventionalTrypsin, 0)); !errors.Is(err, ErrAborted) {
		t.Errorf("aborted digest error = %v, want ErrAborted", err)
	}
	d.ResetAbort()
	if _, err := d.Digest(context.Background(), "IGKANR", openOptions(core.ConventionalTrypsin, 0)); err != nil {
		t.Errorf("digest after ResetAbort = %v", err)
	}
}

func TestOptionsNormalized(t *testing.T) {
	tests := []struct {
		name string
		in   Options
		want Options
	}{
		{
			name: "negative missed cleavages",
			in:   Options{MaxMissedCleavages: -3, MinFragmentResidueCount: 2, MaxFragmentMass: 10},
			want: Options{MaxMissedCleavages: 0, MinFragmentResidueCount: 2, MaxFragmentMass: 10},
		},
		{
			name: "missed cleavages limit",
			in:   Options{MaxMissedCleavages: 600000, MinFragmentResidueCount: 1, MaxFragmentMass: 10},
			want: Options{MaxMissedCleavages: 500000, MinFragmentResidueCount: 1, MaxFragmentMass: 10},
		},
		{
			name: "residue count at least one",
			in:   Options{MinFragmentResidueCount: 0, MaxFragmentMass: 10},
			want: Options{MinFragmentResidueCount: 1, MaxFragmentMass: 10},
		},
		{
			name: "max mass raised to min",
			in:   Options{MinFragmentResidueCount: 1, MinFragmentMass: 500, MaxFragmentMass: 400},
			want: Options{MinFragmentResidueCount: 1, MinFragmentMass: 500, MaxFragmentMass: 500},
		},
		{
			name: "max pI raised to min",
			in:   Options{MinFragmentResidueCount: 1, MinIsoelectricPoint: 8, MaxIsoelectricPoint: 5},
			want: Options{MinFragmentResidueCount: 1, MinIsoelectricPoint: 8, MaxIsoelectricPoint: 8},
		},
		{
			name: "residue filter upper-cased",
			in:   Options{MinFragmentResidueCount: 1, MaxFragmentMass: 10, ResidueFilter: "cw"},
			want: Options{MinFragmentResidueCount: 1, MaxFragmentMass: 10, ResidueFilter: "CW"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalized(); got != tt.want {
				t.Errorf("Normalized() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
