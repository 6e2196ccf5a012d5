// Package digest enumerates the peptide fragments an enzyme or chemical
// cleavage rule produces from a protein sequence.
package digest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/ChrisMcGann/DigestSim/pkg/core"
	"github.com/ChrisMcGann/DigestSim/pkg/logger"
	"github.com/ChrisMcGann/DigestSim/pkg/progress"
	"github.com/ChrisMcGann/DigestSim/pkg/props"
)

// ErrAborted is returned, together with the fragments found so far, when a
// digestion is stopped by Abort or by context cancellation.
var ErrAborted = errors.New("digest: aborted")

// Fragment is one peptide produced by a digestion. Start and End are
// 1-based inclusive residue positions in the protein.
type Fragment struct {
	Name           string
	Sequence       string
	Mass           float64
	MH             float64
	NET            float64
	PI             float64
	Hydrophobicity float64
	Prefix         byte
	Suffix         byte
	Start          int
	End            int
}

// Annotated returns the sequence as "X.SEQ.Y" when flanking residues were
// recorded, otherwise the bare sequence.
func (f Fragment) Annotated() string {
	if f.Prefix == 0 && f.Suffix == 0 {
		return f.Sequence
	}
	return string(f.Prefix) + "." + f.Sequence + "." + string(f.Suffix)
}

// NETSource returns the predicted NET of a sequence. *props.Memo
// implements it.
type NETSource interface {
	NET(sequence string) float64
}

// Digestor digests proteins. A Digestor may be reused for many proteins;
// Digest calls must not run concurrently.
type Digestor struct {
	table    *core.MassTable
	calc     *props.Calculator
	net      NETSource
	observer progress.Observer
	log      logger.Logger

	aborted atomic.Bool
}

// Option configures a Digestor.
type Option func(*Digestor)

// WithMassTable sets the mass table. One is built when not given.
func WithMassTable(t *core.MassTable) Option {
	return func(d *Digestor) { d.table = t }
}

// WithCalculator sets the pI and hydrophobicity calculator.
func WithCalculator(c *props.Calculator) Option {
	return func(d *Digestor) { d.calc = c }
}

// WithNET sets the NET source used when Options.ComputeNET is set. The
// default memoizes a props.RetentionPredictor.
func WithNET(n NETSource) Option {
	return func(d *Digestor) { d.net = n }
}

// WithObserver sets the progress observer.
func WithObserver(o progress.Observer) Option {
	return func(d *Digestor) { d.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Digestor) { d.log = l }
}

// New returns a Digestor.
func New(opts ...Option) *Digestor {
	d := &Digestor{}
	for _, o := range opts {
		o(d)
	}
	if d.log == nil {
		d.log = logger.Default()
	}
	if d.net == nil {
		d.net = props.NewMemo(props.NewRetentionPredictor(), props.WithLogger(d.log))
	}
	d.log = d.log.With("component", "digest")
	if d.table == nil {
		d.table = core.NewMassTable()
	}
	if d.calc == nil {
		d.calc = &props.Calculator{}
	}
	d.observer = progress.OrNop(d.observer)
	return d
}

// MassTable returns the table used for fragment masses.
func (d *Digestor) MassTable() *core.MassTable {
	return d.table
}

// Abort stops the current and any later Digest call before its next
// sub-fragment. ResetAbort clears it.
func (d *Digestor) Abort() {
	d.aborted.Store(true)
}

// ResetAbort clears a previous Abort.
func (d *Digestor) ResetAbort() {
	d.aborted.Store(false)
}

// span is a minimal rule-bounded piece of the protein, [start, end]
// 0-based inclusive.
type span struct {
	seq        string
	start, end int
}

// run holds the per-call state of a digestion.
type run struct {
	d       *Digestor
	opts    Options
	protein string
	pep     *core.Peptide
	minMass float64
	maxMass float64
	seen    map[string]struct{}
	out     []Fragment
}

// Digest returns the fragments of protein under opts. Non-letter
// characters in protein are ignored and case does not matter. An empty
// protein yields no fragments. When aborted, the fragments accepted so far
// are returned with an error wrapping ErrAborted.
func (d *Digestor) Digest(ctx context.Context, protein string, opts Options) ([]Fragment, error) {
	opts = opts.Normalized()
	rule, err := core.Rule(opts.Rule)
	if err != nil {
		return nil, err
	}

	seq := cleanSequence(protein)
	if seq == "" {
		return nil, nil
	}

	r := &run{
		d:       d,
		opts:    opts,
		protein: seq,
		pep:     core.NewPeptide(d.table),
	}
	r.pep.SetMassMode(opts.ElementMode)
	r.pep.SetCysteineTreatment(opts.CysteineTreatment)
	r.minMass, r.maxMass = opts.massBounds(d.table)
	if opts.RemoveDuplicateSequences {
		r.seen = make(map[string]struct{})
	}

	spans := splitSpans(seq, rule)
	passes := 1
	if opts.Rule == core.KROneEnd {
		passes = 3
	}
	total := float64(passes * len(spans))

	d.observer.Reset()
	step := 0
	tick := func() error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrAborted, err)
		}
		if d.aborted.Load() {
			return ErrAborted
		}
		d.observer.Progress("Digesting protein", 100*float64(step)/total)
		step++
		return nil
	}

	tryptic := opts.Rule.UsesTrypticNames()
	for i := range spans {
		if err := tick(); err != nil {
			return r.out, err
		}
		peptide := ""
		for k := 0; k <= opts.MaxMissedCleavages && i+k < len(spans); k++ {
			peptide += spans[i+k].seq
			name := ""
			if tryptic {
				name = "t" + strconv.Itoa(i+1) + "." + strconv.Itoa(k+1)
			}
			r.consider(peptide, spans[i].start, spans[i+k].end, name)
		}
	}

	if opts.Rule == core.KROneEnd {
		if err := r.partialPrefixes(spans, tick); err != nil {
			return r.out, err
		}
		if err := r.partialSuffixes(spans, tick); err != nil {
			return r.out, err
		}
	}

	d.observer.Progress("Digesting protein", 100)
	d.log.Debug("digested", "rule", opts.Rule, "residues", len(seq), "fragments", len(r.out))
	return r.out, nil
}

// partialPrefixes emits the prefixes of each concatenation that end inside
// its last sub-fragment. Full-length pieces were emitted by the main pass.
func (r *run) partialPrefixes(spans []span, tick func() error) error {
	for i := range spans {
		if err := tick(); err != nil {
			return err
		}
		peptide := ""
		for k := 0; k <= r.opts.MaxMissedCleavages && i+k < len(spans); k++ {
			prev := len(peptide)
			peptide += spans[i+k].seq
			for n := prev + 1; n < len(peptide); n++ {
				start := spans[i].start
				r.consider(peptide[:n], start, start+n-1, "")
			}
		}
	}
	return nil
}

// partialSuffixes mirrors partialPrefixes, walking the sub-fragments from
// the C-terminus and emitting suffixes that start inside the first one.
func (r *run) partialSuffixes(spans []span, tick func() error) error {
	for j := len(spans) - 1; j >= 0; j-- {
		if err := tick(); err != nil {
			return err
		}
		peptide := ""
		for k := 0; k <= r.opts.MaxMissedCleavages && j-k >= 0; k++ {
			prev := len(peptide)
			peptide = spans[j-k].seq + peptide
			for n := prev + 1; n < len(peptide); n++ {
				end := spans[j].end
				r.consider(peptide[len(peptide)-n:], end-n+1, end, "")
			}
		}
	}
	return nil
}

// consider applies the acceptance filters in order (length, mass, pI,
// duplicates, residue filter) and records the fragment when it passes.
// start and end are 0-based inclusive.
func (r *run) consider(seq string, start, end int, name string) {
	opts := r.opts
	if len(seq) < opts.MinFragmentResidueCount {
		return
	}

	r.pep.SetSequence(seq)
	mass := r.pep.Mass()
	if mass < r.minMass || mass > r.maxMass {
		return
	}

	var pI float64
	if opts.FilterByIsoelectricPoint || opts.ComputePI {
		pI = r.d.calc.PI(seq)
		if opts.FilterByIsoelectricPoint && (pI < opts.MinIsoelectricPoint || pI > opts.MaxIsoelectricPoint) {
			return
		}
	}

	if r.seen != nil {
		if _, dup := r.seen[seq]; dup {
			return
		}
		r.seen[seq] = struct{}{}
	}

	if opts.ResidueFilter != "" && !strings.ContainsAny(seq, opts.ResidueFilter) {
		return
	}

	if name == "" {
		name = strconv.Itoa(start+1) + "." + strconv.Itoa(end+1)
	}
	f := Fragment{
		Name:     name,
		Sequence: seq,
		Mass:     mass,
		MH:       r.pep.MH(),
		Start:    start + 1,
		End:      end + 1,
	}
	if opts.ComputePI {
		f.PI = pI
	}
	if opts.ComputeHydrophobicity {
		f.Hydrophobicity = r.d.calc.Hydrophobicity(seq)
	}
	if opts.ComputeNET {
		f.NET = r.d.net.NET(seq)
	}
	if opts.IncludePrefixAndSuffixResidues {
		f.Prefix, f.Suffix = flank(r.protein, start, end)
	}
	r.out = append(r.out, f)
}

// splitSpans cuts seq into its minimal rule-bounded pieces, left to right.
func splitSpans(seq string, rule core.CleavageRule) []span {
	var spans []span
	for start := 0; start < len(seq); {
		end := core.NextCleavage(seq, start, rule)
		if end < start {
			end = start
		}
		spans = append(spans, span{seq: seq[start : end+1], start: start, end: end})
		start = end + 1
	}
	return spans
}

// flank returns the residues either side of [start, end], or the terminus
// symbol at the protein ends.
func flank(protein string, start, end int) (prefix, suffix byte) {
	prefix, suffix = core.TerminusSymbol, core.TerminusSymbol
	if start > 0 {
		prefix = protein[start-1]
	}
	if end+1 < len(protein) {
		suffix = protein[end+1]
	}
	return prefix, suffix
}

func cleanSequence(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c >= 'A' && c <= 'Z' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
