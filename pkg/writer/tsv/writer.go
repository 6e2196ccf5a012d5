// Package tsv provides tab-delimited text output for digestion and peak
// matching results. Each record kind is written as its own section: a
// header row followed by data rows, sections separated by a blank line.
package tsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ChrisMcGann/DigestSim/pkg/digest"
	"github.com/ChrisMcGann/DigestSim/pkg/features"
	"github.com/ChrisMcGann/DigestSim/pkg/match"
)

type section int

const (
	noSection section = iota
	fragmentSection
	matchSection
	binSection
)

var headers = map[section][]string{
	fragmentSection: {"Protein", "Name", "Sequence", "Prefix", "Suffix", "Start", "End", "Mass", "MH", "NET", "pI", "Hydrophobicity"},
	matchSection:    {"FeatureID", "MatchingID", "SLiCScore", "DelSLiC", "MassError", "NETError", "CandidateCount"},
	binSection:      {"MassStart", "MassEnd", "Features", "Matched", "Unique", "PercentUnique"},
}

// Writer writes results as tab-separated values
type Writer struct {
	w        *csv.Writer
	closer   io.Closer
	current  section
	proteins []string
}

// NewWriter creates a writer on out. If out is an io.Closer, Finalize
// closes it.
func NewWriter(out io.Writer) *Writer {
	w := csv.NewWriter(out)
	w.Comma = '\t'
	tw := &Writer{w: w}
	if c, ok := out.(io.Closer); ok {
		tw.closer = c
	}
	return tw
}

// WriteProtein remembers the protein name; the returned ID tags its fragments
func (w *Writer) WriteProtein(name, description, sequence string) (int64, error) {
	w.proteins = append(w.proteins, name)
	return int64(len(w.proteins)), nil
}

// WriteFragments writes the fragments of one protein
func (w *Writer) WriteFragments(proteinID int64, frags []digest.Fragment) error {
	if err := w.begin(fragmentSection); err != nil {
		return err
	}
	protein := ""
	if proteinID > 0 && int(proteinID) <= len(w.proteins) {
		protein = w.proteins[proteinID-1]
	}
	for _, f := range frags {
		record := []string{
			protein,
			f.Name,
			f.Sequence,
			residue(f.Prefix),
			residue(f.Suffix),
			strconv.Itoa(f.Start),
			strconv.Itoa(f.End),
			formatFloat(f.Mass, 5),
			formatFloat(f.MH, 5),
			formatFloat(f.NET, 4),
			formatFloat(f.PI, 2),
			formatFloat(f.Hydrophobicity, 3),
		}
		if err := w.w.Write(record); err != nil {
			return fmt.Errorf("failed to write fragment %s: %w", f.Name, err)
		}
	}
	return w.w.Error()
}

// WriteMatches writes peak matching results
func (w *Writer) WriteMatches(matches []features.Match) error {
	if err := w.begin(matchSection); err != nil {
		return err
	}
	for _, m := range matches {
		record := []string{
			strconv.Itoa(m.FeatureID),
			strconv.Itoa(m.MatchingID),
			formatFloat(m.SLiCScore, 5),
			formatFloat(m.DelSLiC, 5),
			formatFloat(m.MassErr, 6),
			formatFloat(m.NETErr, 4),
			strconv.Itoa(m.CandidateCount),
		}
		if err := w.w.Write(record); err != nil {
			return fmt.Errorf("failed to write match %d/%d: %w", m.FeatureID, m.MatchingID, err)
		}
	}
	return w.w.Error()
}

// WriteBins writes a uniqueness summary
func (w *Writer) WriteBins(bins []match.MassBin) error {
	if err := w.begin(binSection); err != nil {
		return err
	}
	for _, b := range bins {
		record := []string{
			formatFloat(b.MassStart, 2),
			formatFloat(b.MassEnd, 2),
			strconv.Itoa(b.Features),
			strconv.Itoa(b.Matched),
			strconv.Itoa(b.Unique),
			formatFloat(b.PercentUnique(), 2),
		}
		if err := w.w.Write(record); err != nil {
			return fmt.Errorf("failed to write bin: %w", err)
		}
	}
	return w.w.Error()
}

// begin starts a new section when the record kind changes
func (w *Writer) begin(s section) error {
	if w.current == s {
		return nil
	}
	if w.current != noSection {
		if err := w.w.Write(nil); err != nil {
			return err
		}
	}
	w.current = s
	return w.w.Write(headers[s])
}

// Finalize flushes the output and closes it when it is closeable
func (w *Writer) Finalize() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

// Discard flushes what was written; text output cannot be rolled back
func (w *Writer) Discard() error {
	return w.Finalize()
}

func residue(r byte) string {
	if r == 0 {
		return ""
	}
	return string(r)
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
