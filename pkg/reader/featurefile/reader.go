// Package featurefile provides a streaming reader for tab-delimited
// feature lists: the observed features to identify and the mass and time
// tag (AMT) databases they are compared against.
//
// Without a header the columns are ID, Mass, NET and optionally NETStDev
// and DiscriminantScore. A header line, when present, names the columns
// and may add a Name column in any position.
package featurefile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/DigestSim/pkg/features"
)

// Column identifies a feature column
type Column int

const (
	ColID Column = iota
	ColName
	ColMass
	ColNET
	ColNETStDev
	ColDiscriminant
	colUnknown
)

var positional = []Column{ColID, ColMass, ColNET, ColNETStDev, ColDiscriminant}

// headerNames maps lower-cased header names onto columns
var headerNames = map[string]Column{
	"id":                 ColID,
	"feature_id":         ColID,
	"mass_tag_id":        ColID,
	"name":               ColName,
	"sequence":           ColName,
	"peptide":            ColName,
	"mass":               ColMass,
	"monoisotopic_mass":  ColMass,
	"net":                ColNET,
	"avg_ganet":          ColNET,
	"net_stdev":          ColNETStDev,
	"stdev_net":          ColNETStDev,
	"discriminant":       ColDiscriminant,
	"discriminant_score": ColDiscriminant,
}

// Reader provides streaming access to feature files
type Reader struct {
	scanner *bufio.Scanner
	lineNum int
	columns []Column
	current features.ComparisonFeature
	err     error
}

// NewReader creates a new feature file reader
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next advances to the next feature. Returns false when no more features or error.
func (r *Reader) Next() bool {
	r.current = features.ComparisonFeature{}

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimRight(r.scanner.Text(), "\r")

		// Skip blank lines and '#' comments
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := splitFields(line)
		if r.columns == nil {
			if cols, ok := parseHeader(fields); ok {
				r.columns = cols
				continue
			}
			r.columns = positional
		}

		f, err := r.parseFeature(fields)
		if err != nil {
			r.err = fmt.Errorf("line %d: %w", r.lineNum, err)
			return false
		}
		r.current = f
		return true
	}

	if err := r.scanner.Err(); err != nil {
		r.err = err
	}
	return false
}

// Feature returns the current feature
func (r *Reader) Feature() features.ComparisonFeature {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// splitFields splits on tabs, or on runs of spaces when the line has no tab
func splitFields(line string) []string {
	if strings.Contains(line, "\t") {
		fields := strings.Split(line, "\t")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		return fields
	}
	return strings.Fields(line)
}

// parseHeader reports whether fields is a header line. A line whose first
// field is numeric is data.
func parseHeader(fields []string) ([]Column, bool) {
	if len(fields) == 0 {
		return nil, false
	}
	if _, err := strconv.ParseFloat(fields[0], 64); err == nil {
		return nil, false
	}

	cols := make([]Column, len(fields))
	for i, name := range fields {
		col, ok := headerNames[strings.ToLower(name)]
		if !ok {
			col = colUnknown
		}
		cols[i] = col
	}
	return cols, true
}

// parseFeature parses one data line
func (r *Reader) parseFeature(fields []string) (features.ComparisonFeature, error) {
	var f features.ComparisonFeature
	var haveID, haveMass bool

	for i, value := range fields {
		if i >= len(r.columns) || value == "" {
			continue
		}

		switch r.columns[i] {
		case ColID:
			id, err := strconv.Atoi(value)
			if err != nil {
				return f, fmt.Errorf("invalid feature ID %q: %w", value, err)
			}
			f.ID = id
			haveID = true

		case ColName:
			f.Name = value

		case ColMass:
			mass, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return f, fmt.Errorf("invalid mass %q: %w", value, err)
			}
			f.Mass = mass
			haveMass = true

		case ColNET:
			v, err := parseFloat32(value)
			if err != nil {
				return f, fmt.Errorf("invalid NET %q: %w", value, err)
			}
			f.NET = v

		case ColNETStDev:
			v, err := parseFloat32(value)
			if err != nil {
				return f, fmt.Errorf("invalid NET std-dev %q: %w", value, err)
			}
			f.NETStDev = v

		case ColDiscriminant:
			v, err := parseFloat32(value)
			if err != nil {
				return f, fmt.Errorf("invalid discriminant score %q: %w", value, err)
			}
			f.DiscriminantScore = v
		}
	}

	if !haveID || !haveMass {
		return f, fmt.Errorf("expected at least an ID and a mass, got %d fields", len(fields))
	}
	return f, nil
}

func parseFloat32(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	return float32(v), err
}

// LoadTable reads every feature into a feature table. Rows with an ID
// already present are skipped and counted.
func LoadTable(r io.Reader, t *features.Table) (skipped int, err error) {
	reader := NewReader(r)
	for reader.Next() {
		f := reader.Feature()
		if !t.Add(f.ID, f.Name, f.Mass, f.NET) {
			skipped++
		}
	}
	return skipped, reader.Err()
}

// LoadComparisonTable reads every feature into a comparison table.
func LoadComparisonTable(r io.Reader, t *features.ComparisonTable) (skipped int, err error) {
	reader := NewReader(r)
	for reader.Next() {
		f := reader.Feature()
		if !t.Add(f.ID, f.Name, f.Mass, f.NET, f.NETStDev, f.DiscriminantScore) {
			skipped++
		}
	}
	return skipped, reader.Err()
}
