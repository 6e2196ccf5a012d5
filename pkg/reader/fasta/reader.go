// Package fasta provides a streaming reader for FASTA protein files
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxLineLength bounds a single FASTA line; unwrapped sequences can be long
const maxLineLength = 16 << 20

// Protein is one FASTA record
type Protein struct {
	Name        string
	Description string
	Sequence    string
}

// Reader provides streaming access to FASTA files
type Reader struct {
	scanner *bufio.Scanner
	lineNum int
	header  string
	started bool
	current *Protein
	err     error
}

// NewReader creates a new FASTA reader
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return &Reader{scanner: scanner}
}

// Next advances to the next protein. Returns false when no more proteins or error.
func (r *Reader) Next() bool {
	r.current = nil

	p, err := r.readProtein()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.current = p
	return true
}

// Protein returns the current protein
func (r *Reader) Protein() *Protein {
	return r.current
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// LineNumber returns the number of lines consumed so far
func (r *Reader) LineNumber() int {
	return r.lineNum
}

// readProtein reads up to the next header line. The header that ends a
// record is kept for the following call.
func (r *Reader) readProtein() (*Protein, error) {
	var seq strings.Builder

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip blank lines and old-style ';' comments
		if line == "" || line[0] == ';' {
			continue
		}

		if line[0] == '>' {
			if !r.started {
				r.started = true
				r.header = line[1:]
				continue
			}
			p := newProtein(r.header, seq.String())
			r.header = line[1:]
			return p, nil
		}

		if !r.started {
			return nil, fmt.Errorf("line %d: sequence data before the first '>' header", r.lineNum)
		}
		appendResidues(&seq, line)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
	}

	if r.started {
		r.started = false
		return newProtein(r.header, seq.String()), nil
	}

	return nil, io.EOF
}

// newProtein splits a header into its name (first word) and description
func newProtein(header, seq string) *Protein {
	header = strings.TrimSpace(header)
	name, desc, _ := strings.Cut(header, " ")
	return &Protein{
		Name:        name,
		Description: strings.TrimSpace(desc),
		Sequence:    seq,
	}
}

// appendResidues keeps the letters of line, upper-cased
func appendResidues(b *strings.Builder, line string) {
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c)
		case c >= 'a' && c <= 'z':
			b.WriteByte(c - 'a' + 'A')
		}
	}
}

// ReadAll reads every protein from r
func ReadAll(r io.Reader) ([]Protein, error) {
	reader := NewReader(r)
	var proteins []Protein
	for reader.Next() {
		proteins = append(proteins, *reader.Protein())
	}
	return proteins, reader.Err()
}
