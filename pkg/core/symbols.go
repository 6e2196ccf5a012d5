package core

import (
	"strings"
	"unicode"
)

// ThreeLetter returns the three-letter code for a one-letter residue.
func (t *MassTable) ThreeLetter(symbol byte) (string, bool) {
	symbol = upper(symbol)
	if !t.IsKnownResidue(symbol) {
		return "", false
	}
	return t.threeLetter[symbol-'A'], true
}

// OneLetter returns the one-letter code for a three-letter residue
// (case insensitive).
func (t *MassTable) OneLetter(three string) (byte, bool) {
	s, ok := t.oneLetter[strings.ToUpper(three)]
	return s, ok
}

// SymbolOptions controls the layout of ConvertSymbols output.
type SymbolOptions struct {
	// SpaceEvery10 inserts a space after every tenth residue.
	SpaceEvery10 bool
	// Dash separates three-letter residues with '-'.
	Dash bool
}

// ConvertSymbols converts a sequence between one-letter and three-letter
// notation. Unknown one-letter residues become "Xxx"; unknown three-letter
// residues become 'X'. When converting from three-letter notation, spaces
// and dashes are ignored.
func (t *MassTable) ConvertSymbols(seq string, oneToThree bool, opts SymbolOptions) string {
	var b strings.Builder

	if oneToThree {
		n := 0
		for i := 0; i < len(seq); i++ {
			c := seq[i]
			if !unicode.IsLetter(rune(c)) {
				continue
			}
			if n > 0 {
				if opts.SpaceEvery10 && n%10 == 0 {
					b.WriteByte(' ')
				} else if opts.Dash {
					b.WriteByte('-')
				}
			}
			three, ok := t.ThreeLetter(c)
			if !ok {
				three = "Xxx"
			}
			b.WriteString(three)
			n++
		}
		return b.String()
	}

	compact := strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, seq)

	n := 0
	for i := 0; i+3 <= len(compact); i += 3 {
		if opts.SpaceEvery10 && n > 0 && n%10 == 0 {
			b.WriteByte(' ')
		}
		one, ok := t.OneLetter(compact[i : i+3])
		if !ok {
			one = 'X'
		}
		b.WriteByte(one)
		n++
	}
	return b.String()
}
