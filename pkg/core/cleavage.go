package core

import (
	"strings"
)

const (
	// TerminusSymbol marks the protein N- or C-terminus in annotated
	// sequences such as "-.MSKR.A".
	TerminusSymbol = '-'
	// SeparatorSymbol separates prefix, residues and suffix.
	SeparatorSymbol = '.'
)

// CleavageRule describes where an enzyme or reagent may cut. Rules are
// immutable once built with NewCleavageRule.
type CleavageRule struct {
	description  string
	residues     string
	exceptions   string
	reversed     bool
	allowPartial bool
	additional   []CleavageRule
}

// RuleOption configures a CleavageRule at construction.
type RuleOption func(*CleavageRule)

// Reversed makes the rule cut before its cleavage residues (Asp-N style)
// instead of after them.
func Reversed() RuleOption {
	return func(r *CleavageRule) { r.reversed = true }
}

// AllowPartial accepts fragments where only one end satisfies the rule.
func AllowPartial() RuleOption {
	return func(r *CleavageRule) { r.allowPartial = true }
}

// WithAdditionalRules adds alternate rules tried, in order, when the
// primary rule does not match an end. Used for combined digests.
func WithAdditionalRules(rules ...CleavageRule) RuleOption {
	return func(r *CleavageRule) {
		r.additional = append(r.additional, rules...)
	}
}

// NewCleavageRule builds a rule. Residue sets are case insensitive.
func NewCleavageRule(description, cleavageResidues, exceptionResidues string, opts ...RuleOption) CleavageRule {
	r := CleavageRule{
		description: description,
		residues:    strings.ToUpper(cleavageResidues),
		exceptions:  strings.ToUpper(exceptionResidues),
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}

func (r CleavageRule) Description() string       { return r.description }
func (r CleavageRule) CleavageResidues() string  { return r.residues }
func (r CleavageRule) ExceptionResidues() string { return r.exceptions }
func (r CleavageRule) ReversedDirection() bool   { return r.reversed }
func (r CleavageRule) AllowsPartialCleavage() bool {
	return r.allowPartial
}

// AdditionalRules returns a copy of the alternate rules.
func (r CleavageRule) AdditionalRules() []CleavageRule {
	out := make([]CleavageRule, len(r.additional))
	copy(out, r.additional)
	return out
}

// TerminusOnly reports whether the rule only accepts fragments bounded by
// both protein termini (peptide database mode).
func (r CleavageRule) TerminusOnly() bool {
	return r.residues == string(TerminusSymbol)
}

// String renders the rule like "Fully Tryptic [KR|P]".
func (r CleavageRule) String() string {
	var b strings.Builder
	b.WriteString(r.description)
	b.WriteString(" [")
	if r.reversed {
		b.WriteString("before ")
	}
	b.WriteString(r.residues)
	if r.exceptions != "" {
		b.WriteByte('|')
		b.WriteString(r.exceptions)
	}
	b.WriteByte(']')
	for _, a := range r.additional {
		b.WriteString(" + ")
		b.WriteString(a.String())
	}
	return b.String()
}

// cutAllowed reports whether the rule alone permits a cut between before
// and after.
func (r CleavageRule) cutAllowed(before, after byte) bool {
	if r.reversed {
		return strings.IndexByte(r.residues, after) >= 0 &&
			strings.IndexByte(r.exceptions, before) < 0
	}
	return strings.IndexByte(r.residues, before) >= 0 &&
		strings.IndexByte(r.exceptions, after) < 0
}

// boundaryMatches tries the rule, then each additional rule in order.
func (r CleavageRule) boundaryMatches(before, after byte) bool {
	if r.cutAllowed(before, after) {
		return true
	}
	for _, a := range r.additional {
		if a.boundaryMatches(before, after) {
			return true
		}
	}
	return false
}

// CheckCleavage evaluates an annotated sequence of the form
// "PREFIX.RESIDUES.SUFFIX" against rule. It returns how many of the two
// ends satisfy the rule and whether the fragment is valid. A prefix or
// suffix equal to TerminusSymbol always matches. Sequences without both
// separators, or with no residues between them, are never valid.
func CheckCleavage(annotated string, rule CleavageRule) (matchCount int, valid bool) {
	prefix, residues, suffix, ok := SplitAnnotated(annotated)
	if !ok || residues == "" {
		return 0, false
	}

	nTerm := prefix == TerminusSymbol
	cTerm := suffix == TerminusSymbol
	if nTerm {
		matchCount++
	}
	if cTerm {
		matchCount++
	}

	if rule.TerminusOnly() {
		return matchCount, nTerm && cTerm
	}

	if nTerm && cTerm {
		return matchCount, true
	}

	prefixOK := nTerm || rule.boundaryMatches(prefix, residues[0])
	suffixOK := cTerm || rule.boundaryMatches(residues[len(residues)-1], suffix)
	if !nTerm && prefixOK {
		matchCount++
	}
	if !cTerm && suffixOK {
		matchCount++
	}

	switch {
	case nTerm:
		return matchCount, suffixOK
	case cTerm:
		return matchCount, prefixOK
	case matchCount == 2:
		return matchCount, true
	case matchCount == 1 && rule.allowPartial:
		return matchCount, true
	}
	return matchCount, false
}

// SplitAnnotated splits "X.RESIDUES.Y" into its upper-cased prefix
// residue, core residues and suffix residue. The prefix is the last
// character before the first separator and the suffix the first character
// after the last one.
func SplitAnnotated(annotated string) (prefix byte, residues string, suffix byte, ok bool) {
	first := strings.IndexByte(annotated, SeparatorSymbol)
	last := strings.LastIndexByte(annotated, SeparatorSymbol)
	if first <= 0 || last == first || last >= len(annotated)-1 {
		return 0, "", 0, false
	}
	prefix = upper(annotated[first-1])
	suffix = upper(annotated[last+1])
	residues = strings.ToUpper(annotated[first+1 : last])
	return prefix, residues, suffix, true
}

// NextCleavage returns the index of the last residue of the fragment that
// starts at start, i.e. the fragment is residues[start:end+1]. When no
// further cleavage site exists the fragment runs to the end of the
// sequence. residues must be upper case. A start outside the sequence
// returns -1.
func NextCleavage(residues string, start int, rule CleavageRule) int {
	if start < 0 {
		start = 0
	}
	if start >= len(residues) {
		return -1
	}

	end := len(residues) - 1
	if rule.TerminusOnly() {
		return end
	}
	if e := rule.nextCut(residues, start); e >= 0 && e < end {
		end = e
	}
	for _, a := range rule.additional {
		if e := NextCleavage(residues, start, a); e >= 0 && e < end {
			end = e
		}
	}
	return end
}

// nextCut returns the end index of the fragment starting at start for this
// rule alone, or -1 when no site is found.
func (r CleavageRule) nextCut(residues string, start int) int {
	loc := r.findRuleResidue(residues, start, start)
	if loc < 0 {
		return -1
	}
	if r.reversed {
		return loc - 1
	}
	return loc
}

// findRuleResidue finds the first cleavage residue at or after from whose
// neighbour is not an exception residue. Sites rejected by the exception
// lookahead are skipped by searching again one position further on.
// Reversed rules never cut in front of the fragment's first residue.
func (r CleavageRule) findRuleResidue(residues string, start, from int) int {
	if r.reversed && from <= start {
		from = start + 1
	}
	if from >= len(residues) || r.residues == "" {
		return -1
	}

	rel := strings.IndexAny(residues[from:], r.residues)
	if rel < 0 {
		return -1
	}
	loc := from + rel

	if r.exceptions != "" {
		if r.reversed {
			if strings.IndexByte(r.exceptions, residues[loc-1]) >= 0 {
				return r.findRuleResidue(residues, start, loc+1)
			}
		} else if loc+1 < len(residues) && strings.IndexByte(r.exceptions, residues[loc+1]) >= 0 {
			return r.findRuleResidue(residues, start, loc+1)
		}
	}
	return loc
}
