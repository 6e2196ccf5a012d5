package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownRule is returned for a RuleID outside the registry.
var ErrUnknownRule = errors.New("core: unknown cleavage rule")

// RuleID identifies a built-in cleavage rule.
type RuleID int

const (
	NoRule RuleID = iota
	ConventionalTrypsin
	TrypsinWithoutProlineException
	EricPartialTrypsin
	TrypsinPlusFVLEY
	KROneEnd
	TerminiOnly
	Chymotrypsin
	ChymotrypsinAndTrypsin
	GluC
	CyanBr
	LysC
	GluCEOnly
	ArgC
	AspN
	ProteinaseK
	PepsinA
	PepsinB
	PepsinC
	PepsinD
	AceticAcidD
	TrypsinPlusLysC
	Thermolysin
	LysN
	ArgCPlusLysC
	Elastase

	ruleCount
)

type ruleEntry struct {
	name string
	rule CleavageRule
}

var (
	lysC       = NewCleavageRule("Lys-C", "K", "")
	aceticAcid = NewCleavageRule("Acetic Acid Hydrolysis", "D", "",
		WithAdditionalRules(NewCleavageRule("Acetic Acid Hydrolysis (N-side)", "D", "", Reversed())))
	trypsinLysC = NewCleavageRule("Trypsin plus Lys-C", "KR", "P", WithAdditionalRules(lysC))
	argCLysC    = NewCleavageRule("Arg-C plus Lys-C", "R", "", WithAdditionalRules(lysC))
)

var ruleRegistry = [ruleCount]ruleEntry{
	NoRule:                         {"none", NewCleavageRule("No cleavage rule", "", "")},
	ConventionalTrypsin:            {"trypsin", NewCleavageRule("Fully Tryptic", "KR", "P")},
	TrypsinWithoutProlineException: {"trypsin-no-proline", NewCleavageRule("Fully Tryptic (no Proline Rule)", "KR", "")},
	EricPartialTrypsin:             {"eric-partial-trypsin", NewCleavageRule("Eric's Partial Trypsin", "KRFYVEL", "", AllowPartial())},
	TrypsinPlusFVLEY:               {"trypsin-fvley", NewCleavageRule("Trypsin plus FVLEY", "KRFYVEL", "")},
	KROneEnd:                       {"half-trypsin", NewCleavageRule("Half (Partial) Trypsin", "KR", "P", AllowPartial())},
	TerminiOnly:                    {"termini-only", NewCleavageRule("Peptide Database; terminii only", string(TerminusSymbol), "")},
	Chymotrypsin:                   {"chymotrypsin", NewCleavageRule("Chymotrypsin", "FWYL", "")},
	ChymotrypsinAndTrypsin:         {"chymotrypsin-trypsin", NewCleavageRule("Chymotrypsin + Trypsin", "FWYLKR", "")},
	GluC:                           {"glu-c", NewCleavageRule("Glu-C", "ED", "")},
	CyanBr:                         {"cyanbr", NewCleavageRule("CyanBr", "M", "")},
	LysC:                           {"lys-c", lysC},
	GluCEOnly:                      {"glu-c-e", NewCleavageRule("Glu-C, just Glu", "E", "")},
	ArgC:                           {"arg-c", NewCleavageRule("Arg-C", "R", "")},
	AspN:                           {"asp-n", NewCleavageRule("Asp-N", "D", "", Reversed())},
	ProteinaseK:                    {"proteinase-k", NewCleavageRule("Proteinase K", "AEFILTVWY", "")},
	PepsinA:                        {"pepsin-a", NewCleavageRule("PepsinA", "FLIWY", "P")},
	PepsinB:                        {"pepsin-b", NewCleavageRule("PepsinB", "FLIPWY", "")},
	PepsinC:                        {"pepsin-c", NewCleavageRule("PepsinC", "FLWYA", "P")},
	PepsinD:                        {"pepsin-d", NewCleavageRule("PepsinD", "FLWYAEQ", "")},
	AceticAcidD:                    {"acetic-acid", aceticAcid},
	TrypsinPlusLysC:                {"trypsin-lys-c", trypsinLysC},
	Thermolysin:                    {"thermolysin", NewCleavageRule("Thermolysin", "LFVIAM", "", Reversed())},
	LysN:                           {"lys-n", NewCleavageRule("Lys-N", "K", "", Reversed())},
	ArgCPlusLysC:                   {"arg-c-lys-c", argCLysC},
	Elastase:                       {"elastase", NewCleavageRule("Elastase", "AGSV", "P")},
}

// Rule returns the built-in rule for id.
func Rule(id RuleID) (CleavageRule, error) {
	if !id.Valid() {
		return CleavageRule{}, fmt.Errorf("%w: %d", ErrUnknownRule, int(id))
	}
	return ruleRegistry[id].rule, nil
}

// Valid reports whether id names a built-in rule.
func (id RuleID) Valid() bool {
	return id >= NoRule && id < ruleCount
}

// Name returns the short CLI name of the rule.
func (id RuleID) Name() string {
	if !id.Valid() {
		return "unknown"
	}
	return ruleRegistry[id].name
}

func (id RuleID) String() string {
	return id.Name()
}

// UsesTrypticNames reports whether fragments digested with this rule are
// named "t<fragment>.<span>" rather than "<start>.<end>".
func (id RuleID) UsesTrypticNames() bool {
	return id == ConventionalTrypsin || id == TrypsinWithoutProlineException
}

// RuleIDs lists every built-in rule in ID order.
func RuleIDs() []RuleID {
	ids := make([]RuleID, 0, ruleCount)
	for id := NoRule; id < ruleCount; id++ {
		ids = append(ids, id)
	}
	return ids
}

// ParseRuleID resolves a rule by short name, description or number.
func ParseRuleID(s string) (RuleID, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		id := RuleID(n)
		if !id.Valid() {
			return NoRule, fmt.Errorf("%w: %d", ErrUnknownRule, n)
		}
		return id, nil
	}
	for id := NoRule; id < ruleCount; id++ {
		e := ruleRegistry[id]
		if strings.EqualFold(s, e.name) || strings.EqualFold(s, e.rule.description) {
			return id, nil
		}
	}
	return NoRule, fmt.Errorf("%w: %q", ErrUnknownRule, s)
}
