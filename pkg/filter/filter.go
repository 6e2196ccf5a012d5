// Package filter provides fragment filters applied after digestion
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ChrisMcGann/DigestSim/pkg/digest"
)

// Config holds filtering configuration
type Config struct {
	SequencePattern string  // Keep only fragments matching this regular expression ("" = all)
	ExcludeResidues string  // Drop fragments containing any of these residues
	MinNET          float64 // Keep only fragments with NET >= MinNET
	MaxNET          float64 // Keep only fragments with NET <= MaxNET (0 = no limit)

	HydrophobicityWindow bool // Keep only fragments within [MinHydrophobicity, MaxHydrophobicity]
	MinHydrophobicity    float64
	MaxHydrophobicity    float64

	pattern *regexp.Regexp
}

// Compile validates the configuration. Apply calls it when needed.
func (c *Config) Compile() error {
	if c.SequencePattern == "" || c.pattern != nil {
		return nil
	}
	re, err := regexp.Compile(c.SequencePattern)
	if err != nil {
		return fmt.Errorf("invalid sequence pattern %q: %w", c.SequencePattern, err)
	}
	c.pattern = re
	return nil
}

// Active reports whether any filter is configured
func (c *Config) Active() bool {
	return c.SequencePattern != "" || c.ExcludeResidues != "" ||
		c.MinNET != 0 || c.MaxNET != 0 || c.HydrophobicityWindow
}

// Apply applies all configured filters, returning the kept fragments in
// their original order. frags is not modified.
func (c *Config) Apply(frags []digest.Fragment) ([]digest.Fragment, error) {
	if err := c.Compile(); err != nil {
		return nil, err
	}
	if !c.Active() {
		return frags, nil
	}

	var filtered []digest.Fragment
	for _, f := range frags {
		if c.keep(f) {
			filtered = append(filtered, f)
		}
	}
	return filtered, nil
}

// keep runs the filters cheapest first
func (c *Config) keep(f digest.Fragment) bool {
	// Filter by NET window
	if f.NET < c.MinNET || (c.MaxNET > 0 && f.NET > c.MaxNET) {
		return false
	}

	// Filter by hydrophobicity window
	if c.HydrophobicityWindow && (f.Hydrophobicity < c.MinHydrophobicity || f.Hydrophobicity > c.MaxHydrophobicity) {
		return false
	}

	// Drop excluded residues
	if c.ExcludeResidues != "" && strings.ContainsAny(f.Sequence, strings.ToUpper(c.ExcludeResidues)) {
		return false
	}

	if c.pattern != nil && !c.pattern.MatchString(f.Sequence) {
		return false
	}
	return true
}
