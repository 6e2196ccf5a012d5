package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ChrisMcGann/DigestSim/pkg/core"
	"github.com/ChrisMcGann/DigestSim/pkg/digest"
	"github.com/ChrisMcGann/DigestSim/pkg/match"
)

func TestDefaults(t *testing.T) {
	if _, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load with a missing explicit file succeeded")
	}

	// No explicit file: run from an empty directory
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	s, err := Load(New(), "")
	if err != nil {
		t.Fatal(err)
	}

	opts, err := s.Digestion.Options()
	if err != nil {
		t.Fatal(err)
	}
	want := digest.DefaultOptions()
	want.ComputePI = true
	want.ComputeHydrophobicity = true
	want.ComputeNET = true
	if opts != want.Normalized() {
		t.Errorf("default digestion options = %+v, want %+v", opts, want)
	}

	th, err := s.Matching.Thresholds()
	if err != nil {
		t.Fatal(err)
	}
	if th != match.DefaultThresholds() {
		t.Errorf("default thresholds = %+v, want %+v", th, match.DefaultThresholds())
	}
	if s.Output.Format != "sqlite" || s.Log.Level != "info" {
		t.Errorf("output/log defaults = %+v %+v", s.Output, s.Log)
	}
}

func TestFileAndEnvironment(t *testing.T) {
	file := filepath.Join(t.TempDir(), "settings.yaml")
	yaml := `digestion:
  rule: lys-c
  max-missed-cleavages: 2
  mass-type: MH
  cysteine: iodoacetamide
  average-mass: true
matching:
  mass-tolerance: 0.01
  mass-tolerance-type: absolute
cache:
  path: /tmp/netcache
`
	if err := os.WriteFile(file, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DIGESTSIM_MATCHING_NET_TOLERANCE", "0.2")

	s, err := Load(New(), file)
	if err != nil {
		t.Fatal(err)
	}

	opts, err := s.Digestion.Options()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Rule != core.LysC || opts.MaxMissedCleavages != 2 || opts.BoundsMassType != digest.MH {
		t.Errorf("digestion options = %+v", opts)
	}
	if opts.CysteineTreatment != core.CysIodoacetamide || opts.ElementMode != core.Average {
		t.Errorf("chemistry options = %+v", opts)
	}

	th, err := s.Matching.Thresholds()
	if err != nil {
		t.Fatal(err)
	}
	if th.MassToleranceType != match.Absolute || th.MassTolerance != 0.01 || th.NETTolerance != 0.2 {
		t.Errorf("thresholds = %+v", th)
	}
	if s.Cache.Path != "/tmp/netcache" {
		t.Errorf("cache path = %q", s.Cache.Path)
	}
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		cfg  DigestionConfig
	}{
		{"rule", DigestionConfig{Rule: "papain", MassType: "M"}},
		{"cysteine", DigestionConfig{Rule: "trypsin", Cysteine: "bleach", MassType: "M"}},
		{"mass type", DigestionConfig{Rule: "trypsin", MassType: "MH2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.Options(); err == nil {
				t.Errorf("Options() accepted %+v", tt.cfg)
			}
		})
	}

	if _, err := (MatchingConfig{MassToleranceType: "furlongs"}).Thresholds(); err == nil {
		t.Error("Thresholds() accepted an unknown tolerance type")
	}
}

func TestFilterAndDump(t *testing.T) {
	v := New()
	v.Set("filter.pattern", "N[^P][ST]")
	v.Set("filter.max-net", 0.4)

	s, err := Load(v, writeEmptySettings(t))
	if err != nil {
		t.Fatal(err)
	}
	f, err := s.Filter.Filter()
	if err != nil {
		t.Fatal(err)
	}
	if !f.Active() || f.MaxNET != 0.4 {
		t.Errorf("Filter() = %+v", f)
	}

	s.Filter.Pattern = "N[^P"
	if _, err := s.Filter.Filter(); err == nil {
		t.Error("Filter() accepted an invalid pattern")
	}

	out, err := Dump(v)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "N[^P][ST]") || !strings.Contains(out, "digestion:") {
		t.Errorf("Dump() = %s", out)
	}
}

func writeEmptySettings(t *testing.T) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(file, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return file
}
