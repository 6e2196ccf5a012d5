package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testFASTA = `>P1 first
MKWVTFISLLFLFSSAYSRGVFRR
>P2 second
AKGRPEPTIDEKLLLLLLLLK
`

func writeFASTA(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "proteins.fasta")
	if err := os.WriteFile(path, []byte(testFASTA), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRulesCommand(t *testing.T) {
	out, _, err := execute(t, "rules")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"trypsin", "Fully Tryptic", "lys-n", "before K", "trypsin-lys-c"} {
		if !strings.Contains(out, want) {
			t.Errorf("rules output is missing %q:\n%s", want, out)
		}
	}
}

func TestConvertCommand(t *testing.T) {
	out, _, err := execute(t, "convert", "--dash", "PEK")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "Pro-Glu-Lys" {
		t.Errorf("convert output = %q, want Pro-Glu-Lys", out)
	}
}

func TestDigestCommandTSV(t *testing.T) {
	fa := writeFASTA(t)
	out, _, err := execute(t, "digest", "--in", fa, "--format", "tsv", "--out", "",
		"--min-residues", "2", "--missed-cleavages", "0", "--exclude-residues", "")
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"\tMK\t", "\tWVTFISLLFLFSSAYSR\t", "\tGVFR\t", "\tGRPEPTIDEK\t", "\tLLLLLLLLK\t"} {
		if !strings.Contains(out, want) {
			t.Errorf("digest output is missing %s", strings.TrimSpace(want))
		}
	}
	// R before P is not cleaved; R alone is below the minimum length
	if strings.Contains(out, "\tPEPTIDEK\t") || strings.Contains(out, "\tR\t") {
		t.Errorf("unexpected fragment in output:\n%s", out)
	}
}

func TestDigestCommandFilters(t *testing.T) {
	fa := writeFASTA(t)
	out, _, err := execute(t, "digest", "--in", fa, "--format", "tsv", "--out", "",
		"--min-residues", "2", "--missed-cleavages", "0", "--exclude-residues", "M")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "\tMK\t") {
		t.Error("--exclude-residues M kept MK")
	}
}

func TestMatchCommandNeedsReference(t *testing.T) {
	if _, _, err := execute(t, "match", "--out", filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Error("match without --db or --in succeeded")
	}
}

func TestMatchCommandSelf(t *testing.T) {
	fa := writeFASTA(t)
	dbPath := filepath.Join(t.TempDir(), "matches.db")

	_, summary, err := execute(t, "match", "--in", fa, "--out", dbPath, "--format", "sqlite",
		"--min-residues", "2", "--missed-cleavages", "0", "--bin-width", "1000")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(summary, "% Unique") {
		t.Errorf("summary missing from stderr:\n%s", summary)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var fragments, selfMatches int
	if err := db.QueryRow("SELECT COUNT(*) FROM FragmentTable").Scan(&fragments); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM MatchTable WHERE FeatureId = MatchingId").Scan(&selfMatches); err != nil {
		t.Fatal(err)
	}
	if fragments == 0 || selfMatches != fragments {
		t.Errorf("%d fragments, %d self matches; every fragment should match itself", fragments, selfMatches)
	}
}

func TestSettingsCommand(t *testing.T) {
	out, _, err := execute(t, "settings")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "digestion:") || !strings.Contains(out, "matching:") {
		t.Errorf("settings output:\n%s", out)
	}
}

func TestPropsCommand(t *testing.T) {
	out, _, err := execute(t, "props", "PEPTIDE", "sampler")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("props output has %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "PEPTIDE") || !strings.Contains(lines[1], "799.") {
		t.Errorf("PEPTIDE row = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "SAMPLER") {
		t.Errorf("second row = %q, want the upper-cased sequence", lines[2])
	}
}
