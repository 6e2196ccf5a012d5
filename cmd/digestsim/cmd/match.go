package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/ChrisMcGann/DigestSim/pkg/digest"
	"github.com/ChrisMcGann/DigestSim/pkg/features"
	"github.com/ChrisMcGann/DigestSim/pkg/logger"
	"github.com/ChrisMcGann/DigestSim/pkg/match"
	"github.com/ChrisMcGann/DigestSim/pkg/progress"
	"github.com/ChrisMcGann/DigestSim/pkg/reader/fasta"
	"github.com/ChrisMcGann/DigestSim/pkg/reader/featurefile"
	"github.com/ChrisMcGann/DigestSim/pkg/writer/sqlite"
	"github.com/spf13/cobra"
)

var (
	// Flags for match command
	featureFile string
	dbFile      string
	noSummary   bool
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match mass/NET features against a reference database",
	Long: `Match observed features (ID, mass, NET) against a reference database and
score the candidates of every feature with SLiC scores.

The reference is either a tab-delimited mass and time tag file (--db) or the
fragments of a FASTA digestion (--in). Without --features the reference is
matched against itself, which measures how many of its peptides can be told
apart by mass and NET alone; the uniqueness summary reports this per mass bin.

Examples:
  # Identify features against an AMT database
  digestsim match --features features.txt --db amt.txt --out matches.db

  # Peptide uniqueness of a tryptic digest at 5 ppm and 0.05 NET
  digestsim match --in proteins.fasta --format tsv --mass-tolerance 5 --net-tolerance 0.05`,
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVarP(&featureFile, "features", "F", "", "Features to identify (default: the reference itself)")
	matchCmd.Flags().StringVarP(&dbFile, "db", "d", "", "Reference mass and time tag file")
	matchCmd.Flags().StringVarP(&inputFile, "in", "i", "", "FASTA file digested into the reference")
	matchCmd.Flags().BoolVar(&noSummary, "no-summary", false, "Do not print the uniqueness summary")

	keys := addMatchingFlags(matchCmd)
	for key, name := range addDigestionFlags(matchCmd) {
		keys[key] = name
	}
	for key, name := range addOutputFlags(matchCmd) {
		keys[key] = name
	}
	for key, name := range addFilterFlags(matchCmd) {
		keys[key] = name
	}
	flagKeys[matchCmd] = keys

	matchCmd.MarkFlagsMutuallyExclusive("db", "in")
	matchCmd.MarkFlagsOneRequired("db", "in")
}

// addMatchingFlags adds the search threshold and mass bin flags
func addMatchingFlags(cmd *cobra.Command) map[string]string {
	th := match.DefaultThresholds()
	f := cmd.Flags()
	f.Float64("mass-tolerance", th.MassTolerance, "Mass tolerance")
	f.String("mass-tolerance-type", th.MassToleranceType.String(), "Mass tolerance unit: ppm or absolute (Da)")
	f.Float64("net-tolerance", th.NETTolerance, "NET tolerance")
	f.Float64("slic-mass-stdev", th.SLiCMassStDevPPM, "SLiC mass standard deviation (ppm)")
	f.Float64("slic-net-stdev", th.SLiCNETStDev, "SLiC NET standard deviation")
	f.Bool("use-amt-net-stdev", th.UseAMTNETStDev, "Use the reference NET standard deviations in SLiC scores")
	f.Bool("auto-slic", th.AutoDefineSLiCScoreThresholds, "Derive SLiC standard deviations from the tolerances")
	f.Float64("search-multiplier", th.MaxSearchDistanceMultiplier, "Candidate search window, in standard deviations")
	f.Bool("use-slic", th.UseMaxSearchDistanceMultiplierAndSLiCScore, "Search a widened window, then keep candidates inside the tolerances")
	f.Bool("ellipse", th.UseEllipseSearchRegion, "Use an elliptical mass/NET search region")
	f.Int("max-results", th.MaxResultsPerFeature, "Maximum matches kept per feature")
	f.Float64("bin-start", 0, "Uniqueness summary: first bin mass")
	f.Float64("bin-end", 6000, "Uniqueness summary: last bin end mass")
	f.Float64("bin-width", 500, "Uniqueness summary: bin width")

	return map[string]string{
		"matching.mass-tolerance":                 "mass-tolerance",
		"matching.mass-tolerance-type":            "mass-tolerance-type",
		"matching.net-tolerance":                  "net-tolerance",
		"matching.slic-mass-stdev-ppm":            "slic-mass-stdev",
		"matching.slic-net-stdev":                 "slic-net-stdev",
		"matching.use-amt-net-stdev":              "use-amt-net-stdev",
		"matching.auto-define-slic":               "auto-slic",
		"matching.max-search-distance-multiplier": "search-multiplier",
		"matching.use-slic":                       "use-slic",
		"matching.ellipse":                        "ellipse",
		"matching.max-results":                    "max-results",
		"matching.bin-start":                      "bin-start",
		"matching.bin-end":                        "bin-end",
		"matching.bin-width":                      "bin-width",
	}
}

// loadReference fills the comparison table from --db, or by digesting
// --in. Digested fragments are numbered from 1 in digestion order and are
// also written to out.
func loadReference(ctx context.Context, out resultWriter, comparison *features.ComparisonTable) error {
	if dbFile != "" {
		f, err := os.Open(dbFile)
		if err != nil {
			return fmt.Errorf("failed to open reference file: %w", err)
		}
		defer f.Close()

		skipped, err := featurefile.LoadComparisonTable(f, comparison)
		if err != nil {
			return fmt.Errorf("error reading reference file: %w", err)
		}
		if skipped > 0 {
			logger.Warn("duplicate reference IDs skipped", "count", skipped)
		}
		return nil
	}

	opts, err := settings.Digestion.Options()
	if err != nil {
		return err
	}
	opts.ComputeNET = true
	flt, err := settings.Filter.Filter()
	if err != nil {
		return err
	}

	nextID := 1
	_, _, err = digestFile(ctx, inputFile, opts, flt, func(p *fasta.Protein, frags []digest.Fragment) error {
		id, err := out.WriteProtein(p.Name, p.Description, p.Sequence)
		if err != nil {
			return err
		}
		if err := out.WriteFragments(id, frags); err != nil {
			return err
		}
		for _, f := range frags {
			comparison.Add(nextID, f.Sequence, f.Mass, float32(f.NET), 0, 0)
			nextID++
		}
		return nil
	})
	return err
}

// loadFeatures reads --features, or copies the reference when it is unset
func loadFeatures(comparison *features.ComparisonTable) (*features.Table, error) {
	toIdentify := features.NewTable()

	if featureFile == "" {
		for row := 0; row < comparison.Len(); row++ {
			f, _ := comparison.Row(row)
			toIdentify.Add(f.ID, f.Name, f.Mass, f.NET)
		}
		return toIdentify, nil
	}

	f, err := os.Open(featureFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open features file: %w", err)
	}
	defer f.Close()

	skipped, err := featurefile.LoadTable(f, toIdentify)
	if err != nil {
		return nil, fmt.Errorf("error reading features file: %w", err)
	}
	if skipped > 0 {
		logger.Warn("duplicate feature IDs skipped", "count", skipped)
	}
	return toIdentify, nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	th, err := settings.Matching.Thresholds()
	if err != nil {
		return err
	}

	out, err := openOutput(settings.Output.Format, settings.Output.Path, cmd.OutOrStdout(), sqlite.RunInfo{
		Command:  "match",
		Rule:     settings.Digestion.Rule,
		Settings: settingsYAML(),
	})
	if err != nil {
		return err
	}

	if err := identify(cmd.Context(), cmd.ErrOrStderr(), out, th); err != nil {
		if derr := out.Discard(); derr != nil {
			logger.Warn("discarding output failed", "error", derr)
		}
		return err
	}

	if err := out.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize output: %w", err)
	}
	return nil
}

func identify(ctx context.Context, stderr io.Writer, out resultWriter, th match.SearchThresholds) error {
	log := logger.Default()

	comparison := features.NewComparisonTable()
	if err := loadReference(ctx, out, comparison); err != nil {
		return err
	}
	toIdentify, err := loadFeatures(comparison)
	if err != nil {
		return err
	}
	log.Info("matching", "features", toIdentify.Len(), "reference", comparison.Len())

	matcher := match.NewMatcher(th,
		match.WithObserver(progress.NewLogObserver(log)),
		match.WithLogger(log))
	results := features.NewMatchResults()

	complete, err := matcher.Identify(ctx, toIdentify, comparison, results)
	if err != nil {
		return err
	}
	if !complete {
		return errors.Join(errors.New("matching interrupted"), ctx.Err())
	}

	bins, err := match.SummarizeUniqueness(toIdentify, results,
		settings.Matching.BinStart, settings.Matching.BinEnd, settings.Matching.BinWidth)
	if err != nil {
		return err
	}

	if err := out.WriteMatches(results.All()); err != nil {
		return err
	}
	if err := out.WriteBins(bins); err != nil {
		return err
	}

	log.Info("matching complete", "features", toIdentify.Len(), "matches", results.Len())
	if !noSummary {
		printSummary(stderr, bins)
	}
	return nil
}

// printSummary prints the uniqueness table
func printSummary(w io.Writer, bins []match.MassBin) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Mass range\tFeatures\tMatched\tUnique\t% Unique\t")

	var total, matched, unique int
	for _, b := range bins {
		fmt.Fprintf(tw, "%.0f-%.0f\t%d\t%d\t%d\t%.1f\t\n",
			b.MassStart, b.MassEnd, b.Features, b.Matched, b.Unique, b.PercentUnique())
		total += b.Features
		matched += b.Matched
		unique += b.Unique
	}

	all := match.MassBin{Features: total, Matched: matched, Unique: unique}
	fmt.Fprintf(tw, "All\t%d\t%d\t%d\t%.1f\t\n", total, matched, unique, all.PercentUnique())
	tw.Flush()
}
