package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ChrisMcGann/DigestSim/pkg/digest"
	"github.com/ChrisMcGann/DigestSim/pkg/filter"
	"github.com/ChrisMcGann/DigestSim/pkg/logger"
	"github.com/ChrisMcGann/DigestSim/pkg/netcache"
	"github.com/ChrisMcGann/DigestSim/pkg/progress"
	"github.com/ChrisMcGann/DigestSim/pkg/props"
	"github.com/ChrisMcGann/DigestSim/pkg/reader/fasta"
	"github.com/ChrisMcGann/DigestSim/pkg/writer/sqlite"
	"github.com/spf13/cobra"
)

// progressEvery is the protein count between progress log lines
const progressEvery = 1000

var (
	// Flags for digest and match commands
	inputFile string
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Digest the proteins of a FASTA file",
	Long: `Digest every protein of a FASTA file with a cleavage rule and write the
resulting fragments, with mass, pI, hydrophobicity and predicted NET, to a
SQLite database or tab-delimited text.

Examples:
  # Fully tryptic digestion, one missed cleavage, into a database
  digestsim digest --in proteins.fasta --out peptides.db --missed-cleavages 1

  # Lys-C fragments between 800 and 4000 Da (MH) as text on stdout
  digestsim digest -i proteins.fasta --format tsv --rule lys-c --mass-type MH --min-mass 800 --max-mass 4000

  # Keep N-glycosylation motif peptides, caching predicted NETs
  digestsim digest -i proteins.fasta -o glyco.db --pattern 'N[^P][ST]' --net-cache ~/.cache/digestsim`,
	RunE: runDigest,
}

func init() {
	rootCmd.AddCommand(digestCmd)

	digestCmd.Flags().StringVarP(&inputFile, "in", "i", "", "Input FASTA file (required)")
	keys := addDigestionFlags(digestCmd)
	for key, name := range addOutputFlags(digestCmd) {
		keys[key] = name
	}
	for key, name := range addFilterFlags(digestCmd) {
		keys[key] = name
	}
	flagKeys[digestCmd] = keys

	digestCmd.MarkFlagRequired("in")
}

// addDigestionFlags adds the digestion and NET cache flags
func addDigestionFlags(cmd *cobra.Command) map[string]string {
	d := digest.DefaultOptions()
	f := cmd.Flags()
	f.StringP("rule", "r", d.Rule.Name(), "Cleavage rule ('digestsim rules' lists them)")
	f.Int("missed-cleavages", d.MaxMissedCleavages, "Maximum missed cleavages")
	f.Int("min-residues", d.MinFragmentResidueCount, "Minimum fragment length")
	f.Float64("min-mass", d.MinFragmentMass, "Minimum fragment mass")
	f.Float64("max-mass", d.MaxFragmentMass, "Maximum fragment mass")
	f.String("mass-type", d.BoundsMassType.String(), "Mass bounds apply to M (neutral) or MH")
	f.Bool("average-mass", false, "Use average instead of monoisotopic masses")
	f.String("cysteine", d.CysteineTreatment.String(), "Cysteine treatment: untreated, iodoacetamide, iodoacetic-acid")
	f.Bool("remove-duplicates", false, "Report each fragment sequence once per protein")
	f.Bool("include-flanking", false, "Record the residues before and after each fragment")
	f.String("residue-filter", "", "Keep only fragments containing one of these residues")
	f.Bool("filter-pi", false, "Keep only fragments with pI between --min-pi and --max-pi")
	f.Float64("min-pi", d.MinIsoelectricPoint, "Minimum pI")
	f.Float64("max-pi", d.MaxIsoelectricPoint, "Maximum pI")
	f.String("net-cache", "", "Directory of the persistent NET cache (empty = no cache)")
	f.String("net-namespace", "", "NET cache namespace")

	return map[string]string{
		"digestion.rule":                 "rule",
		"digestion.max-missed-cleavages": "missed-cleavages",
		"digestion.min-residues":         "min-residues",
		"digestion.min-mass":             "min-mass",
		"digestion.max-mass":             "max-mass",
		"digestion.mass-type":            "mass-type",
		"digestion.average-mass":         "average-mass",
		"digestion.cysteine":             "cysteine",
		"digestion.remove-duplicates":    "remove-duplicates",
		"digestion.include-flanking":     "include-flanking",
		"digestion.residue-filter":       "residue-filter",
		"digestion.filter-pi":            "filter-pi",
		"digestion.min-pi":               "min-pi",
		"digestion.max-pi":               "max-pi",
		"cache.path":                     "net-cache",
		"cache.namespace":                "net-namespace",
	}
}

// addOutputFlags adds --out and --format
func addOutputFlags(cmd *cobra.Command) map[string]string {
	cmd.Flags().StringP("out", "o", "", "Output file (tsv output defaults to stdout)")
	cmd.Flags().StringP("format", "f", "sqlite", "Output format: sqlite or tsv")
	return map[string]string{
		"output.path":   "out",
		"output.format": "format",
	}
}

// addFilterFlags adds the post-digestion fragment filters
func addFilterFlags(cmd *cobra.Command) map[string]string {
	f := cmd.Flags()
	f.String("pattern", "", "Keep only fragments matching this regular expression")
	f.String("exclude-residues", "", "Drop fragments containing any of these residues")
	f.Float64("min-net", 0, "Minimum predicted NET")
	f.Float64("max-net", 0, "Maximum predicted NET (0 = no limit)")
	return map[string]string{
		"filter.pattern":          "pattern",
		"filter.exclude-residues": "exclude-residues",
		"filter.min-net":          "min-net",
		"filter.max-net":          "max-net",
	}
}

// newNETMemo memoizes NET predictions and, when a cache path is set,
// persists them. The returned func releases the cache.
func newNETMemo(log logger.Logger, obs progress.Observer) (*props.Memo, func(), error) {
	memoOpts := []props.MemoOption{props.WithLogger(log), props.WithObserver(obs)}

	var store *netcache.PebbleStore
	if settings.Cache.Path != "" {
		var err error
		store, err = netcache.Open(settings.Cache.Path,
			netcache.WithNamespace(settings.Cache.Namespace),
			netcache.WithLogger(log))
		if err != nil {
			return nil, nil, err
		}
		memoOpts = append(memoOpts, props.WithStore(store))
	}

	memo := props.NewMemo(props.NewRetentionPredictor(), memoOpts...)
	release := func() {
		hits, misses := memo.Stats()
		log.Debug("net predictions", "hits", hits, "misses", misses)
		if store != nil {
			if err := store.Close(); err != nil {
				log.Warn("closing net cache failed", "error", err)
			}
		}
	}
	return memo, release, nil
}

// newDigestor builds a digestor on a NET memo; release frees the memo's cache
func newDigestor(log logger.Logger) (*digest.Digestor, func(), error) {
	obs := progress.NewLogObserver(log)
	memo, release, err := newNETMemo(log, obs)
	if err != nil {
		return nil, nil, err
	}
	d := digest.New(
		digest.WithNET(memo),
		digest.WithObserver(obs),
		digest.WithLogger(log),
	)
	return d, release, nil
}

// digestFile digests every protein of path, handing each protein's
// filtered fragments to emit
func digestFile(ctx context.Context, path string, opts digest.Options, flt *filter.Config, emit func(*fasta.Protein, []digest.Fragment) error) (proteins, fragments int, err error) {
	log := logger.Default()

	inFile, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open input file: %w", err)
	}
	defer inFile.Close()

	d, release, err := newDigestor(log)
	if err != nil {
		return 0, 0, err
	}
	defer release()

	reader := fasta.NewReader(inFile)
	for reader.Next() {
		p := reader.Protein()

		frags, err := d.Digest(ctx, p.Sequence, opts)
		if err != nil {
			if errors.Is(err, digest.ErrAborted) {
				return proteins, fragments, fmt.Errorf("digestion interrupted at protein %s: %w", p.Name, err)
			}
			return proteins, fragments, fmt.Errorf("failed to digest protein %s: %w", p.Name, err)
		}

		frags, err = flt.Apply(frags)
		if err != nil {
			return proteins, fragments, err
		}
		if err := emit(p, frags); err != nil {
			return proteins, fragments, err
		}

		proteins++
		fragments += len(frags)
		if proteins%progressEvery == 0 {
			log.Info("digesting", "proteins", proteins, "fragments", fragments)
		}
	}

	if err := reader.Err(); err != nil {
		return proteins, fragments, fmt.Errorf("error reading input file: %w", err)
	}
	return proteins, fragments, nil
}

func runDigest(cmd *cobra.Command, args []string) error {
	opts, err := settings.Digestion.Options()
	if err != nil {
		return err
	}
	flt, err := settings.Filter.Filter()
	if err != nil {
		return err
	}

	out, err := openOutput(settings.Output.Format, settings.Output.Path, cmd.OutOrStdout(), sqlite.RunInfo{
		Command:  "digest",
		Rule:     opts.Rule.Name(),
		Settings: settingsYAML(),
	})
	if err != nil {
		return err
	}

	proteins, fragments, err := digestFile(cmd.Context(), inputFile, opts, flt, func(p *fasta.Protein, frags []digest.Fragment) error {
		id, err := out.WriteProtein(p.Name, p.Description, p.Sequence)
		if err != nil {
			return err
		}
		return out.WriteFragments(id, frags)
	})
	if err != nil {
		if derr := out.Discard(); derr != nil {
			logger.Warn("discarding output failed", "error", derr)
		}
		return err
	}

	if err := out.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize output: %w", err)
	}

	logger.Info("digestion complete", "proteins", proteins, "fragments", fragments,
		"rule", opts.Rule.Name(), "output", settings.Output.Path)
	return nil
}
