package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/ChrisMcGann/DigestSim/pkg/core"
	"github.com/ChrisMcGann/DigestSim/pkg/logger"
	"github.com/ChrisMcGann/DigestSim/pkg/progress"
	"github.com/ChrisMcGann/DigestSim/pkg/props"
	"github.com/spf13/cobra"
)

var propsCmd = &cobra.Command{
	Use:   "props [sequence...]",
	Short: "Print mass, pI, hydrophobicity and predicted NET of peptides",
	Long: `Print the neutral mass, MH, isoelectric point, hydrophobicity and predicted
NET of each peptide. Sequences are read from the arguments, or one per line
from stdin.

Examples:
  digestsim props PEPTIDE SAMPLER
  digestsim props --average-mass --cysteine iodoacetamide < peptides.txt`,
	RunE: runProps,
}

func init() {
	rootCmd.AddCommand(propsCmd)

	propsCmd.Flags().Bool("average-mass", false, "Use average instead of monoisotopic masses")
	propsCmd.Flags().String("cysteine", "untreated", "Cysteine treatment: untreated, iodoacetamide, iodoacetic-acid")
	propsCmd.Flags().String("net-cache", "", "Directory of the persistent NET cache (empty = no cache)")
	flagKeys[propsCmd] = map[string]string{
		"digestion.average-mass": "average-mass",
		"digestion.cysteine":     "cysteine",
		"cache.path":             "net-cache",
	}
}

func runProps(cmd *cobra.Command, args []string) error {
	opts, err := settings.Digestion.Options()
	if err != nil {
		return err
	}

	log := logger.Default()
	memo, release, err := newNETMemo(log, progress.NewLogObserver(log))
	if err != nil {
		return err
	}
	defer release()

	pep := core.NewPeptide(core.NewMassTable())
	pep.SetMassMode(opts.ElementMode)
	pep.SetCysteineTreatment(opts.CysteineTreatment)
	calc := &props.Calculator{}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Sequence\tMass\tMH\tpI\tHydrophobicity\tNET")

	write := func(seq string) {
		pep.SetSequence(seq)
		s := pep.Sequence()
		fmt.Fprintf(tw, "%s\t%.5f\t%.5f\t%.2f\t%.3f\t%.4f\n",
			s, pep.Mass(), pep.MH(), calc.PI(s), calc.Hydrophobicity(s), memo.NET(s))
	}

	if len(args) > 0 {
		for _, seq := range args {
			write(seq)
		}
	} else if err := eachLine(cmd.InOrStdin(), write); err != nil {
		return err
	}
	return tw.Flush()
}
