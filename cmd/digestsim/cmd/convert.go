package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ChrisMcGann/DigestSim/pkg/core"
	"github.com/spf13/cobra"
)

var (
	// Flags for convert command
	toOneLetter bool
	dashed      bool
	spaced      bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [sequence...]",
	Short: "Convert sequences between one- and three-letter notation",
	Long: `Convert protein sequences between one-letter and three-letter residue
notation. Sequences are read from the arguments, or one per line from stdin.

Examples:
  digestsim convert PEPTIDE --dash
  digestsim convert --to-one ProGluProThrIleAspGlu`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().BoolVar(&toOneLetter, "to-one", false, "Convert three-letter input to one-letter notation")
	convertCmd.Flags().BoolVar(&dashed, "dash", false, "Separate three-letter residues with '-'")
	convertCmd.Flags().BoolVar(&spaced, "space", false, "Insert a space after every tenth three-letter residue")
}

func runConvert(cmd *cobra.Command, args []string) error {
	table := core.NewMassTable()
	opts := core.SymbolOptions{SpaceEvery10: spaced, Dash: dashed}
	out := cmd.OutOrStdout()

	convert := func(seq string) {
		fmt.Fprintln(out, table.ConvertSymbols(seq, !toOneLetter, opts))
	}

	if len(args) > 0 {
		for _, seq := range args {
			convert(seq)
		}
		return nil
	}
	return eachLine(cmd.InOrStdin(), convert)
}

// eachLine calls fn for every non-blank line of r
func eachLine(r io.Reader, fn func(string)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fn(line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}
