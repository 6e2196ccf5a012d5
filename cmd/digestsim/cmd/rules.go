package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/ChrisMcGann/DigestSim/pkg/core"
	"github.com/spf13/cobra"
)

// rulesCmd lists the built-in cleavage rules. Useful when a --rule name
// is not recognized.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the available cleavage rules",
	Long: `Lists every built-in cleavage rule with the residues it cleaves after (or
before, for reversed rules) and the residues that block cleavage.

	<ID> <Name> <Cleaves> <Except> <Description>`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tName\tCleaves\tExcept\tDescription")

		for _, id := range core.RuleIDs() {
			rule, err := core.Rule(id)
			if err != nil {
				return err
			}
			cleaves := rule.CleavageResidues()
			if rule.ReversedDirection() {
				cleaves = "before " + cleaves
			}
			for _, extra := range rule.AdditionalRules() {
				cleaves += " + " + extra.CleavageResidues()
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
				int(id), id.Name(), cleaves, rule.ExceptionResidues(), rule.Description())
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
