package cmd

import (
	"fmt"

	"github.com/ChrisMcGann/DigestSim/pkg/config"
	"github.com/spf13/cobra"
)

// settingsCmd prints the effective settings, a starting point for a
// digestsim.yaml file
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Print the effective settings as YAML",
	Long: `Print every setting after defaults, the settings file and DIGESTSIM_*
environment variables are applied. The output is a valid settings file:

  digestsim settings > digestsim.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := config.Dump(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}
