// Package cmd provides CLI command implementations
package cmd

import (
	"context"
	"fmt"

	"github.com/ChrisMcGann/DigestSim/pkg/config"
	"github.com/ChrisMcGann/DigestSim/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// v holds defaults, the settings file, DIGESTSIM_* variables and bound flags
	v = config.New()

	settingsFile string
	settings     config.Settings

	// flagKeys maps each command's flags to viper keys. Commands share keys,
	// so only the running command's flags are bound.
	flagKeys = map[*cobra.Command]map[string]string{}
)

var rootCmd = &cobra.Command{
	Use:   "digestsim",
	Short: "DigestSim - in-silico protein digestion and peak matching",
	Long: `DigestSim digests protein sequences with enzyme or chemical cleavage rules
and matches mass/NET features against a reference database using SLiC scores.

Settings are read, lowest precedence first, from built-in defaults, a YAML
settings file (--config, or ./digestsim.yaml), DIGESTSIM_* environment
variables and command line flags.`,
	Version:      "1.0.0",
	SilenceUsage: true,
}

// Execute runs the root command with a context cancelled on interrupt
func Execute(ctx context.Context) error {
	defer logger.SyncDefault()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentPreRunE = loadSettings

	rootCmd.PersistentFlags().StringVarP(&settingsFile, "config", "c", "", "YAML settings file (default ./digestsim.yaml if present)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("dev-log", false, "Human-readable console logging")

	flagKeys[rootCmd] = map[string]string{
		"log.level":       "log-level",
		"log.development": "dev-log",
	}
}

// bindFlags binds viper keys to flags
func bindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("no --%s flag for setting %s", name, key)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding %s to --%s: %w", key, name, err)
		}
	}
	return nil
}

// loadSettings binds the running command's flags, decodes the settings
// and installs the default logger
func loadSettings(cmd *cobra.Command, args []string) error {
	if err := bindFlags(rootCmd.PersistentFlags(), flagKeys[rootCmd]); err != nil {
		return err
	}
	if cmd != rootCmd {
		if err := bindFlags(cmd.Flags(), flagKeys[cmd]); err != nil {
			return err
		}
	}

	s, err := config.Load(v, settingsFile)
	if err != nil {
		return err
	}
	settings = s

	var log logger.Logger
	if s.Log.Development {
		log, err = logger.Development(s.Log.Level)
	} else {
		log, err = logger.Production(s.Log.Level)
	}
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", s.Log.Level, err)
	}
	logger.SetDefault(log)

	if used := v.ConfigFileUsed(); used != "" {
		log.Debug("settings file loaded", "path", used)
	}
	return nil
}

// settingsYAML renders the effective settings for the run record
func settingsYAML() string {
	out, err := config.Dump(v)
	if err != nil {
		logger.Warn("could not encode settings", "error", err)
		return ""
	}
	return out
}
