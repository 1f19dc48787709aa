package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/godata-project/godata/config"
	"github.com/godata-project/godata/internal/logger"
)

var (
	flagVerbose bool
	flagConfig  string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "godata",
	Short: "Client for Google Calendar, YouTube and Documents",
	Long: `godata talks to the GData-family Google services: Calendar,
YouTube and Documents.

Credentials come from the configuration file (default
~/.godata/config.toml); run "godata login" once to authorize the
application and persist a token.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print request traces to stderr")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Configuration file path (default ~/.godata/config.toml)")
}
