package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dispatch/internal/config"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dispatch",
		Short:         "Crew and vehicle dispatch scheduling server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd(), newMigrateCmd())
	return cmd
}

// loadConfig reads the environment and builds the process logger. Failures
// are logged here so every subcommand reports them the same way.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Error("❌ Invalid configuration")
		return nil, nil, err
	}
	return cfg, cfg.NewLogger(), nil
}
