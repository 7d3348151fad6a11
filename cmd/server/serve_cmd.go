package main

import (
	"github.com/spf13/cobra"

	"dispatch/internal/server"
)

func newServeCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and presence websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if skipMigrations {
				cfg.AutoMigrate = false
			}

			s, err := server.Init(cfg, logger)
			if err != nil {
				logger.WithError(err).Error("❌ Server initialization failed")
				return err
			}

			s.Run()
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on start")
	return cmd
}
