package main

import (
	"fmt"

	"github.com/pixelmuse/server/internal/app"
	"github.com/pixelmuse/server/internal/shared/config"
	"github.com/pixelmuse/server/internal/shared/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the ledger and subscription tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.New(&cfg.Database)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			if err := database.Ping(cmd.Context(), db); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}
			if err := database.Migrate(db, app.Models()...); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
