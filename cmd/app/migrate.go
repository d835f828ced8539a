// File: cmd/app/migrate.go
package main

import (
	"lexbrief/internal/infra/db/postgres"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		if err := postgres.Migrate(cmd.Context(), cfg.Database.URL); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
		return nil
	},
}
