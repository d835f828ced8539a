// File: cmd/app/token.go
package main

import (
	"fmt"

	"lexbrief/internal/infra/api"
	"lexbrief/internal/infra/db/postgres"
	"lexbrief/internal/usecase"

	"github.com/spf13/cobra"
)

var (
	tokenName  string
	tokenGuest bool
)

// tokenCmd registers (or finds) a user by email and prints a session token for it.
// Sign-in itself lives outside this service; this is for local runs and support.
var tokenCmd = &cobra.Command{
	Use:   "token <email>",
	Short: "Issue a session token for a user, creating the account if needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		pool, err := postgres.NewPgxPool(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()

		profiles := usecase.NewProfileUseCase(postgres.NewPostgresUserRepo(pool), postgres.NewTxManager(pool), logger)
		u, err := profiles.RegisterOrFetch(cmd.Context(), args[0], tokenName)
		if err != nil {
			return err
		}
		token, err := api.NewAuthManager(cfg.Auth, !cfg.Runtime.Dev).Mint(u.ID, tokenGuest)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "full name for a newly created user")
	tokenCmd.Flags().BoolVar(&tokenGuest, "guest", false, "issue a guest session token")
}
