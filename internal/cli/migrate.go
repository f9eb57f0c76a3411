package cli

import (
	"context"
	"time"

	"carrental/internal/config"
	"carrental/internal/repository"
	"github.com/spf13/cobra"
)

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := newLogger(cfg, cmd.ErrOrStderr())

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			database, err := openDB(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := repository.Migrate(ctx, database); err != nil {
				return err
			}
			logger.Info().Msg("schema up to date")
			return nil
		},
	}
}
