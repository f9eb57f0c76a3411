package cli

import (
	"context"
	"fmt"
	"time"

	"carrental/internal/auth"
	"carrental/internal/config"
	"carrental/internal/repository"
	"carrental/internal/service"
	"github.com/spf13/cobra"
)

func NewAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator accounts",
	}
	cmd.AddCommand(newAdminCreateCmd())
	return cmd
}

func newAdminCreateCmd() *cobra.Command {
	var email, password, firstName, lastName string
	c := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := newLogger(cfg, cmd.ErrOrStderr())

			ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
			defer cancel()

			database, err := openDB(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()
			if err := repository.Migrate(ctx, database); err != nil {
				return err
			}

			// Tokens are never issued here, so the secret may be empty.
			svc := service.NewAuthService(repository.NewUserRepository(database), auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL), &logger)
			user, err := svc.CreateAdmin(ctx, email, password, firstName, lastName)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created admin:", user.Email)
			return nil
		},
	}
	c.Flags().StringVar(&email, "email", "", "admin email")
	c.Flags().StringVar(&password, "password", "", "admin password")
	c.Flags().StringVar(&firstName, "first-name", "Admin", "first name")
	c.Flags().StringVar(&lastName, "last-name", "User", "last name")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}
