package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"peopleops/internal/platform/db"
)

type adminOptions struct {
	Username string
	Email    string
	Password string
}

var aopts adminOptions

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin identity unless the username already exists.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if aopts.Username == "" {
			aopts.Username = cfg.SeedAdminUsername
		}
		if aopts.Email == "" {
			aopts.Email = cfg.SeedAdminEmail
		}
		if aopts.Password == "" {
			aopts.Password = cfg.SeedAdminPassword
		}
		if aopts.Username == "" || aopts.Password == "" {
			return fmt.Errorf("username and password are required (flags or SEED_ADMIN_*)")
		}

		pool, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()
		created, err := db.EnsureAdmin(cmd.Context(), pool, aopts.Username, aopts.Email, aopts.Password)
		if err != nil {
			return err
		}
		if !created {
			slog.Info("admin already exists", "username", aopts.Username)
			return nil
		}
		slog.Info("admin created", "username", aopts.Username)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVarP(&aopts.Username, "username", "u", "", "Admin username (default SEED_ADMIN_USERNAME)")
	createAdminCmd.Flags().StringVarP(&aopts.Email, "email", "e", "", "Admin email (default SEED_ADMIN_EMAIL)")
	createAdminCmd.Flags().StringVarP(&aopts.Password, "password", "p", "", "Admin password (default SEED_ADMIN_PASSWORD)")
}
