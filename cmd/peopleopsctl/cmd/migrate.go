package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"peopleops/internal/platform/db"
	"peopleops/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := db.Migrate(cmd.Context(), pool, migrations.FS); err != nil {
			return err
		}
		slog.Info("migrations applied")
		return nil
	},
}
