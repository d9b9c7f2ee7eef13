package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"peopleops/internal/platform/config"
	"peopleops/internal/platform/db"
	"peopleops/internal/platform/logging"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "peopleopsctl",
	Short:         "Operator tasks for a peopleops installation.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		logging.Setup(cfg.Environment, cfg.LogLevel)
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, createAdminCmd, seedDemoCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("peopleopsctl failed", "err", err)
		os.Exit(1)
	}
}

func connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	return pool, nil
}
