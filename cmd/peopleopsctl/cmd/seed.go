package cmd

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"peopleops/internal/app/demo"
	"peopleops/internal/domain/auth"
	"peopleops/internal/domain/directory"
	cryptoutil "peopleops/internal/platform/crypto"
)

var sopts demo.Options

var seedDemoCmd = &cobra.Command{
	Use:   "seed-demo",
	Short: "Fill the directory with fake departments and employees.",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		sealer, err := cryptoutil.New(cfg.DataEncryptionKey)
		if err != nil {
			return err
		}
		accounts := auth.NewService(auth.NewStore(pool), auth.TokenConfig{
			Secret:     cfg.JWTSecret,
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
		}, sealer)
		dir := directory.NewService(directory.NewStore(pool))
		operator := auth.NewPrincipal("peopleopsctl", "peopleopsctl", auth.RoleAdmin)

		start := time.Now()
		res, err := demo.Seed(cmd.Context(), accounts, dir, operator, sopts)
		slog.Info("demo seed finished",
			"tag", res.Tag,
			"departments", res.Departments,
			"employees", res.Employees,
			"elapsed", time.Since(start).String(),
		)
		return err
	},
}

func init() {
	seedDemoCmd.Flags().IntVarP(&sopts.Departments, "departments", "d", 3, "Number of departments to create")
	seedDemoCmd.Flags().IntVarP(&sopts.PerDepartment, "per-department", "n", 5, "Employees per department, manager excluded")
	seedDemoCmd.Flags().StringVarP(&sopts.Password, "password", "p", "demo-password", "Password for every demo account")
	seedDemoCmd.Flags().IntVarP(&sopts.Concurrency, "concurrency", "c", 4, "Parallel department workers")
	seedDemoCmd.Flags().StringVarP(&sopts.Tag, "tag", "t", "", "Suffix keeping names unique (random when empty)")
}
