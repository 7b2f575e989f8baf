package main

import (
	"manifest-service/internal/adapters/repositories"
	"manifest-service/internal/config"
	"manifest-service/internal/platform/logger"

	"github.com/spf13/cobra"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, dialect, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			l := logger.WithComponent("migrate")
			l.Info().Str("dialect", string(dialect)).Msg("schema ready")
			return nil
		},
	}
}

func newSeedCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load jobs from a JSON seed file",
		Example: `  manifestctl seed
  manifestctl seed --file data/seeds/jobs.json --database-url postgres://localhost/manifest`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, dialect, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			n, err := repositories.SeedFromJSON(conn, dialect, cfg.SeedPath)
			if err != nil {
				return err
			}

			l := logger.WithComponent("seed")
			l.Info().Int("jobs", n).Str("file", cfg.SeedPath).Msg("seeding complete")
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfg.SeedPath, "file", "f", cfg.SeedPath, "seed file (env SEED_PATH)")
	return cmd
}
