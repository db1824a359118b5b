package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pmboard/internal/config"
	"pmboard/internal/seed"
	"pmboard/internal/storage/sqlite"
)

func newSeedCmd() *cobra.Command {
	cfg := config.FromEnv()

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load fixtures into a sqlite database",
		Long: `Load YAML fixtures into a sqlite database. Without --file the built-in
demo data is used. Records are appended; existing rows are left alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}

			fixtures, err := seed.Load(cfg.SeedFile)
			if err != nil {
				return err
			}

			store, err := sqlite.Open(cfg.DBPath, logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			res, err := seed.Apply(cmd.Context(), store, fixtures)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d members, %d sprints, %d tasks into %s\n",
				res.Members, res.Sprints, res.Tasks, cfg.DBPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to sqlite database file")
	cmd.Flags().StringVar(&cfg.SeedFile, "file", cfg.SeedFile, "YAML fixtures file")
	cmd.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	return cmd
}
