package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"pmboard/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "pmboard",
	Short: "Project board backend: tasks, sprints, team and analytics",
	// Errors are logged by the commands themselves.
	SilenceUsage: true,
}

func main() {
	config.LoadDotEnv()

	rootCmd.AddCommand(newServeCmd(), newSeedCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})), nil
}
