package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pmboard/internal/config"
	"pmboard/internal/seed"
	"pmboard/internal/server"
	"pmboard/internal/storage"
	"pmboard/internal/storage/memory"
	"pmboard/internal/storage/sqlite"
)

func newServeCmd() *cobra.Command {
	cfg := config.FromEnv()
	backend := string(cfg.Backend)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Backend = config.Backend(backend)
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flags.StringVar(&backend, "backend", backend, "Entity store backend (memory or sqlite)")
	flags.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to sqlite database file")
	flags.StringVar(&cfg.SeedFile, "seed-file", cfg.SeedFile, "YAML fixtures to seed an empty store (default: built-in demo data)")
	flags.BoolVar(&cfg.Seed, "seed", cfg.Seed, "Seed the store when it is empty")
	flags.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "Directory with built frontend")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Grace period for in-flight requests on shutdown")
	return cmd
}

func openStore(cfg config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return sqlite.Open(cfg.DBPath, logger)
	default:
		return memory.New(memory.WithLogger(logger)), nil
	}
}

// seedIfEmpty loads fixtures only into a store without members or tasks so
// a restart never duplicates data.
func seedIfEmpty(ctx context.Context, cfg config.Config, store storage.Store, logger *slog.Logger) error {
	members, err := store.ListTeamMembers(ctx)
	if err != nil {
		return err
	}
	tasks, err := store.ListTasks(ctx)
	if err != nil {
		return err
	}
	if len(members) > 0 || len(tasks) > 0 {
		logger.Info("store already populated; skipping seed")
		return nil
	}

	fixtures, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, store, fixtures)
	if err != nil {
		return err
	}
	logger.Info("store seeded",
		slog.Int("members", res.Members),
		slog.Int("sprints", res.Sprints),
		slog.Int("tasks", res.Tasks))
	return nil
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("pmboard starting",
		slog.String("backend", string(cfg.Backend)),
		slog.String("addr", cfg.Addr))

	store, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if cfg.Seed {
		if err := seedIfEmpty(ctx, cfg, store, logger); err != nil {
			return fmt.Errorf("seed store: %w", err)
		}
	}

	srv := server.New(store, server.Options{Logger: logger, StaticDir: cfg.StaticDir})

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	return nil
}
