package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"pmboard/internal/util"
)

// Backend names the entity store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
)

// Config is the runtime configuration of the server.
type Config struct {
	Addr            string
	Backend         Backend
	DBPath          string
	SeedFile        string
	Seed            bool
	StaticDir       string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// LoadDotEnv reads the given .env files (default ".env") into the process
// environment. A missing file is not an error.
func LoadDotEnv(files ...string) bool {
	return godotenv.Load(files...) == nil
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() Config {
	return Config{
		Addr:            util.EnvOrDefault("PMBOARD_ADDR", ":8080"),
		Backend:         Backend(util.EnvOrDefault("PMBOARD_BACKEND", string(BackendMemory))),
		DBPath:          util.EnvOrDefault("PMBOARD_DB_PATH", "data/pmboard.db"),
		SeedFile:        util.EnvOrDefault("PMBOARD_SEED_FILE", ""),
		Seed:            util.EnvOrDefault("PMBOARD_SEED", "true") == "true",
		StaticDir:       util.EnvOrDefault("PMBOARD_STATIC_DIR", "web/dist"),
		LogLevel:        util.EnvOrDefault("PMBOARD_LOG_LEVEL", "info"),
		ShutdownTimeout: util.EnvDurationOrDefault("PMBOARD_SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

// Validate reports configuration that cannot start a server.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			return fmt.Errorf("sqlite backend requires a database path")
		}
	default:
		return fmt.Errorf("unknown backend %q (want memory or sqlite)", c.Backend)
	}
	if c.Addr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps debug/info/warn/error to a slog level.
func ParseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return level, nil
}
