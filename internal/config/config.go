// Package config reads process configuration from FUSION_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "FUSION_"

// LevelTrace sits below slog.LevelDebug and enables per-attempt logs.
const LevelTrace = slog.Level(-8)

// Config is the process configuration. Command-line flags override it.
type Config struct {
	// Table is the rule table document. Empty means the built-in
	// 32-prime table.
	Table string `env:"TABLE"`
	// DB is the SQLite run log path.
	DB string `env:"DB" envDefault:"fusion.db"`
	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// RNGSeed seeds the PCG source of weighted runs.
	RNGSeed uint64 `env:"RNG_SEED" envDefault:"1"`
}

// Load reads dotenv (when it exists) into the environment without
// overriding variables already set, then parses the environment.
// An empty dotenv path skips the file.
func Load(dotenv string) (Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	return ParseEnv()
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("parse env: %sLOG_LEVEL: %w", EnvPrefix, err)
	}
	return cfg, nil
}

// Level returns the configured slog level.
func (c Config) Level() slog.Level {
	lvl, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ParseLevel maps a level name to a slog level. Names are case-insensitive.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}
