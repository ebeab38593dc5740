package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/joshuapare/orderly/internal/workload"
)

const envVarPrefix = "ORDERLY"

// Config holds defaults for command flags, read from ORDERLY_* variables.
type Config struct {
	Capacity  uint32 `envconfig:"CAPACITY"   default:"1000000"`
	FillCount int    `envconfig:"FILL_COUNT" default:"100000"`
	Seed      uint64 `envconfig:"SEED"       default:"175"`
	Rounds    int    `envconfig:"ROUNDS"     default:"10000"`
	LogLevel  string `envconfig:"LOG_LEVEL"  default:"warn"`
}

// cfg supplies flag defaults. It is a package variable so it is loaded
// before any init registers flags.
var cfg = mustLoadConfig()

func mustLoadConfig() *Config {
	c, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return c
}

// LoadConfig reads the environment and validates the result.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values no command can run with.
func (c *Config) Validate() error {
	switch {
	case c.Capacity == 0:
		return fmt.Errorf("invalid configuration: %s_CAPACITY must be greater than zero", envVarPrefix)
	case c.FillCount <= 0 || c.FillCount > workload.MaxFillCount:
		return fmt.Errorf("invalid configuration: %s_FILL_COUNT must be between 1 and %d",
			envVarPrefix, workload.MaxFillCount)
	case c.Rounds < 0:
		return fmt.Errorf("invalid configuration: %s_ROUNDS must not be negative", envVarPrefix)
	}
	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("invalid configuration: %s_LOG_LEVEL %q (want debug, info, warn or error)",
			envVarPrefix, c.LogLevel)
	}
	return nil
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	return logLevels[strings.ToLower(c.LogLevel)]
}
