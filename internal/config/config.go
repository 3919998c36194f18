package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all batch settings, populated from environment variables.
type Config struct {
	InputDir          string
	OutputDir         string
	RulesPath         string
	OutputFormat      string
	MaxHeaderAttempts int
	MetricsFile       string
	HTTPAddr          string
	ShutdownTimeout   time.Duration
	LogLevel          string
	LogFormat         string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	attempts, err := parseMaxHeaderAttempts()
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputDir:          sharedcfg.EnvOrDefault("INPUT_DIR", "./data/raw"),
		OutputDir:         sharedcfg.EnvOrDefault("OUTPUT_DIR", "./data/out"),
		RulesPath:         sharedcfg.EnvOrDefault("RULES_PATH", ""),
		OutputFormat:      strings.ToLower(sharedcfg.EnvOrDefault("OUTPUT_FORMAT", "csv")),
		MaxHeaderAttempts: attempts,
		MetricsFile:       sharedcfg.EnvOrDefault("METRICS_FILE", ""),
		HTTPAddr:          sharedcfg.EnvOrDefault("HTTP_ADDR", ""),
		ShutdownTimeout:   shutdownTimeout,
		LogLevel:          sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
	}

	if cfg.InputDir == "" {
		return nil, errors.New("INPUT_DIR is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	switch cfg.OutputFormat {
	case "csv", "parquet", "both":
	default:
		return nil, fmt.Errorf("invalid OUTPUT_FORMAT %q: want csv, parquet or both", cfg.OutputFormat)
	}

	return cfg, nil
}

func parseMaxHeaderAttempts() (int, error) {
	s := sharedcfg.EnvOrDefault("MAX_HEADER_ATTEMPTS", "5")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid MAX_HEADER_ATTEMPTS %q", s)
	}
	return n, nil
}
