package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/ganbootstrap/internal/config"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath string
	Overrides  []config.Override

	// RunID names the run directories; empty means a MMDD_HHMMSS timestamp.
	RunID string
	// Resume is a checkpoint manifest, or a directory holding them, to
	// continue from.
	Resume string
	// DryRun resolves and validates the experiment without touching the
	// filesystem.
	DryRun    bool
	ListTypes bool

	LogFormat string
	// LogLevel overrides the trainer's verbosity when set.
	LogLevel        string
	HealthcheckPort int
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" && !cfg.ListTypes {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if strings.ContainsAny(cfg.RunID, `/\`) || cfg.RunID == "." || cfg.RunID == ".." {
		return nil, fmt.Errorf("run id %q must be a single path element", cfg.RunID)
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if cfg.LogLevel != "" {
		if _, ok := parseLevel(cfg.LogLevel); !ok {
			return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
		}
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
