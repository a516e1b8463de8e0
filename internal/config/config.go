// Package config resolves the host's runtime configuration from its three
// sources, lowest precedence first: built-in defaults, an optional TOML
// file, and HULL_* environment variables. Command-line flags are layered on
// top by the cli package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Runtime holds host-level settings that are not part of the application
// manifest: where to listen, where to keep data, how to log.
type Runtime struct {
	// Listen is the UI server bind address. Port 0 picks a free port.
	Listen string `toml:"listen" env:"HULL_LISTEN"`

	LogLevel  string `toml:"log_level" env:"HULL_LOG_LEVEL"`
	LogFormat string `toml:"log_format" env:"HULL_LOG_FORMAT"`

	// DataDir overrides the per-application data directory. Empty means
	// <user config dir>/hull/<app id>.
	DataDir string `toml:"data_dir" env:"HULL_DATA_DIR"`

	// DevURL, when set, makes the window driver open this URL instead of the
	// built-in UI server, for frontends served by a dev server.
	DevURL string `toml:"dev_url" env:"HULL_DEV_URL"`

	// NoOpen suppresses opening the window after startup.
	NoOpen bool `toml:"no_open" env:"HULL_NO_OPEN"`

	// SingleInstance hands the process's URLs to an already-running instance
	// instead of starting a second one.
	SingleInstance bool `toml:"single_instance" env:"HULL_SINGLE_INSTANCE"`
}

// Default returns the built-in runtime configuration.
func Default() Runtime {
	return Runtime{
		Listen:         "127.0.0.1:0",
		LogLevel:       "info",
		LogFormat:      "text",
		SingleInstance: true,
	}
}

// Validate checks field values against their accepted sets.
func (c *Runtime) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q is not one of text, json", c.LogFormat)
	}
	if strings.TrimSpace(c.Listen) == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	return nil
}

// fileConfig mirrors Runtime for TOML decoding; merging goes through
// toml.MetaData so only keys present in the file override.
type fileConfig struct {
	Listen         string `toml:"listen"`
	LogLevel       string `toml:"log_level"`
	LogFormat      string `toml:"log_format"`
	DataDir        string `toml:"data_dir"`
	DevURL         string `toml:"dev_url"`
	NoOpen         bool   `toml:"no_open"`
	SingleInstance bool   `toml:"single_instance"`
}

// LoadFile merges the TOML file at path into cfg. Keys absent from the file
// leave the current values untouched.
func LoadFile(path string, cfg *Runtime) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config file: %w", err)
	}

	if meta.IsDefined("listen") {
		cfg.Listen = strings.TrimSpace(raw.Listen)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.TrimSpace(raw.LogFormat)
	}
	if meta.IsDefined("data_dir") {
		cfg.DataDir = strings.TrimSpace(raw.DataDir)
	}
	if meta.IsDefined("dev_url") {
		cfg.DevURL = strings.TrimSpace(raw.DevURL)
	}
	if meta.IsDefined("no_open") {
		cfg.NoOpen = raw.NoOpen
	}
	if meta.IsDefined("single_instance") {
		cfg.SingleInstance = raw.SingleInstance
	}
	return nil
}

// ApplyEnv overlays HULL_* environment variables onto cfg.
func ApplyEnv(cfg *Runtime) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// DefaultFilePath returns the conventional config file location, or empty
// when the user config dir cannot be determined.
func DefaultFilePath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "hull", "config.toml")
}

// Resolve builds the runtime configuration from defaults, the config file
// (the explicit path when given, else the conventional one when present),
// and the environment. The result is validated.
func Resolve(explicitPath string) (Runtime, error) {
	cfg := Default()

	path := explicitPath
	if path == "" {
		if p := DefaultFilePath(); p != "" {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Runtime{}, err
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return Runtime{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Runtime{}, err
	}
	return cfg, nil
}
