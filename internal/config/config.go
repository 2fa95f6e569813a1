// Package config loads runtime settings from defaults, environment
// variables and command-line flags, in that order of precedence.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvAddr         = "EXPENSE_ADDR"
	EnvLogLevel     = "EXPENSE_LOG_LEVEL"
	EnvLogFormat    = "EXPENSE_LOG_FORMAT"
	EnvMaxUploadMB  = "EXPENSE_MAX_UPLOAD_MB"
	EnvPatternsFile = "EXPENSE_PATTERNS_FILE"
	EnvHintsFile    = "EXPENSE_HINTS_FILE"
	EnvFamilyFile   = "EXPENSE_FAMILY_FILE"
)

// Config holds the settings shared by the CLI and the HTTP server.
type Config struct {
	Addr        string
	LogLevel    string
	LogFormat   string // "console" or "json"
	MaxUploadMB int

	// Optional YAML files replacing the embedded pattern tables and hints.
	PatternsFile string
	HintsFile    string

	// FamilyFile seeds one family's categories and rules at startup.
	FamilyFile string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:        ":8080",
		LogLevel:    "info",
		LogFormat:   "console",
		MaxUploadMB: 32,
	}
}

// FromEnv overlays environment variables onto the defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()

	if v := getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}
	if v := getenv(EnvMaxUploadMB); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvMaxUploadMB, err)
		}
		cfg.MaxUploadMB = n
	}
	cfg.PatternsFile = getenv(EnvPatternsFile)
	cfg.HintsFile = getenv(EnvHintsFile)
	cfg.FamilyFile = getenv(EnvFamilyFile)

	return cfg, cfg.Validate()
}

// BindFlags registers flags on fs that override the fields of c.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP listen address (with --serve)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: console or json")
	fs.IntVar(&c.MaxUploadMB, "max-upload-mb", c.MaxUploadMB, "Maximum upload size in MB")
	fs.StringVar(&c.PatternsFile, "patterns", c.PatternsFile, "YAML file replacing the built-in pattern tables")
	fs.StringVar(&c.HintsFile, "hints", c.HintsFile, "YAML file replacing the built-in keyword hints")
	fs.StringVar(&c.FamilyFile, "family-config", c.FamilyFile, "YAML file with the family's categories and rules")
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.MaxUploadMB)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q (use console or json)", c.LogFormat)
	}
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c Config) MaxUploadBytes() int {
	return c.MaxUploadMB << 20
}
