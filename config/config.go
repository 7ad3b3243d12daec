// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/unitwizard/domain/dimension"
	"gopkg.in/yaml.v3"
)

// DefaultDecimals is the least-squares exponent rounding used when
// standards.decimals is not set.
const DefaultDecimals = 4

// Config is the root configuration structure.
type Config struct {
	// Forms lists the backends to load, in identification order. Empty
	// loads every detected backend. The textual form is always loaded.
	Forms         []string        `yaml:"forms"`
	DefaultForm   string          `yaml:"default_form"`
	DefaultParser string          `yaml:"default_parser"`
	Standards     StandardsConfig `yaml:"standards"`
	Server        ServerConfig    `yaml:"server"`
	Logging       LoggingConfig   `yaml:"logging"`
	Metrics       MetricsConfig   `yaml:"metrics"`
}

// StandardsConfig configures the standard-unit registries.
type StandardsConfig struct {
	Units []string `yaml:"units"`
	// File is a YAML file holding more units, appended after Units.
	File  string   `yaml:"file,omitempty"`
	Order []string `yaml:"order"`
	// Decimals is a pointer so that an explicit 0 survives defaulting.
	Decimals *int `yaml:"decimals"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	UNITWIZARD_FORMS               - Comma separated backends (default: all detected)
//	UNITWIZARD_DEFAULT_FORM        - Default form
//	UNITWIZARD_DEFAULT_PARSER      - Default parser
//	UNITWIZARD_STANDARDS           - Comma separated standard units
//	UNITWIZARD_STANDARDS_FILE      - YAML file with more standard units
//	UNITWIZARD_STANDARDS_DECIMALS  - Least-squares rounding (default: 4)
//	UNITWIZARD_SERVER_HOST         - Server host (default: 0.0.0.0)
//	UNITWIZARD_SERVER_PORT         - Server port (default: 8089)
//	UNITWIZARD_LOG_LEVEL           - Log level: debug, info, warn, error (default: info)
//	UNITWIZARD_LOG_FORMAT          - Log format: json or console (default: json)
//	UNITWIZARD_METRICS_ENABLED     - Enable /metrics endpoint
//	UNITWIZARD_METRICS_PATH        - Metrics path (default: /metrics)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads path when it exists and falls back to the
// environment otherwise. Every field has a default, so the fallback
// always yields a usable configuration.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// LoadStandards reads a standards file. The file holds either a plain list
// of units or a mapping with a "units" list.
func LoadStandards(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read standards: %w", err)
	}

	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc struct {
		Units []string `yaml:"units"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse standards: %w", err)
	}
	return doc.Units, nil
}

// StandardUnits returns the inline units followed by those of the
// standards file.
func (c *Config) StandardUnits() ([]string, error) {
	units := append([]string(nil), c.Standards.Units...)
	if c.Standards.File == "" {
		return units, nil
	}
	more, err := LoadStandards(c.Standards.File)
	if err != nil {
		return nil, err
	}
	return append(units, more...), nil
}

// Order returns the configured dimension order.
func (c *Config) Order() ([]dimension.Symbol, error) {
	order := make([]dimension.Symbol, 0, len(c.Standards.Order))
	for _, s := range c.Standards.Order {
		sym, err := dimension.ParseSymbol(s)
		if err != nil {
			return nil, err
		}
		order = append(order, sym)
	}
	return order, nil
}

// Decimals returns the configured least-squares rounding.
func (c *Config) Decimals() int {
	if c.Standards.Decimals == nil {
		return DefaultDecimals
	}
	return *c.Standards.Decimals
}

// applyEnvOverrides applies UNITWIZARD_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Forms
	if v := os.Getenv("UNITWIZARD_FORMS"); v != "" {
		cfg.Forms = splitList(v)
	}
	if v := os.Getenv("UNITWIZARD_DEFAULT_FORM"); v != "" {
		cfg.DefaultForm = v
	}
	if v := os.Getenv("UNITWIZARD_DEFAULT_PARSER"); v != "" {
		cfg.DefaultParser = v
	}

	// Standards
	if v := os.Getenv("UNITWIZARD_STANDARDS"); v != "" {
		cfg.Standards.Units = splitList(v)
	}
	if v := os.Getenv("UNITWIZARD_STANDARDS_FILE"); v != "" {
		cfg.Standards.File = v
	}
	if v := os.Getenv("UNITWIZARD_STANDARDS_DECIMALS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Standards.Decimals = &n
		}
	}

	// Server configuration
	if v := os.Getenv("UNITWIZARD_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("UNITWIZARD_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("UNITWIZARD_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("UNITWIZARD_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	// Logging configuration
	if v := os.Getenv("UNITWIZARD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("UNITWIZARD_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("UNITWIZARD_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("UNITWIZARD_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setDefaults(cfg *Config) {
	if len(cfg.Standards.Order) == 0 {
		for _, s := range dimension.Symbols() {
			cfg.Standards.Order = append(cfg.Standards.Order, string(s))
		}
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8089
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.DefaultForm != "" && len(cfg.Forms) > 0 && !contains(cfg.Forms, cfg.DefaultForm) {
		return fmt.Errorf("default_form %q is not listed in forms", cfg.DefaultForm)
	}
	if cfg.DefaultParser != "" && len(cfg.Forms) > 0 && !contains(cfg.Forms, cfg.DefaultParser) {
		return fmt.Errorf("default_parser %q is not listed in forms", cfg.DefaultParser)
	}

	order, err := cfg.Order()
	if err != nil {
		return fmt.Errorf("standards.order: %w", err)
	}
	if err := dimension.ValidateOrder(order); err != nil {
		return fmt.Errorf("standards.order: %w", err)
	}
	if d := cfg.Decimals(); d < 0 || d > 15 {
		return fmt.Errorf("standards.decimals must be between 0 and 15, got %d", d)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}

	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
