// Package config provides configuration management for the prune CLI.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ReportFormat controls how the shrink report is emitted.
type ReportFormat string

const (
	// ReportJSON writes the report as a .prune.json file alongside the
	// output bundle.
	ReportJSON ReportFormat = "json"

	// ReportInline prints the report to stdout after the run.
	ReportInline ReportFormat = "inline"

	// ReportNone disables report generation.
	ReportNone ReportFormat = "none"
)

// Config represents the complete prune project configuration.
type Config struct {
	Prune  PruneConfig  `toml:"prune"`
	Report ReportConfig `toml:"report"`
}

// PruneConfig controls the shrink pass itself.
type PruneConfig struct {
	// KeepPragma is the doc-comment substring that pins a declaration (and
	// its transitive closure) as a root. Defaults to "go:keep".
	KeepPragma string `toml:"keep_pragma"`

	// KeepTags names the build-tag identifiers whose guarded declarations
	// must survive even when the bundle's active tag set doesn't satisfy
	// their guard expression.
	KeepTags []string `toml:"keep_tags"`

	// RemoveEmptyLines collapses blank-line runs a deletion leaves behind.
	RemoveEmptyLines bool `toml:"remove_empty_lines"`
}

// ReportConfig controls the shrink report.
type ReportConfig struct {
	// Format selects the report's output.
	// Valid values: "json", "inline", "none".
	Format ReportFormat `toml:"format"`
}

// IsValid reports whether f is a recognized report format.
func (f ReportFormat) IsValid() bool {
	switch f {
	case ReportJSON, ReportInline, ReportNone:
		return true
	default:
		return false
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Prune: PruneConfig{
			KeepPragma:       "go:keep",
			KeepTags:         nil,
			RemoveEmptyLines: true,
		},
		Report: ReportConfig{
			Format: ReportNone,
		},
	}
}

// Load loads configuration from multiple sources with precedence:
//  1. CLI flags (highest priority) - passed as overrides
//  2. Project .prune.toml (current directory)
//  3. Built-in defaults (lowest priority)
func Load(overrides *Config) (*Config, error) {
	cfg := DefaultConfig()

	projectConfigPath := ".prune.toml"
	if err := loadConfigFile(projectConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	if overrides != nil {
		if len(overrides.Prune.KeepTags) > 0 {
			cfg.Prune.KeepTags = overrides.Prune.KeepTags
		}
		if overrides.Prune.KeepPragma != "" {
			cfg.Prune.KeepPragma = overrides.Prune.KeepPragma
		}
		if overrides.Report.Format != "" {
			cfg.Report.Format = overrides.Report.Format
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadConfigFile loads a TOML configuration file into cfg. If the file
// doesn't exist, this is not an error — defaults (or earlier layers) apply.
func loadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Prune.KeepPragma == "" {
		return fmt.Errorf("keep_pragma must not be empty")
	}
	if !c.Report.Format.IsValid() {
		return fmt.Errorf("invalid report format: %q (must be 'json', 'inline', or 'none')", c.Report.Format)
	}
	return nil
}

