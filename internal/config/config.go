// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for tablex.
//
// Supports TOML configuration with sensible defaults, environment
// variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.tablex/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/tablex/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete tablex configuration.
type Config struct {
	// General settings
	Version string `toml:"version"`

	// Export defaults
	Export ExportConfig `toml:"export"`

	// Source configuration
	Source SourceConfig `toml:"source"`

	// Worker pool configuration
	Workers WorkersConfig `toml:"workers"`
}

// ExportConfig contains export run defaults.
type ExportConfig struct {
	// DefaultFormat is the format used when a run does not name one:
	// "xlsx", "pdf", "csv", or "json"
	DefaultFormat string `toml:"default_format"`
	// ChunkSize is the number of rows retrieved per chunk in full
	// exports (0 = library default)
	ChunkSize int64 `toml:"chunk_size"`
	// ReportTitle is the default document title for report headers
	ReportTitle string `toml:"report_title"`
	// OutputDir is where export files are written (empty = current dir)
	OutputDir string `toml:"output_dir"`
}

// SourceConfig contains the SQLite data source configuration.
type SourceConfig struct {
	// Path is the SQLite database file path
	Path string `toml:"path"`
	// Table is the table to export from
	Table string `toml:"table"`
}

// WorkersConfig contains background worker pool configuration.
type WorkersConfig struct {
	// MaxConcurrent is the number of export runs allowed in flight at once
	MaxConcurrent int `toml:"max_concurrent"`
	// TaskTimeoutSecs cancels runs exceeding this duration (0 = no timeout)
	TaskTimeoutSecs int `toml:"task_timeout_secs"`
	// MaxQueued is the maximum number of runs waiting for a worker (0 = unlimited)
	MaxQueued int `toml:"max_queued"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Export: ExportConfig{
			DefaultFormat: "xlsx",
			ChunkSize:     1000,
			ReportTitle:   "Report",
			OutputDir:     "",
		},

		Source: SourceConfig{
			Path:  "",
			Table: "",
		},

		Workers: WorkersConfig{
			MaxConcurrent:   4,
			TaskTimeoutSecs: 0,
			MaxQueued:       0,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the tablex configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".tablex"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to
// defaults when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file. The write is atomic
// so a crash never leaves a half-written config behind.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# tablex configuration file")
	fmt.Fprintln(&buf, "# Generated by tablex - edit with care")
	fmt.Fprintln(&buf, "")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return util.AtomicWriteFile(path, buf.Bytes(), 0o644)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Validate default format
	validFormats := map[string]bool{"xlsx": true, "pdf": true, "csv": true, "json": true}
	if !validFormats[strings.ToLower(c.Export.DefaultFormat)] {
		errs = append(errs, ValidationError{
			Field:   "export.default_format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: xlsx, pdf, csv, json", c.Export.DefaultFormat),
		})
	}

	// Validate chunk size
	if c.Export.ChunkSize < 0 {
		errs = append(errs, ValidationError{
			Field:   "export.chunk_size",
			Message: "must be non-negative",
		})
	}

	// Validate worker pool bounds
	if c.Workers.MaxConcurrent < 1 || c.Workers.MaxConcurrent > 64 {
		errs = append(errs, ValidationError{
			Field:   "workers.max_concurrent",
			Message: fmt.Sprintf("max_concurrent must be 1-64, got %d", c.Workers.MaxConcurrent),
		})
	}
	if c.Workers.TaskTimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "workers.task_timeout_secs",
			Message: "must be non-negative",
		})
	}
	if c.Workers.MaxQueued < 0 {
		errs = append(errs, ValidationError{
			Field:   "workers.max_queued",
			Message: "must be non-negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value
// configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Export.DefaultFormat == "" {
		c.Export.DefaultFormat = defaults.Export.DefaultFormat
	}
	if c.Export.ChunkSize == 0 {
		c.Export.ChunkSize = defaults.Export.ChunkSize
	}
	if c.Export.ReportTitle == "" {
		c.Export.ReportTitle = defaults.Export.ReportTitle
	}
	if c.Workers.MaxConcurrent == 0 {
		c.Workers.MaxConcurrent = defaults.Workers.MaxConcurrent
	}
}

// TaskTimeout returns the configured task timeout as a duration.
func (c *Config) TaskTimeout() time.Duration {
	return time.Duration(c.Workers.TaskTimeoutSecs) * time.Second
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
// Supported variables:
//   - TABLEX_FORMAT: overrides export.default_format
//   - TABLEX_CHUNK_SIZE: overrides export.chunk_size
//   - TABLEX_OUTPUT_DIR: overrides export.output_dir
//   - TABLEX_DB: overrides source.path
//   - TABLEX_TABLE: overrides source.table
//   - TABLEX_WORKERS: overrides workers.max_concurrent
func (c *Config) ApplyEnvOverrides() {
	// TABLEX_FORMAT
	if format := os.Getenv("TABLEX_FORMAT"); format != "" {
		c.Export.DefaultFormat = format
	}

	// TABLEX_CHUNK_SIZE
	if chunk := os.Getenv("TABLEX_CHUNK_SIZE"); chunk != "" {
		if n, err := strconv.ParseInt(chunk, 10, 64); err == nil && n > 0 {
			c.Export.ChunkSize = n
		}
	}

	// TABLEX_OUTPUT_DIR
	if dir := os.Getenv("TABLEX_OUTPUT_DIR"); dir != "" {
		c.Export.OutputDir = dir
	}

	// TABLEX_DB
	if path := os.Getenv("TABLEX_DB"); path != "" {
		c.Source.Path = path
	}

	// TABLEX_TABLE
	if table := os.Getenv("TABLEX_TABLE"); table != "" {
		c.Source.Table = table
	}

	// TABLEX_WORKERS
	if workers := os.Getenv("TABLEX_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			c.Workers.MaxConcurrent = n
		}
	}
}

// =============================================================================
// GLOBAL CONFIG
// =============================================================================

var (
	globalConfig *Config
	globalMu     sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// use.
func Global() *Config {
	globalMu.RLock()
	if globalConfig != nil {
		defer globalMu.RUnlock()
		return globalConfig
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		globalConfig = cfg
	}
	return globalConfig
}

// SetGlobal replaces the global configuration instance.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the global configuration instance.
func ResetGlobalForTesting() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = nil
}
