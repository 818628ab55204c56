// Package config loads the optional .sqlresult.yaml settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/githubnext/sqlresult/pkg/constants"
)

// FileName is the configuration file looked up in the working directory
const FileName = ".sqlresult.yaml"

// Config holds the user-facing settings
type Config struct {
	Enabled         bool   `yaml:"enabled" json:"enabled"`
	GoToResultHints bool   `yaml:"go-to-result-hints" json:"go-to-result-hints"`
	CacheSize       int    `yaml:"cache-size" json:"cache-size"`
	SQLExtension    string `yaml:"sql-extension" json:"sql-extension"`
	ResultExtension string `yaml:"result-extension" json:"result-extension"`
	HighlightStyle  string `yaml:"highlight-style" json:"highlight-style"`
	MaxConcurrency  int    `yaml:"max-concurrency" json:"max-concurrency"`
	MaxCellWidth    int    `yaml:"max-cell-width" json:"max-cell-width"`
	LogLevel        string `yaml:"log-level" json:"log-level"`
}

// Default returns the settings used when no file is present
func Default() Config {
	return Config{
		Enabled:         true,
		GoToResultHints: true,
		CacheSize:       constants.DefaultCacheSize,
		SQLExtension:    constants.DefaultSQLExtension,
		ResultExtension: constants.DefaultResultExtension,
		HighlightStyle:  constants.DefaultHighlightStyle,
		MaxConcurrency:  constants.DefaultMaxConcurrency,
		MaxCellWidth:    0,
		LogLevel:        "info",
	}
}

// fileConfig mirrors Config with optional fields so absent keys keep their defaults
type fileConfig struct {
	Enabled         *bool   `yaml:"enabled"`
	GoToResultHints *bool   `yaml:"go-to-result-hints"`
	CacheSize       *int    `yaml:"cache-size"`
	SQLExtension    *string `yaml:"sql-extension"`
	ResultExtension *string `yaml:"result-extension"`
	HighlightStyle  *string `yaml:"highlight-style"`
	MaxConcurrency  *int    `yaml:"max-concurrency"`
	MaxCellWidth    *int    `yaml:"max-cell-width"`
	LogLevel        *string `yaml:"log-level"`
}

func (f fileConfig) apply(cfg *Config) {
	if f.Enabled != nil {
		cfg.Enabled = *f.Enabled
	}
	if f.GoToResultHints != nil {
		cfg.GoToResultHints = *f.GoToResultHints
	}
	if f.CacheSize != nil {
		cfg.CacheSize = *f.CacheSize
	}
	if f.SQLExtension != nil {
		cfg.SQLExtension = *f.SQLExtension
	}
	if f.ResultExtension != nil {
		cfg.ResultExtension = *f.ResultExtension
	}
	if f.HighlightStyle != nil {
		cfg.HighlightStyle = *f.HighlightStyle
	}
	if f.MaxConcurrency != nil {
		cfg.MaxConcurrency = *f.MaxConcurrency
	}
	if f.MaxCellWidth != nil {
		cfg.MaxCellWidth = *f.MaxCellWidth
	}
	if f.LogLevel != nil {
		cfg.LogLevel = *f.LogLevel
	}
}

// Load reads and validates the configuration file at path
func Load(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(content, path)
}

// Discover loads FileName from dir when it exists and returns the defaults
// otherwise. The returned path is empty when no file was found.
func Discover(dir string) (Config, string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), "", nil
		}
		return Config{}, "", fmt.Errorf("failed to stat config file %s: %w", path, err)
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Parse validates YAML content against the configuration schema and
// overlays it on the defaults. filePath is only used in error messages.
func Parse(content []byte, filePath string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(string(content)) == "" {
		return cfg, nil
	}

	var raw any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return Config{}, newYAMLError(err, content, filePath)
	}
	if raw == nil {
		// Comments only
		return cfg, nil
	}

	if err := validate(raw, content, filePath); err != nil {
		return Config{}, err
	}

	var f fileConfig
	if err := yaml.Unmarshal(content, &f); err != nil {
		return Config{}, fmt.Errorf("failed to decode config file %s: %w", filePath, err)
	}
	f.apply(&cfg)

	return cfg, nil
}
