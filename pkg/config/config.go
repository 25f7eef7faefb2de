// Package config loads quyche settings from a YAML file, a .env file and
// QUYCHE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hoainam183/GR/pkg/extract"
	"github.com/hoainam183/GR/pkg/logging"
	"github.com/hoainam183/GR/pkg/store"
)

// EnvFile is the dotenv file read from the working directory, if present.
const EnvFile = ".env"

// Config holds all quyche configuration.
type Config struct {
	Document DocumentConfig `yaml:"document"`
	Chunking ChunkingConfig `yaml:"chunking"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
}

// DocumentConfig identifies the regulation being chunked.
type DocumentConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// ChunkingConfig tunes the hierarchical chunker.
type ChunkingConfig struct {
	PointSplitThreshold int    `yaml:"point_split_threshold"`
	TaxonomyPath        string `yaml:"taxonomy_path"`
}

// OutputConfig names the files written by the chunk command.
type OutputConfig struct {
	JSONPath   string `yaml:"json_path"`
	SQLitePath string `yaml:"sqlite_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Load builds a Config from defaults, the YAML file at path (optional),
// the .env file and QUYCHE_* environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		cfg.Chunking.TaxonomyPath = ResolveRelativePath(path, cfg.Chunking.TaxonomyPath)
	}

	if err := loadEnvFile(EnvFile); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Document: DocumentConfig{
			Name:    store.DefaultDocument,
			Version: store.DefaultVersion,
		},
		Chunking: ChunkingConfig{
			PointSplitThreshold: extract.DefaultPointSplitThreshold,
		},
		Output: OutputConfig{
			JSONPath: "quy_che_rag_data.json",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Chunking.PointSplitThreshold <= 0 {
		return fmt.Errorf("point_split_threshold must be positive, got %d", c.Chunking.PointSplitThreshold)
	}
	if strings.TrimSpace(c.Document.Name) == "" {
		return errors.New("document name must not be empty")
	}
	if strings.TrimSpace(c.Output.JSONPath) == "" {
		return errors.New("output json_path must not be empty")
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}

// Taxonomy returns the configured taxonomy, or the built-in one when no
// taxonomy file is set.
func (c *Config) Taxonomy() (*extract.Taxonomy, error) {
	if c.Chunking.TaxonomyPath == "" {
		return extract.DefaultTaxonomy(), nil
	}
	return extract.LoadTaxonomy(c.Chunking.TaxonomyPath)
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("QUYCHE_DOCUMENT_NAME"); v != "" {
		cfg.Document.Name = v
	}
	if v := os.Getenv("QUYCHE_DOCUMENT_VERSION"); v != "" {
		cfg.Document.Version = v
	}
	if v := os.Getenv("QUYCHE_POINT_SPLIT_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("QUYCHE_POINT_SPLIT_THRESHOLD: %w", err)
		}
		cfg.Chunking.PointSplitThreshold = n
	}
	if v := os.Getenv("QUYCHE_TAXONOMY_PATH"); v != "" {
		cfg.Chunking.TaxonomyPath = v
	}
	if v := os.Getenv("QUYCHE_OUTPUT"); v != "" {
		cfg.Output.JSONPath = v
	}
	if v := os.Getenv("QUYCHE_SQLITE_PATH"); v != "" {
		cfg.Output.SQLitePath = v
	}
	if v := os.Getenv("QUYCHE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("QUYCHE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// ResolveRelativePath resolves targetPath against the directory of
// configPath. Absolute and empty paths are returned unchanged.
func ResolveRelativePath(configPath, targetPath string) string {
	if targetPath == "" || filepath.IsAbs(targetPath) {
		return targetPath
	}
	return filepath.Join(filepath.Dir(configPath), targetPath)
}
