// Package config provides unified configuration for the fitgrid tool.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode represents what one invocation does.
type Mode string

const (
	// ModeExport decodes FIT files, builds partitions, and uploads them.
	ModeExport Mode = "export"
	// ModeInspect decodes FIT files and prints their table summary
	// without exporting anything.
	ModeInspect Mode = "inspect"
	// ModeList prints the catalog of previously exported activities.
	ModeList Mode = "list"
)

// Config holds the unified configuration for one fitgrid run.
type Config struct {
	// Mode specifies what to do: export, inspect, list
	Mode Mode `json:"mode" yaml:"mode"`

	// DataDir is the base directory for catalog and partition files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Normalize selects the GPS normalization policy: skip or strict.
	// Skip leaves absent position columns untransformed (indoor
	// activities decode cleanly); strict fails the decode when either
	// position column is absent.
	Normalize string `json:"normalize" yaml:"normalize"`

	// Export configuration
	Export ExportConfig `json:"export" yaml:"export"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ExportConfig holds partition export configuration.
type ExportConfig struct {
	// PartitionDir is the directory partitions are built in before upload
	PartitionDir string `json:"partition_dir" yaml:"partition_dir"`

	// Prefix is the object path prefix partitions upload under
	Prefix string `json:"prefix" yaml:"prefix"`
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle enables path-style addressing (required for MinIO)
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error
	Level string `json:"level" yaml:"level"`

	// File is an optional rotating log file; empty logs to stderr only
	File string `json:"file" yaml:"file"`

	// MaxSizeMB is the size a log file may reach before rotation
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files to keep
	MaxBackups int `json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is the age in days after which rotated files are removed
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`

	// Compress enables gzip compression of rotated files
	Compress bool `json:"compress" yaml:"compress"`
}

// DefaultConfig returns the default configuration for local use.
func DefaultConfig() *Config {
	return &Config{
		Mode:      ModeExport,
		DataDir:   "./data/fitgrid",
		Normalize: "skip",
		Export: ExportConfig{
			Prefix: "activities",
		},
		Storage: StorageConfig{
			Type: "local",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/fitgrid"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "storage")
	}
	if c.Export.PartitionDir == "" {
		c.Export.PartitionDir = filepath.Join(c.DataDir, "partitions")
	}
}

// CatalogPath returns the path to the catalog database.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}

// EnsureDirectories creates the directories the run will write into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir, c.Export.PartitionDir}
	if c.Storage.Type == "local" {
		dirs = append(dirs, c.Storage.Path)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeExport, ModeInspect, ModeList:
		// Valid modes
	default:
		return fmt.Errorf("invalid mode: %s (must be export, inspect, or list)", c.Mode)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Normalize != "skip" && c.Normalize != "strict" {
		return fmt.Errorf("invalid normalize policy: %s (must be skip or strict)", c.Normalize)
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}

	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file, layered over
// the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv applies environment variable overrides to the configuration.
// Environment variables use the FITGRID_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("FITGRID_MODE"); v != "" {
		cfg.Mode = Mode(v)
	}
	if v := os.Getenv("FITGRID_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FITGRID_NORMALIZE"); v != "" {
		cfg.Normalize = v
	}
	if v := os.Getenv("FITGRID_EXPORT_PREFIX"); v != "" {
		cfg.Export.Prefix = v
	}
	if v := os.Getenv("FITGRID_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("FITGRID_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("FITGRID_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("FITGRID_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("FITGRID_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("FITGRID_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FITGRID_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
}

// Load builds the effective configuration: defaults, then the optional
// config file, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	LoadFromEnv(cfg)
	cfg.Resolve()
	return cfg, nil
}
