// Package config provides configuration loading and validation for the
// pipeline agent.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Backend names accepted for the bus and snapshot store.
const (
	BusMemory = "memory"
	BusNATS   = "nats"

	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config represents the agent configuration that can be loaded from a JSON
// file. All fields are optional; missing values use defaults or must be
// provided via CLI flags.
type Config struct {
	// Server
	Port int `json:"port,omitempty"` // HTTP listen port

	// Backends
	Bus         string `json:"bus,omitempty"`          // Event bus backend: memory or nats
	NATSURL     string `json:"nats_url,omitempty"`     // NATS server URL when bus is nats
	Store       string `json:"store,omitempty"`        // Snapshot store backend: memory, file, or postgres
	StoreDir    string `json:"store_dir,omitempty"`    // Directory for file snapshots
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL when store is postgres

	// Behavior
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	RunQA       *bool  `json:"run_qa,omitempty"`       // Run the QA review stage (default true)
	RunImprover *bool  `json:"run_improver,omitempty"` // Run the QA-driven improver stage (default true)
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a Config from environment variables. Unset variables leave
// their fields zero, so the result composes with MergeWithDefaults.
func FromEnv() Config {
	cfg := Config{
		Bus:         os.Getenv("PIPELINE_BUS"),
		NATSURL:     os.Getenv("NATS_URL"),
		Store:       os.Getenv("PIPELINE_STORE"),
		StoreDir:    os.Getenv("PIPELINE_STORE_DIR"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		APIKey:      os.Getenv("GEMINI_API_KEY"),
	}
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		cfg.Port = port
	}
	if v, err := strconv.ParseBool(os.Getenv("PIPELINE_RUN_QA")); err == nil {
		cfg.RunQA = &v
	}
	if v, err := strconv.ParseBool(os.Getenv("PIPELINE_RUN_IMPROVER")); err == nil {
		cfg.RunImprover = &v
	}
	return cfg
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	switch c.Bus {
	case "", BusMemory:
	case BusNATS:
		if c.NATSURL == "" {
			return fmt.Errorf("config error: 'nats_url' is required when bus is %q", BusNATS)
		}
	default:
		return fmt.Errorf("config error: unknown bus backend %q", c.Bus)
	}

	switch c.Store {
	case "", StoreMemory, StoreFile:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required when store is %q", StorePostgres)
		}
	default:
		return fmt.Errorf("config error: unknown store backend %q", c.Store)
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags and environment variables.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.Bus == "" {
		result.Bus = defaults.Bus
	}
	if result.NATSURL == "" {
		result.NATSURL = defaults.NATSURL
	}
	if result.Store == "" {
		result.Store = defaults.Store
	}
	if result.StoreDir == "" {
		result.StoreDir = defaults.StoreDir
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.RunQA == nil {
		result.RunQA = defaults.RunQA
	}
	if result.RunImprover == nil {
		result.RunImprover = defaults.RunImprover
	}

	// Bool fields: cannot distinguish unset from false, so Verbose is not
	// merged (CLI flags always win).

	return result
}

// QAEnabled reports whether the QA stage should run. Unset means enabled.
func (c *Config) QAEnabled() bool {
	return c.RunQA == nil || *c.RunQA
}

// ImproverEnabled reports whether the improver stage should run. Unset means
// enabled.
func (c *Config) ImproverEnabled() bool {
	return c.RunImprover == nil || *c.RunImprover
}
