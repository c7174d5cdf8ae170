// Package config provides configuration management for the chdoc CLI.
//
// Settings layer from four sources. Lowest to highest precedence:
// built-in defaults, CHDOC_* environment variables, command-line flags,
// and finally the config file. A checked-in chdoc.json is the project's
// source of truth, so the file wins over ad-hoc flags.
package config

import (
	"github.com/leapstack-labs/chdoc/internal/llm"
	"github.com/leapstack-labs/chdoc/internal/metadata"
)

// ClickHouseConfig holds the connection target.
type ClickHouseConfig struct {
	Host     string `koanf:"host" json:"host"`
	Port     int    `koanf:"port" json:"port"`
	User     string `koanf:"user" json:"user"`
	Password string `koanf:"password" json:"password"`
	Database string `koanf:"database" json:"database,omitempty"`
	Secure   bool   `koanf:"secure" json:"secure"`
}

// GeminiConfig holds the text-generation settings. An empty APIKey
// disables enrichment and the chat surface.
type GeminiConfig struct {
	APIKey string `koanf:"api_key" json:"api_key"`
	Model  string `koanf:"model" json:"model"`
}

// FilterConfig holds the comma-separated allow-lists.
type FilterConfig struct {
	Databases string `koanf:"databases" json:"databases,omitempty"`
	Tables    string `koanf:"tables" json:"tables,omitempty"`
}

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port     int  `koanf:"port" json:"port"`
	AutoOpen bool `koanf:"auto_open" json:"auto_open"`
	Watch    bool `koanf:"watch" json:"watch"`
}

// Config holds all CLI configuration options.
type Config struct {
	ClickHouse   ClickHouseConfig `koanf:"clickhouse" json:"clickhouse"`
	Gemini       GeminiConfig     `koanf:"gemini" json:"gemini"`
	Filter       FilterConfig     `koanf:"filter" json:"filter"`
	Output       string           `koanf:"output" json:"output"`
	StatePath    string           `koanf:"state_path" json:"state_path"`
	Verbose      bool             `koanf:"verbose" json:"verbose,omitempty"`
	OutputFormat string           `koanf:"format" json:"format,omitempty"`
	UI           UIConfig         `koanf:"ui" json:"ui"`
}

// Default configuration values.
const (
	DefaultPort      = 9000
	DefaultUser      = "default"
	DefaultModel     = llm.DefaultModel
	DefaultOutput    = metadata.DefaultPath
	DefaultStateFile = ".chdoc/state.db"
	DefaultUIPort    = 8844
	DefaultFormat    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// EnrichmentEnabled reports whether a Gemini API key is configured.
// Without one, extraction still runs; uncommented columns fall back to
// placeholder definitions and the chat surface is unavailable.
func (c *Config) EnrichmentEnabled() bool {
	return c.Gemini.APIKey != ""
}
