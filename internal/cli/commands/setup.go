package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leapstack-labs/chdoc/internal/catalog"
	"github.com/leapstack-labs/chdoc/internal/cli/config"
	"github.com/leapstack-labs/chdoc/internal/cli/output"
	"github.com/leapstack-labs/chdoc/internal/llm"
	"github.com/leapstack-labs/chdoc/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	DB       *catalog.DB
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with a live ClickHouse
// connection and renderer. The ping is the one fatal connection gate.
// Returns the context and a cleanup function that must be called
// (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	if err := cfg.ValidateConnection(); err != nil {
		return nil, nil, err
	}

	ccfg := catalogConfig(cfg)
	db := catalog.Open(ccfg, logger)
	if err := db.Ping(cmd.Context()); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to connect to ClickHouse at %s: %w", ccfg.Addr(), err)
	}

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	cleanup := func() {
		_ = db.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		DB:       db,
		Renderer: r,
	}, cleanup, nil
}

// NewCommandContextWithoutDB creates a CommandContext without a
// ClickHouse connection. Useful for commands that only touch local state.
func NewCommandContextWithoutDB(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	port := config.DefaultPort
	if v := os.Getenv("CHDOC_CLICKHOUSE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}

	return &config.Config{
		ClickHouse: config.ClickHouseConfig{
			Host:     os.Getenv("CHDOC_CLICKHOUSE_HOST"),
			Port:     port,
			User:     getEnvOrDefault("CHDOC_CLICKHOUSE_USER", config.DefaultUser),
			Password: os.Getenv("CHDOC_CLICKHOUSE_PASSWORD"),
			Database: os.Getenv("CHDOC_CLICKHOUSE_DATABASE"),
			Secure:   os.Getenv("CHDOC_CLICKHOUSE_SECURE") == "true",
		},
		Gemini: config.GeminiConfig{
			APIKey: os.Getenv("CHDOC_GEMINI_API_KEY"),
			Model:  getEnvOrDefault("CHDOC_GEMINI_MODEL", config.DefaultModel),
		},
		Filter: config.FilterConfig{
			Databases: os.Getenv("CHDOC_FILTER_DATABASES"),
			Tables:    os.Getenv("CHDOC_FILTER_TABLES"),
		},
		Output:       getEnvOrDefault("CHDOC_OUTPUT", config.DefaultOutput),
		StatePath:    getEnvOrDefault("CHDOC_STATE_PATH", config.DefaultStateFile),
		Verbose:      os.Getenv("CHDOC_VERBOSE") == "true",
		OutputFormat: os.Getenv("CHDOC_FORMAT"),
		UI:           config.UIConfig{Port: config.DefaultUIPort, AutoOpen: true, Watch: true},
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// catalogConfig maps the CLI configuration onto the catalog connection.
func catalogConfig(cfg *config.Config) catalog.Config {
	return catalog.Config{
		Host:     cfg.ClickHouse.Host,
		Port:     cfg.ClickHouse.Port,
		User:     cfg.ClickHouse.User,
		Password: cfg.ClickHouse.Password,
		Database: cfg.ClickHouse.Database,
		Secure:   cfg.ClickHouse.Secure,
	}
}

// newLLMClient builds the Gemini client, or nil when no API key is set.
func newLLMClient(cfg *config.Config) (llm.Client, error) {
	if !cfg.EnrichmentEnabled() {
		return nil, nil
	}
	gem, err := llm.NewGemini(llm.GeminiConfig{
		APIKey: cfg.Gemini.APIKey,
		Model:  cfg.Gemini.Model,
	})
	if err != nil {
		return nil, err
	}
	return gem, nil
}

// resolveStatePath returns the run history path from config or the default.
func resolveStatePath(cfg *config.Config) string {
	if cfg.StatePath != "" {
		return cfg.StatePath
	}
	return config.DefaultStateFile
}

// openStateStore opens the run history store, creating its directory
// first. Callers treat failure as non-fatal: extraction proceeds without
// history rather than aborting.
func openStateStore(cfg *config.Config, logger *slog.Logger) (*state.Store, error) {
	path := resolveStatePath(cfg)
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return state.Open(path, logger)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
