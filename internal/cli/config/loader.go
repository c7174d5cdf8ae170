package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
// This key is shared with root.go via both using the same type.
type loggerKey struct{}

// envPrefix namespaces all chdoc environment variables.
const envPrefix = "CHDOC_"

// configNames are the files searched in the working directory when no
// --config flag is given, in priority order.
var configNames = []string{"chdoc.json", "chdoc.yaml", "chdoc.yml"}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// findConfigFile finds the config file to use.
// Priority: explicit path > chdoc.json > chdoc.yaml > chdoc.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// parserFor picks the file parser from the extension. Everything that
// is not JSON is treated as YAML.
func parserFor(path string) koanf.Parser {
	if filepath.Ext(path) == ".json" {
		return kjson.Parser()
	}
	return yaml.Parser()
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from defaults, environment variables,
// flags, and the config file, in that order. The file loads last on
// purpose: a project's checked-in chdoc.json overrides whatever flags
// the invocation happened to carry.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"clickhouse.port": DefaultPort,
		"clickhouse.user": DefaultUser,
		"gemini.model":    DefaultModel,
		"output":          DefaultOutput,
		"state_path":      DefaultStateFile,
		"format":          DefaultFormat,
		"verbose":         false,
		"ui.port":         DefaultUIPort,
		"ui.auto_open":    true,
		"ui.watch":        true,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load environment variables (CHDOC_ prefix)
	// Transform: CHDOC_CLICKHOUSE_HOST -> clickhouse.host
	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 3. Load flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 4. Load the config file last (file overrides flags)
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), parserFor(configFileUsed)); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Expand ${VAR} references in the sensitive fields
	cfg.ClickHouse.Password = expandEnvVars(cfg.ClickHouse.Password)
	cfg.Gemini.APIKey = expandEnvVars(cfg.Gemini.APIKey)

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// envTransform maps an environment variable name onto a config key.
// The first segment selects the section (CHDOC_CLICKHOUSE_HOST ->
// clickhouse.host, CHDOC_GEMINI_API_KEY -> gemini.api_key); names
// without a section prefix map to top-level keys (CHDOC_STATE_PATH ->
// state_path).
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, section := range []string{"clickhouse", "gemini", "filter", "ui"} {
		prefix := section + "_"
		if strings.HasPrefix(key, prefix) {
			return section + "." + strings.TrimPrefix(key, prefix)
		}
	}
	return key
}

// flagKey maps a flag name onto its config key. Connection flags keep
// short names on the command line but live in sections in the config.
func flagKey(name string) string {
	key := strings.ReplaceAll(name, "-", "_")
	switch key {
	case "host", "port", "user", "password", "database", "secure":
		return "clickhouse." + key
	case "api_key", "model":
		return "gemini." + key
	case "databases", "tables":
		return "filter." + key
	case "state":
		return "state_path"
	}
	return key
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	// Match ${VAR} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR}
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}
