package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFlagSet builds a flag set mirroring the root command's persistent
// flags, since LoadConfig only reads flags that were explicitly set.
func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("host", "", "")
	flags.Int("port", DefaultPort, "")
	flags.String("user", DefaultUser, "")
	flags.String("password", "", "")
	flags.String("database", "", "")
	flags.Bool("secure", false, "")
	flags.String("api-key", "", "")
	flags.String("model", DefaultModel, "")
	flags.String("databases", "", "")
	flags.String("tables", "", "")
	flags.String("output", DefaultOutput, "")
	flags.String("state", DefaultStateFile, "")
	flags.String("format", DefaultFormat, "")
	flags.Bool("verbose", false, "")
	return flags
}

// TestLoadConfig_Defaults verifies the built-in defaults when no file,
// flags, or environment variables are present.
func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing-on-purpose"), nil)
	require.Error(t, err, "explicit config path that does not exist should fail")

	ResetConfig()
	// Point at an empty directory so no chdoc.json is discovered.
	restore := chdir(t, t.TempDir())
	defer restore()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.ClickHouse.Port)
	assert.Equal(t, DefaultUser, cfg.ClickHouse.User)
	assert.Empty(t, cfg.ClickHouse.Host)
	assert.Equal(t, DefaultModel, cfg.Gemini.Model)
	assert.Empty(t, cfg.Gemini.APIKey)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultFormat, cfg.OutputFormat)
	assert.Equal(t, DefaultUIPort, cfg.UI.Port)
	assert.True(t, cfg.UI.AutoOpen)
	assert.True(t, cfg.UI.Watch)
	assert.Empty(t, GetConfigFileUsed(), "no config file should be discovered")
}

// TestLoadConfig_EnvVars verifies that CHDOC_* environment variables
// land on their sectioned config keys.
func TestLoadConfig_EnvVars(t *testing.T) {
	ResetConfig()

	vars := map[string]string{
		"CHDOC_CLICKHOUSE_HOST": "ch.internal",
		"CHDOC_CLICKHOUSE_PORT": "9440",
		"CHDOC_GEMINI_API_KEY":  "env-key",
		"CHDOC_FILTER_TABLES":   "events,users",
		"CHDOC_OUTPUT":          "env_meta.json",
		"CHDOC_STATE_PATH":      "env/state.db",
	}
	for k, v := range vars {
		require.NoError(t, os.Setenv(k, v))
	}
	defer func() {
		for k := range vars {
			_ = os.Unsetenv(k)
		}
	}()

	restore := chdir(t, t.TempDir())
	defer restore()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "ch.internal", cfg.ClickHouse.Host)
	assert.Equal(t, 9440, cfg.ClickHouse.Port)
	assert.Equal(t, "env-key", cfg.Gemini.APIKey)
	assert.Equal(t, "events,users", cfg.Filter.Tables)
	assert.Equal(t, "env_meta.json", cfg.Output)
	assert.Equal(t, "env/state.db", cfg.StatePath)
}

// TestLoadConfig_FlagOverridesEnv verifies that an explicitly set flag
// beats an environment variable for the same key.
func TestLoadConfig_FlagOverridesEnv(t *testing.T) {
	ResetConfig()

	require.NoError(t, os.Setenv("CHDOC_CLICKHOUSE_HOST", "from-env"))
	defer func() { _ = os.Unsetenv("CHDOC_CLICKHOUSE_HOST") }()

	flags := newFlagSet()
	require.NoError(t, flags.Set("host", "from-flag"))

	restore := chdir(t, t.TempDir())
	defer restore()

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.ClickHouse.Host)
}

// TestLoadConfig_FileOverridesFlags verifies the final layering step:
// a config file beats flags, so a project's checked-in chdoc.json stays
// authoritative no matter how the command was invoked.
func TestLoadConfig_FileOverridesFlags(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "chdoc.json")
	cfgContent := `{
  "clickhouse": {"host": "from-file", "port": 9100},
  "gemini": {"model": "gemini-1.5-pro"}
}`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0600))

	flags := newFlagSet()
	require.NoError(t, flags.Set("host", "from-flag"))
	require.NoError(t, flags.Set("user", "flaguser"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.ClickHouse.Host, "file value should override flag")
	assert.Equal(t, 9100, cfg.ClickHouse.Port)
	assert.Equal(t, "gemini-1.5-pro", cfg.Gemini.Model)
	// Keys absent from the file keep the flag layer's values.
	assert.Equal(t, "flaguser", cfg.ClickHouse.User)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
}

// TestLoadConfig_UnchangedFlagsIgnored verifies that registered but
// unset flags do not clobber lower layers with their zero values.
func TestLoadConfig_UnchangedFlagsIgnored(t *testing.T) {
	ResetConfig()

	require.NoError(t, os.Setenv("CHDOC_CLICKHOUSE_USER", "envuser"))
	defer func() { _ = os.Unsetenv("CHDOC_CLICKHOUSE_USER") }()

	flags := newFlagSet()
	// No flags.Set calls, so Changed stays false on every flag.

	restore := chdir(t, t.TempDir())
	defer restore()

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "envuser", cfg.ClickHouse.User)
	assert.Equal(t, DefaultPort, cfg.ClickHouse.Port)
}

// TestLoadConfig_YAMLFile verifies the YAML fallback parser.
func TestLoadConfig_YAMLFile(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "chdoc.yaml")
	cfgContent := `clickhouse:
  host: yaml-host
  secure: true
filter:
  databases: analytics,sales
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0600))

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "yaml-host", cfg.ClickHouse.Host)
	assert.True(t, cfg.ClickHouse.Secure)
	assert.Equal(t, "analytics,sales", cfg.Filter.Databases)
}

// TestLoadConfig_DiscoveryOrder verifies that chdoc.json is preferred
// over chdoc.yaml when both sit in the working directory.
func TestLoadConfig_DiscoveryOrder(t *testing.T) {
	ResetConfig()

	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "chdoc.json"),
		[]byte(`{"clickhouse": {"host": "json-host"}}`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "chdoc.yaml"),
		[]byte("clickhouse:\n  host: yaml-host\n"), 0600))

	restore := chdir(t, tmpDir)
	defer restore()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "json-host", cfg.ClickHouse.Host)
	assert.Equal(t, "chdoc.json", GetConfigFileUsed())
}

// TestLoadConfig_ExpandsSecrets verifies ${VAR} expansion in the
// password and API key fields.
func TestLoadConfig_ExpandsSecrets(t *testing.T) {
	ResetConfig()

	require.NoError(t, os.Setenv("CH_TEST_PASSWORD", "s3cret"))
	defer func() { _ = os.Unsetenv("CH_TEST_PASSWORD") }()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "chdoc.json")
	cfgContent := `{
  "clickhouse": {"host": "h", "password": "${CH_TEST_PASSWORD}"},
  "gemini": {"api_key": "${UNSET_GEMINI_KEY}"}
}`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgContent), 0600))

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.ClickHouse.Password)
	assert.Equal(t, "${UNSET_GEMINI_KEY}", cfg.Gemini.APIKey, "unset variables stay as-is")
}

// TestEnvTransform tests the environment variable to config key mapping.
func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CHDOC_CLICKHOUSE_HOST", "clickhouse.host"},
		{"CHDOC_CLICKHOUSE_PORT", "clickhouse.port"},
		{"CHDOC_GEMINI_API_KEY", "gemini.api_key"},
		{"CHDOC_GEMINI_MODEL", "gemini.model"},
		{"CHDOC_FILTER_DATABASES", "filter.databases"},
		{"CHDOC_FILTER_TABLES", "filter.tables"},
		{"CHDOC_UI_PORT", "ui.port"},
		{"CHDOC_UI_AUTO_OPEN", "ui.auto_open"},
		{"CHDOC_OUTPUT", "output"},
		{"CHDOC_STATE_PATH", "state_path"},
		{"CHDOC_VERBOSE", "verbose"},
		{"CHDOC_FORMAT", "format"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envTransform(tt.in))
		})
	}
}

// TestFlagKey tests the flag name to config key mapping.
func TestFlagKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"host", "clickhouse.host"},
		{"port", "clickhouse.port"},
		{"user", "clickhouse.user"},
		{"password", "clickhouse.password"},
		{"database", "clickhouse.database"},
		{"secure", "clickhouse.secure"},
		{"api-key", "gemini.api_key"},
		{"model", "gemini.model"},
		{"databases", "filter.databases"},
		{"tables", "filter.tables"},
		{"state", "state_path"},
		{"output", "output"},
		{"format", "format"},
		{"verbose", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, flagKey(tt.in))
		})
	}
}

// TestExpandEnvVars tests the expandEnvVars function.
func TestExpandEnvVars(t *testing.T) {
	require.NoError(t, os.Setenv("TEST_VAR_ONE", "value_one"))
	require.NoError(t, os.Setenv("TEST_VAR_TWO", "value_two"))
	defer func() {
		_ = os.Unsetenv("TEST_VAR_ONE")
		_ = os.Unsetenv("TEST_VAR_TWO")
	}()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single variable",
			input:    "${TEST_VAR_ONE}",
			expected: "value_one",
		},
		{
			name:     "multiple variables",
			input:    "${TEST_VAR_ONE}/${TEST_VAR_TWO}",
			expected: "value_one/value_two",
		},
		{
			name:     "variable in larger string",
			input:    "user:${TEST_VAR_ONE}@host",
			expected: "user:value_one@host",
		},
		{
			name:     "unset variable stays as-is",
			input:    "${UNSET_VARIABLE}",
			expected: "${UNSET_VARIABLE}",
		},
		{
			name:     "no variables",
			input:    "plain string",
			expected: "plain string",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

// TestConfig_Validate tests the general field validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errSubstr string
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:      "port out of range",
			mutate:    func(c *Config) { c.ClickHouse.Port = 70000 },
			wantErr:   true,
			errSubstr: "out of range",
		},
		{
			name:      "negative port",
			mutate:    func(c *Config) { c.ClickHouse.Port = -1 },
			wantErr:   true,
			errSubstr: "out of range",
		},
		{
			name:      "unknown format",
			mutate:    func(c *Config) { c.OutputFormat = "table" },
			wantErr:   true,
			errSubstr: "unknown output format",
		},
		{
			name:    "empty format allowed",
			mutate:  func(c *Config) { c.OutputFormat = "" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				ClickHouse:   ClickHouseConfig{Host: "h", Port: DefaultPort, User: DefaultUser},
				OutputFormat: DefaultFormat,
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestConfig_ValidateConnection tests the connection prerequisites.
func TestConfig_ValidateConnection(t *testing.T) {
	t.Run("complete connection", func(t *testing.T) {
		cfg := &Config{ClickHouse: ClickHouseConfig{Host: "h", Port: 9000, User: "default"}}
		assert.NoError(t, cfg.ValidateConnection())
	})

	t.Run("missing host", func(t *testing.T) {
		cfg := &Config{ClickHouse: ClickHouseConfig{Port: 9000, User: "default"}}
		err := cfg.ValidateConnection()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "host is required")
		assert.Contains(t, err.Error(), "chdoc init", "error should point at the setup path")
	})

	t.Run("missing user", func(t *testing.T) {
		cfg := &Config{ClickHouse: ClickHouseConfig{Host: "h", Port: 9000}}
		err := cfg.ValidateConnection()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "user is required")
	})
}

// TestConfig_EnrichmentEnabled tests the API key gate.
func TestConfig_EnrichmentEnabled(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.EnrichmentEnabled())

	cfg.Gemini.APIKey = "key"
	assert.True(t, cfg.EnrichmentEnabled())
}

// chdir switches the working directory for a test and returns the
// restore function.
func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}
