package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/chdoc/internal/cli/config"
	"github.com/leapstack-labs/chdoc/internal/cli/output"
	"github.com/leapstack-labs/chdoc/internal/metadata"
)

func TestCalculateHealthScore(t *testing.T) {
	tests := []struct {
		name   string
		checks []HealthCheck
		want   int
	}{
		{
			name: "no checks returns 100",
			want: 100,
		},
		{
			name: "all passing returns 100",
			checks: []HealthCheck{
				{Name: "Connection settings", Status: "pass"},
				{Name: "ClickHouse server", Status: "pass"},
			},
			want: 100,
		},
		{
			name: "warnings cost 10",
			checks: []HealthCheck{
				{Name: "Gemini API key", Status: "warn"},
				{Name: "Metadata document", Status: "warn"},
			},
			want: 80,
		},
		{
			name: "errors cost 25",
			checks: []HealthCheck{
				{Name: "ClickHouse server", Status: "error"},
			},
			want: 75,
		},
		{
			name: "score clamps at zero",
			checks: []HealthCheck{
				{Status: "error"}, {Status: "error"}, {Status: "error"},
				{Status: "error"}, {Status: "error"},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculateHealthScore(tt.checks))
		})
	}
}

func TestCheckConnectionSettings(t *testing.T) {
	cfg := &config.Config{}
	check := checkConnectionSettings(cfg)
	assert.Equal(t, "error", check.Status)

	cfg.ClickHouse.Host = "localhost"
	cfg.ClickHouse.Port = 9000
	cfg.ClickHouse.User = "default"
	check = checkConnectionSettings(cfg)
	assert.Equal(t, "pass", check.Status)
	assert.Contains(t, check.Detail, "localhost:9000")
}

func TestCheckGeminiKey(t *testing.T) {
	cfg := &config.Config{}
	cfg.Gemini.Model = config.DefaultModel

	check := checkGeminiKey(cfg)
	assert.Equal(t, "warn", check.Status)
	assert.Contains(t, check.Detail, "placeholder")

	cfg.Gemini.APIKey = "test-key"
	check = checkGeminiKey(cfg)
	assert.Equal(t, "pass", check.Status)
	assert.Contains(t, check.Detail, config.DefaultModel)
}

func TestCheckMetadataDocument(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file warns", func(t *testing.T) {
		cfg := &config.Config{Output: filepath.Join(dir, "missing.json")}
		check := checkMetadataDocument(cfg)
		assert.Equal(t, "warn", check.Status)
	})

	t.Run("unreadable file errors", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

		cfg := &config.Config{Output: path}
		check := checkMetadataDocument(cfg)
		assert.Equal(t, "error", check.Status)
	})

	t.Run("valid document passes with counts", func(t *testing.T) {
		doc := metadata.NewDocument()
		schema := doc.AddDatabase("shop")
		table := &metadata.Table{}
		table.SetColumns([]*metadata.Column{{Name: "id", Type: "UInt64"}})
		schema.Tables.Set("orders", table)

		path := filepath.Join(dir, "good.json")
		require.NoError(t, metadata.Save(doc, path))

		cfg := &config.Config{Output: path}
		check := checkMetadataDocument(cfg)
		assert.Equal(t, "pass", check.Status)
		assert.Contains(t, check.Detail, "1 databases, 1 tables, 1 columns")
	})
}

func TestGenerateRecommendations(t *testing.T) {
	checks := []HealthCheck{
		{Name: "Connection settings", Status: "pass"},
		{Name: "Gemini API key", Status: "warn"},
		{Name: "Metadata document", Status: "warn"},
	}

	recs := generateRecommendations(checks)
	require.Len(t, recs, 2)
	assert.Contains(t, recs[0], "GEMINI_API_KEY")
	assert.Contains(t, recs[1], "chdoc extract")
}

func TestRenderDoctorMarkdown(t *testing.T) {
	out := &DoctorOutput{
		Summary: DoctorSummary{
			Server: "localhost:9000",
			User:   "default",
			Model:  config.DefaultModel,
			Output: "clickhouse_metadata.json",
		},
		HealthChecks: []HealthCheck{
			{Name: "Connection settings", Group: "configuration", Status: "pass", Detail: "localhost:9000 as default"},
			{Name: "ClickHouse server", Group: "connection", Status: "error", Detail: "cannot reach localhost:9000"},
		},
		Score:           75,
		Recommendations: []string{"Verify the server is running and the credentials are valid"},
		IssueCount:      1,
	}

	buf := new(bytes.Buffer)
	r := output.NewRenderer(buf, buf, output.ModeMarkdown)
	require.NoError(t, renderDoctorMarkdown(r, out))

	got := buf.String()
	assert.Contains(t, got, "# chdoc Health Report")
	assert.Contains(t, got, "### Configuration")
	assert.Contains(t, got, "- **[PASS]** Connection settings")
	assert.Contains(t, got, "- **[ERROR]** ClickHouse server")
	assert.Contains(t, got, "**75/100**")
	assert.Contains(t, got, "## Recommendations")
}
