package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/chdoc/internal/catalog"
	"github.com/leapstack-labs/chdoc/internal/cli/config"
	"github.com/leapstack-labs/chdoc/internal/cli/output"
	"github.com/leapstack-labs/chdoc/internal/llm"
	"github.com/leapstack-labs/chdoc/internal/metadata"
	"github.com/spf13/cobra"
)

// doctorCheckTimeout bounds each network probe so a dead server cannot
// hang the whole report.
const doctorCheckTimeout = 5 * time.Second

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run a comprehensive setup health check",
		Long: `Check your chdoc setup for problems and report what needs attention.

The doctor command probes every dependency chdoc relies on:
- Connection settings (host, credentials)
- ClickHouse connectivity (SELECT version())
- Gemini API roundtrip (when an API key is configured)
- Metadata document presence and parseability
- Run history state store

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  chdoc doctor

  # Output as JSON
  chdoc doctor --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         DoctorSummary `json:"summary"`
	HealthChecks    []HealthCheck `json:"health_checks"`
	Score           int           `json:"score"`
	Recommendations []string      `json:"recommendations"`
	IssueCount      int           `json:"issue_count"`
}

// DoctorSummary contains the effective configuration the checks ran against.
type DoctorSummary struct {
	ConfigFile string `json:"config_file,omitempty"`
	Server     string `json:"server"`
	User       string `json:"user"`
	Database   string `json:"database,omitempty"`
	Model      string `json:"model"`
	Output     string `json:"output"`
	StatePath  string `json:"state_path"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name   string `json:"name"`
	Group  string `json:"group"`
	Status string `json:"status"` // "pass", "warn", "error"
	Detail string `json:"detail,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx := NewCommandContextWithoutDB(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	doctorOutput := buildDoctorOutput(cmd.Context(), cfg, cmdCtx)

	// Render based on mode
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(doctorOutput)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, doctorOutput)
	default:
		return renderDoctorText(r, doctorOutput)
	}
}

func buildDoctorOutput(ctx context.Context, cfg *config.Config, cmdCtx *CommandContext) *DoctorOutput {
	checks := []HealthCheck{
		checkConnectionSettings(cfg),
		checkGeminiKey(cfg),
		checkClickHouse(ctx, cfg, cmdCtx),
		checkGeminiRoundtrip(ctx, cfg),
		checkMetadataDocument(cfg),
		checkStateStore(ctx, cfg, cmdCtx),
	}

	issueCount := 0
	for _, c := range checks {
		if c.Status != "pass" {
			issueCount++
		}
	}

	return &DoctorOutput{
		Summary:         buildDoctorSummary(cfg),
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issueCount,
	}
}

func buildDoctorSummary(cfg *config.Config) DoctorSummary {
	return DoctorSummary{
		ConfigFile: config.GetConfigFileUsed(),
		Server:     catalogConfig(cfg).Addr(),
		User:       cfg.ClickHouse.User,
		Database:   cfg.ClickHouse.Database,
		Model:      cfg.Gemini.Model,
		Output:     cfg.Output,
		StatePath:  resolveStatePath(cfg),
	}
}

func checkConnectionSettings(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "Connection settings", Group: "configuration"}

	if cfg.ClickHouse.Host == "" {
		check.Status = "error"
		check.Detail = "no ClickHouse host configured"
		return check
	}

	check.Status = "pass"
	check.Detail = fmt.Sprintf("%s as %s", catalogConfig(cfg).Addr(), cfg.ClickHouse.User)
	return check
}

func checkGeminiKey(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "Gemini API key", Group: "configuration"}

	if !cfg.EnrichmentEnabled() {
		check.Status = "warn"
		check.Detail = "not set; uncommented columns get placeholder definitions"
		return check
	}

	check.Status = "pass"
	check.Detail = fmt.Sprintf("set, using model %s", cfg.Gemini.Model)
	return check
}

func checkClickHouse(ctx context.Context, cfg *config.Config, cmdCtx *CommandContext) HealthCheck {
	check := HealthCheck{Name: "ClickHouse server", Group: "connection"}

	if cfg.ClickHouse.Host == "" {
		check.Status = "error"
		check.Detail = "skipped: no host configured"
		return check
	}

	ctx, cancel := context.WithTimeout(ctx, doctorCheckTimeout)
	defer cancel()

	db := catalog.Open(catalogConfig(cfg), cmdCtx.Logger)
	defer func() { _ = db.Close() }()

	version, err := db.Version(ctx)
	if err != nil {
		check.Status = "error"
		check.Detail = fmt.Sprintf("cannot reach %s: %v", catalogConfig(cfg).Addr(), err)
		return check
	}

	check.Status = "pass"
	check.Detail = fmt.Sprintf("version %s", version)
	return check
}

func checkGeminiRoundtrip(ctx context.Context, cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "Gemini API", Group: "enrichment"}

	if !cfg.EnrichmentEnabled() {
		check.Status = "warn"
		check.Detail = "skipped: no API key"
		return check
	}

	client, err := llm.NewGemini(llm.GeminiConfig{
		APIKey: cfg.Gemini.APIKey,
		Model:  cfg.Gemini.Model,
	})
	if err != nil {
		check.Status = "error"
		check.Detail = err.Error()
		return check
	}

	ctx, cancel := context.WithTimeout(ctx, doctorCheckTimeout)
	defer cancel()

	if _, err := client.GenerateText(ctx, "Reply with the single word: ok"); err != nil {
		check.Status = "error"
		check.Detail = fmt.Sprintf("roundtrip failed: %v", err)
		return check
	}

	check.Status = "pass"
	check.Detail = fmt.Sprintf("model %s responded", cfg.Gemini.Model)
	return check
}

func checkMetadataDocument(cfg *config.Config) HealthCheck {
	check := HealthCheck{Name: "Metadata document", Group: "artifacts"}

	if _, err := os.Stat(cfg.Output); os.IsNotExist(err) {
		check.Status = "warn"
		check.Detail = fmt.Sprintf("%s not found", cfg.Output)
		return check
	}

	doc, err := metadata.Load(cfg.Output)
	if err != nil {
		check.Status = "error"
		check.Detail = fmt.Sprintf("%s is unreadable: %v", cfg.Output, err)
		return check
	}

	databases, tables, columns := doc.Counts()
	check.Status = "pass"
	check.Detail = fmt.Sprintf("%d databases, %d tables, %d columns", databases, tables, columns)
	return check
}

func checkStateStore(ctx context.Context, cfg *config.Config, cmdCtx *CommandContext) HealthCheck {
	check := HealthCheck{Name: "Run history", Group: "artifacts"}

	store, err := openStateStore(cfg, cmdCtx.Logger)
	if err != nil {
		check.Status = "warn"
		check.Detail = fmt.Sprintf("state store unavailable: %v", err)
		return check
	}
	defer func() { _ = store.Close() }()

	run, err := store.LatestRun(ctx)
	if err != nil {
		check.Status = "warn"
		check.Detail = fmt.Sprintf("cannot read runs: %v", err)
		return check
	}

	check.Status = "pass"
	if run == nil {
		check.Detail = "no extraction runs recorded yet"
	} else {
		check.Detail = fmt.Sprintf("last run %s (%s)", run.StartedAt.Format("2006-01-02 15:04"), run.Status)
	}
	return check
}

// calculateHealthScore computes a health score from 0-100. Warnings cost
// 10 points, errors 25.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= 25
		case "warn":
			score -= 10
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string

	for _, check := range checks {
		if check.Status == "pass" {
			continue
		}

		rec := getRecommendation(check.Name)
		if rec != "" {
			recommendations = append(recommendations, rec)
		}
	}

	return recommendations
}

// getRecommendation returns a recommendation for a specific check.
func getRecommendation(name string) string {
	switch name {
	case "Connection settings":
		return "Set the ClickHouse host with --host, CHDOC_CLICKHOUSE_HOST, or 'chdoc init'"
	case "Gemini API key":
		return "Set GEMINI_API_KEY (or gemini.api_key in chdoc.json) to enable AI definitions"
	case "ClickHouse server":
		return "Verify the server is running and the credentials are valid"
	case "Gemini API":
		return "Check the API key and model name; see https://ai.google.dev for access"
	case "Metadata document":
		return "Run 'chdoc extract' to generate the metadata document"
	case "Run history":
		return "Delete the state directory to reset run history, then rerun 'chdoc extract'"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	// Header
	r.Println("")
	r.Println(styles.Header1.Render("chdoc Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	// Setup summary
	r.Println(styles.Header2.Render("Setup"))
	if out.Summary.ConfigFile != "" {
		r.Printf("   Config: %s\n", out.Summary.ConfigFile)
	}
	r.Printf("   Server: %s (user %s)\n", out.Summary.Server, out.Summary.User)
	r.Printf("   Model: %s\n", out.Summary.Model)
	r.Printf("   Output: %s | State: %s\n", out.Summary.Output, out.Summary.StatePath)
	r.Println("")

	// Health checks grouped by category
	r.Println(styles.Header2.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.StatusFailed.String()
		}

		r.Printf("   %s %s\n", icon, check.Name)
		if check.Detail != "" {
			r.Println(styles.Muted.Render("       " + check.Detail))
		}
	}
	r.Println("")

	// Health score
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	// Recommendations
	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# chdoc Health Report")
	r.Println("")

	// Setup summary
	r.Println("## Setup")
	r.Println("")
	if out.Summary.ConfigFile != "" {
		r.Printf("- **Config**: %s\n", out.Summary.ConfigFile)
	}
	r.Printf("- **Server**: %s (user %s)\n", out.Summary.Server, out.Summary.User)
	r.Printf("- **Model**: %s\n", out.Summary.Model)
	r.Printf("- **Output**: %s\n", out.Summary.Output)
	r.Printf("- **State**: %s\n", out.Summary.StatePath)
	r.Println("")

	// Health checks
	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		status := "PASS"
		switch check.Status {
		case "warn":
			status = "WARN"
		case "error":
			status = "ERROR"
		}

		r.Printf("- **[%s]** %s", status, check.Name)
		if check.Detail != "" {
			r.Printf(": %s", check.Detail)
		}
		r.Println("")
	}
	r.Println("")

	// Health score
	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	// Recommendations
	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
