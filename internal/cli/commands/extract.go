package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/chdoc/internal/cli/output"
	"github.com/leapstack-labs/chdoc/internal/enrich"
	"github.com/leapstack-labs/chdoc/internal/filter"
	"github.com/leapstack-labs/chdoc/internal/metadata"
	"github.com/leapstack-labs/chdoc/internal/pipeline"
	"github.com/leapstack-labs/chdoc/internal/state"
	"github.com/spf13/cobra"
)

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract schema metadata into a JSON document",
		Long: `Walk the ClickHouse catalog and write every visible database, table,
and column to a nested JSON document.

Columns that already carry a comment keep it as their definition. When a
Gemini API key is configured, chdoc generates a definition for every
uncommented column; without one, those columns fall back to a
"Column <name> of type <type>" placeholder.

Catalog and generation failures degrade the output instead of aborting:
a table that cannot be described is recorded with zero columns, and the
run carries on. Only a failed connection exits non-zero.`,
		Example: `  # Extract everything the credential can see
  chdoc extract --host localhost

  # Limit the walk to specific databases and tables
  chdoc extract --databases analytics,sales --tables events,orders

  # Write somewhere else
  chdoc extract -o schema/metadata.json`,
		Args: cobra.NoArgs,
		RunE: runExtract,
	}

	return cmd
}

// extractOutput is the JSON output for the extract command.
type extractOutput struct {
	RunID     string `json:"run_id,omitempty"`
	Databases int    `json:"databases"`
	Tables    int    `json:"tables"`
	Columns   int    `json:"columns"`
	Enriched  int    `json:"enriched"`
	Duration  string `json:"duration"`
	Output    string `json:"output"`
	Saved     bool   `json:"saved"`
	SaveError string `json:"save_error,omitempty"`
}

func runExtract(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	logger := cmdCtx.Logger
	jsonMode := r.EffectiveMode() == output.ModeJSON

	if !jsonMode {
		if version, verr := cmdCtx.DB.Version(ctx); verr == nil {
			r.StatusLine("ClickHouse", "success", fmt.Sprintf("%s at %s", version, catalogConfig(cfg).Addr()))
		}
	}

	client, err := newLLMClient(cfg)
	if err != nil {
		return err
	}
	if client == nil && !jsonMode {
		r.Warning("No Gemini API key set; uncommented columns get placeholder definitions")
	}

	// Run history is best-effort: a broken store never blocks extraction.
	store, serr := openStateStore(cfg, logger)
	if serr != nil {
		logger.Warn("run history unavailable", "error", serr)
	} else {
		defer func() { _ = store.Close() }()
	}

	var run *state.Run
	if store != nil {
		if run, serr = store.CreateRun(ctx, cfg.Output); serr != nil {
			logger.Warn("failed to record run", "error", serr)
			run = nil
		}
	}

	var sp *output.Spinner
	var progress pipeline.Progress
	if !jsonMode {
		sp = r.NewSpinner("Extracting schema metadata")
		sp.Start()
		progress = func(ev pipeline.Event) {
			if ev.Table == "" {
				sp.Update(fmt.Sprintf("Extracting %s", ev.Database))
				return
			}
			sp.Update(fmt.Sprintf("Extracting %s.%s", ev.Database, ev.Table))
		}
	}

	extractor := pipeline.New(pipeline.Config{
		Reader:    cmdCtx.DB,
		Enricher:  enrich.New(client, logger),
		Databases: filter.Parse(cfg.Filter.Databases),
		Tables:    filter.Parse(cfg.Filter.Tables),
		Logger:    logger,
		Progress:  progress,
	})

	doc, summary := extractor.Run(ctx)
	if sp != nil {
		sp.Success(fmt.Sprintf("Extracted %d databases, %d tables in %s",
			summary.Databases, summary.Tables, summary.Duration.Round(time.Millisecond)))
	}

	// Persist the document. A failed write degrades the run status, it
	// does not turn a completed extraction into a command failure.
	saveErr := metadata.Save(doc, cfg.Output)
	if saveErr != nil {
		logger.Error("failed to save metadata document", "path", cfg.Output, "error", saveErr)
	}

	if run != nil {
		run.Databases = summary.Databases
		run.Tables = summary.Tables
		run.Columns = summary.Columns
		run.Enriched = summary.Enriched
		run.Status = state.StatusSuccess
		if saveErr != nil {
			run.Status = state.StatusError
			run.Error = saveErr.Error()
		}
		if cerr := store.CompleteRun(ctx, run); cerr != nil {
			logger.Warn("failed to record run completion", "error", cerr)
		}
	}

	if jsonMode {
		out := extractOutput{
			Databases: summary.Databases,
			Tables:    summary.Tables,
			Columns:   summary.Columns,
			Enriched:  summary.Enriched,
			Duration:  summary.Duration.Round(time.Millisecond).String(),
			Output:    cfg.Output,
			Saved:     saveErr == nil,
		}
		if run != nil {
			out.RunID = run.ID
		}
		if saveErr != nil {
			out.SaveError = saveErr.Error()
		}
		return r.JSON(out)
	}

	if saveErr != nil {
		r.StatusLine(cfg.Output, "failed", saveErr.Error())
	} else {
		r.StatusLine(cfg.Output, "success", "")
	}

	r.Println("")
	r.Header(2, "Extraction Summary")
	r.Printf("   Databases: %d\n", summary.Databases)
	r.Printf("   Tables:    %d\n", summary.Tables)
	r.Printf("   Columns:   %d\n", summary.Columns)
	r.Printf("   Enriched:  %d\n", summary.Enriched)
	r.Printf("   Duration:  %s\n", summary.Duration.Round(time.Millisecond))

	return nil
}
