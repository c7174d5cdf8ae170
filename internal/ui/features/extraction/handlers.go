package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/chdoc/internal/enrich"
	"github.com/leapstack-labs/chdoc/internal/filter"
	"github.com/leapstack-labs/chdoc/internal/metadata"
	"github.com/leapstack-labs/chdoc/internal/pipeline"
	"github.com/leapstack-labs/chdoc/internal/state"
	"github.com/leapstack-labs/chdoc/internal/ui/document"
	"github.com/leapstack-labs/chdoc/internal/ui/features/common"
	"github.com/leapstack-labs/chdoc/internal/ui/notifier"
)

const (
	pingTimeout  = 5 * time.Second
	historyLimit = 10
)

// Handlers provides HTTP handlers for the extraction feature.
type Handlers struct {
	document  *document.Holder
	catalog   Catalog
	enricher  *enrich.Enricher
	databases filter.AllowList
	tables    filter.AllowList
	store     *state.Store
	notifier  *notifier.Notifier
	logger    *slog.Logger

	// One run at a time, across all sessions.
	running atomic.Bool

	mu      sync.Mutex
	lastRun string
}

// NewHandlers creates a new Handlers instance. A nil Store disables run
// history but never blocks extraction.
func NewHandlers(cfg Config) *Handlers {
	return &Handlers{
		document:  cfg.Document,
		catalog:   cfg.Catalog,
		enricher:  cfg.Enricher,
		databases: cfg.Databases,
		tables:    cfg.Tables,
		store:     cfg.Store,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
	}
}

// ExtractionPage renders the page shell; the content arrives over SSE
// from /extraction/view.
func (h *Handlers) ExtractionPage(w http.ResponseWriter, r *http.Request) {
	err := common.RenderShell(w, common.Page{
		Title:      "Extraction",
		Active:     "extraction",
		ViewURL:    "/extraction/view",
		UpdatesURL: "/extraction/updates",
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ExtractionView sends the status panel and run history.
func (h *Handlers) ExtractionView(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	if err := h.sendView(r.Context(), sse); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// ExtractionUpdates is the long-lived SSE endpoint for the extraction
// page. Completed runs and document edits both re-render the view.
func (h *Handlers) ExtractionUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := h.sendView(ctx, sse); err != nil {
				_ = sse.ConsoleError(err)
				// Don't return - keep trying on next update
			}
		}
	}
}

// Run executes one extraction in-process, streaming progress over the
// open connection. The run itself is not tied to the tab: a disconnect
// only stops the progress patches from landing.
func (h *Handlers) Run(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	if !h.running.CompareAndSwap(false, true) {
		h.patchProgress(sse, progressData{Error: "an extraction is already running"})
		return
	}
	defer h.running.Store(false)

	ctx := context.WithoutCancel(r.Context())

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := h.catalog.Ping(pingCtx)
	cancel()
	if err != nil {
		h.patchProgress(sse, progressData{Error: fmt.Sprintf("cannot reach ClickHouse: %v", err)})
		return
	}

	// Run history is best-effort: a broken store never blocks extraction.
	var run *state.Run
	if h.store != nil {
		var serr error
		if run, serr = h.store.CreateRun(ctx, h.document.Path()); serr != nil {
			h.logger.Warn("failed to record run", "error", serr)
			run = nil
		}
	}

	var done progressData
	done.Current = "starting extraction"
	h.patchProgress(sse, done)

	progress := func(ev pipeline.Event) {
		if ev.Table == "" {
			done.Current = "database " + ev.Database
		} else {
			done.Tables++
			done.Columns += ev.Columns
			done.Enriched += ev.Enriched
			done.Current = ev.Database + "." + ev.Table
		}
		h.patchProgress(sse, done)
	}

	extractor := pipeline.New(pipeline.Config{
		Reader:    h.catalog,
		Enricher:  h.enricher,
		Databases: h.databases,
		Tables:    h.tables,
		Logger:    h.logger,
		Progress:  progress,
	})
	doc, summary := extractor.Run(ctx)

	saveErr := h.document.Replace(doc)
	if saveErr != nil {
		h.logger.Error("failed to save metadata document", "path", h.document.Path(), "error", saveErr)
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
		if cerr := h.store.CompleteRun(ctx, run); cerr != nil {
			h.logger.Warn("failed to record run completion", "error", cerr)
		}
	}

	if saveErr != nil {
		h.patchProgress(sse, progressData{Error: fmt.Sprintf("extraction finished but the document could not be saved: %v", saveErr)})
		return
	}

	h.setLastRun(summary)
	done.Current = "complete in " + summary.Duration.Round(time.Millisecond).String()
	h.patchProgress(sse, done)

	// Wake every open tab: schema browsers re-render from the fresh
	// document and extraction views refresh their history.
	h.notifier.Broadcast()
}

// sendView renders and patches the extraction view.
func (h *Handlers) sendView(ctx context.Context, sse *datastar.ServerSentEventGenerator) error {
	html, err := common.Render(templates, "view", h.buildView(ctx))
	if err != nil {
		return err
	}
	return sse.PatchElements(html)
}

// patchProgress pushes one progress frame, best-effort.
func (h *Handlers) patchProgress(sse *datastar.ServerSentEventGenerator, data progressData) {
	html, err := common.Render(templates, "progress", data)
	if err != nil {
		h.logger.Warn("failed to render progress", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Debug("progress patch dropped", "error", err)
	}
}

// buildView assembles the view model from the document, the last
// in-process run, and the store-backed history.
func (h *Handlers) buildView(ctx context.Context) viewData {
	data := viewData{Path: h.document.Path()}

	h.document.Read(func(doc *metadata.Document) {
		if doc == nil {
			return
		}
		databases, tables, columns := doc.Counts()
		data.DocSummary = fmt.Sprintf("%d databases, %d tables, %d columns", databases, tables, columns)
	})

	h.mu.Lock()
	data.LastRun = h.lastRun
	h.mu.Unlock()

	data.History = h.buildHistory(ctx)
	return data
}

func (h *Handlers) buildHistory(ctx context.Context) historyData {
	if h.store == nil {
		return historyData{Unavailable: true}
	}
	runs, err := h.store.ListRuns(ctx, historyLimit)
	if err != nil {
		h.logger.Warn("failed to list runs", "error", err)
		return historyData{Unavailable: true}
	}

	var rows []runRow
	for _, run := range runs {
		rows = append(rows, runRowFrom(run))
	}
	return historyData{Rows: rows}
}

func (h *Handlers) setLastRun(summary pipeline.Summary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastRun = fmt.Sprintf("%d databases, %d tables, %d columns, %d enriched in %s",
		summary.Databases, summary.Tables, summary.Columns, summary.Enriched,
		summary.Duration.Round(time.Millisecond))
}

// runRowFrom formats one stored run for the history table.
func runRowFrom(run *state.Run) runRow {
	duration := "-"
	if !run.CompletedAt.IsZero() {
		duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
	}

	class := "status-running"
	switch run.Status {
	case state.StatusSuccess:
		class = "status-ok"
	case state.StatusError:
		class = "status-err"
	}

	return runRow{
		Started:     run.StartedAt.Local().Format("2006-01-02 15:04:05"),
		Duration:    duration,
		Status:      string(run.Status),
		StatusClass: class,
		Databases:   run.Databases,
		Tables:      run.Tables,
		Columns:     run.Columns,
		Enriched:    run.Enriched,
	}
}
