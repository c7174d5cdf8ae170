package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/chdoc/internal/metadata"
	"github.com/leapstack-labs/chdoc/internal/sqlgen"
	"github.com/leapstack-labs/chdoc/internal/ui/document"
	"github.com/leapstack-labs/chdoc/internal/ui/features/common"
	"github.com/leapstack-labs/chdoc/internal/ui/session"
)

// queryTimeout bounds one generated query's execution.
const queryTimeout = 30 * time.Second

// exampleQuestions seed an empty transcript.
var exampleQuestions = []string{
	"Show me all tables in the database",
	"Count the number of records in each table",
	"What columns are in the users table?",
	"Show me the first 10 rows from the orders table",
}

// Handlers provides HTTP handlers for the chat feature.
type Handlers struct {
	document  *document.Holder
	sessions  *session.Manager
	generator *sqlgen.Generator
	db        sqlgen.Querier
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance. A nil generator keeps the
// page up but answers every question with a configuration error.
func NewHandlers(doc *document.Holder, sessions *session.Manager, generator *sqlgen.Generator, db sqlgen.Querier, logger *slog.Logger) *Handlers {
	return &Handlers{
		document:  doc,
		sessions:  sessions,
		generator: generator,
		db:        db,
		logger:    logger,
	}
}

// ChatPage renders the page shell; the transcript arrives over SSE from
// /chat/view.
func (h *Handlers) ChatPage(w http.ResponseWriter, r *http.Request) {
	h.sessions.Resolve(w, r)

	err := common.RenderShell(w, common.Page{
		Title:   "Chat",
		Active:  "chat",
		ViewURL: "/chat/view",
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ChatView sends the transcript and question box for the current session.
func (h *Handlers) ChatView(w http.ResponseWriter, r *http.Request) {
	sctx := h.sessions.Resolve(w, r)
	sse := datastar.NewSSE(w, r)

	html, err := common.Render(templates, "view", viewData{
		Log:     buildLog(sctx.Transcript()),
		Enabled: h.generator != nil,
	})
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Ask answers one question: generate SQL from the document, execute it,
// and append the outcome to the session transcript. The connection stays
// open across the round trip so a pending entry can be shown first.
func (h *Handlers) Ask(w http.ResponseWriter, r *http.Request) {
	sctx := h.sessions.Resolve(w, r)

	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals askSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(fmt.Errorf("failed to read signals: %w", err))
		return
	}

	sse := datastar.NewSSE(w, r)

	question := strings.TrimSpace(signals.Question)
	if question == "" {
		return
	}

	pending := buildLog(sctx.Transcript())
	pending.Entries = append(pending.Entries, entryView{Question: question, Pending: true})
	if err := h.sendLog(sse, pending); err != nil {
		_ = sse.ConsoleError(err)
	}

	entry := h.answer(r.Context(), question)
	sctx.Append(entry)

	if err := h.sendLog(sse, buildLog(sctx.Transcript())); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	_ = sse.MarshalAndPatchSignals(map[string]any{"question": ""})
}

// Clear empties the session transcript.
func (h *Handlers) Clear(w http.ResponseWriter, r *http.Request) {
	sctx := h.sessions.Resolve(w, r)
	sctx.ClearTranscript()

	sse := datastar.NewSSE(w, r)
	if err := h.sendLog(sse, buildLog(nil)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// answer runs the generate-execute round trip for one question. Every
// failure lands in the entry rather than aborting the request: the
// transcript is the error surface.
func (h *Handlers) answer(ctx context.Context, question string) session.ChatEntry {
	entry := session.ChatEntry{Question: question, Asked: time.Now()}

	if h.generator == nil {
		entry.Err = "text generation is not configured, set a Gemini API key"
		return entry
	}

	var query string
	var err error
	h.document.Read(func(doc *metadata.Document) {
		if doc == nil {
			err = errors.New("no metadata document loaded, run an extraction first")
			return
		}
		query, err = h.generator.Generate(ctx, question, doc)
	})
	if err != nil {
		entry.Err = err.Error()
		return entry
	}
	entry.SQL = query

	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := sqlgen.Execute(queryCtx, h.db, query)
	if err != nil {
		// Engine errors reach the transcript verbatim.
		entry.Err = err.Error()
		return entry
	}
	entry.Result = result

	h.logger.Info("chat query executed",
		"question", question,
		"rows", result.RowCount,
		"elapsed", result.Elapsed)
	return entry
}

func (h *Handlers) sendLog(sse *datastar.ServerSentEventGenerator, data logData) error {
	html, err := common.Render(templates, "log", data)
	if err != nil {
		return err
	}
	return sse.PatchElements(html)
}

// buildLog converts a transcript into its view model.
func buildLog(transcript []session.ChatEntry) logData {
	data := logData{Examples: exampleQuestions}
	for _, e := range transcript {
		data.Entries = append(data.Entries, entryView{
			Question: e.Question,
			SQL:      e.SQL,
			Result:   formatResult(e.Result),
			Err:      e.Err,
		})
	}
	return data
}

// formatResult prepares a result set for display.
func formatResult(res *sqlgen.Result) *resultView {
	if res == nil {
		return nil
	}
	meta := fmt.Sprintf("%d rows in %s", res.RowCount, res.Elapsed.Round(time.Millisecond))
	if res.Truncated {
		meta = "first " + meta
	}
	return &resultView{
		Columns: res.Columns,
		Rows:    res.Rows,
		Meta:    meta,
	}
}
