package schema

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/chdoc/internal/metadata"
	"github.com/leapstack-labs/chdoc/internal/ui/document"
	"github.com/leapstack-labs/chdoc/internal/ui/features/common"
	"github.com/leapstack-labs/chdoc/internal/ui/notifier"
	"github.com/leapstack-labs/chdoc/internal/ui/session"
)

// Handlers provides HTTP handlers for the schema browser.
type Handlers struct {
	document *document.Holder
	sessions *session.Manager
	notifier *notifier.Notifier
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(doc *document.Holder, sessions *session.Manager, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
	return &Handlers{
		document: doc,
		sessions: sessions,
		notifier: notify,
		logger:   logger,
	}
}

// SchemaPage renders the page shell; the browser content arrives over
// SSE from /schema/view.
func (h *Handlers) SchemaPage(w http.ResponseWriter, r *http.Request) {
	// Touch the session so the cookie is set on the page load, before
	// any SSE response has claimed the headers.
	h.sessions.Resolve(w, r)

	err := common.RenderShell(w, common.Page{
		Title:      "Schema",
		Active:     "schema",
		ViewURL:    "/schema/view",
		UpdatesURL: "/schema/updates",
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// SchemaView sends the schema browser for the current session.
func (h *Handlers) SchemaView(w http.ResponseWriter, r *http.Request) {
	sctx := h.sessions.Resolve(w, r)
	sse := datastar.NewSSE(w, r)

	if err := h.sendView(sse, sctx); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// SelectTable records the session's table selection and re-renders.
func (h *Handlers) SelectTable(w http.ResponseWriter, r *http.Request) {
	sctx := h.sessions.Resolve(w, r)
	sctx.Select(r.URL.Query().Get("database"), r.URL.Query().Get("table"))

	sse := datastar.NewSSE(w, r)
	if err := h.sendView(sse, sctx); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// SchemaUpdates is the long-lived SSE endpoint for the schema page. It
// re-renders the browser whenever the document changes, keeping every
// open tab in sync with edits and fresh extraction runs.
func (h *Handlers) SchemaUpdates(w http.ResponseWriter, r *http.Request) {
	sctx := h.sessions.Resolve(w, r)
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := h.sendView(sse, sctx); err != nil {
				_ = sse.ConsoleError(err)
				// Don't return - keep trying on next update
			}
		}
	}
}

// EditColumn renders the editor form for one column, prefilled with its
// current values.
func (h *Handlers) EditColumn(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	q := r.URL.Query()
	database, table, column := q.Get("database"), q.Get("table"), q.Get("column")

	var signals *editSignals
	h.document.Read(func(doc *metadata.Document) {
		_, col := findColumn(doc, database, table, column)
		if col == nil {
			return
		}
		signals = &editSignals{
			Type:       col.Type,
			Comment:    col.Comment,
			Definition: col.AIDefinition,
		}
	})
	if signals == nil {
		_ = sse.ConsoleError(fmt.Errorf("column %s.%s.%s not found", database, table, column))
		return
	}

	raw, err := json.Marshal(signals)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	html, err := common.Render(templates, "editor", editorData{
		Database:  database,
		Table:     table,
		Column:    column,
		Signals:   string(raw),
		SaveURL:   columnURL(database, table, column),
		CancelURL: selectURL(database, table),
	})
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// UpdateColumn writes the edited fields back to the document and
// persists it. Every open session is re-rendered via the broadcast.
func (h *Handlers) UpdateColumn(w http.ResponseWriter, r *http.Request) {
	sctx := h.sessions.Resolve(w, r)

	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals editSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(fmt.Errorf("failed to read signals: %w", err))
		return
	}

	sse := datastar.NewSSE(w, r)

	q := r.URL.Query()
	database, table, column := q.Get("database"), q.Get("table"), q.Get("column")

	err := h.document.Update(func(doc *metadata.Document) error {
		tbl, col := findColumn(doc, database, table, column)
		if col == nil {
			return fmt.Errorf("column %s.%s.%s not found", database, table, column)
		}
		col.Type = strings.TrimSpace(signals.Type)
		col.Comment = signals.Comment
		col.AIDefinition = signals.Definition
		// Re-derive the count the same way extraction does.
		tbl.SetColumns(tbl.Columns)
		return nil
	})
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	h.logger.Info("column updated", "database", database, "table", table, "column", column)
	h.notifier.Broadcast()

	if err := h.sendView(sse, sctx); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// sendView renders and patches the schema browser for one session.
func (h *Handlers) sendView(sse *datastar.ServerSentEventGenerator, sctx *session.Context) error {
	html, err := common.Render(templates, "view", h.buildView(sctx))
	if err != nil {
		return err
	}
	return sse.PatchElements(html)
}

// buildView assembles the browser view model from the current document
// and the session's selection.
func (h *Handlers) buildView(sctx *session.Context) viewData {
	selDB, selTable := sctx.Selection()

	var data viewData
	h.document.Read(func(doc *metadata.Document) {
		if doc == nil {
			return
		}
		data.Loaded = true
		data.Path = h.document.Path()
		data.Databases, data.Tables, data.Columns = doc.Counts()

		for _, dbName := range doc.Databases.Keys() {
			db, _ := doc.Databases.Get(dbName)
			node := treeDatabase{Name: dbName}
			for _, scName := range db.Schemas.Keys() {
				sc, _ := db.Schemas.Get(scName)
				for _, tName := range sc.Tables.Keys() {
					tbl, _ := sc.Tables.Get(tName)
					node.Tables = append(node.Tables, treeTable{
						Name:      tName,
						Columns:   tbl.ColumnCount,
						Selected:  dbName == selDB && tName == selTable,
						SelectURL: selectURL(dbName, tName),
					})
				}
			}
			data.Tree = append(data.Tree, node)
		}

		if selDB == "" || selTable == "" {
			return
		}
		tbl, ok := doc.Table(selDB, metadata.DefaultSchema, selTable)
		if !ok {
			// Selection went stale, e.g. the table vanished in a re-extraction.
			return
		}
		detail := &detailData{Database: selDB, Table: selTable}
		for _, col := range tbl.Columns {
			detail.Columns = append(detail.Columns, columnRow{
				Name:         col.Name,
				Type:         col.Type,
				Default:      strings.TrimSpace(col.DefaultType + " " + col.DefaultExpression),
				Comment:      col.Comment,
				AIDefinition: col.AIDefinition,
				EditURL:      editURL(selDB, selTable, col.Name),
			})
		}
		data.Detail = detail
	})
	return data
}

// findColumn locates a column in the default schema by name.
func findColumn(doc *metadata.Document, database, table, column string) (*metadata.Table, *metadata.Column) {
	if doc == nil {
		return nil, nil
	}
	tbl, ok := doc.Table(database, metadata.DefaultSchema, table)
	if !ok {
		return nil, nil
	}
	for _, col := range tbl.Columns {
		if col.Name == column {
			return tbl, col
		}
	}
	return nil, nil
}

func selectURL(database, table string) string {
	q := url.Values{"database": {database}, "table": {table}}
	return "/schema/select?" + q.Encode()
}

func editURL(database, table, column string) string {
	q := url.Values{"database": {database}, "table": {table}, "column": {column}}
	return "/schema/column/edit?" + q.Encode()
}

func columnURL(database, table, column string) string {
	q := url.Values{"database": {database}, "table": {table}, "column": {column}}
	return "/schema/column?" + q.Encode()
}
