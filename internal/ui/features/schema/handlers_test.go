package schema

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/chdoc/internal/metadata"
	"github.com/leapstack-labs/chdoc/internal/testutil"
	"github.com/leapstack-labs/chdoc/internal/ui/features"
)

func setupTestHandlers(t *testing.T, doc *metadata.Document) (*Handlers, *features.TestFixture) {
	t.Helper()

	fixture := features.SetupTestFixture(t, doc)
	handlers := NewHandlers(fixture.Document, fixture.Sessions, fixture.Notifier, testutil.NewTestLogger(t))

	return handlers, fixture
}

func TestSchemaPage(t *testing.T) {
	h, _ := setupTestHandlers(t, features.SampleDocument())

	req := httptest.NewRequest(http.MethodGet, "/schema", nil)
	rec := httptest.NewRecorder()

	h.SchemaPage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, "<title>Schema - chdoc</title>")
	assert.Contains(t, body, "@get('/schema/view')")
	assert.Contains(t, body, "@get('/schema/updates')")
	assert.NotEmpty(t, rec.Result().Cookies(), "page load should set the session cookie")
}

func TestSchemaViewWithoutDocument(t *testing.T) {
	h, _ := setupTestHandlers(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/schema/view", nil)
	rec := httptest.NewRecorder()

	h.SchemaView(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "No metadata document loaded.")
	assert.Contains(t, body, `href="/extraction"`)
}

func TestSchemaViewRendersTree(t *testing.T) {
	h, _ := setupTestHandlers(t, features.SampleDocument())

	req := httptest.NewRequest(http.MethodGet, "/schema/view", nil)
	rec := httptest.NewRecorder()

	h.SchemaView(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "1 databases, 2 tables, 3 columns")
	assert.Contains(t, body, `<div class="db-name">shop</div>`)
	assert.Contains(t, body, "orders")
	assert.Contains(t, body, "users")
	assert.Contains(t, body, "Select a table to inspect its columns.")
}

func TestSelectTableShowsColumns(t *testing.T) {
	h, _ := setupTestHandlers(t, features.SampleDocument())

	req := httptest.NewRequest(http.MethodGet, "/schema/select?database=shop&table=orders", nil)
	rec := httptest.NewRecorder()

	h.SelectTable(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, `<h2 class="mono">shop.orders</h2>`)
	assert.Contains(t, body, "UInt64")
	assert.Contains(t, body, "order total")
	assert.Contains(t, body, "table-link selected")
	assert.Contains(t, body, ">Edit</button>")
}

func TestSelectionPersistsAcrossRequests(t *testing.T) {
	h, _ := setupTestHandlers(t, features.SampleDocument())

	selReq := httptest.NewRequest(http.MethodGet, "/schema/select?database=shop&table=orders", nil)
	selRec := httptest.NewRecorder()
	h.SelectTable(selRec, selReq)

	viewReq := httptest.NewRequest(http.MethodGet, "/schema/view", nil)
	features.CopySessionCookie(t, selRec, viewReq)
	viewRec := httptest.NewRecorder()
	h.SchemaView(viewRec, viewReq)

	assert.Contains(t, viewRec.Body.String(), `<h2 class="mono">shop.orders</h2>`)
}

func TestSelectTableUnknownFallsBackToTree(t *testing.T) {
	h, _ := setupTestHandlers(t, features.SampleDocument())

	req := httptest.NewRequest(http.MethodGet, "/schema/select?database=shop&table=gone", nil)
	rec := httptest.NewRecorder()

	h.SelectTable(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "Select a table to inspect its columns.")
	assert.NotContains(t, body, "shop.gone")
}

func TestSchemaUpdatesSendsViewOnBroadcast(t *testing.T) {
	h, fixture := setupTestHandlers(t, features.SampleDocument())

	req := httptest.NewRequest(http.MethodGet, "/schema/updates", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 300*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.SchemaUpdates(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	fixture.Notifier.Broadcast()

	<-done

	body := rec.Body.String()
	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1, "broadcast should produce an SSE event")
	assert.Contains(t, body, `<div class="db-name">shop</div>`)
}

func TestSchemaUpdatesQuietWithoutBroadcast(t *testing.T) {
	h, _ := setupTestHandlers(t, features.SampleDocument())

	req := httptest.NewRequest(http.MethodGet, "/schema/updates", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 50*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	h.SchemaUpdates(rec, req)

	assert.Equal(t, 0, strings.Count(rec.Body.String(), "event:"))
}

func TestEditColumnRendersEditor(t *testing.T) {
	h, _ := setupTestHandlers(t, features.SampleDocument())

	req := httptest.NewRequest(http.MethodGet, "/schema/column/edit?database=shop&table=orders&column=total", nil)
	rec := httptest.NewRecorder()

	h.EditColumn(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "shop.orders.total")
	assert.Contains(t, body, "data-signals=")
	assert.Contains(t, body, "order total")
	assert.Contains(t, body, "data-bind-type")
	assert.Contains(t, body, "data-bind-comment")
	assert.Contains(t, body, "data-bind-definition")
}

func TestEditColumnUnknownColumn(t *testing.T) {
	h, _ := setupTestHandlers(t, features.SampleDocument())

	req := httptest.NewRequest(http.MethodGet, "/schema/column/edit?database=shop&table=orders&column=nope", nil)
	rec := httptest.NewRecorder()

	h.EditColumn(rec, req)

	assert.Contains(t, rec.Body.String(), "not found")
}

func TestUpdateColumnPersistsAndBroadcasts(t *testing.T) {
	h, fixture := setupTestHandlers(t, features.SampleDocument())

	pings := fixture.Notifier.Subscribe()
	defer fixture.Notifier.Unsubscribe(pings)

	selReq := httptest.NewRequest(http.MethodGet, "/schema/select?database=shop&table=orders", nil)
	selRec := httptest.NewRecorder()
	h.SelectTable(selRec, selReq)

	body := `{"type":" Decimal(10,2) ","comment":"grand total","definition":"Total order value"}`
	req := httptest.NewRequest(http.MethodPost, "/schema/column?database=shop&table=orders&column=total", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	features.CopySessionCookie(t, selRec, req)
	rec := httptest.NewRecorder()

	h.UpdateColumn(rec, req)

	resp := rec.Body.String()
	assert.Contains(t, resp, "Decimal(10,2)")
	assert.Contains(t, resp, "grand total")

	var got metadata.Column
	fixture.Document.Read(func(doc *metadata.Document) {
		_, col := findColumn(doc, "shop", "orders", "total")
		require.NotNil(t, col)
		got = *col
	})
	assert.Equal(t, "Decimal(10,2)", got.Type, "type should be trimmed")
	assert.Equal(t, "grand total", got.Comment)
	assert.Equal(t, "Total order value", got.AIDefinition)

	saved, err := metadata.Load(fixture.Document.Path())
	require.NoError(t, err)
	tbl, ok := saved.Table("shop", metadata.DefaultSchema, "orders")
	require.True(t, ok)
	assert.Equal(t, "Decimal(10,2)", tbl.Columns[1].Type, "edit should be persisted to disk")

	select {
	case <-pings:
	default:
		t.Fatal("update should broadcast to other sessions")
	}
}

func TestUpdateColumnUnknownColumn(t *testing.T) {
	h, fixture := setupTestHandlers(t, features.SampleDocument())

	body := `{"type":"String","comment":"","definition":""}`
	req := httptest.NewRequest(http.MethodPost, "/schema/column?database=shop&table=orders&column=nope", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.UpdateColumn(rec, req)

	assert.Contains(t, rec.Body.String(), "not found")

	fixture.Document.Read(func(doc *metadata.Document) {
		_, col := findColumn(doc, "shop", "orders", "total")
		require.NotNil(t, col)
		assert.Equal(t, "Float64", col.Type, "failed update should not touch the document")
	})
}
