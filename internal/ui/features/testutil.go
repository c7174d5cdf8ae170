// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/chdoc/internal/catalog"
	"github.com/leapstack-labs/chdoc/internal/metadata"
	"github.com/leapstack-labs/chdoc/internal/testutil"
	"github.com/leapstack-labs/chdoc/internal/ui/document"
	"github.com/leapstack-labs/chdoc/internal/ui/notifier"
	"github.com/leapstack-labs/chdoc/internal/ui/session"
)

// TestFixture holds the dependencies shared by UI handler tests.
type TestFixture struct {
	Document *document.Holder
	Sessions *session.Manager
	Notifier *notifier.Notifier
}

// SetupTestFixture creates a fixture whose document holder is backed by
// a temp file. A nil doc starts the UI in its empty, pre-extraction
// state.
func SetupTestFixture(t *testing.T, doc *metadata.Document) *TestFixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clickhouse_metadata.json")
	if doc != nil {
		require.NoError(t, metadata.Save(doc, path))
	}

	holder := document.New(path, testutil.NewTestLogger(t))
	require.NoError(t, holder.Load())

	return &TestFixture{
		Document: holder,
		Sessions: session.NewManager("test-secret-key-32-bytes-long!!"),
		Notifier: notifier.New(),
	}
}

// SampleDocument builds the two-table document most handler tests use.
func SampleDocument() *metadata.Document {
	doc := metadata.NewDocument()
	shop := doc.AddDatabase("shop")

	orders := &metadata.Table{}
	orders.SetColumns([]*metadata.Column{
		{Name: "id", Type: "UInt64", AIDefinition: "Column id of type UInt64"},
		{Name: "total", Type: "Float64", Comment: "order total", AIDefinition: "order total"},
	})
	shop.Tables.Set("orders", orders)

	users := &metadata.Table{}
	users.SetColumns([]*metadata.Column{
		{Name: "email", Type: "String"},
	})
	shop.Tables.Set("users", users)

	return doc
}

// CopySessionCookie carries the session minted in an earlier response
// over to a follow-up request, the way a browser would.
func CopySessionCookie(t *testing.T, from *httptest.ResponseRecorder, to *http.Request) {
	t.Helper()
	for _, c := range from.Result().Cookies() {
		to.AddCookie(c)
	}
}

// StubCatalog serves a fixed catalog snapshot with configurable liveness.
type StubCatalog struct {
	Databases []string
	Tables    map[string][]string
	Columns   map[string][]catalog.Column
	PingErr   error
}

func (s *StubCatalog) Ping(context.Context) error { return s.PingErr }

func (s *StubCatalog) ListDatabases(context.Context) []string { return s.Databases }

func (s *StubCatalog) ListTables(_ context.Context, database string) []string {
	return s.Tables[database]
}

func (s *StubCatalog) DescribeTable(_ context.Context, database, table string) []catalog.Column {
	return s.Columns[database+"."+table]
}

// ShopCatalog returns a catalog snapshot matching SampleDocument.
func ShopCatalog() *StubCatalog {
	return &StubCatalog{
		Databases: []string{"shop"},
		Tables:    map[string][]string{"shop": {"orders", "users"}},
		Columns: map[string][]catalog.Column{
			"shop.orders": {
				{Name: "id", Type: "UInt64"},
				{Name: "total", Type: "Float64", Comment: "order total"},
			},
			"shop.users": {
				{Name: "email", Type: "String"},
			},
		},
	}
}

// StubLLM returns a canned response for every prompt.
type StubLLM struct {
	Response string
	Err      error
}

func (s *StubLLM) GenerateText(context.Context, string) (string, error) {
	return s.Response, s.Err
}
