package extraction

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/chdoc/internal/catalog"
	"github.com/leapstack-labs/chdoc/internal/enrich"
	"github.com/leapstack-labs/chdoc/internal/filter"
	"github.com/leapstack-labs/chdoc/internal/state"
	"github.com/leapstack-labs/chdoc/internal/ui/document"
	"github.com/leapstack-labs/chdoc/internal/ui/notifier"
)

// Catalog is the catalog surface the feature needs: a liveness probe
// plus the read operations the pipeline walks. *catalog.DB satisfies it.
type Catalog interface {
	catalog.Reader
	Ping(ctx context.Context) error
}

// Config wires the extraction feature.
type Config struct {
	Document  *document.Holder
	Catalog   Catalog
	Enricher  *enrich.Enricher
	Databases filter.AllowList
	Tables    filter.AllowList
	Store     *state.Store
	Notifier  *notifier.Notifier
	Logger    *slog.Logger
}

// progressData is the live progress fragment patched during a run.
type progressData struct {
	Current  string
	Tables   int
	Columns  int
	Enriched int
	Error    string
}

// runRow is one line of the run history table.
type runRow struct {
	Started     string
	Duration    string
	Status      string
	StatusClass string
	Databases   int
	Tables      int
	Columns     int
	Enriched    int
}

// historyData is the run history fragment. Unavailable means the state
// store could not be opened.
type historyData struct {
	Unavailable bool
	Rows        []runRow
}

// viewData is the whole extraction page fragment.
type viewData struct {
	Path       string
	DocSummary string
	LastRun    string
	History    historyData
}
