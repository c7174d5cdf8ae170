// Package pipeline drives one extraction run: the catalog is walked
// database by database, table by table, columns are described and
// enriched, and the result lands in a fresh metadata document.
//
// The walk is strictly sequential. There is no fan-out across
// databases, tables, or columns; the total wall time of an enriched run
// is dominated by the per-column text-generation round trips.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/leapstack-labs/chdoc/internal/catalog"
	"github.com/leapstack-labs/chdoc/internal/enrich"
	"github.com/leapstack-labs/chdoc/internal/filter"
	"github.com/leapstack-labs/chdoc/internal/metadata"
)

// Event is one progress notice. Table is empty for database-level
// events; Columns and Enriched are set once a table is done.
type Event struct {
	Database string
	Table    string
	Columns  int
	Enriched int
}

// Progress receives events as the run advances. The pipeline blocks on
// the callback, so implementations must return quickly.
type Progress func(Event)

// Summary describes one completed run.
type Summary struct {
	Databases int
	Tables    int
	Columns   int
	Enriched  int
	Duration  time.Duration
}

// Config wires an Extractor.
type Config struct {
	Reader    catalog.Reader
	Enricher  *enrich.Enricher
	Databases filter.AllowList
	Tables    filter.AllowList
	Logger    *slog.Logger
	Progress  Progress
}

// Extractor runs extraction passes over a catalog.
type Extractor struct {
	reader    catalog.Reader
	enricher  *enrich.Enricher
	databases filter.AllowList
	tables    filter.AllowList
	logger    *slog.Logger
	progress  Progress
}

// New creates an Extractor from cfg. Reader is required; a nil Enricher
// is replaced with a disabled one so definitions still get populated.
func New(cfg Config) *Extractor {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Enricher == nil {
		cfg.Enricher = enrich.New(nil, cfg.Logger)
	}
	return &Extractor{
		reader:    cfg.Reader,
		enricher:  cfg.Enricher,
		databases: cfg.Databases,
		tables:    cfg.Tables,
		logger:    cfg.Logger,
		progress:  cfg.Progress,
	}
}

// Run builds a fresh document from the current catalog state. Catalog
// and enrichment failures degrade the output (empty table, placeholder
// definition) and never abort the run; callers gate on Ping beforehand
// for the fatal connection check. Iteration order is the catalog's own,
// post-filter, so the result is deterministic for a fixed catalog.
func (e *Extractor) Run(ctx context.Context) (*metadata.Document, Summary) {
	start := time.Now()
	doc := metadata.NewDocument()
	var sum Summary

	databases := e.databases.Apply(e.reader.ListDatabases(ctx))
	e.logger.Info("starting extraction", "databases", len(databases))

	for _, dbName := range databases {
		e.report(Event{Database: dbName})
		schema := doc.AddDatabase(dbName)
		sum.Databases++

		// The table allow-list is re-applied for every database, the
		// same filter against each database's own table listing.
		tables := e.tables.Apply(e.reader.ListTables(ctx, dbName))
		for _, tableName := range tables {
			columns := e.describe(ctx, dbName, tableName)
			enriched := e.enricher.Enrich(ctx, dbName, metadata.DefaultSchema, tableName, columns)

			table := &metadata.Table{}
			table.SetColumns(columns)
			schema.Tables.Set(tableName, table)

			sum.Tables++
			sum.Columns += len(columns)
			sum.Enriched += enriched
			e.report(Event{
				Database: dbName,
				Table:    tableName,
				Columns:  len(columns),
				Enriched: enriched,
			})

			e.logger.Debug("table extracted",
				"database", dbName,
				"table", tableName,
				"columns", len(columns))
		}
	}

	sum.Duration = time.Since(start)
	e.logger.Info("extraction complete",
		"databases", sum.Databases,
		"tables", sum.Tables,
		"columns", sum.Columns,
		"enriched", sum.Enriched,
		"duration", sum.Duration)
	return doc, sum
}

// describe fetches the raw column records for one table and converts
// them into document columns, declaration order preserved.
func (e *Extractor) describe(ctx context.Context, database, table string) []*metadata.Column {
	records := e.reader.DescribeTable(ctx, database, table)
	columns := make([]*metadata.Column, 0, len(records))
	for _, r := range records {
		columns = append(columns, &metadata.Column{
			Name:              r.Name,
			Type:              r.Type,
			DefaultType:       r.DefaultType,
			DefaultExpression: r.DefaultExpression,
			Comment:           r.Comment,
			CodecExpression:   r.CodecExpression,
			TTLExpression:     r.TTLExpression,
		})
	}
	return columns
}

func (e *Extractor) report(event Event) {
	if e.progress != nil {
		e.progress(event)
	}
}
