// Package enrich attaches natural-language definitions to column
// records. Columns carrying a human-written comment pass it through;
// the rest are described by the text-generation service, with a fixed
// placeholder on any failure.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/chdoc/internal/llm"
	"github.com/leapstack-labs/chdoc/internal/metadata"
)

// callDelay is the pause inserted after every text-generation call to
// stay under the service's request-rate ceiling. It is a blunt fixed
// throttle, not adaptive backoff, and never applies to columns that
// made no call.
const callDelay = 500 * time.Millisecond

const definitionPrompt = `Analyze this database column and provide a clear, concise definition of what this column likely represents.

Database: %s
Schema: %s
Table: %s
Column Name: %s
Column Type: %s

Provide a brief, professional definition (1 to 2 sentences) focusing on business meaning rather than technical details.

Definition:`

// Enricher fills the ai_definition of column records, one column at a
// time. A nil client disables generation entirely: uncommented columns
// receive the placeholder and no network call is ever made.
type Enricher struct {
	client llm.Client
	logger *slog.Logger
	sleep  func(time.Duration)
}

// New creates an Enricher. client may be nil to disable generation.
func New(client llm.Client, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Enricher{
		client: client,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// Enabled reports whether the enricher will call the text-generation
// service for uncommented columns.
func (e *Enricher) Enabled() bool {
	return e.client != nil
}

// Enrich walks columns strictly in order and populates AIDefinition on
// every one. After it returns, no column has an empty definition.
// Returns the number of definitions produced by the text-generation
// service; passthrough comments and placeholders do not count.
func (e *Enricher) Enrich(ctx context.Context, database, schema, table string, columns []*metadata.Column) int {
	generated := 0
	for _, column := range columns {
		if e.enrichColumn(ctx, database, schema, table, column) {
			generated++
		}
	}
	return generated
}

// enrichColumn sets column.AIDefinition and reports whether the value
// came from the service. Each failure is local to its column: the
// placeholder is substituted and the walk continues.
func (e *Enricher) enrichColumn(ctx context.Context, database, schema, table string, column *metadata.Column) bool {
	if strings.TrimSpace(column.Comment) != "" {
		column.AIDefinition = column.Comment
		return false
	}

	if e.client == nil {
		column.AIDefinition = placeholder(column)
		return false
	}

	prompt := fmt.Sprintf(definitionPrompt, database, schema, table, column.Name, column.Type)

	text, err := e.client.GenerateText(ctx, prompt)
	// The throttle applies to every call that went out, failed or not.
	e.sleep(callDelay)

	if err != nil {
		e.logger.Warn("column enrichment failed",
			"database", database,
			"table", table,
			"column", column.Name,
			"error", err)
		column.AIDefinition = placeholder(column)
		return false
	}
	if text == "" {
		e.logger.Warn("column enrichment returned no text",
			"database", database,
			"table", table,
			"column", column.Name)
		column.AIDefinition = placeholder(column)
		return false
	}

	column.AIDefinition = text
	return true
}

func placeholder(column *metadata.Column) string {
	return fmt.Sprintf("Column %s of type %s", column.Name, column.Type)
}
