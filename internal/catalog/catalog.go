// Package catalog reads database, table, and column metadata out of a
// ClickHouse server through its introspection statements.
//
// Catalog queries follow a best-effort policy: a failing query is
// logged with the identifying name and yields an empty result, so an
// extraction run degrades instead of aborting. Only the initial
// connection check is fatal to a run.
package catalog

import (
	"context"
	"strings"
)

// Column is one engine-reported column record, fields in the order
// DESCRIBE TABLE returns them. Fields the engine did not return stay
// empty.
type Column struct {
	Name              string
	Type              string
	DefaultType       string
	DefaultExpression string
	Comment           string
	CodecExpression   string
	TTLExpression     string
}

// Reader is the introspection surface the extraction pipeline consumes.
type Reader interface {
	// ListDatabases returns every database visible to the connected
	// credential, in server order, unfiltered.
	ListDatabases(ctx context.Context) []string

	// ListTables returns every table in database, in server order,
	// unfiltered.
	ListTables(ctx context.Context, database string) []string

	// DescribeTable returns the table's columns in declaration order.
	DescribeTable(ctx context.Context, database, table string) []Column
}

// quoteIdent wraps an identifier in backticks, escaping any embedded
// backtick. ClickHouse accepts this form for all identifiers.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
