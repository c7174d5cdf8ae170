package sqlgen

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// maxRows caps how many rows one question may pull back.
const maxRows = 1000

// Querier runs one statement. *catalog.DB satisfies it.
type Querier interface {
	Query(ctx context.Context, query string) (*sql.Rows, error)
}

// Result is a fully scanned result set, values already formatted for
// display.
type Result struct {
	Columns   []string
	Rows      [][]string
	RowCount  int
	Truncated bool
	Elapsed   time.Duration
}

// Execute runs query and scans up to maxRows rows. Engine errors come
// back verbatim so the caller can show them to the user unchanged.
func Execute(ctx context.Context, q Querier, query string) (*Result, error) {
	start := time.Now()

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results [][]string
	for rows.Next() && len(results) < maxRows {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			continue
		}

		row := make([]string, len(cols))
		for i, val := range values {
			row[i] = FormatValue(val)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Result{
		Columns:   cols,
		Rows:      results,
		RowCount:  len(results),
		Truncated: len(results) == maxRows,
		Elapsed:   time.Since(start),
	}, nil
}

// FormatValue renders one scanned value for display.
func FormatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}
