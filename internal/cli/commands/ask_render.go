package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/chdoc/internal/sqlgen"
)

// renderResult writes an executed query result in the requested format.
func renderResult(w io.Writer, res *sqlgen.Result, format string) error {
	switch format {
	case "json":
		return renderResultJSON(w, res)
	case "csv":
		return renderResultCSV(w, res)
	case "md", "markdown":
		return renderResultMarkdown(w, res)
	default:
		return renderResultTable(w, res)
	}
}

func renderResultTable(w io.Writer, res *sqlgen.Result) error {
	if res.RowCount == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, row := range res.Rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}

	t.Render()
	if res.Truncated {
		_, _ = fmt.Fprintf(w, "(first %d rows)\n", res.RowCount)
		return nil
	}
	_, _ = fmt.Fprintf(w, "(%d rows)\n", res.RowCount)
	return nil
}

// resultJSON mirrors sqlgen.Result with wire-friendly field types.
type resultJSON struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	RowCount  int        `json:"row_count"`
	Truncated bool       `json:"truncated"`
	ElapsedMS int64      `json:"elapsed_ms"`
}

func renderResultJSON(w io.Writer, res *sqlgen.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resultJSON{
		Columns:   res.Columns,
		Rows:      res.Rows,
		RowCount:  res.RowCount,
		Truncated: res.Truncated,
		ElapsedMS: res.Elapsed.Milliseconds(),
	})
}

func renderResultCSV(w io.Writer, res *sqlgen.Result) error {
	_, _ = fmt.Fprintln(w, strings.Join(res.Columns, ","))

	for _, row := range res.Rows {
		values := make([]string, len(row))
		for i, cell := range row {
			values[i] = escapeCSV(cell)
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderResultMarkdown(w io.Writer, res *sqlgen.Result) error {
	if res.RowCount == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(res.Columns, " | "))
	seps := make([]string, len(res.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, row := range res.Rows {
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(row, " | "))
	}
	return nil
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
