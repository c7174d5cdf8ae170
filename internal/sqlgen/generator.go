// Package sqlgen turns natural-language questions into executable
// ClickHouse statements through the text-generation service, and runs
// them. The prompt carries table names and column counts only, which
// bounds its size on wide schemas; model output is normalized by Clean
// before execution.
package sqlgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/chdoc/internal/llm"
	"github.com/leapstack-labs/chdoc/internal/metadata"
)

const queryPrompt = `Generate a ClickHouse SQL query for this question.

Question: %s

Available tables: %s

Return only the SQL query, no explanations.

SQL Query:`

// ErrNoSQL is returned when the model answered but no statement
// survived cleanup.
var ErrNoSQL = errors.New("model returned no SQL")

// Generator produces one statement per question.
type Generator struct {
	client llm.Client
}

// New creates a Generator over client.
func New(client llm.Client) *Generator {
	return &Generator{client: client}
}

// Generate asks the service for a single statement answering question
// against the tables in doc, and returns it cleaned.
func (g *Generator) Generate(ctx context.Context, question string, doc *metadata.Document) (string, error) {
	if g.client == nil {
		return "", errors.New("text generation is not configured, set a Gemini API key")
	}

	info, err := schemaInfo(doc)
	if err != nil {
		return "", fmt.Errorf("building schema info: %w", err)
	}

	text, err := g.client.GenerateText(ctx, fmt.Sprintf(queryPrompt, question, info))
	if err != nil {
		return "", fmt.Errorf("generating SQL: %w", err)
	}

	query := Clean(text)
	if query == "" {
		return "", ErrNoSQL
	}
	return query, nil
}

type tableCount struct {
	ColumnCount int `json:"column_count"`
}

// schemaInfo renders the document's table inventory as indented JSON,
// {database: {schema: {table: {"column_count": n}}}}, in document
// order. Column-level detail is deliberately left out.
func schemaInfo(doc *metadata.Document) (string, error) {
	info := metadata.NewOrderedMap[*metadata.OrderedMap[*metadata.OrderedMap[tableCount]]]()

	for _, s := range doc.TableSummaries() {
		db, ok := info.Get(s.Database)
		if !ok {
			db = metadata.NewOrderedMap[*metadata.OrderedMap[tableCount]]()
			info.Set(s.Database, db)
		}
		schema, ok := db.Get(s.Schema)
		if !ok {
			schema = metadata.NewOrderedMap[tableCount]()
			db.Set(s.Schema, schema)
		}
		schema.Set(s.Name, tableCount{ColumnCount: s.ColumnCount})
	}

	out, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Clean normalizes raw model output into one executable statement.
// In order: strip a leading ```sql or ``` fence, strip a trailing
// fence, cut everything from a FORMAT clause, drop trailing
// semicolons, collapse whitespace runs to single spaces.
func Clean(raw string) string {
	query := strings.TrimSpace(raw)

	query = strings.TrimPrefix(query, "```sql")
	query = strings.TrimPrefix(query, "```")
	query = strings.TrimSuffix(query, "```")
	query = strings.TrimSpace(query)

	// ClickHouse FORMAT clauses would fight the driver's own wire
	// format. The presence check is case-insensitive; the cut happens
	// at the literal uppercase keyword models actually emit.
	if strings.Contains(strings.ToUpper(query), "FORMAT") {
		before, _, _ := strings.Cut(query, "FORMAT")
		query = strings.TrimSpace(before)
	}

	query = strings.TrimRight(query, ";")
	return strings.Join(strings.Fields(query), " ")
}
