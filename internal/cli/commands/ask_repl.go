package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/chdoc/internal/metadata"
	"github.com/leapstack-labs/chdoc/internal/sqlgen"
	"github.com/spf13/cobra"
)

func runAskREPL(cmd *cobra.Command, doc *metadata.Document, gen *sqlgen.Generator, opts *AskOptions) error {
	ctx := cmd.Context()

	// The REPL always executes, so it needs the live connection up front.
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// Setup history file (project-local)
	statePath := resolveStatePath(cmdCtx.Cfg)
	historyFile := filepath.Join(filepath.Dir(statePath), "ask_history")

	// Configure readline
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "chdoc> ",
		HistoryFile:     historyFile,
		AutoComplete:    newAskCompleter(doc),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	// Print welcome message
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "chdoc ask REPL (document: %s)\n", cmdCtx.Cfg.Output)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Ask questions in plain language. Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	// REPL loop
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle dot-commands
		if strings.HasPrefix(line, ".") {
			if handled := handleAskDotCommand(cmd, doc, line); handled {
				if line == ".quit" || line == ".exit" {
					break
				}
				continue
			}
		}

		// Everything else is a question
		query, err := gen.Generate(ctx, line, doc)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			continue
		}

		cmdCtx.Renderer.Muted(query)

		res, err := sqlgen.Execute(ctx, cmdCtx.DB, query)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			continue
		}

		if err := renderResult(cmd.OutOrStdout(), res, opts.Format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

func handleAskDotCommand(cmd *cobra.Command, doc *metadata.Document, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	w := cmd.OutOrStdout()

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printAskHelp(w)
		return true

	case ".databases":
		printDatabaseList(w, doc)
		return true

	case ".tables":
		printTableList(w, doc)
		return true

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .schema <table> or .schema <database>.<table>")
			return true
		}
		if err := printTableSchema(w, doc, parts[1]); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".clear":
		fmt.Print("\033[H\033[2J")
		return true

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
		return true
	}
}

func printAskHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .databases      List databases in the document
  .tables         List tables with column counts
  .schema <name>  Show columns for a table (optionally database-qualified)
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - Anything else is treated as a question and translated to SQL
  - The generated SQL is printed before it runs
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

func printDatabaseList(w io.Writer, doc *metadata.Document) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Database", "Tables"})

	count := 0
	for _, name := range doc.Databases.Keys() {
		db, ok := doc.Databases.Get(name)
		if !ok {
			continue
		}
		tables := 0
		for _, schemaName := range db.Schemas.Keys() {
			if schema, ok := db.Schemas.Get(schemaName); ok {
				tables += schema.Tables.Len()
			}
		}
		t.AppendRow(table.Row{name, tables})
		count++
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d databases)\n", count)
}

func printTableList(w io.Writer, doc *metadata.Document) {
	summaries := doc.TableSummaries()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Database", "Table", "Columns"})

	for _, s := range summaries {
		t.AppendRow(table.Row{s.Database, s.Name, s.ColumnCount})
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d tables)\n", len(summaries))
}

func printTableSchema(w io.Writer, doc *metadata.Document, name string) error {
	tbl, database, ok := findTable(doc, name)
	if !ok {
		return fmt.Errorf("table '%s' not found in the document", name)
	}

	_, _ = fmt.Fprintf(w, "Table: %s.%s\n", database, name[strings.LastIndex(name, ".")+1:])

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type", "Comment", "Definition"})

	for _, col := range tbl.Columns {
		t.AppendRow(table.Row{col.Name, col.Type, col.Comment, col.AIDefinition})
	}
	t.Render()

	return nil
}

// findTable resolves a bare or database-qualified table name against the
// document. Bare names match the first table with that name in catalog
// order.
func findTable(doc *metadata.Document, name string) (*metadata.Table, string, bool) {
	if db, tbl, found := strings.Cut(name, "."); found {
		t, ok := doc.Table(db, metadata.DefaultSchema, tbl)
		return t, db, ok
	}

	for _, s := range doc.TableSummaries() {
		if s.Name == name {
			t, ok := doc.Table(s.Database, s.Schema, s.Name)
			return t, s.Database, ok
		}
	}
	return nil, "", false
}

// newAskCompleter creates a readline completer for dot-commands and
// the document's table names.
func newAskCompleter(doc *metadata.Document) *readline.PrefixCompleter {
	var tables []readline.PrefixCompleterInterface
	for _, s := range doc.TableSummaries() {
		tables = append(tables, readline.PcItem(s.Name))
		tables = append(tables, readline.PcItem(s.Database+"."+s.Name))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".databases"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", tables...),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
