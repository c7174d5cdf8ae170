package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/chdoc/internal/metadata"
	"github.com/leapstack-labs/chdoc/internal/sqlgen"
	"github.com/spf13/cobra"
)

// AskOptions holds options for the ask command.
type AskOptions struct {
	Format  string
	SQLOnly bool
}

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	opts := &AskOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about your schema in plain language",
		Long: `Translate a natural-language question into a ClickHouse SQL query and
run it.

Questions are answered against the extracted metadata document: Gemini
sees the table names and column counts, generates one SQL statement,
and chdoc executes it over the configured connection. Engine errors are
shown verbatim so the statement can be fixed by asking again.

When invoked without a question on a terminal, enters an interactive
REPL with history, completion, and dot-commands.`,
		Example: `  # One-off question
  chdoc ask "how many rows does analytics.events hold?"

  # Only print the generated SQL
  chdoc ask --sql-only "count events per day this week"

  # Pipe a question in
  echo "top 10 users by event count" | chdoc ask --format json

  # Interactive mode
  chdoc ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().BoolVar(&opts.SQLOnly, "sql-only", false, "Print the generated SQL without executing it")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string, opts *AskOptions) error {
	cfg := getConfig()

	doc, err := loadDocument(cfg.Output)
	if err != nil {
		return err
	}

	client, err := newLLMClient(cfg)
	if err != nil {
		return err
	}
	gen := sqlgen.New(client)

	// Determine the question source
	var question string
	switch {
	case len(args) > 0:
		question = strings.Join(args, " ")
	case !isTerminal(os.Stdin):
		// Read from stdin (piped input)
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		question = strings.TrimSpace(string(content))
	default:
		// No input, TTY detected - enter REPL mode
		return runAskREPL(cmd, doc, gen, opts)
	}

	if question == "" {
		return fmt.Errorf("empty question")
	}

	query, err := gen.Generate(cmd.Context(), question, doc)
	if err != nil {
		return err
	}

	if opts.SQLOnly {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), query)
		return nil
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := sqlgen.Execute(cmd.Context(), cmdCtx.DB, query)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	return renderResult(cmd.OutOrStdout(), res, opts.Format)
}

// loadDocument reads the extracted metadata document.
func loadDocument(path string) (*metadata.Document, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("metadata document not found at %s (run 'chdoc extract' first)", path)
	}
	doc, err := metadata.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata document: %w", err)
	}
	return doc, nil
}
