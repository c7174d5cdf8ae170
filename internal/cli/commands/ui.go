package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/leapstack-labs/chdoc/internal/catalog"
	"github.com/leapstack-labs/chdoc/internal/enrich"
	"github.com/leapstack-labs/chdoc/internal/filter"
	"github.com/leapstack-labs/chdoc/internal/sqlgen"
	"github.com/leapstack-labs/chdoc/internal/ui"
	"github.com/spf13/cobra"
)

// UIOptions holds options for the ui command.
type UIOptions struct {
	Port      int
	NoBrowser bool
	Watch     bool
}

// NewUICommand creates the ui command.
func NewUICommand() *cobra.Command {
	opts := &UIOptions{}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Start the chdoc web UI",
		Long: `Start a local web server for exploring the extracted metadata.

The UI provides:
- Schema browser with editable comments and AI definitions
- Chat: plain-language questions answered with live query results
- Extraction runs with live progress and history`,
		Example: `  # Start UI on default port
  chdoc ui

  # Start on custom port
  chdoc ui --port 3000

  # Start without auto-opening browser
  chdoc ui --no-browser`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8844)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload sessions when the metadata file changes")

	return cmd
}

func runUI(cmd *cobra.Command, opts *UIOptions) error {
	cmdCtx := NewCommandContextWithoutDB(cmd)
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger

	// CLI flags override config file
	port := cfg.UI.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	autoOpen := cfg.UI.AutoOpen
	if opts.NoBrowser {
		autoOpen = false
	}

	watch := cfg.UI.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	// The connection is dialed lazily: the UI stays useful for browsing
	// the document when ClickHouse is down, and chat surfaces engine
	// errors verbatim.
	db := catalog.Open(catalogConfig(cfg), logger)
	defer func() { _ = db.Close() }()

	client, err := newLLMClient(cfg)
	if err != nil {
		return err
	}
	var generator *sqlgen.Generator
	if client != nil {
		generator = sqlgen.New(client)
	}

	store, err := openStateStore(cfg, logger)
	if err != nil {
		logger.Warn("run history unavailable", "error", err)
		store = nil
	} else {
		defer func() { _ = store.Close() }()
	}

	server := ui.NewServer(ui.Config{
		Port:          port,
		Watch:         watch,
		SessionSecret: generateSessionSecret(),
		Logger:        logger,
		DocumentPath:  cfg.Output,
		DB:            db,
		Enricher:      enrich.New(client, logger),
		Generator:     generator,
		Databases:     filter.Parse(cfg.Filter.Databases),
		Tables:        filter.Parse(cfg.Filter.Tables),
		Store:         store,
	})

	// Open browser if configured
	if autoOpen {
		url := fmt.Sprintf("http://localhost:%d", port)
		go openBrowser(url)
	}

	fmt.Printf("Starting UI server on http://localhost:%d\n", port)
	fmt.Println("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}

// generateSessionSecret returns the cookie signing secret. Cookies only
// carry a session ID, so the development default is acceptable for
// localhost use.
func generateSessionSecret() string {
	secret := os.Getenv("CHDOC_SESSION_SECRET")
	if secret == "" {
		secret = "chdoc-dev-secret-change-in-production" //nolint:gosec
	}
	return secret
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
