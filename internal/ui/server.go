// Package ui provides the local web UI: a schema browser over the
// extracted metadata document, chat-driven querying, and in-browser
// extraction runs.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/chdoc/internal/catalog"
	"github.com/leapstack-labs/chdoc/internal/enrich"
	"github.com/leapstack-labs/chdoc/internal/filter"
	"github.com/leapstack-labs/chdoc/internal/sqlgen"
	"github.com/leapstack-labs/chdoc/internal/state"
	"github.com/leapstack-labs/chdoc/internal/ui/document"
	"github.com/leapstack-labs/chdoc/internal/ui/notifier"
	"github.com/leapstack-labs/chdoc/internal/ui/resources"
	"github.com/leapstack-labs/chdoc/internal/ui/router"
	"github.com/leapstack-labs/chdoc/internal/ui/session"
)

// Config holds configuration for the UI server.
type Config struct {
	Port          int
	Watch         bool
	SessionSecret string
	Logger        *slog.Logger
	DocumentPath  string
	DB            *catalog.DB
	Enricher      *enrich.Enricher
	Generator     *sqlgen.Generator
	Databases     filter.AllowList
	Tables        filter.AllowList
	Store         *state.Store
}

// Server is the main UI server.
type Server struct {
	cfg      Config
	document *document.Holder
	sessions *session.Manager
	notifier *notifier.Notifier
	logger   *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	return &Server{
		cfg:      cfg,
		document: document.New(cfg.DocumentPath, cfg.Logger),
		sessions: session.NewManager(cfg.SessionSecret),
		notifier: notifier.New(),
		logger:   cfg.Logger,
	}
}

// Serve starts the UI server and blocks until the context is cancelled.
// A missing document file is fine, the UI starts in its onboarding
// state; a corrupt one is a startup error.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.document.Load(); err != nil {
		return fmt.Errorf("loading %s: %w", s.cfg.DocumentPath, err)
	}

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.cfg.Port))

	eg, egctx := errgroup.WithContext(ctx)

	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	deps := router.Deps{
		Document:  s.document,
		Sessions:  s.sessions,
		Notifier:  s.notifier,
		DB:        s.cfg.DB,
		Enricher:  s.cfg.Enricher,
		Generator: s.cfg.Generator,
		Databases: s.cfg.Databases,
		Tables:    s.cfg.Tables,
		Store:     s.cfg.Store,
		Logger:    s.logger,
	}
	if err := router.SetupRoutes(r, deps, s.IsDev()); err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start document watcher if enabled
	if s.cfg.Watch {
		eg.Go(func() error {
			return s.watchDocument(egctx)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// IsDev reports whether the binary was built with the dev tag.
func (s *Server) IsDev() bool {
	return resources.DevMode
}

// watchDocument reloads the document and wakes SSE sessions whenever
// the file changes on disk, e.g. when chdoc extract runs while the UI
// is up. The parent directory is watched, not the file itself, because
// editors and atomic writers replace the file rather than write in
// place.
func (s *Server) watchDocument(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(s.cfg.DocumentPath)); err != nil {
		s.logger.Error("failed to watch document directory", "error", err)
		// Don't fail - continue without watching
		return nil
	}

	name := filepath.Base(s.cfg.DocumentPath)

	// Debounce timer
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Base(event.Name) != name {
				continue
			}

			// Debounce, extraction writes land as several events
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("document changed on disk, reloading", "file", event.Name)
				s.document.Reload()
				s.notifier.Broadcast()
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}
