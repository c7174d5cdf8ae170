// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/chdoc/internal/catalog"
	"github.com/leapstack-labs/chdoc/internal/enrich"
	"github.com/leapstack-labs/chdoc/internal/filter"
	"github.com/leapstack-labs/chdoc/internal/sqlgen"
	"github.com/leapstack-labs/chdoc/internal/state"
	"github.com/leapstack-labs/chdoc/internal/ui/document"
	chatFeature "github.com/leapstack-labs/chdoc/internal/ui/features/chat"
	extractionFeature "github.com/leapstack-labs/chdoc/internal/ui/features/extraction"
	schemaFeature "github.com/leapstack-labs/chdoc/internal/ui/features/schema"
	"github.com/leapstack-labs/chdoc/internal/ui/notifier"
	"github.com/leapstack-labs/chdoc/internal/ui/resources"
	"github.com/leapstack-labs/chdoc/internal/ui/session"
)

// Deps carries the shared dependencies the feature routes are wired
// with. DB serves double duty: the extraction walker reads the catalog
// through it and chat runs generated queries on it.
type Deps struct {
	Document  *document.Holder
	Sessions  *session.Manager
	Notifier  *notifier.Notifier
	DB        *catalog.DB
	Enricher  *enrich.Enricher
	Generator *sqlgen.Generator
	Databases filter.AllowList
	Tables    filter.AllowList
	Store     *state.Store
	Logger    *slog.Logger
}

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(router chi.Router, deps Deps, isDev bool) error {
	// Hot reload endpoint for dev mode
	if isDev {
		setupReload(router)
	}

	// Static assets
	router.Handle("/static/*", resources.Handler())

	// Feature routes
	if err := schemaFeature.SetupRoutes(router, deps.Document, deps.Sessions, deps.Notifier, deps.Logger); err != nil {
		return err
	}

	if err := chatFeature.SetupRoutes(router, deps.Document, deps.Sessions, deps.Generator, deps.DB, deps.Logger); err != nil {
		return err
	}

	if err := extractionFeature.SetupRoutes(router, extractionFeature.Config{
		Document:  deps.Document,
		Catalog:   deps.DB,
		Enricher:  deps.Enricher,
		Databases: deps.Databases,
		Tables:    deps.Tables,
		Store:     deps.Store,
		Notifier:  deps.Notifier,
		Logger:    deps.Logger,
	}); err != nil {
		return err
	}

	return nil
}

func setupReload(router chi.Router) {
	reloadChan := make(chan struct{}, 1)
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		hotReloadOnce.Do(reload)
		select {
		case <-reloadChan:
			reload()
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
