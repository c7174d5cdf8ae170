// Package schema provides the schema browser feature: the extracted
// document rendered as a navigable tree with editable column fields.
package schema

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/chdoc/internal/ui/document"
	"github.com/leapstack-labs/chdoc/internal/ui/notifier"
	"github.com/leapstack-labs/chdoc/internal/ui/session"
)

// SetupRoutes configures routes for the schema feature. The browser is
// also the landing page.
func SetupRoutes(
	router chi.Router,
	doc *document.Holder,
	sessions *session.Manager,
	notify *notifier.Notifier,
	logger *slog.Logger,
) error {
	handlers := NewHandlers(doc, sessions, notify, logger)

	router.Get("/", handlers.SchemaPage)
	router.Get("/schema", handlers.SchemaPage)
	router.Get("/schema/view", handlers.SchemaView)
	router.Get("/schema/select", handlers.SelectTable)
	router.Get("/schema/updates", handlers.SchemaUpdates)
	router.Get("/schema/column/edit", handlers.EditColumn)
	router.Post("/schema/column", handlers.UpdateColumn)

	return nil
}
