// Package chat provides the conversational query feature: questions in
// plain language, answered by generating ClickHouse SQL against the
// extracted document and running it live.
package chat

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/chdoc/internal/sqlgen"
	"github.com/leapstack-labs/chdoc/internal/ui/document"
	"github.com/leapstack-labs/chdoc/internal/ui/session"
)

// SetupRoutes configures routes for the chat feature.
func SetupRoutes(
	router chi.Router,
	doc *document.Holder,
	sessions *session.Manager,
	generator *sqlgen.Generator,
	db sqlgen.Querier,
	logger *slog.Logger,
) error {
	handlers := NewHandlers(doc, sessions, generator, db, logger)

	router.Get("/chat", handlers.ChatPage)
	router.Get("/chat/view", handlers.ChatView)
	router.Post("/chat/ask", handlers.Ask)
	router.Post("/chat/clear", handlers.Clear)

	return nil
}
