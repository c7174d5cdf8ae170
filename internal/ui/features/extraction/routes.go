// Package extraction provides the extraction feature: trigger catalog
// walks from the browser with live progress, and review past runs.
package extraction

import (
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures routes for the extraction feature.
func SetupRoutes(router chi.Router, cfg Config) error {
	handlers := NewHandlers(cfg)

	router.Get("/extraction", handlers.ExtractionPage)
	router.Get("/extraction/view", handlers.ExtractionView)
	router.Get("/extraction/updates", handlers.ExtractionUpdates)
	router.Post("/extraction/run", handlers.Run)

	return nil
}
