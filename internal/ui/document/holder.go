// Package document guards shared access to the metadata document behind
// the UI server. Handlers read and edit the same in-memory copy; edits
// are persisted through metadata.Save and external file changes are
// folded back in through Reload.
package document

import (
	"errors"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/chdoc/internal/metadata"
)

// Holder serializes access to the loaded document. Read and Update hold
// the lock for the duration of the callback, so Reload and concurrent
// edits wait until it returns.
type Holder struct {
	path   string
	logger *slog.Logger

	mu  sync.RWMutex
	doc *metadata.Document
}

// New creates a Holder backed by the file at path. Nothing is loaded
// until Load is called.
func New(path string, logger *slog.Logger) *Holder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Holder{path: path, logger: logger}
}

// Path returns the backing file path.
func (h *Holder) Path() string {
	return h.path
}

// Load reads the document from disk. A missing file is not an error: the
// holder stays empty and the UI renders its onboarding state until an
// extraction runs.
func (h *Holder) Load() error {
	doc, err := metadata.Load(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.mu.Lock()
			h.doc = nil
			h.mu.Unlock()
			return nil
		}
		return err
	}

	h.mu.Lock()
	h.doc = doc
	h.mu.Unlock()
	return nil
}

// Reload re-reads the file, keeping the current document when the file
// is unreadable mid-write. Used by the file watcher.
func (h *Holder) Reload() {
	doc, err := metadata.Load(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.mu.Lock()
			h.doc = nil
			h.mu.Unlock()
			return
		}
		h.logger.Warn("reload failed, keeping loaded document", "path", h.path, "error", err)
		return
	}

	h.mu.Lock()
	h.doc = doc
	h.mu.Unlock()
	h.logger.Debug("document reloaded", "path", h.path)
}

// Read calls fn with the current document under the read lock. The
// document is nil when no file exists yet. fn must not retain or mutate
// the document.
func (h *Holder) Read(fn func(doc *metadata.Document)) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn(h.doc)
}

// Update calls fn with the document under the write lock and persists the
// result when fn returns nil. An error from fn aborts without saving.
// The document is nil when no file exists yet.
func (h *Holder) Update(fn func(doc *metadata.Document) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := fn(h.doc); err != nil {
		return err
	}
	if h.doc == nil {
		return nil
	}
	return metadata.Save(h.doc, h.path)
}

// Replace swaps in a freshly extracted document and persists it.
func (h *Holder) Replace(doc *metadata.Document) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.doc = doc
	return metadata.Save(doc, h.path)
}
