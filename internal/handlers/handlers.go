package handlers

import (
	"sync/atomic"

	"photobook/internal/database"
	"photobook/internal/export"
	"photobook/internal/indexer"
	"photobook/internal/startup"
)

type Handlers struct {
	db           *database.Database
	coordinator  *indexer.Coordinator
	exporter     *export.Builder
	photoRoot    string
	booksPath    string
	bookWarnings []string
	ready        atomic.Bool
}

func New(db *database.Database, coord *indexer.Coordinator, exporter *export.Builder, config *startup.Config, bookWarnings []string) *Handlers {
	return &Handlers{
		db:           db,
		coordinator:  coord,
		exporter:     exporter,
		photoRoot:    config.PhotoRoot,
		booksPath:    config.BooksConfig,
		bookWarnings: bookWarnings,
	}
}

// MarkReady flips the readiness probe to serving. Called once the database
// is open and the books config has been loaded.
func (h *Handlers) MarkReady() {
	h.ready.Store(true)
}
