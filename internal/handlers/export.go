package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"photobook/internal/export"
	"photobook/internal/logging"
)

// exportRequest optionally narrows an export to explicit photo ids. An
// empty or absent list falls back to the book's current selection.
type exportRequest struct {
	IDs []interface{} `json:"ids"`
}

// ExportBook builds a ZIP archive of the book's exportable photos and
// streams it to the client. The archive is deleted after delivery.
func (h *Handlers) ExportBook(w http.ResponseWriter, r *http.Request) {
	book := h.bookFromRequest(w, r)
	if book == nil {
		return
	}

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	archive, cleanup, err := h.exporter.Build(r.Context(), book, normalizeIDList(req.IDs))
	if err != nil {
		if errors.Is(err, export.ErrNoExportablePhotos) {
			writeJSONError(w, "No exportable photos", http.StatusBadRequest)
			return
		}
		logging.Error("Export failed for book %s: %v", book.ID, err)
		writeJSONError(w, "Export failed", http.StatusInternalServerError)
		return
	}
	defer cleanup()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.SuggestedName))
	http.ServeFile(w, r, archive.Path)
}
