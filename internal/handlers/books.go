package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"photobook/internal/database"
	"photobook/internal/logging"
)

// bookPageResponse is the paged book view: the book's own fields flattened
// alongside one window of its photos.
type bookPageResponse struct {
	database.Book
	Photos        []database.BookPhoto `json:"photos"`
	SelectedCount int                  `json:"selected_count"`
	TotalPhotos   int                  `json:"total_photos"`
	Offset        int                  `json:"offset"`
	Limit         int                  `json:"limit"`
	HasMore       bool                 `json:"has_more"`
}

// selectionRequest carries selection toggles. IDs stay untyped because
// clients send them as numbers or numeric strings; Selected defaults to
// true when omitted.
type selectionRequest struct {
	IDs      []interface{} `json:"ids"`
	Selected *bool         `json:"selected"`
}

type completionRequest struct {
	Completed bool `json:"completed"`
}

// ListBooks returns every configured book with its photo and selection counts.
func (h *Handlers) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.db.ListBookSummaries(r.Context())
	if err != nil {
		logging.Error("Failed to list books: %v", err)
		writeJSONError(w, "Failed to list books", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, books)
}

// bookFromRequest resolves the {id} path variable to a book. On failure it
// writes the error response and returns nil.
func (h *Handlers) bookFromRequest(w http.ResponseWriter, r *http.Request) *database.Book {
	id := mux.Vars(r)["id"]

	book, err := h.db.GetBook(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrBookNotFound) {
			writeJSONError(w, "Book not found", http.StatusNotFound)
		} else {
			logging.Error("Failed to load book %s: %v", id, err)
			writeJSONError(w, "Failed to load book", http.StatusInternalServerError)
		}
		return nil
	}
	return book
}

// GetBook returns a book and one page of its photos. Paging is controlled
// by offset and limit query parameters; selected_only narrows the page to
// photos currently selected for the book.
func (h *Handlers) GetBook(w http.ResponseWriter, r *http.Request) {
	book := h.bookFromRequest(w, r)
	if book == nil {
		return
	}

	var opts database.PageOptions
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil {
		opts.Offset = offset
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		opts.Limit = limit
	}
	if selectedOnly, err := strconv.ParseBool(r.URL.Query().Get("selected_only")); err == nil {
		opts.SelectedOnly = selectedOnly
	}

	page, err := h.db.ListBookPhotos(r.Context(), book, opts)
	if err != nil {
		logging.Error("Failed to page photos for book %s: %v", book.ID, err)
		writeJSONError(w, "Failed to load photos", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, bookPageResponse{
		Book:          *book,
		Photos:        page.Photos,
		SelectedCount: page.SelectedCount,
		TotalPhotos:   page.TotalPhotos,
		Offset:        page.Offset,
		Limit:         page.Limit,
		HasMore:       page.HasMore,
	})
}

// UpdateSelection marks photos as selected or deselected for a book. IDs
// outside the book's date range or unknown to the catalog are ignored; the
// response reports how many ids were applied.
func (h *Handlers) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	book := h.bookFromRequest(w, r)
	if book == nil {
		return
	}

	// A malformed payload collapses to an empty id list, which makes the
	// update a no-op rather than an error.
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = selectionRequest{}
	}

	selected := true
	if req.Selected != nil {
		selected = *req.Selected
	}

	ids, err := h.db.FilterPhotoIDsInRange(r.Context(), normalizeIDList(req.IDs), book.StartDate, book.EndDate)
	if err != nil {
		logging.Error("Failed to filter ids for book %s: %v", book.ID, err)
		writeJSONError(w, "Failed to update selection", http.StatusInternalServerError)
		return
	}

	updated, err := h.db.UpsertSelections(r.Context(), book.ID, ids, selected)
	if err != nil {
		logging.Error("Failed to update selection for book %s: %v", book.ID, err)
		writeJSONError(w, "Failed to update selection", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{"ok": true, "updated": updated})
}

// ClearSelection removes every selection row for a book.
func (h *Handlers) ClearSelection(w http.ResponseWriter, r *http.Request) {
	book := h.bookFromRequest(w, r)
	if book == nil {
		return
	}

	if err := h.db.ClearSelections(r.Context(), book.ID); err != nil {
		logging.Error("Failed to clear selection for book %s: %v", book.ID, err)
		writeJSONError(w, "Failed to clear selection", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{"ok": true})
}

// SetCompletion flags a book as completed or not. A missing completed field
// clears the flag; a non-boolean value is rejected.
func (h *Handlers) SetCompletion(w http.ResponseWriter, r *http.Request) {
	book := h.bookFromRequest(w, r)
	if book == nil {
		return
	}

	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.db.SetBookCompletion(r.Context(), book.ID, req.Completed); err != nil {
		if errors.Is(err, database.ErrBookNotFound) {
			writeJSONError(w, "Book not found", http.StatusNotFound)
			return
		}
		logging.Error("Failed to set completion for book %s: %v", book.ID, err)
		writeJSONError(w, "Failed to set completion", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{"ok": true, "completed": req.Completed})
}
