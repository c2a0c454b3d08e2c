package handlers

import (
	"fmt"
	"net/http"
	"os"

	"photobook/internal/indexer"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Ready     bool           `json:"ready"`
	Warnings  []string       `json:"warnings"`
	PhotoRoot string         `json:"photo_root"`
	BooksPath string         `json:"books_path"`
	Index     indexer.Status `json:"index"`
}

// HealthCheck reports configuration problems alongside the index state.
// It always answers 200 so operators can read the warnings; traffic
// gating belongs to the readiness probe.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	warnings := make([]string, 0, len(h.bookWarnings)+2)
	warnings = append(warnings, h.bookWarnings...)

	if _, err := os.Stat(h.photoRoot); err != nil {
		warnings = append(warnings, fmt.Sprintf("PHOTO_ROOT does not exist: %s", h.photoRoot))
	}
	if _, err := os.Stat(h.booksPath); err != nil {
		warnings = append(warnings, fmt.Sprintf("Books config missing: %s", h.booksPath))
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, HealthResponse{
		Ready:     len(warnings) == 0,
		Warnings:  warnings,
		PhotoRoot: h.photoRoot,
		BooksPath: h.booksPath,
		Index:     h.coordinator.Status(),
	})
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the service is ready to accept traffic
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.ready.Load() {
		writeJSONStatus(w, "ready")
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
	}
}
