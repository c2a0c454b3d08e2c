package handlers

import (
	"net/http"
	"strconv"

	"photobook/internal/indexer"
)

type indexTriggerResponse struct {
	Started bool           `json:"started"`
	Status  indexer.Status `json:"status"`
}

// TriggerIndex starts a background index run. When a run is already in
// flight the trigger is rejected and started reports false. The force
// query parameter re-extracts metadata for unchanged files.
func (h *Handlers) TriggerIndex(w http.ResponseWriter, r *http.Request) {
	force := false
	if parsed, err := strconv.ParseBool(r.URL.Query().Get("force")); err == nil {
		force = parsed
	}

	started := h.coordinator.Start(force)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, indexTriggerResponse{Started: started, Status: h.coordinator.Status()})
}

// IndexStatus returns a snapshot of the current or most recent index run.
func (h *Handlers) IndexStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.coordinator.Status())
}
