// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// MonitorsHandler handles active-monitor requests.
type MonitorsHandler struct {
	deps Dependencies
}

// NewMonitorsHandler creates a new monitors handler.
func NewMonitorsHandler(deps Dependencies) *MonitorsHandler {
	return &MonitorsHandler{deps: deps}
}

// HandleGetMonitors handles GET /monitors requests.
func (h *MonitorsHandler) HandleGetMonitors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Monitors(r.Context()))
}

// HandleGetMonitor handles GET /monitors/{booking_id} requests.
func (h *MonitorsHandler) HandleGetMonitor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /monitors/
	bookingID := strings.TrimPrefix(r.URL.Path, "/monitors/")
	if bookingID == "" || strings.Contains(bookingID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	for _, info := range h.deps.Monitors(r.Context()) {
		if info.BookingID == bookingID {
			writeJSON(w, http.StatusOK, info)
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", ErrMonitorNotFound)
}
