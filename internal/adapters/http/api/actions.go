// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"

	"github.com/roomward/roomward/internal/domain/model"
)

// Action listing limits.
const (
	defaultActionsLimit = 50
	maxActionsLimit     = 500
)

// ActionsHandler handles recent-action requests.
type ActionsHandler struct {
	deps Dependencies
}

// NewActionsHandler creates a new actions handler.
func NewActionsHandler(deps Dependencies) *ActionsHandler {
	return &ActionsHandler{deps: deps}
}

// HandleGetActions handles GET /actions?limit=N requests.
func (h *ActionsHandler) HandleGetActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	n := defaultActionsLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		if parsed > maxActionsLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadRequest)
			return
		}
		n = parsed
	}

	actions := h.deps.RecentActions(r.Context(), n)
	if actions == nil {
		actions = []model.AuditAction{}
	}
	writeJSON(w, http.StatusOK, actions)
}
