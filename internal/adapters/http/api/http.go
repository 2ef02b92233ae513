// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/roomward/roomward/internal/domain/model"
	"github.com/roomward/roomward/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Monitors lists status snapshots for every active booking monitor.
	Monitors(ctx context.Context) []types.MonitorInfo

	// RecentActions returns up to n recorded release actions, newest first.
	RecentActions(ctx context.Context, n int) []model.AuditAction

	// Status reports a service-wide status snapshot.
	Status(ctx context.Context) types.ServiceStatus
}

// Server wires HTTP routes for the status API.
type Server struct {
	healthHandler   *HealthHandler
	statusHandler   *StatusHandler
	monitorsHandler *MonitorsHandler
	actionsHandler  *ActionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statusHandler:   NewStatusHandler(deps),
		monitorsHandler: NewMonitorsHandler(deps),
		actionsHandler:  NewActionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/status", MetricsMiddleware(s.statusHandler.HandleStatus, "status"))
	mux.HandleFunc("/monitors", MetricsMiddleware(s.monitorsHandler.HandleGetMonitors, "monitors"))
	mux.HandleFunc("/monitors/", MetricsMiddleware(s.monitorsHandler.HandleGetMonitor, "monitor"))
	mux.HandleFunc("/actions", MetricsMiddleware(s.actionsHandler.HandleGetActions, "actions"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
