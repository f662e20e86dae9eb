package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/autocommit/internal/errors"
	"git.home.luguber.info/inful/autocommit/internal/server/responses"
	"git.home.luguber.info/inful/autocommit/internal/version"
)

// AIHealth reports whether the message backend is reachable. Satisfied by the
// daemon's health probe.
type AIHealth interface {
	AIAvailable() bool
}

// MonitoringHandlers contains the health check handler.
type MonitoringHandlers struct {
	startTime    time.Time
	aiHealth     AIHealth
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates a new monitoring handlers instance. aiHealth
// may be nil when no AI backend is configured.
func NewMonitoringHandlers(startTime time.Time, aiHealth AIHealth) *MonitoringHandlers {
	return &MonitoringHandlers{
		startTime:    startTime,
		aiHealth:     aiHealth,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleHealthCheck handles GET /healthz.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.errorAdapter.WriteErrorResponse(w, r,
			errors.ValidationFailed("method", "invalid HTTP method").
				WithContext("method", r.Method).
				WithContext("allowed_method", http.MethodGet))
		return
	}

	health := &responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(h.startTime).Seconds(),
	}
	if h.aiHealth != nil {
		health.AIAvailable = h.aiHealth.AIAvailable()
	}

	if err := writeJSONPretty(w, r, http.StatusOK, health); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			errors.Wrap(err, errors.CategoryInternal, errors.SeverityError, "failed to write health response"))
	}
}
