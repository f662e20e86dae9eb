package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/autocommit/internal/config"
	"git.home.luguber.info/inful/autocommit/internal/errors"
	"git.home.luguber.info/inful/autocommit/internal/history"
	"git.home.luguber.info/inful/autocommit/internal/logfields"
	"git.home.luguber.info/inful/autocommit/internal/orchestrator"
	"git.home.luguber.info/inful/autocommit/internal/scheduler"
	"git.home.luguber.info/inful/autocommit/internal/server/responses"
)

// SchedulerControl is the slice of scheduler operations the API exposes.
type SchedulerControl interface {
	Start()
	Stop()
	Pause()
	Resume()
	TriggerNow(ctx context.Context) (orchestrator.Outcome, error)
	Status() scheduler.Status
}

// RepoInfo is the slice of repository queries the status endpoint reports.
type RepoInfo interface {
	CurrentBranch() (string, error)
}

// APIHandlers contains the control and status HTTP handlers.
type APIHandlers struct {
	config       *config.Config
	scheduler    SchedulerControl
	store        history.Store
	repo         RepoInfo
	aiHealth     AIHealth
	errorAdapter *errors.HTTPErrorAdapter
}

// NewAPIHandlers creates a new API handlers instance. repo and aiHealth may be
// nil; the status endpoint then omits the branch and reports AI unavailable.
func NewAPIHandlers(cfg *config.Config, sched SchedulerControl, store history.Store,
	repo RepoInfo, aiHealth AIHealth) *APIHandlers {
	return &APIHandlers{
		config:       cfg,
		scheduler:    sched,
		store:        store,
		repo:         repo,
		aiHealth:     aiHealth,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleStatus handles GET /api/status.
func (h *APIHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, http.MethodGet)
		return
	}

	st := h.scheduler.Status()
	resp := &responses.StatusResponse{
		Running:    st.Running,
		Paused:     st.Paused,
		NextRunAt:  st.NextRunAt,
		LastRunAt:  st.LastRunAt,
		Repository: h.config.Repository.Path,
		Timestamp:  time.Now().UTC(),
	}
	if h.repo != nil {
		if branch, err := h.repo.CurrentBranch(); err == nil {
			resp.Branch = branch
		}
	}
	if h.aiHealth != nil {
		resp.AIAvailable = h.aiHealth.AIAvailable()
	}

	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		h.writeInternal(w, r, err, "failed to write status response")
	}
}

// HandleHistory handles GET /api/history. The limit query parameter bounds the
// result; it defaults to the configured history limit.
func (h *APIHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, http.MethodGet)
		return
	}

	limit := h.config.Daemon.HistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.errorAdapter.WriteErrorResponse(w, r,
				errors.ValidationFailed("limit", "must be a positive integer").
					WithContext("limit", raw))
			return
		}
		limit = parsed
	}

	attempts, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.StoreFailed("read history", err))
		return
	}
	if attempts == nil {
		attempts = []history.CommitAttempt{}
	}

	resp := &responses.HistoryResponse{Attempts: attempts, Count: len(attempts)}
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		h.writeInternal(w, r, err, "failed to write history response")
	}
}

// HandleStats handles GET /api/stats.
func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, http.MethodGet)
		return
	}

	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.StoreFailed("read stats", err))
		return
	}
	types, err := h.store.CommitTypes(r.Context())
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.StoreFailed("read commit types", err))
		return
	}

	resp := &responses.StatsResponse{
		AggregateStats: stats,
		CommitTypes:    types,
		NextRunAt:      h.scheduler.Status().NextRunAt,
	}
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		h.writeInternal(w, r, err, "failed to write stats response")
	}
}

// HandleConfig handles GET /api/config. The response is a read-only snapshot
// of the effective configuration; the push token is reported only as a
// presence flag so the credential never leaves the process.
func (h *APIHandlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, http.MethodGet)
		return
	}

	cfg := h.config
	resp := &responses.ConfigResponse{
		Repository: responses.ConfigRepository{
			Path:   cfg.Repository.Path,
			Branch: cfg.Repository.Branch,
		},
		Schedule: responses.ConfigSchedule{
			BaseIntervalSeconds: cfg.Schedule.BaseIntervalSeconds,
			JitterSeconds:       cfg.Schedule.Jitter(),
		},
		Commit: responses.ConfigCommit{
			AuthorName:  cfg.Commit.AuthorName,
			AuthorEmail: cfg.Commit.AuthorEmail,
		},
		Push: responses.ConfigPush{
			Enabled:           cfg.Push.Enabled,
			Remote:            cfg.Push.Remote,
			RetryAttempts:     cfg.Push.RetryAttempts,
			RetryDelaySeconds: cfg.Push.RetryDelaySeconds,
			Backoff:           string(config.NormalizeRetryBackoff(cfg.Push.Backoff)),
			TokenSet:          cfg.Push.Token != "",
		},
		Ollama: responses.ConfigOllama{
			Enabled:        cfg.Ollama.Enabled,
			URL:            cfg.Ollama.URL,
			Model:          cfg.Ollama.Model,
			TimeoutSeconds: cfg.Ollama.TimeoutSeconds,
			Theme:          cfg.Ollama.Theme,
		},
		Daemon: responses.ConfigDaemon{
			HTTPPort:      cfg.Daemon.HTTP.Port,
			EventsEnabled: cfg.Daemon.Events.Enabled,
			HistoryLimit:  cfg.Daemon.HistoryLimit,
		},
		Logging: responses.ConfigLogging{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		},
	}

	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		h.writeInternal(w, r, err, "failed to write config response")
	}
}

type controlRequest struct {
	Action string `json:"action"`
}

// HandleControl handles POST /api/control. Valid actions are pause, resume,
// trigger, start, and stop; anything else is rejected as client input, not a
// server fault.
func (h *APIHandlers) HandleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			errors.ValidationFailed("body", "invalid JSON").WithContext("error", err.Error()))
		return
	}

	resp := responses.ControlResponse{Status: "ok", Action: req.Action}

	switch req.Action {
	case "pause":
		h.scheduler.Pause()
	case "resume":
		h.scheduler.Resume()
	case "start":
		h.scheduler.Start()
	case "stop":
		h.scheduler.Stop()
	case "trigger":
		jobID := uuid.New().String()
		slog.Info("Manual trigger requested", logfields.JobID(jobID))

		out, err := h.scheduler.TriggerNow(r.Context())
		if err != nil {
			h.errorAdapter.WriteErrorResponse(w, r,
				errors.Wrap(err, errors.CategoryScheduler, errors.SeverityError, "trigger aborted"))
			return
		}
		resp.JobID = jobID
		resp.Skipped = out.Skipped
		if !out.Skipped {
			resp.Attempt = &out.Attempt
		}
	default:
		h.errorAdapter.WriteErrorResponse(w, r, errors.InvalidControlAction(req.Action))
		return
	}

	if err := writeJSONPretty(w, r, http.StatusOK, &resp); err != nil {
		h.writeInternal(w, r, err, "failed to write control response")
	}
}

func (h *APIHandlers) methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	h.errorAdapter.WriteErrorResponse(w, r,
		errors.ValidationFailed("method", "invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", allowed))
}

func (h *APIHandlers) writeInternal(w http.ResponseWriter, r *http.Request, err error, msg string) {
	h.errorAdapter.WriteErrorResponse(w, r,
		errors.Wrap(err, errors.CategoryInternal, errors.SeverityError, msg))
}
