package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/autocommit/internal/config"
	"git.home.luguber.info/inful/autocommit/internal/history"
	"git.home.luguber.info/inful/autocommit/internal/orchestrator"
	"git.home.luguber.info/inful/autocommit/internal/scheduler"
	"git.home.luguber.info/inful/autocommit/internal/server/responses"
)

type fakeScheduler struct {
	status   scheduler.Status
	outcome  orchestrator.Outcome
	actions  []string
	trigErr  error
}

func (f *fakeScheduler) Start()  { f.actions = append(f.actions, "start") }
func (f *fakeScheduler) Stop()   { f.actions = append(f.actions, "stop") }
func (f *fakeScheduler) Pause()  { f.actions = append(f.actions, "pause") }
func (f *fakeScheduler) Resume() { f.actions = append(f.actions, "resume") }
func (f *fakeScheduler) TriggerNow(context.Context) (orchestrator.Outcome, error) {
	f.actions = append(f.actions, "trigger")
	return f.outcome, f.trigErr
}
func (f *fakeScheduler) Status() scheduler.Status { return f.status }

type fakeRepoInfo struct{ branch string }

func (f fakeRepoInfo) CurrentBranch() (string, error) { return f.branch, nil }

type fakeAIHealth struct{ available bool }

func (f fakeAIHealth) AIAvailable() bool { return f.available }

func newTestHandlers(t *testing.T, sched *fakeScheduler) (*APIHandlers, *history.SQLiteStore) {
	t.Helper()
	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{}
	cfg.Repository.Path = "/srv/repo"
	cfg.Daemon.HistoryLimit = 50

	return NewAPIHandlers(cfg, sched, store, fakeRepoInfo{branch: "main"}, fakeAIHealth{available: true}), store
}

func seedAttempts(t *testing.T, store *history.SQLiteStore, n int) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		_, err := store.Append(context.Background(), history.CommitAttempt{
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			Success:    true,
			CommitHash: "hash",
			Message:    "feat: change",
		})
		require.NoError(t, err)
	}
}

func TestHandleStatus(t *testing.T) {
	next := time.Now().Add(10 * time.Minute)
	sched := &fakeScheduler{status: scheduler.Status{Running: true, Paused: true, NextRunAt: &next}}
	h, _ := newTestHandlers(t, sched)

	t.Run("returns scheduler snapshot", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp responses.StatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Running)
		assert.True(t, resp.Paused)
		require.NotNil(t, resp.NextRunAt)
		assert.Equal(t, "/srv/repo", resp.Repository)
		assert.Equal(t, "main", resp.Branch)
		assert.True(t, resp.AIAvailable)
	})

	t.Run("tolerates missing repo and health collaborators", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Repository.Path = "/srv/repo"
		bare := NewAPIHandlers(cfg, sched, nil, nil, nil)

		rec := httptest.NewRecorder()
		bare.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp responses.StatusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Branch)
		assert.False(t, resp.AIAvailable)
	})

	t.Run("rejects non-GET methods", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleStatus(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleHistory(t *testing.T) {
	h, store := newTestHandlers(t, &fakeScheduler{})
	seedAttempts(t, store, 5)

	t.Run("returns attempts most recent first", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp responses.HistoryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 5, resp.Count)
		require.Len(t, resp.Attempts, 5)
		assert.True(t, resp.Attempts[0].Timestamp.After(resp.Attempts[4].Timestamp))
	})

	t.Run("honors the limit parameter", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history?limit=2", nil))

		var resp responses.HistoryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
	})

	t.Run("rejects a non-positive limit", func(t *testing.T) {
		for _, limit := range []string{"0", "-3", "abc"} {
			rec := httptest.NewRecorder()
			h.HandleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history?limit="+limit, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
		}
	})

	t.Run("empty history yields an empty list, not null", func(t *testing.T) {
		empty, _ := newTestHandlers(t, &fakeScheduler{})
		rec := httptest.NewRecorder()
		empty.HandleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
		assert.Contains(t, rec.Body.String(), `"attempts":[]`)
	})
}

func TestHandleStats(t *testing.T) {
	h, store := newTestHandlers(t, &fakeScheduler{})
	seedAttempts(t, store, 3)

	rec := httptest.NewRecorder()
	h.HandleStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp responses.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.TotalCommits)
	assert.Equal(t, int64(3), resp.SuccessfulCommits)
	assert.Equal(t, map[string]int{"feat": 3}, resp.CommitTypes)
}

func TestHandleConfig(t *testing.T) {
	h, _ := newTestHandlers(t, &fakeScheduler{})
	h.config.Repository.Branch = "main"
	h.config.Schedule.BaseIntervalSeconds = 300
	h.config.Push.Enabled = true
	h.config.Push.Remote = "origin"
	h.config.Push.RetryAttempts = 3
	h.config.Push.RetryDelaySeconds = 30
	h.config.Push.Token = "sekret-token"

	t.Run("returns the effective configuration", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleConfig(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp responses.ConfigResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "/srv/repo", resp.Repository.Path)
		assert.Equal(t, "main", resp.Repository.Branch)
		assert.Equal(t, 300, resp.Schedule.BaseIntervalSeconds)
		assert.Equal(t, config.DefaultJitterSeconds, resp.Schedule.JitterSeconds)
		assert.Equal(t, "origin", resp.Push.Remote)
		assert.Equal(t, 3, resp.Push.RetryAttempts)
		assert.Equal(t, "fixed", resp.Push.Backoff)
	})

	t.Run("never echoes the push token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleConfig(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

		assert.NotContains(t, rec.Body.String(), "sekret-token")
		var resp responses.ConfigResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Push.TokenSet)
	})

	t.Run("rejects non-GET methods", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleConfig(rec, httptest.NewRequest(http.MethodPost, "/api/config", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleControl(t *testing.T) {
	controlReq := func(action string) *http.Request {
		body := strings.NewReader(`{"action":"` + action + `"}`)
		return httptest.NewRequest(http.MethodPost, "/api/control", body)
	}

	t.Run("dispatches lifecycle actions", func(t *testing.T) {
		for _, action := range []string{"pause", "resume", "start", "stop"} {
			sched := &fakeScheduler{}
			h, _ := newTestHandlers(t, sched)

			rec := httptest.NewRecorder()
			h.HandleControl(rec, controlReq(action))

			require.Equal(t, http.StatusOK, rec.Code, action)
			assert.Equal(t, []string{action}, sched.actions)

			var resp responses.ControlResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "ok", resp.Status)
			assert.Equal(t, action, resp.Action)
		}
	})

	t.Run("trigger returns a job id and the attempt", func(t *testing.T) {
		sched := &fakeScheduler{
			outcome: orchestrator.Outcome{
				Attempt: history.CommitAttempt{Success: true, CommitHash: "abc123", Message: "feat: x"},
			},
		}
		h, _ := newTestHandlers(t, sched)

		rec := httptest.NewRecorder()
		h.HandleControl(rec, controlReq("trigger"))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp responses.ControlResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.JobID)
		require.NotNil(t, resp.Attempt)
		assert.Equal(t, "abc123", resp.Attempt.CommitHash)
	})

	t.Run("trigger on a clean tree reports skipped", func(t *testing.T) {
		sched := &fakeScheduler{outcome: orchestrator.Outcome{Skipped: true}}
		h, _ := newTestHandlers(t, sched)

		rec := httptest.NewRecorder()
		h.HandleControl(rec, controlReq("trigger"))

		var resp responses.ControlResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Skipped)
		assert.Nil(t, resp.Attempt)
	})

	t.Run("unknown action is a client error and touches nothing", func(t *testing.T) {
		sched := &fakeScheduler{}
		h, _ := newTestHandlers(t, sched)

		rec := httptest.NewRecorder()
		h.HandleControl(rec, controlReq("explode"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, sched.actions)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		h, _ := newTestHandlers(t, &fakeScheduler{})
		rec := httptest.NewRecorder()
		h.HandleControl(rec, httptest.NewRequest(http.MethodPost, "/api/control", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects GET", func(t *testing.T) {
		h, _ := newTestHandlers(t, &fakeScheduler{})
		rec := httptest.NewRecorder()
		h.HandleControl(rec, httptest.NewRequest(http.MethodGet, "/api/control", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleHealthCheck(t *testing.T) {
	mon := NewMonitoringHandlers(time.Now().Add(-time.Minute), nil)

	rec := httptest.NewRecorder()
	mon.HandleHealthCheck(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp responses.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Greater(t, resp.Uptime, 0.0)
}
