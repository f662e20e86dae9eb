// Package scheduler owns the timing of commit attempts: interval plus jitter,
// pause/resume, and the single-flight guarantee that no two attempts ever
// overlap on one working tree.
package scheduler

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"git.home.luguber.info/inful/autocommit/internal/metrics"
	"git.home.luguber.info/inful/autocommit/internal/orchestrator"
)

// State is the scheduler lifecycle state.
type State int

const (
	StateStopped State = iota
	StateRunning
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// Runner executes one commit attempt. Satisfied by orchestrator.Orchestrator.
type Runner interface {
	RunAttempt(ctx context.Context) orchestrator.Outcome
}

// Status is a point-in-time snapshot of the scheduler.
type Status struct {
	Running   bool       `json:"running"`
	Paused    bool       `json:"paused"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
}

// flight is one in-progress attempt. Joiners wait on done and read outcome
// afterwards.
type flight struct {
	done    chan struct{}
	outcome orchestrator.Outcome
}

// Core drives the attempt timer. One Core manages one repository.
type Core struct {
	runner   Runner
	recorder metrics.Recorder

	mu        sync.Mutex
	state     State
	base      time.Duration
	jitter    time.Duration
	nextRunAt *time.Time
	lastRunAt *time.Time
	inflight  *flight
	cancel    context.CancelFunc

	// intn is the jitter source, injectable for deterministic tests.
	intn func(n int) int
}

// New creates a stopped scheduler with the given base interval and jitter
// range.
func New(runner Runner, base, jitter time.Duration, recorder metrics.Recorder) *Core {
	return &Core{
		runner:   runner,
		recorder: recorder,
		base:     base,
		jitter:   jitter,
		intn:     rand.IntN,
	}
}

// Start arms the timer loop. Starting a running scheduler is a no-op.
func (c *Core) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateStopped {
		return
	}
	c.state = StateRunning

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.loop(ctx)

	slog.Info("Scheduler started",
		slog.Duration("base_interval", c.base),
		slog.Duration("jitter", c.jitter))
}

// Stop cancels the pending timer. An attempt already in flight runs to
// completion. Stopping a stopped scheduler is a no-op.
func (c *Core) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateStopped {
		return
	}
	c.state = StateStopped
	c.nextRunAt = nil
	c.cancel()
	c.cancel = nil

	slog.Info("Scheduler stopped")
}

// Pause suppresses attempts while the timer keeps re-arming on schedule.
// Pausing a scheduler that is not running is a no-op.
func (c *Core) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning {
		return
	}
	c.state = StatePaused
	c.recorder.SetSchedulerPaused(true)
	slog.Info("Scheduler paused")
}

// Resume lifts a pause. Resuming a scheduler that is not paused is a no-op.
func (c *Core) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePaused {
		return
	}
	c.state = StateRunning
	c.recorder.SetSchedulerPaused(false)
	slog.Info("Scheduler resumed")
}

// TriggerNow runs an attempt immediately, regardless of pause state, and
// blocks until it completes. If an attempt is already in flight the caller
// joins it and receives its outcome. The armed timer for the next regular run
// is not touched.
func (c *Core) TriggerNow(ctx context.Context) (orchestrator.Outcome, error) {
	c.mu.Lock()
	if fl := c.inflight; fl != nil {
		c.mu.Unlock()
		select {
		case <-fl.done:
			return fl.outcome, nil
		case <-ctx.Done():
			return orchestrator.Outcome{}, ctx.Err()
		}
	}

	fl := &flight{done: make(chan struct{})}
	c.inflight = fl
	now := time.Now()
	c.lastRunAt = &now
	c.mu.Unlock()

	slog.Info("Attempt triggered manually")
	c.finishFlight(ctx, fl)
	return fl.outcome, nil
}

// finishFlight runs the attempt for fl, publishes its outcome, and clears the
// in-flight marker. The attempt runs detached from ctx's cancellation: once
// its steps begin they run to completion, so a Stop or a disconnected trigger
// client cannot abort persistence after a commit was created.
func (c *Core) finishFlight(ctx context.Context, fl *flight) {
	fl.outcome = c.runner.RunAttempt(context.WithoutCancel(ctx))

	c.mu.Lock()
	c.inflight = nil
	c.mu.Unlock()
	close(fl.done)
}

// Status returns a snapshot of the scheduler state.
func (c *Core) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Running: c.state != StateStopped,
		Paused:  c.state == StatePaused,
	}
	if c.nextRunAt != nil {
		t := *c.nextRunAt
		st.NextRunAt = &t
	}
	if c.lastRunAt != nil {
		t := *c.lastRunAt
		st.LastRunAt = &t
	}
	return st
}

// UpdateSchedule installs new interval parameters. They take effect on the
// next re-arm; an already armed timer is not rescheduled.
func (c *Core) UpdateSchedule(base, jitter time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.base = base
	c.jitter = jitter
	slog.Info("Schedule updated",
		slog.Duration("base_interval", base),
		slog.Duration("jitter", jitter))
}

func (c *Core) loop(ctx context.Context) {
	for {
		interval := c.arm()
		timer := time.NewTimer(interval)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			c.fire(ctx)
		}
	}
}

// arm computes the next interval and publishes nextRunAt. When Stop raced an
// in-flight attempt the loop comes back here already stopped; nextRunAt must
// stay nil then, and the loop exits on ctx.Done.
func (c *Core) arm() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	interval := c.computeInterval()
	if c.state == StateStopped {
		return interval
	}
	next := time.Now().Add(interval)
	c.nextRunAt = &next

	slog.Debug("Timer armed",
		slog.Duration("interval", interval),
		slog.Time("next_run_at", next))
	return interval
}

// computeInterval draws base + a uniform whole-second offset from
// [-jitter, +jitter], both bounds inclusive. Called with c.mu held.
func (c *Core) computeInterval() time.Duration {
	interval := c.base
	if jitterSecs := int(c.jitter / time.Second); jitterSecs > 0 {
		offset := c.intn(2*jitterSecs+1) - jitterSecs
		interval += time.Duration(offset) * time.Second
	}
	if interval <= 0 {
		interval = time.Second
	}
	return interval
}

// fire handles one timer expiry. Paused schedulers and in-flight attempts
// both turn the expiry into a plain re-arm.
func (c *Core) fire(ctx context.Context) {
	c.mu.Lock()
	if c.state == StatePaused {
		c.mu.Unlock()
		slog.Debug("Timer fired while paused, skipping attempt")
		return
	}
	if c.inflight != nil {
		c.mu.Unlock()
		slog.Debug("Timer fired while an attempt is in flight, skipping cycle")
		return
	}

	fl := &flight{done: make(chan struct{})}
	c.inflight = fl
	now := time.Now()
	c.lastRunAt = &now
	c.mu.Unlock()

	c.finishFlight(ctx, fl)

	if !fl.outcome.Skipped && !fl.outcome.Attempt.Success {
		slog.Warn("Scheduled attempt failed",
			slog.String("error", fl.outcome.Attempt.ErrorMessage))
	}
}
