// Package orchestrator runs one commit attempt end to end: change detection,
// staging, message generation, commit, optional push, and persistence.
package orchestrator

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/autocommit/internal/config"
	"git.home.luguber.info/inful/autocommit/internal/events"
	"git.home.luguber.info/inful/autocommit/internal/history"
	"git.home.luguber.info/inful/autocommit/internal/logfields"
	"git.home.luguber.info/inful/autocommit/internal/message"
	"git.home.luguber.info/inful/autocommit/internal/metrics"
	"git.home.luguber.info/inful/autocommit/internal/retry"
)

// Gateway is the slice of git operations an attempt needs.
type Gateway interface {
	HasChanges() (bool, error)
	StageAll() error
	ChangedFiles() ([]string, error)
	StagedDiff(ctx context.Context) (string, error)
	Commit(msg string) (string, error)
	Push(ctx context.Context, policy retry.Policy) bool
}

// Outcome reports what one attempt did. Skipped means the working tree was
// clean and nothing was recorded; otherwise Attempt holds the persisted record.
type Outcome struct {
	Skipped bool
	Attempt history.CommitAttempt
}

// Orchestrator executes commit attempts. It never returns an error to its
// caller: failures are contained in the recorded attempt.
type Orchestrator struct {
	gateway   Gateway
	provider  message.Provider
	store     history.Store
	publisher events.Publisher
	recorder  metrics.Recorder

	theme       string
	pushPolicy  retry.Policy
	pushEnabled atomic.Bool
}

// New wires an orchestrator from its collaborators and the push/theme
// configuration snapshot.
func New(cfg *config.Config, gw Gateway, provider message.Provider, store history.Store,
	publisher events.Publisher, recorder metrics.Recorder) *Orchestrator {
	o := &Orchestrator{
		gateway:    gw,
		provider:   provider,
		store:      store,
		publisher:  publisher,
		recorder:   recorder,
		theme:      cfg.Ollama.Theme,
		pushPolicy: retry.FromPushConfig(cfg.Push),
	}
	o.pushEnabled.Store(cfg.Push.Enabled)
	return o
}

// SetPushEnabled toggles pushing for subsequent attempts. Live config updates
// use this; an attempt already in flight keeps the value it started with.
func (o *Orchestrator) SetPushEnabled(enabled bool) {
	o.pushEnabled.Store(enabled)
}

// RunAttempt executes one full attempt. It always returns a resolved Outcome;
// any failure between staging and push is captured in the recorded attempt
// rather than propagated.
func (o *Orchestrator) RunAttempt(ctx context.Context) Outcome {
	start := time.Now()
	defer func() {
		o.recorder.ObserveAttemptDuration(time.Since(start))
	}()

	hasChanges, err := o.gateway.HasChanges()
	if err != nil {
		return o.recordFailure(ctx, "check for changes: "+err.Error())
	}
	if !hasChanges {
		slog.Debug("No changes to commit, skipping attempt")
		o.recorder.IncAttemptOutcome(metrics.OutcomeSkipped)
		return Outcome{Skipped: true}
	}

	if err := o.gateway.StageAll(); err != nil {
		return o.recordFailure(ctx, "stage changes: "+err.Error())
	}

	files, err := o.gateway.ChangedFiles()
	if err != nil {
		return o.recordFailure(ctx, "list changed files: "+err.Error())
	}

	diff, err := o.gateway.StagedDiff(ctx)
	if err != nil {
		return o.recordFailure(ctx, "read staged diff: "+err.Error())
	}

	msg := o.provider.Generate(ctx, diff, files, o.theme)
	source := metrics.SourceTemplate
	if msg.UsedAI {
		source = metrics.SourceAI
	}
	o.recorder.IncMessageSource(source)

	hash, err := o.gateway.Commit(msg.Message)
	if err != nil {
		return o.recordFailure(ctx, "create commit: "+err.Error())
	}

	attempt := history.CommitAttempt{
		Timestamp:    time.Now(),
		Success:      true,
		CommitHash:   hash,
		Message:      msg.Message,
		FilesChanged: len(files),
		UsedAI:       msg.UsedAI,
		Theme:        o.theme,
	}

	if o.pushEnabled.Load() {
		pushed := o.gateway.Push(ctx, o.pushPolicy)
		attempt.PushSuccess = &pushed
		o.recorder.IncPushResult(pushed)
	}

	o.recorder.IncAttemptOutcome(metrics.OutcomeSuccess)
	o.recorder.AddFilesCommitted(len(files))

	o.persist(ctx, &attempt)

	slog.Info("Commit attempt succeeded",
		logfields.Hash(shortHash(hash)),
		logfields.Files(len(files)),
		slog.Bool("used_ai", attempt.UsedAI),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))

	return Outcome{Attempt: attempt}
}

// recordFailure persists a failed attempt. The failure never propagates: the
// scheduler keeps running and retries on its next regular cycle.
func (o *Orchestrator) recordFailure(ctx context.Context, reason string) Outcome {
	attempt := history.CommitAttempt{
		Timestamp:    time.Now(),
		Success:      false,
		CommitHash:   "ERROR",
		Theme:        o.theme,
		ErrorMessage: reason,
	}

	o.recorder.IncAttemptOutcome(metrics.OutcomeFailed)
	o.persist(ctx, &attempt)

	slog.Error("Commit attempt failed", slog.String("reason", reason))
	return Outcome{Attempt: attempt}
}

func (o *Orchestrator) persist(ctx context.Context, attempt *history.CommitAttempt) {
	id, err := o.store.Append(ctx, *attempt)
	if err != nil {
		slog.Error("Failed to persist commit attempt", logfields.Error(err))
		return
	}
	attempt.ID = id
	o.publisher.PublishAttempt(*attempt)
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
