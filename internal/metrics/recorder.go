package metrics

import "time"

// OutcomeLabel enumerates attempt result categories for counters.
type OutcomeLabel string

const (
	OutcomeSuccess OutcomeLabel = "success"
	OutcomeFailed  OutcomeLabel = "failed"
	OutcomeSkipped OutcomeLabel = "skipped"
)

// MessageSource labels where a commit message came from.
type MessageSource string

const (
	SourceAI       MessageSource = "ai"
	SourceTemplate MessageSource = "template"
)

// Recorder defines observability hooks for scheduler and attempt metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc.
type Recorder interface {
	ObserveAttemptDuration(d time.Duration)
	IncAttemptOutcome(outcome OutcomeLabel)
	IncMessageSource(source MessageSource)
	IncPushResult(success bool)
	IncPushRetry()
	AddFilesCommitted(n int)
	SetSchedulerPaused(paused bool)
	SetAIAvailable(up bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveAttemptDuration(time.Duration) {}
func (NoopRecorder) IncAttemptOutcome(OutcomeLabel)       {}
func (NoopRecorder) IncMessageSource(MessageSource)       {}
func (NoopRecorder) IncPushResult(bool)                   {}
func (NoopRecorder) IncPushRetry()                        {}
func (NoopRecorder) AddFilesCommitted(int)                {}
func (NoopRecorder) SetSchedulerPaused(bool)              {}
func (NoopRecorder) SetAIAvailable(bool)                  {}
