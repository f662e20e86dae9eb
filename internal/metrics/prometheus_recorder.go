package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	attemptDuration prom.Histogram
	attemptOutcomes *prom.CounterVec
	messageSources  *prom.CounterVec
	pushResults     *prom.CounterVec
	pushRetries     prom.Counter
	filesCommitted  prom.Counter
	schedulerPaused prom.Gauge
	aiAvailable     prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on the given registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		attemptDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "autocommit",
			Name:      "attempt_duration_seconds",
			Help:      "Duration of full commit attempts",
			Buckets:   prom.DefBuckets,
		}),
		attemptOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "autocommit",
			Name:      "attempts_total",
			Help:      "Commit attempts by outcome",
		}, []string{"outcome"}),
		messageSources: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "autocommit",
			Name:      "messages_total",
			Help:      "Commit messages by source",
		}, []string{"source"}),
		pushResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "autocommit",
			Name:      "push_results_total",
			Help:      "Push outcomes after retry exhaustion",
		}, []string{"result"}),
		pushRetries: prom.NewCounter(prom.CounterOpts{
			Namespace: "autocommit",
			Name:      "push_retries_total",
			Help:      "Individual push retry attempts",
		}),
		filesCommitted: prom.NewCounter(prom.CounterOpts{
			Namespace: "autocommit",
			Name:      "files_committed_total",
			Help:      "Files included in successful commits",
		}),
		schedulerPaused: prom.NewGauge(prom.GaugeOpts{
			Namespace: "autocommit",
			Name:      "scheduler_paused",
			Help:      "1 when the scheduler is paused",
		}),
		aiAvailable: prom.NewGauge(prom.GaugeOpts{
			Namespace: "autocommit",
			Name:      "ai_backend_up",
			Help:      "1 when the AI message backend answered the last health probe",
		}),
	}
	reg.MustRegister(
		pr.attemptDuration,
		pr.attemptOutcomes,
		pr.messageSources,
		pr.pushResults,
		pr.pushRetries,
		pr.filesCommitted,
		pr.schedulerPaused,
		pr.aiAvailable,
	)
	return pr
}

func (p *PrometheusRecorder) ObserveAttemptDuration(d time.Duration) {
	p.attemptDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncAttemptOutcome(outcome OutcomeLabel) {
	p.attemptOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncMessageSource(source MessageSource) {
	p.messageSources.WithLabelValues(string(source)).Inc()
}

func (p *PrometheusRecorder) IncPushResult(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	p.pushResults.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) IncPushRetry() {
	p.pushRetries.Inc()
}

func (p *PrometheusRecorder) AddFilesCommitted(n int) {
	if n > 0 {
		p.filesCommitted.Add(float64(n))
	}
}

func (p *PrometheusRecorder) SetSchedulerPaused(paused bool) {
	if paused {
		p.schedulerPaused.Set(1)
		return
	}
	p.schedulerPaused.Set(0)
}

func (p *PrometheusRecorder) SetAIAvailable(up bool) {
	if up {
		p.aiAvailable.Set(1)
		return
	}
	p.aiAvailable.Set(0)
}

// HTTPHandler returns an http.Handler serving Prometheus metrics for the registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
