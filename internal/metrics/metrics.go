// Package metrics exposes Prometheus collectors for lesson generation.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lessonforge"

// Metrics groups the collectors. All methods are safe on a nil receiver.
type Metrics struct {
	providerRequests *prometheus.CounterVec
	providerTokens   *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	taskOutcomes     *prometheus.CounterVec
	taskDuration     *prometheus.HistogramVec
	lessons          *prometheus.CounterVec
	activeSessions   prometheus.Gauge
}

// MustNewMetrics constructs Metrics on reg, reusing collectors that are already
// registered. Any other registration error panics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	return &Metrics{
		providerRequests: mustRegister(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Provider calls by backend and outcome.",
		}, []string{"provider", "outcome"})),
		providerTokens: mustRegister(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "tokens_total",
			Help:      "Tokens reported by providers.",
		}, []string{"provider", "direction"})),
		cacheLookups: mustRegister(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"})),
		taskOutcomes: mustRegister(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "tasks_total",
			Help:      "Finished tasks by kind and terminal status.",
		}, []string{"kind", "status"})),
		taskDuration: mustRegister(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "task_duration_seconds",
			Help:      "Wall time spent generating a task, retries included.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"kind"})),
		lessons: mustRegister(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "lessons_total",
			Help:      "Generated lessons by strategy and whether the template fallback was used.",
		}, []string{"strategy", "fallback"})),
		activeSessions: mustRegister(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "active_sessions",
			Help:      "Sessions currently being executed.",
		})),
	}
}

func mustRegister[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ProviderRequest counts one provider call. Outcome is "ok", "error", "rate_limited" or "cached".
func (m *Metrics) ProviderRequest(provider, outcome string) {
	if m == nil {
		return
	}
	m.providerRequests.WithLabelValues(provider, outcome).Inc()
}

// ProviderTokens adds reported token usage.
func (m *Metrics) ProviderTokens(provider string, input, output int64) {
	if m == nil {
		return
	}
	if input > 0 {
		m.providerTokens.WithLabelValues(provider, "input").Add(float64(input))
	}
	if output > 0 {
		m.providerTokens.WithLabelValues(provider, "output").Add(float64(output))
	}
}

// CacheLookup counts a response cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// TaskFinished records a task reaching a terminal status.
func (m *Metrics) TaskFinished(kind, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.taskOutcomes.WithLabelValues(kind, status).Inc()
	if d > 0 {
		m.taskDuration.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// LessonGenerated counts a finished lesson.
func (m *Metrics) LessonGenerated(strategy string, fallback bool) {
	if m == nil {
		return
	}
	fb := "false"
	if fallback {
		fb = "true"
	}
	m.lessons.WithLabelValues(strategy, fb).Inc()
}

// SessionStarted increments the active session gauge.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

// SessionFinished decrements the active session gauge.
func (m *Metrics) SessionFinished() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}
