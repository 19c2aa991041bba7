package orchestrator

import (
	"time"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/metrics"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// Defaults for the executor.
const (
	DefaultWorkers    = 3
	DefaultMaxRetries = 2
)

// Sink receives a session after every task transition.
// session.Store satisfies it.
type Sink interface {
	Update(sess *models.Session)
}

// Option configures an Executor. Use With* functions to create Options.
type Option func(*executorOptions)

type executorOptions struct {
	workers     int
	maxRetries  int
	temperature float64
	maxTokens   int
	sink        Sink
	events      *EventEmitter
	metrics     *metrics.Metrics
	now         func() time.Time
}

// WithWorkers sets the worker pool size for parallel runs.
func WithWorkers(n int) Option {
	return func(o *executorOptions) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithMaxRetries sets how many times a failed task is retried.
func WithMaxRetries(n int) Option {
	return func(o *executorOptions) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithTemperature overrides the sampling temperature of markdown tasks.
func WithTemperature(t float64) Option {
	return func(o *executorOptions) { o.temperature = t }
}

// WithMaxTokens caps the output tokens requested for any task.
func WithMaxTokens(n int) Option {
	return func(o *executorOptions) { o.maxTokens = n }
}

// WithSink sets where session snapshots are written after each transition.
func WithSink(s Sink) Option {
	return func(o *executorOptions) { o.sink = s }
}

// WithEvents sets the emitter that receives task events.
func WithEvents(e *EventEmitter) Option {
	return func(o *executorOptions) { o.events = e }
}

// WithMetrics records task outcomes in Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *executorOptions) { o.metrics = m }
}

// WithClock replaces time.Now (mainly for testing).
func WithClock(now func() time.Time) Option {
	return func(o *executorOptions) {
		if now != nil {
			o.now = now
		}
	}
}
