package generator

import (
	"time"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/chapter"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/metrics"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/orchestrator"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/session"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/state"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// Option configures a Service.
type Option func(*Service)

// WithStore sets the session store. A default store is created otherwise.
func WithStore(st *session.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithArchive persists every generated lesson. Archive errors are logged only.
func WithArchive(a state.Archive) Option {
	return func(s *Service) {
		s.archive = a
	}
}

// WithMetrics records session and lesson counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithEvents publishes task and chapter progress.
func WithEvents(e *orchestrator.EventEmitter) Option {
	return func(s *Service) {
		s.events = e
	}
}

// WithExecutorOptions passes options through to every task executor.
func WithExecutorOptions(opts ...orchestrator.Option) Option {
	return func(s *Service) {
		s.execOpts = append(s.execOpts, opts...)
	}
}

// WithChapterOptions passes options through to the chapter generator.
func WithChapterOptions(opts ...chapter.Option) Option {
	return func(s *Service) {
		s.chapterOpts = append(s.chapterOpts, opts...)
	}
}

// WithDefaultDepth sets the depth used when a request has none.
func WithDefaultDepth(d models.DepthLevel) Option {
	return func(s *Service) {
		if d.Valid() {
			s.depth = d
		}
	}
}

// WithDefaultStrategy sets the strategy used when a request has none.
func WithDefaultStrategy(st models.Strategy) Option {
	return func(s *Service) {
		if st.Valid() {
			s.strategy = st
		}
	}
}

// WithParallel sets the execution mode used when a request does not choose one.
func WithParallel(parallel bool) Option {
	return func(s *Service) {
		s.parallel = parallel
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
