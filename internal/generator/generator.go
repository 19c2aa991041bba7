// Package generator is the lesson generation service: it turns a lesson request
// into a session, runs it and assembles the result.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/assembler"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/chapter"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/graph"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/metrics"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/orchestrator"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/session"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/state"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

var (
	// ErrSessionNotFound is returned when a session is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionBusy is returned when a session is already running.
	ErrSessionBusy = errors.New("session is already running")
	// ErrNotResumable is returned for sessions that have no tasks to rerun.
	ErrNotResumable = errors.New("session cannot be resumed")
)

// Metadata keys added by the service.
const (
	MetaStrategy      = "strategy"
	MetaProvidersUsed = "providers_used"
)

// StatsSource reports cumulative provider usage. provider.Manager satisfies it.
type StatsSource interface {
	Stats() map[string]models.ProviderUsage
}

// Service generates lessons. It is safe for concurrent use.
type Service struct {
	gen         orchestrator.Generator
	store       *session.Store
	archive     state.Archive
	metrics     *metrics.Metrics
	events      *orchestrator.EventEmitter
	execOpts    []orchestrator.Option
	chapterOpts []chapter.Option
	depth       models.DepthLevel
	strategy    models.Strategy
	parallel    bool
	now         func() time.Time

	mu      sync.Mutex
	running map[string]bool
}

// New creates a Service that generates text with gen.
func New(gen orchestrator.Generator, opts ...Option) *Service {
	s := &Service{
		gen:      gen,
		depth:    models.DepthStandard,
		strategy: models.StrategyTasks,
		parallel: true,
		now:      time.Now,
		running:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = session.NewStore(session.WithClock(s.now))
	}
	return s
}

// Store returns the session store.
func (s *Service) Store() *session.Store {
	return s.store
}

// Archive returns the lesson archive, or nil when archiving is disabled.
func (s *Service) Archive() state.Archive {
	return s.archive
}

// Session returns a snapshot of a session, or nil when it is unknown or expired.
func (s *Service) Session(id string) *models.Session {
	return s.store.Get(id)
}

// GenerateLesson generates one lesson.
//
// The request is validated and completed with the service defaults. When no task
// produces content the result is the template lesson with Report.Fallback set;
// that is not an error. An error is returned for invalid requests and when ctx is
// cancelled, in which case the session stays in the store and can be resumed.
func (s *Service) GenerateLesson(ctx context.Context, req models.LessonRequest, progress orchestrator.ProgressFunc) (*models.LessonResult, error) {
	if req.Depth == "" {
		req.Depth = s.depth
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = s.strategy
	}
	parallel := s.parallel
	if req.Parallel != nil {
		parallel = *req.Parallel
	}

	if strategy == models.StrategyChapters {
		return s.generateChapters(ctx, req.LessonContext, req.Depth, progress)
	}

	tasks, err := graph.Build(req.Depth)
	if err != nil {
		return nil, err
	}
	if _, err := graph.Validate(tasks); err != nil {
		return nil, fmt.Errorf("task graph for %s: %w", req.Depth, err)
	}

	sess := s.store.Create(req.LessonContext, req.Depth, tasks)
	sess.Strategy = models.StrategyTasks
	log.Printf("[generator] session %s: %q (%s, %d tasks)", sess.ID, req.LessonTitle, req.Depth, len(tasks))
	if !s.acquire(sess.ID) {
		return nil, fmt.Errorf("%w: %s", ErrSessionBusy, sess.ID)
	}
	defer s.release(sess.ID)

	return s.runTasks(ctx, sess, parallel, progress)
}

// ResumeSession reruns the failed, skipped and interrupted tasks of a session and
// reassembles the lesson. Completed tasks keep their results.
func (s *Service) ResumeSession(ctx context.Context, id string, progress orchestrator.ProgressFunc) (*models.LessonResult, error) {
	return s.resume(ctx, id, nil, progress)
}

// ResumeSessionWith is ResumeSession with an explicit execution mode.
func (s *Service) ResumeSessionWith(ctx context.Context, id string, parallel bool, progress orchestrator.ProgressFunc) (*models.LessonResult, error) {
	return s.resume(ctx, id, &parallel, progress)
}

func (s *Service) resume(ctx context.Context, id string, parallel *bool, progress orchestrator.ProgressFunc) (*models.LessonResult, error) {
	if !s.acquire(id) {
		return nil, fmt.Errorf("%w: %s", ErrSessionBusy, id)
	}
	defer s.release(id)

	sess := s.store.Get(id)
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if len(sess.Tasks) == 0 {
		return nil, fmt.Errorf("%w: %s has no tasks", ErrNotResumable, id)
	}

	reset := 0
	for _, t := range sess.OrderedTasks() {
		switch t.Status {
		case models.TaskStatusFailed, models.TaskStatusSkipped, models.TaskStatusInProgress:
			t.Reset()
			delete(sess.Timing.TaskDurations, t.ID)
			reset++
		}
	}
	sess.RecomputeProgress()
	s.store.Update(sess)
	log.Printf("[generator] session %s: resuming, %d tasks reset", id, reset)

	p := s.parallel
	if parallel != nil {
		p = *parallel
	}
	return s.runTasks(ctx, sess, p, progress)
}

// runTasks executes sess, then assembles, reports and archives it.
func (s *Service) runTasks(ctx context.Context, sess *models.Session, parallel bool, progress orchestrator.ProgressFunc) (*models.LessonResult, error) {
	s.metrics.SessionStarted()
	defer s.metrics.SessionFinished()

	opts := append([]orchestrator.Option{
		orchestrator.WithSink(s.store),
		orchestrator.WithEvents(s.events),
		orchestrator.WithMetrics(s.metrics),
		orchestrator.WithClock(s.now),
	}, s.execOpts...)

	before := s.providerStats()
	if err := orchestrator.New(s.gen, opts...).Run(ctx, sess, parallel, progress); err != nil {
		s.store.Update(sess)
		return nil, fmt.Errorf("session %s: %w", sess.ID, err)
	}
	s.store.Update(sess)

	lesson := assembler.Assemble(sess)
	fallback := sess.Progress.Completed == 0
	if fallback {
		log.Printf("[generator] session %s: no task completed, using template lesson", sess.ID)
		lesson = assembler.Fallback(sess.Context, sess.Depth)
	}

	report := s.taskReport(sess, before)
	report.Fallback = fallback
	res := s.result(sess, lesson, report)
	s.save(ctx, sess, res)
	return res, nil
}

func (s *Service) generateChapters(ctx context.Context, lc models.LessonContext, depth models.DepthLevel, progress orchestrator.ProgressFunc) (*models.LessonResult, error) {
	sess := s.store.Create(lc, depth, nil)
	sess.Strategy = models.StrategyChapters
	sess.Attempts = 1
	sess.Timing.StartedAt = s.now()
	s.store.Update(sess)
	log.Printf("[generator] session %s: %q (%s, chapters)", sess.ID, lc.LessonTitle, depth)

	if !s.acquire(sess.ID) {
		return nil, fmt.Errorf("%w: %s", ErrSessionBusy, sess.ID)
	}
	defer s.release(sess.ID)
	s.metrics.SessionStarted()
	defer s.metrics.SessionFinished()

	opts := append([]chapter.Option{
		chapter.WithEvents(s.events),
		chapter.WithMetrics(s.metrics),
		chapter.WithClock(s.now),
	}, s.chapterOpts...)

	var chapterProgress chapter.ProgressFunc
	if progress != nil {
		chapterProgress = func(done, total int, ch models.ChapterContent) {
			status := models.TaskStatusCompleted
			msg := fmt.Sprintf("%s completed", ch.Outline.Title)
			if ch.Status != models.ChapterStatusCompleted {
				status = models.TaskStatusFailed
				msg = fmt.Sprintf("%s failed: %s", ch.Outline.Title, ch.Error)
			}
			progress(done, total, status, msg)
		}
	}

	before := s.providerStats()
	res, err := chapter.New(s.gen, opts...).Generate(ctx, sess.ID, lc, depth, chapterProgress)
	finished := s.now()
	sess.Timing.FinishedAt = &finished
	s.store.Update(sess)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sess.ID, err)
	}

	lesson := chapter.Assemble(lc, depth, res)
	fallback := res.Completed() == 0
	if fallback {
		log.Printf("[generator] session %s: no chapter completed, using template lesson", sess.ID)
		lesson = assembler.Fallback(lc, depth)
	}

	report := s.chapterReport(sess, res, before)
	report.Fallback = fallback
	out := s.result(sess, lesson, report)
	s.save(ctx, sess, out)
	return out, nil
}

// result builds the public result and records the lesson metric.
func (s *Service) result(sess *models.Session, lesson assembler.Lesson, report models.GenerationReport) *models.LessonResult {
	if lesson.Metadata == nil {
		lesson.Metadata = make(map[string]any)
	}
	lesson.Metadata[MetaStrategy] = string(report.Strategy)
	if len(report.ProvidersUsed) > 0 {
		lesson.Metadata[MetaProvidersUsed] = report.ProvidersUsed
	}
	s.metrics.LessonGenerated(string(report.Strategy), report.Fallback)

	log.Printf("[generator] session %s: %d/%d completed, quality %.0f, %s",
		sess.ID, report.CompletedTasks, report.TotalTasks, report.AverageQuality, report.Duration.Round(time.Millisecond))
	return &models.LessonResult{
		Title:       lesson.Title,
		Description: lesson.Description,
		ContentData: lesson.ContentText,
		Sections:    lesson.Sections,
		Metadata:    lesson.Metadata,
		Report:      report,
		SessionID:   sess.ID,
		LessonID:    sess.ID,
	}
}

// save archives the lesson. Failures are logged and never reach the caller.
func (s *Service) save(ctx context.Context, sess *models.Session, res *models.LessonResult) {
	if s.archive == nil {
		return
	}
	rec := state.NewLessonRecord(res, sess.Context, s.now())
	if err := s.archive.SaveLesson(ctx, rec); err != nil {
		log.Printf("[generator] archive lesson %s: %v", res.LessonID, err)
		return
	}
	if err := s.archive.SaveTaskResults(ctx, res.LessonID, state.TaskResults(sess)); err != nil {
		log.Printf("[generator] archive task results %s: %v", res.LessonID, err)
	}
}

func (s *Service) providerStats() map[string]models.ProviderUsage {
	if src, ok := s.gen.(StatsSource); ok {
		return src.Stats()
	}
	return nil
}

func (s *Service) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[id] {
		return false
	}
	s.running[id] = true
	return true
}

func (s *Service) release(id string) {
	s.mu.Lock()
	delete(s.running, id)
	s.mu.Unlock()
}
