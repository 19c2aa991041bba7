package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/graph"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/logging"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/parser"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/prompts"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/provider"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/validation"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// Generator produces text for a prompt. provider.Manager satisfies it.
type Generator interface {
	Generate(ctx context.Context, req provider.Request) (provider.Completion, error)
}

// ProgressFunc is called after every task completion, failure or skip.
type ProgressFunc func(completed, total int, status models.TaskStatus, message string)

// Executor runs session tasks against a Generator.
type Executor struct {
	gen  Generator
	opts executorOptions
}

// New creates an Executor.
func New(gen Generator, opts ...Option) *Executor {
	o := executorOptions{
		workers:    DefaultWorkers,
		maxRetries: DefaultMaxRetries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Executor{gen: gen, opts: o}
}

// job is everything a worker needs; it never reads the session.
type job struct {
	taskID  string
	kind    models.TaskKind
	attempt int
	spec    prompts.Spec
	req     provider.Request
}

// outcome is what a worker posts back to the coordinator.
type outcome struct {
	taskID   string
	result   string
	quality  int
	provider string
	duration time.Duration
	err      error
}

// run holds coordinator state for one Run call.
type run struct {
	e        *Executor
	sess     *models.Session
	graph    *graph.DependencyGraph
	progress ProgressFunc
}

// Run executes every pending task of sess, mutating it in place.
//
// In sequential mode tasks run one at a time in insertion order. A task runs once
// every dependency is completed or skipped and is skipped when one failed.
//
// In parallel mode up to the configured number of workers generate at once; the
// only ordering guarantee is that a task starts after all its dependencies have
// completed. Context cancellation stops new work from being dispatched; in-flight
// attempts finish and the tasks they belonged to stay pending. Run returns the
// context error in that case and nil otherwise, even when tasks failed.
func (e *Executor) Run(ctx context.Context, sess *models.Session, parallel bool, progress ProgressFunc) error {
	if sess == nil {
		return errors.New("run: nil session")
	}
	tasks := sess.OrderedTasks()
	for _, t := range tasks {
		// A crash mid-attempt leaves in_progress behind; those never finished.
		if t.Status == models.TaskStatusInProgress {
			t.Status = models.TaskStatusPending
		}
	}

	g := graph.New()
	if err := g.Build(tasks); err != nil {
		return fmt.Errorf("run session %s: %w", sess.ID, err)
	}

	r := &run{e: e, sess: sess, graph: g, progress: progress}
	start := e.opts.now()
	sess.Attempts++
	sess.Timing.StartedAt = start
	sess.Timing.FinishedAt = nil
	if sess.Timing.TaskDurations == nil {
		sess.Timing.TaskDurations = make(map[string]time.Duration)
	}
	r.save()

	mode := "sequential"
	if parallel {
		mode = fmt.Sprintf("parallel, %d workers", e.opts.workers)
	}
	log.Printf("[orchestrator] session %s: running %d tasks (%s)", sess.ID, len(tasks), mode)

	if parallel {
		r.parallel(ctx)
	} else {
		r.sequential(ctx)
	}

	finished := e.opts.now()
	sess.Timing.FinishedAt = &finished
	r.save()

	p := sess.Progress
	log.Printf("[orchestrator] session %s: %d completed, %d failed, %d skipped of %d in %s",
		sess.ID, p.Completed, p.Failed, p.Skipped, p.Total, finished.Sub(start).Round(time.Millisecond))
	e.opts.events.Emit(Event{
		Type:      EventSessionDone,
		SessionID: sess.ID,
		Message:   fmt.Sprintf("%d/%d tasks completed", p.Completed, p.Total),
		Completed: p.Completed,
		Total:     p.Total,
		Duration:  finished.Sub(start),
	})
	return ctx.Err()
}

func (r *run) sequential(ctx context.Context) {
	for ctx.Err() == nil {
		r.skipBlocked(false)
		ready := r.graph.GetSettled()
		if len(ready) == 0 {
			return
		}
		j := r.dispatch(ready[0])
		r.apply(ctx, r.e.execute(ctx, j))
	}
	logging.Debugf("[orchestrator] session %s: stopped dispatching: %v", r.sess.ID, ctx.Err())
}

func (r *run) parallel(ctx context.Context) {
	workers := r.e.opts.workers
	jobs := make(chan job, workers)
	results := make(chan outcome, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- r.e.execute(ctx, j)
			}
		}()
	}
	defer func() {
		close(jobs)
		wg.Wait()
	}()

	inflight := make(map[string]bool, workers)
	for {
		if ctx.Err() == nil {
			r.skipBlocked(true)
			for _, id := range r.graph.GetReady() {
				if len(inflight) >= workers {
					break
				}
				if inflight[id] {
					continue
				}
				inflight[id] = true
				jobs <- r.dispatch(id)
			}
		}
		if len(inflight) == 0 {
			return
		}

		out := <-results
		delete(inflight, out.taskID)
		r.apply(ctx, out)
	}
}

// dispatch marks a task in progress and builds its job.
func (r *run) dispatch(id string) job {
	t := r.sess.Task(id)
	now := r.e.opts.now()
	t.Status = models.TaskStatusInProgress
	t.StartedAt = &now
	t.Error = ""
	r.touch()

	spec, ok := prompts.For(t.Kind)
	j := job{taskID: id, kind: t.Kind, attempt: t.RetryCount + 1, spec: spec}
	if ok {
		in := prompts.Input{Context: r.sess.Context, Depth: r.sess.Depth, Deps: r.depResults(t)}
		j.req = provider.Request{
			Prompt:      spec.Build(in),
			System:      prompts.SystemPrompt,
			Temperature: spec.Temperature,
			MaxTokens:   spec.MaxTokens,
		}
		if r.e.opts.temperature > 0 && !spec.ExpectsJSON {
			j.req.Temperature = r.e.opts.temperature
		}
		if r.e.opts.maxTokens > 0 && (j.req.MaxTokens == 0 || j.req.MaxTokens > r.e.opts.maxTokens) {
			j.req.MaxTokens = r.e.opts.maxTokens
		}
	}

	logging.Debugf("[orchestrator] dispatch %s attempt %d", id, j.attempt)
	r.e.opts.events.Emit(Event{
		Type:      EventTaskStarted,
		SessionID: r.sess.ID,
		TaskID:    id,
		TaskTitle: t.Title,
		Attempt:   j.attempt,
		Completed: r.sess.Progress.Completed,
		Total:     r.sess.Progress.Total,
	})
	return j
}

func (r *run) depResults(t *models.Task) map[models.TaskKind]string {
	deps := make(map[models.TaskKind]string, len(t.DependsOn))
	for _, id := range t.DependsOn {
		if d := r.sess.Task(id); d != nil && d.Status == models.TaskStatusCompleted {
			deps[d.Kind] = d.Result
		}
	}
	return deps
}

// apply records an attempt outcome. Only the coordinator calls it.
func (r *run) apply(ctx context.Context, out outcome) {
	t := r.sess.Task(out.taskID)
	now := r.e.opts.now()
	base := Event{SessionID: r.sess.ID, TaskID: t.ID, TaskTitle: t.Title, Attempt: t.RetryCount + 1, Duration: out.duration}

	switch {
	case out.err == nil:
		t.Status = models.TaskStatusCompleted
		t.Result = out.result
		t.QualityScore = out.quality
		t.Provider = out.provider
		t.CompletedAt = &now
		r.finish(t, now)
		base.Type, base.Provider = EventTaskCompleted, out.provider
		base.Message = fmt.Sprintf("%s completed (quality %d)", t.Title, out.quality)
		r.report(t, base)

	case ctx.Err() != nil:
		// Cancelled mid-attempt: leave it for a resume rather than burning a retry.
		t.Status = models.TaskStatusPending
		t.StartedAt = nil
		r.touch()

	case t.RetryCount < r.e.opts.maxRetries:
		t.RetryCount++
		t.Status = models.TaskStatusPending
		t.Error = out.err.Error()
		r.touch()
		log.Printf("[orchestrator] task %s attempt %d failed, retrying: %v", t.ID, base.Attempt, out.err)
		base.Type, base.Error = EventTaskRetry, out.err
		base.Message = fmt.Sprintf("%s failed, retry %d/%d", t.Title, t.RetryCount, r.e.opts.maxRetries)
		base.Completed, base.Total = r.sess.Progress.Completed, r.sess.Progress.Total
		r.e.opts.events.Emit(base)

	default:
		t.Status = models.TaskStatusFailed
		t.Error = out.err.Error()
		t.CompletedAt = &now
		r.finish(t, now)
		log.Printf("[orchestrator] task %s failed after %d attempts: %v", t.ID, base.Attempt, out.err)
		base.Type, base.Error = EventTaskFailed, out.err
		base.Message = fmt.Sprintf("%s failed: %v", t.Title, out.err)
		r.report(t, base)
	}
}

// skipBlocked skips pending tasks with a failed dependency until none remain. With
// strict set a skipped dependency blocks too, so skips propagate through the whole
// dependent subtree.
func (r *run) skipBlocked(strict bool) {
	for {
		blocked := r.graph.GetFailedBlocked()
		if strict {
			blocked = r.graph.GetBlocked()
		}
		if len(blocked) == 0 {
			return
		}
		for _, id := range blocked {
			t := r.sess.Task(id)
			dep := r.graph.FailedDependency(id)
			if strict {
				dep = r.graph.BlockingDependency(id)
			}
			now := r.e.opts.now()
			t.Status = models.TaskStatusSkipped
			t.Error = fmt.Sprintf("dependency %s did not complete", dep)
			t.CompletedAt = &now
			r.sess.RecomputeProgress()
			r.save()
			logging.Debugf("[orchestrator] skip %s: %s", id, t.Error)
			r.e.opts.metrics.TaskFinished(string(t.Kind), string(t.Status), 0)
			r.report(t, Event{
				Type:      EventTaskSkipped,
				SessionID: r.sess.ID,
				TaskID:    id,
				TaskTitle: t.Title,
				Message:   fmt.Sprintf("%s skipped: %s", t.Title, t.Error),
			})
		}
	}
}

// finish records the duration of a terminal task and persists the session.
func (r *run) finish(t *models.Task, now time.Time) {
	var d time.Duration
	if t.StartedAt != nil {
		d = now.Sub(*t.StartedAt)
	}
	r.sess.Timing.TaskDurations[t.ID] = d
	r.e.opts.metrics.TaskFinished(string(t.Kind), string(t.Status), d)
	r.touch()
}

// report emits ev and calls the progress callback with the current counters.
func (r *run) report(t *models.Task, ev Event) {
	p := r.sess.Progress
	ev.Completed, ev.Total = p.Completed, p.Total
	r.e.opts.events.Emit(ev)
	if r.progress != nil {
		r.progress(p.Completed, p.Total, t.Status, ev.Message)
	}
}

func (r *run) touch() {
	r.sess.RecomputeProgress()
	r.save()
}

func (r *run) save() {
	r.sess.UpdatedAt = r.e.opts.now()
	if r.e.opts.sink != nil {
		r.e.opts.sink.Update(r.sess)
	}
}

// execute runs one attempt: prompt, generate, then parse or validate.
// It is safe to call from worker goroutines.
func (e *Executor) execute(ctx context.Context, j job) (out outcome) {
	start := e.opts.now()
	out.taskID = j.taskID
	defer func() { out.duration = e.opts.now().Sub(start) }()

	if j.spec.Build == nil {
		out.err = fmt.Errorf("no prompt for task kind %q", j.kind)
		return out
	}

	comp, err := e.gen.Generate(ctx, j.req)
	if err != nil {
		out.err = fmt.Errorf("generate: %w", err)
		return out
	}
	out.provider = comp.Provider

	if j.spec.ExpectsJSON {
		doc, err := parser.Parse(comp.Text)
		if err != nil {
			out.err = fmt.Errorf("parse %s: %w", j.kind, err)
			return out
		}
		norm, err := parser.Normalize(doc)
		if err != nil {
			out.err = err
			return out
		}
		out.result, out.quality = norm, 100
		return out
	}

	res := validation.Validate(comp.Text, j.kind, j.spec.MinLength)
	if !res.Valid {
		out.err = &ValidationError{Kind: j.kind, Result: res}
		return out
	}
	out.result, out.quality = comp.Text, res.QualityScore
	return out
}

// ValidationError reports generated text that failed validation.
type ValidationError struct {
	Kind   models.TaskKind
	Result validation.Result
}

func (e *ValidationError) Error() string {
	if e.Result.Placeholder != "" {
		return fmt.Sprintf("%s: placeholder %q in content", e.Kind, e.Result.Placeholder)
	}
	return fmt.Sprintf("%s: quality %d below %d: %v", e.Kind, e.Result.QualityScore, validation.PassingScore, e.Result.Issues)
}
