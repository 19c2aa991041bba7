// Package chapter generates a lesson by outlining it into chapters and writing
// the chapters concurrently.
package chapter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/logging"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/metrics"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/orchestrator"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/parser"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/prompts"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/provider"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/validation"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// Defaults for chapter generation.
const (
	DefaultChapters   = 4
	MaxChapters       = 12
	DefaultWorkers    = 3
	DefaultMaxRetries = 2
	DefaultMinLength  = 600
)

// metricsKind labels chapter outcomes in the task metrics.
const metricsKind = "chapter"

// ProgressFunc is called whenever a chapter reaches a terminal status.
type ProgressFunc func(done, total int, ch models.ChapterContent)

// Option configures a Generator.
type Option func(*options)

type options struct {
	chapters   int
	workers    int
	maxRetries int
	minLength  int
	events     *orchestrator.EventEmitter
	metrics    *metrics.Metrics
	now        func() time.Time
}

// WithChapters sets how many chapters the outline asks for.
func WithChapters(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chapters = min(n, MaxChapters)
		}
	}
}

// WithWorkers sets how many chapters are written at once.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithMaxRetries sets the retries allowed per chapter after the first attempt.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithMinLength sets the character count below which chapter text is penalised.
func WithMinLength(n int) Option {
	return func(o *options) {
		o.minLength = n
	}
}

// WithEvents publishes chapter progress as executor events.
func WithEvents(e *orchestrator.EventEmitter) Option {
	return func(o *options) {
		o.events = e
	}
}

// WithMetrics records chapter outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Result is the outcome of one chapter-based run.
type Result struct {
	// Status is outlining while the outline is requested, in_progress while
	// chapters are written, then completed when at least one chapter completed.
	Status   models.ChapterStatus
	Chapters []models.ChapterContent
	// OutlineFallback is set when the outline came from the built-in template.
	OutlineFallback bool
	// ProvidersUsed counts accepted results per provider, outline included.
	ProvidersUsed map[string]int
	Duration      time.Duration
}

// Completed returns the number of completed chapters.
func (r *Result) Completed() int {
	n := 0
	for _, ch := range r.Chapters {
		if ch.Status == models.ChapterStatusCompleted {
			n++
		}
	}
	return n
}

// AverageQuality returns the mean quality score of completed chapters.
func (r *Result) AverageQuality() float64 {
	total, n := 0, 0
	for _, ch := range r.Chapters {
		if ch.Status == models.ChapterStatusCompleted {
			total += ch.QualityScore
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

// Generator writes lessons chapter by chapter.
type Generator struct {
	gen  orchestrator.Generator
	opts options
}

// New creates a chapter Generator.
func New(gen orchestrator.Generator, opts ...Option) *Generator {
	o := options{
		chapters:   DefaultChapters,
		workers:    DefaultWorkers,
		maxRetries: DefaultMaxRetries,
		minLength:  DefaultMinLength,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Generator{gen: gen, opts: o}
}

// Generate outlines the lesson and writes every chapter.
//
// A failed outline falls back to a template outline. Chapter failures are
// recorded on the chapter and never abort the others. The returned error is
// non-nil only when ctx is cancelled.
func (g *Generator) Generate(ctx context.Context, id string, lc models.LessonContext, depth models.DepthLevel, progress ProgressFunc) (*Result, error) {
	start := g.opts.now()
	res := &Result{Status: models.ChapterStatusOutlining, ProvidersUsed: make(map[string]int)}

	outline, prov, err := g.outline(ctx, lc, depth)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.Status = models.ChapterStatusFailed
			return res, ctxErr
		}
		log.Printf("[chapter] %s: outline failed, using %d-chapter template: %v", id, g.opts.chapters, err)
		outline = FallbackOutline(lc, g.opts.chapters)
		res.OutlineFallback = true
	} else {
		res.ProvidersUsed[prov]++
	}

	res.Chapters = make([]models.ChapterContent, len(outline))
	for i, o := range outline {
		res.Chapters[i] = models.ChapterContent{Outline: o, Status: models.ChapterStatusPending}
	}
	res.Status = models.ChapterStatusInProgress
	log.Printf("[chapter] %s: writing %d chapters (%d workers)", id, len(outline), g.opts.workers)

	var (
		mu   sync.Mutex
		done int
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.workers)
	for i := range res.Chapters {
		eg.Go(func() error {
			if egCtx.Err() != nil {
				return egCtx.Err()
			}
			ch := &res.Chapters[i]
			g.write(egCtx, id, lc, depth, ch, outline)

			mu.Lock()
			defer mu.Unlock()
			if ch.Status == models.ChapterStatusCompleted {
				res.ProvidersUsed[ch.Provider]++
			}
			done++
			if progress != nil {
				progress(done, len(outline), *ch)
			}
			return nil
		})
	}
	err = eg.Wait()
	if err == nil {
		err = ctx.Err()
	}

	res.Duration = g.opts.now().Sub(start)
	res.Status = models.ChapterStatusFailed
	if res.Completed() > 0 {
		res.Status = models.ChapterStatusCompleted
	}
	log.Printf("[chapter] %s: %d/%d chapters completed in %s",
		id, res.Completed(), len(res.Chapters), res.Duration.Round(time.Millisecond))
	g.opts.events.Emit(orchestrator.Event{
		Type:      orchestrator.EventSessionDone,
		SessionID: id,
		Message:   fmt.Sprintf("%d/%d chapters completed", res.Completed(), len(res.Chapters)),
		Completed: res.Completed(),
		Total:     len(res.Chapters),
		Duration:  res.Duration,
	})
	return res, err
}

type outlineDoc struct {
	Chapters []struct {
		Title     string   `json:"title"`
		Summary   string   `json:"summary"`
		KeyPoints []string `json:"key_points"`
	} `json:"chapters"`
}

// outline requests the chapter plan and returns it with the provider that answered.
func (g *Generator) outline(ctx context.Context, lc models.LessonContext, depth models.DepthLevel) ([]models.ChapterOutline, string, error) {
	comp, err := g.gen.Generate(ctx, provider.Request{
		Prompt:      prompts.ChapterOutlinePrompt(lc, depth, g.opts.chapters),
		System:      prompts.SystemPrompt,
		Temperature: 0.4,
		MaxTokens:   2048,
	})
	if err != nil {
		return nil, "", fmt.Errorf("generate outline: %w", err)
	}

	doc, err := parser.ParseInto[outlineDoc](comp.Text)
	if err != nil {
		return nil, "", err
	}

	var out []models.ChapterOutline
	for _, c := range doc.Chapters {
		if len(out) == MaxChapters {
			break
		}
		title := strings.TrimSpace(c.Title)
		if title == "" {
			title = fmt.Sprintf("Chapter %d", len(out)+1)
		}
		out = append(out, models.ChapterOutline{
			Index:     len(out),
			Title:     title,
			Summary:   strings.TrimSpace(c.Summary),
			KeyPoints: c.KeyPoints,
		})
	}
	if len(out) == 0 {
		return nil, "", errors.New("outline has no chapters")
	}
	return out, comp.Provider, nil
}

// write generates one chapter with retries, updating ch in place.
// It only touches ch, so chapters can be written concurrently.
func (g *Generator) write(ctx context.Context, id string, lc models.LessonContext, depth models.DepthLevel, ch *models.ChapterContent, all []models.ChapterOutline) {
	taskID := fmt.Sprintf("chapter_%d", ch.Outline.Index+1)
	req := provider.Request{
		Prompt:      prompts.ChapterPrompt(lc, depth, ch.Outline, all),
		System:      prompts.SystemPrompt,
		Temperature: prompts.DefaultTemperature,
		MaxTokens:   prompts.DefaultMaxTokens,
	}

	start := g.opts.now()
	ch.Status = models.ChapterStatusInProgress
	var lastErr error
	for attempt := 1; attempt <= g.opts.maxRetries+1; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		ch.Attempts = attempt
		g.opts.events.Emit(orchestrator.Event{
			Type:      orchestrator.EventTaskStarted,
			SessionID: id,
			TaskID:    taskID,
			TaskTitle: ch.Outline.Title,
			Attempt:   attempt,
		})

		text, quality, prov, err := g.attempt(ctx, req)
		if err == nil {
			ch.Status = models.ChapterStatusCompleted
			ch.Content, ch.QualityScore, ch.Provider, ch.Error = text, quality, prov, ""
			d := g.opts.now().Sub(start)
			g.opts.metrics.TaskFinished(metricsKind, string(ch.Status), d)
			g.opts.events.Emit(orchestrator.Event{
				Type:      orchestrator.EventTaskCompleted,
				SessionID: id,
				TaskID:    taskID,
				TaskTitle: ch.Outline.Title,
				Provider:  prov,
				Attempt:   attempt,
				Duration:  d,
				Message:   fmt.Sprintf("%s completed (quality %d)", ch.Outline.Title, quality),
			})
			return
		}

		lastErr = err
		ch.Error = err.Error()
		logging.Debugf("[chapter] %s %s attempt %d failed: %v", id, taskID, attempt, err)
		if attempt <= g.opts.maxRetries {
			g.opts.events.Emit(orchestrator.Event{
				Type:      orchestrator.EventTaskRetry,
				SessionID: id,
				TaskID:    taskID,
				TaskTitle: ch.Outline.Title,
				Attempt:   attempt,
				Error:     err,
			})
		}
	}

	ch.Status = models.ChapterStatusFailed
	if lastErr != nil {
		ch.Error = lastErr.Error()
	}
	d := g.opts.now().Sub(start)
	g.opts.metrics.TaskFinished(metricsKind, string(ch.Status), d)
	log.Printf("[chapter] %s %s failed after %d attempts: %v", id, taskID, ch.Attempts, lastErr)
	g.opts.events.Emit(orchestrator.Event{
		Type:      orchestrator.EventTaskFailed,
		SessionID: id,
		TaskID:    taskID,
		TaskTitle: ch.Outline.Title,
		Attempt:   ch.Attempts,
		Error:     lastErr,
		Duration:  d,
	})
}

func (g *Generator) attempt(ctx context.Context, req provider.Request) (text string, quality int, prov string, err error) {
	comp, err := g.gen.Generate(ctx, req)
	if err != nil {
		return "", 0, "", fmt.Errorf("generate: %w", err)
	}
	res := validation.Validate(comp.Text, "", g.opts.minLength)
	if !res.Valid {
		if res.Placeholder != "" {
			return "", 0, "", fmt.Errorf("placeholder %q in chapter", res.Placeholder)
		}
		return "", 0, "", fmt.Errorf("quality %d below %d: %v", res.QualityScore, validation.PassingScore, res.Issues)
	}
	return comp.Text, res.QualityScore, comp.Provider, nil
}

// FallbackOutline returns a template outline of n chapters built from the lesson metadata.
func FallbackOutline(lc models.LessonContext, n int) []models.ChapterOutline {
	if n <= 0 {
		n = DefaultChapters
	}
	topic := strings.TrimSpace(lc.LessonTitle)
	titles := []string{
		"Introduction to " + topic,
		"Core Concepts of " + topic,
		topic + " in Practice",
		"Review and Next Steps",
	}

	out := make([]models.ChapterOutline, n)
	for i := range out {
		title := fmt.Sprintf("%s: Part %d", topic, i+1)
		switch {
		case i < len(titles)-1:
			title = titles[i]
		case i == n-1:
			title = titles[len(titles)-1]
		}
		out[i] = models.ChapterOutline{Index: i, Title: title}
		if i < len(lc.LearningObjectives) {
			out[i].KeyPoints = []string{lc.LearningObjectives[i]}
		}
	}
	return out
}
