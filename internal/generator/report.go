package generator

import (
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/chapter"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// taskReport summarises the latest run of a task session.
func (s *Service) taskReport(sess *models.Session, before map[string]models.ProviderUsage) models.GenerationReport {
	p := sess.Progress
	r := models.GenerationReport{
		TotalTasks:     p.Total,
		CompletedTasks: p.Completed,
		FailedTasks:    p.Failed,
		SkippedTasks:   p.Skipped,
		FailedTaskIDs:  sess.TaskIDsWithStatus(models.TaskStatusFailed),
		SkippedTaskIDs: sess.TaskIDsWithStatus(models.TaskStatusSkipped),
		Attempts:       sess.Attempts,
		Strategy:       models.StrategyTasks,
		Depth:          sess.Depth,
		ProviderStats:  s.statsDelta(before),
		GeneratedAt:    s.now(),
	}
	if sess.Timing.FinishedAt != nil {
		r.Duration = sess.Timing.FinishedAt.Sub(sess.Timing.StartedAt)
	}

	quality := 0
	for _, t := range sess.OrderedTasks() {
		if t.Status != models.TaskStatusCompleted {
			continue
		}
		quality += t.QualityScore
		if t.Provider != "" {
			if r.ProvidersUsed == nil {
				r.ProvidersUsed = make(map[string]int)
			}
			r.ProvidersUsed[t.Provider]++
		}
	}
	if p.Completed > 0 {
		r.AverageQuality = float64(quality) / float64(p.Completed)
	}
	if p.Total > 0 {
		r.SuccessRate = float64(p.Completed) / float64(p.Total) * 100
	}
	return r
}

// chapterReport summarises a chapter run. Chapters count as tasks.
func (s *Service) chapterReport(sess *models.Session, res *chapter.Result, before map[string]models.ProviderUsage) models.GenerationReport {
	r := models.GenerationReport{
		TotalTasks:     len(res.Chapters),
		CompletedTasks: res.Completed(),
		AverageQuality: res.AverageQuality(),
		Attempts:       sess.Attempts,
		Duration:       res.Duration,
		Strategy:       models.StrategyChapters,
		Depth:          sess.Depth,
		ProviderStats:  s.statsDelta(before),
		GeneratedAt:    s.now(),
	}
	for _, ch := range res.Chapters {
		if ch.Status == models.ChapterStatusFailed {
			r.FailedTasks++
			r.FailedTaskIDs = append(r.FailedTaskIDs, string(chapter.SectionKey(ch.Outline.Index)))
		}
	}
	if len(res.ProvidersUsed) > 0 {
		r.ProvidersUsed = res.ProvidersUsed
	}
	if r.TotalTasks > 0 {
		r.SuccessRate = float64(r.CompletedTasks) / float64(r.TotalTasks) * 100
	}
	return r
}

// statsDelta returns the provider usage accrued since before.
// Concurrent sessions share the provider, so the delta can include their traffic.
func (s *Service) statsDelta(before map[string]models.ProviderUsage) map[string]models.ProviderUsage {
	after := s.providerStats()
	if after == nil {
		return nil
	}
	out := make(map[string]models.ProviderUsage, len(after))
	for name, a := range after {
		b := before[name]
		d := models.ProviderUsage{
			Requests:     a.Requests - b.Requests,
			Failures:     a.Failures - b.Failures,
			CacheHits:    a.CacheHits - b.CacheHits,
			RateLimit:    a.RateLimit - b.RateLimit,
			InputTokens:  a.InputTokens - b.InputTokens,
			OutputTokens: a.OutputTokens - b.OutputTokens,
		}
		if d != (models.ProviderUsage{}) {
			out[name] = d
		}
	}
	return out
}
