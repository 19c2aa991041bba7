package models

import "time"

// Strategy names how a lesson is generated.
type Strategy string

const (
	// StrategyTasks runs the fixed task dependency graph.
	StrategyTasks Strategy = "tasks"
	// StrategyChapters outlines chapters first and writes them concurrently.
	StrategyChapters Strategy = "chapters"
)

// Valid returns true if the strategy is a known value.
func (s Strategy) Valid() bool {
	return s == StrategyTasks || s == StrategyChapters
}

// LessonSection is one titled bucket of assembled content.
type LessonSection struct {
	Key     Section `json:"key"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
}

// ProviderUsage counts what one provider contributed to a run.
type ProviderUsage struct {
	Requests     int   `json:"requests"`
	Failures     int   `json:"failures"`
	CacheHits    int   `json:"cache_hits"`
	RateLimit    int   `json:"rate_limited"`
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// GenerationReport summarises how a generation went.
type GenerationReport struct {
	TotalTasks     int                      `json:"total_tasks"`
	CompletedTasks int                      `json:"completed_tasks"`
	FailedTasks    int                      `json:"failed_tasks"`
	SkippedTasks   int                      `json:"skipped_tasks"`
	FailedTaskIDs  []string                 `json:"failed_task_ids,omitempty"`
	SkippedTaskIDs []string                 `json:"skipped_task_ids,omitempty"`
	SuccessRate    float64                  `json:"success_rate"`
	AverageQuality float64                  `json:"average_quality"`
	Attempts       int                      `json:"attempts"`
	Duration       time.Duration            `json:"duration"`
	Strategy       Strategy                 `json:"strategy"`
	Depth          DepthLevel               `json:"depth"`
	Fallback       bool                     `json:"fallback"`
	ProvidersUsed  map[string]int           `json:"providers_used,omitempty"`
	ProviderStats  map[string]ProviderUsage `json:"provider_stats,omitempty"`
	GeneratedAt    time.Time                `json:"generated_at"`
}

// LessonResult is what lesson generation returns to callers.
type LessonResult struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	ContentData string           `json:"content_data"`
	Sections    []LessonSection  `json:"sections"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
	Report      GenerationReport `json:"generation_report"`
	SessionID   string           `json:"session_id"`
	LessonID    string           `json:"lesson_id"`
}
