package models

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task is being generated.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted indicates the task produced accepted content.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task exhausted its retries.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusSkipped indicates the task never ran because a dependency did not complete.
	TaskStatusSkipped TaskStatus = "skipped"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusFailed, TaskStatusSkipped:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if no further transitions happen without a resume.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusSkipped
}

// Task represents one unit of LLM-backed content generation.
type Task struct {
	// ID is the unique identifier for this task within its session.
	ID string `json:"id"`
	// Kind selects the prompt template and section bucket.
	Kind TaskKind `json:"kind"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// Description provides detailed information about the task.
	Description string `json:"description,omitempty"`
	// DependsOn lists task IDs that must complete before this task.
	DependsOn []string `json:"depends_on,omitempty"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// Result holds generated text, or normalized JSON for structured kinds.
	Result string `json:"result,omitempty"`
	// Error contains the last error message if an attempt failed.
	Error string `json:"error,omitempty"`
	// RetryCount is the number of times this task has been retried.
	RetryCount int `json:"retry_count"`
	// QualityScore is the validator score of the accepted result (0-100).
	QualityScore int `json:"quality_score,omitempty"`
	// Provider is the backend that produced the accepted result.
	Provider string `json:"provider,omitempty"`
	// StartedAt is when the latest attempt started.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the task reached a terminal status.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.DependsOn != nil {
		c.DependsOn = append([]string(nil), t.DependsOn...)
	}
	if t.StartedAt != nil {
		ts := *t.StartedAt
		c.StartedAt = &ts
	}
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		c.CompletedAt = &ts
	}
	return &c
}

// Reset returns the task to pending and clears attempt state.
func (t *Task) Reset() {
	t.Status = TaskStatusPending
	t.Result = ""
	t.Error = ""
	t.RetryCount = 0
	t.QualityScore = 0
	t.Provider = ""
	t.StartedAt = nil
	t.CompletedAt = nil
}
