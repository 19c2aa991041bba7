package orchestrator

import (
	"time"
)

// EventType represents the type of executor event.
type EventType string

const (
	// EventTaskStarted indicates a task attempt has started.
	EventTaskStarted EventType = "task_started"
	// EventTaskCompleted indicates a task produced accepted content.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskRetry indicates an attempt failed and the task will run again.
	EventTaskRetry EventType = "task_retry"
	// EventTaskFailed indicates a task exhausted its retries.
	EventTaskFailed EventType = "task_failed"
	// EventTaskSkipped indicates a task was skipped because a dependency did not complete.
	EventTaskSkipped EventType = "task_skipped"
	// EventSessionDone indicates the run has finished.
	EventSessionDone EventType = "session_done"
)

// Event is emitted by the executor as tasks change state.
// Events drive the TUI and server-side progress reporting.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// SessionID is the session being run.
	SessionID string
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// TaskTitle is the title of the related task, if applicable.
	TaskTitle string
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Attempt is the 1-based attempt number for task events.
	Attempt int
	// Completed and Total are the session counters after the event.
	Completed int
	Total     int
	// Provider is the backend that served a completed task.
	Provider string
	// Duration is how long the attempt or run took.
	Duration time.Duration
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
