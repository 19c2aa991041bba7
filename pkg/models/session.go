package models

import (
	"sort"
	"time"
)

// LessonContext is the course metadata a lesson is generated for.
type LessonContext struct {
	CourseTitle        string   `json:"course_title"`
	ModuleTitle        string   `json:"module_title,omitempty"`
	LessonTitle        string   `json:"lesson_title"`
	LessonDescription  string   `json:"lesson_description,omitempty"`
	Difficulty         string   `json:"difficulty,omitempty"`
	TargetAudience     string   `json:"target_audience,omitempty"`
	DurationMinutes    int      `json:"duration_minutes,omitempty"`
	LearningObjectives []string `json:"learning_objectives,omitempty"`
	ExistingLessons    []string `json:"existing_lessons,omitempty"`
}

// Progress holds aggregate task counters for a session.
type Progress struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Failed     int     `json:"failed"`
	Skipped    int     `json:"skipped"`
	InProgress int     `json:"in_progress"`
	Percent    float64 `json:"percent"`
}

// Timing records when a session ran and how long each task took.
type Timing struct {
	StartedAt     time.Time                `json:"started_at"`
	FinishedAt    *time.Time               `json:"finished_at,omitempty"`
	TaskDurations map[string]time.Duration `json:"task_durations,omitempty"`
}

// Session bundles task state and context for one lesson-generation request.
type Session struct {
	// ID is the unique identifier for this session.
	ID string `json:"id"`
	// CreatedAt is when the session was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the session last changed.
	UpdatedAt time.Time `json:"updated_at"`
	// Context is the lesson metadata used to build prompts.
	Context LessonContext `json:"context"`
	// Depth is the depth level the task graph was built for.
	Depth DepthLevel `json:"depth"`
	// Strategy is how the lesson is being generated. Empty means tasks.
	Strategy Strategy `json:"strategy,omitempty"`
	// Order lists task IDs in insertion order.
	Order []string `json:"order"`
	// Tasks maps task ID to task.
	Tasks map[string]*Task `json:"tasks"`
	// Progress is recomputed after every task transition.
	Progress Progress `json:"progress"`
	// Timing records run timing.
	Timing Timing `json:"timing"`
	// Attempts counts how many times the session has been run.
	Attempts int `json:"attempts"`
}

// NewSession creates a session holding the given tasks in order.
func NewSession(id string, ctx LessonContext, depth DepthLevel, tasks []*Task, now time.Time) *Session {
	s := &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Context:   ctx,
		Depth:     depth,
		Order:     make([]string, 0, len(tasks)),
		Tasks:     make(map[string]*Task, len(tasks)),
		Timing:    Timing{TaskDurations: make(map[string]time.Duration)},
	}
	for _, t := range tasks {
		s.Order = append(s.Order, t.ID)
		s.Tasks[t.ID] = t
	}
	s.RecomputeProgress()
	return s
}

// Task returns the task with the given ID, or nil.
func (s *Session) Task(id string) *Task {
	return s.Tasks[id]
}

// OrderedTasks returns tasks in insertion order.
func (s *Session) OrderedTasks() []*Task {
	out := make([]*Task, 0, len(s.Order))
	for _, id := range s.Order {
		if t, ok := s.Tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// TaskIDsWithStatus returns the IDs of tasks in the given status, in insertion order.
func (s *Session) TaskIDsWithStatus(status TaskStatus) []string {
	var ids []string
	for _, id := range s.Order {
		if t, ok := s.Tasks[id]; ok && t.Status == status {
			ids = append(ids, id)
		}
	}
	return ids
}

// RecomputeProgress refreshes the aggregate counters from task statuses.
func (s *Session) RecomputeProgress() {
	p := Progress{Total: len(s.Tasks)}
	for _, t := range s.Tasks {
		switch t.Status {
		case TaskStatusCompleted:
			p.Completed++
		case TaskStatusFailed:
			p.Failed++
		case TaskStatusSkipped:
			p.Skipped++
		case TaskStatusInProgress:
			p.InProgress++
		}
	}
	if p.Total > 0 {
		p.Percent = float64(p.Completed) / float64(p.Total) * 100
	}
	s.Progress = p
}

// Done reports whether every task is terminal.
func (s *Session) Done() bool {
	for _, t := range s.Tasks {
		if !t.Status.IsTerminal() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Order = append([]string(nil), s.Order...)
	c.Tasks = make(map[string]*Task, len(s.Tasks))
	for id, t := range s.Tasks {
		c.Tasks[id] = t.Clone()
	}
	c.Context.LearningObjectives = append([]string(nil), s.Context.LearningObjectives...)
	c.Context.ExistingLessons = append([]string(nil), s.Context.ExistingLessons...)
	c.Timing.TaskDurations = make(map[string]time.Duration, len(s.Timing.TaskDurations))
	for id, d := range s.Timing.TaskDurations {
		c.Timing.TaskDurations[id] = d
	}
	if s.Timing.FinishedAt != nil {
		f := *s.Timing.FinishedAt
		c.Timing.FinishedAt = &f
	}
	return &c
}

// SortedTaskIDs returns task IDs sorted lexically; handy for stable output.
func (s *Session) SortedTaskIDs() []string {
	ids := make([]string, 0, len(s.Tasks))
	for id := range s.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
