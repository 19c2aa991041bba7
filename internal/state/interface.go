package state

import (
	"context"
	"io"
)

// LessonStore handles lesson persistence operations.
type LessonStore interface {
	SaveLesson(ctx context.Context, l *LessonRecord) error
	GetLesson(ctx context.Context, id string) (*LessonRecord, error)
	ListLessons(ctx context.Context, limit int) ([]LessonSummary, error)
	DeleteLesson(ctx context.Context, id string) error
}

// TaskResultStore handles per-task result persistence.
type TaskResultStore interface {
	SaveTaskResults(ctx context.Context, lessonID string, results []TaskResult) error
	ListTaskResults(ctx context.Context, lessonID string) ([]TaskResult, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Archive is the full lesson archive.
// The generator and server depend on this rather than on SQLite.
type Archive interface {
	io.Closer
	Migrator
	LessonStore
	TaskResultStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Archive         = (*DB)(nil)
	_ Migrator        = (*DB)(nil)
	_ LessonStore     = (*DB)(nil)
	_ TaskResultStore = (*DB)(nil)
)
