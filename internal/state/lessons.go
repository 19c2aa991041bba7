package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// ErrNotFound is returned when a lesson is not in the archive.
var ErrNotFound = errors.New("lesson not found")

// DefaultListLimit caps ListLessons when no limit is given.
const DefaultListLimit = 50

// LessonRecord is one archived lesson.
type LessonRecord struct {
	ID          string                  `json:"id"`
	SessionID   string                  `json:"session_id,omitempty"`
	CourseTitle string                  `json:"course_title"`
	ModuleTitle string                  `json:"module_title,omitempty"`
	LessonTitle string                  `json:"lesson_title"`
	Title       string                  `json:"title"`
	Description string                  `json:"description,omitempty"`
	Depth       models.DepthLevel       `json:"depth"`
	Strategy    models.Strategy         `json:"strategy"`
	Content     string                  `json:"content"`
	Sections    []models.LessonSection  `json:"sections,omitempty"`
	Metadata    map[string]any          `json:"metadata,omitempty"`
	Report      models.GenerationReport `json:"report"`
	Fallback    bool                    `json:"fallback"`
	CreatedAt   time.Time               `json:"created_at"`
}

// LessonSummary is the list view of an archived lesson.
type LessonSummary struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	CourseTitle string            `json:"course_title"`
	Depth       models.DepthLevel `json:"depth"`
	Strategy    models.Strategy   `json:"strategy"`
	Fallback    bool              `json:"fallback"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TaskResult is the archived outcome of one task.
type TaskResult struct {
	TaskID       string            `json:"task_id"`
	Kind         models.TaskKind   `json:"kind"`
	Status       models.TaskStatus `json:"status"`
	Result       string            `json:"result,omitempty"`
	Error        string            `json:"error,omitempty"`
	RetryCount   int               `json:"retry_count"`
	QualityScore int               `json:"quality_score"`
	Provider     string            `json:"provider,omitempty"`
	Duration     time.Duration     `json:"duration"`
}

// NewLessonRecord converts a generation result for archiving.
func NewLessonRecord(res *models.LessonResult, req models.LessonContext, now time.Time) *LessonRecord {
	return &LessonRecord{
		ID:          res.LessonID,
		SessionID:   res.SessionID,
		CourseTitle: req.CourseTitle,
		ModuleTitle: req.ModuleTitle,
		LessonTitle: req.LessonTitle,
		Title:       res.Title,
		Description: res.Description,
		Depth:       res.Report.Depth,
		Strategy:    res.Report.Strategy,
		Content:     res.ContentData,
		Sections:    res.Sections,
		Metadata:    res.Metadata,
		Report:      res.Report,
		Fallback:    res.Report.Fallback,
		CreatedAt:   now,
	}
}

// TaskResults converts session tasks for archiving, in session order.
func TaskResults(sess *models.Session) []TaskResult {
	out := make([]TaskResult, 0, len(sess.Order))
	for _, t := range sess.OrderedTasks() {
		out = append(out, TaskResult{
			TaskID:       t.ID,
			Kind:         t.Kind,
			Status:       t.Status,
			Result:       t.Result,
			Error:        t.Error,
			RetryCount:   t.RetryCount,
			QualityScore: t.QualityScore,
			Provider:     t.Provider,
			Duration:     sess.Timing.TaskDurations[t.ID],
		})
	}
	return out
}

// Result converts the record back into the public result shape.
func (r *LessonRecord) Result() *models.LessonResult {
	return &models.LessonResult{
		Title:       r.Title,
		Description: r.Description,
		ContentData: r.Content,
		Sections:    r.Sections,
		Metadata:    r.Metadata,
		Report:      r.Report,
		SessionID:   r.SessionID,
		LessonID:    r.ID,
	}
}

// SaveLesson inserts or replaces a lesson.
func (db *DB) SaveLesson(ctx context.Context, l *LessonRecord) error {
	if l.ID == "" {
		return errors.New("save lesson: empty id")
	}
	sections, err := marshalJSON(l.Sections)
	if err != nil {
		return fmt.Errorf("save lesson: sections: %w", err)
	}
	metadata, err := marshalJSON(l.Metadata)
	if err != nil {
		return fmt.Errorf("save lesson: metadata: %w", err)
	}
	report, err := marshalJSON(l.Report)
	if err != nil {
		return fmt.Errorf("save lesson: report: %w", err)
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO lessons (id, session_id, course_title, module_title, lesson_title, title,
			description, depth, strategy, content, sections, metadata, report, fallback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			session_id = excluded.session_id,
			course_title = excluded.course_title,
			module_title = excluded.module_title,
			lesson_title = excluded.lesson_title,
			title = excluded.title,
			description = excluded.description,
			depth = excluded.depth,
			strategy = excluded.strategy,
			content = excluded.content,
			sections = excluded.sections,
			metadata = excluded.metadata,
			report = excluded.report,
			fallback = excluded.fallback
	`, l.ID, l.SessionID, l.CourseTitle, l.ModuleTitle, l.LessonTitle, l.Title,
		l.Description, string(l.Depth), string(l.Strategy), l.Content, sections, metadata, report,
		boolToInt(l.Fallback), formatTime(l.CreatedAt))
	if err != nil {
		return fmt.Errorf("save lesson: %w", err)
	}
	return nil
}

// GetLesson retrieves a lesson by ID. It returns ErrNotFound when absent.
func (db *DB) GetLesson(ctx context.Context, id string) (*LessonRecord, error) {
	db.mu.RLock()
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, session_id, course_title, module_title, lesson_title, title, description,
			depth, strategy, content, sections, metadata, report, fallback, created_at
		FROM lessons WHERE id = ?
	`, id)

	var (
		l                          LessonRecord
		sessionID, module, desc    sql.NullString
		sections, metadata, report sql.NullString
		depth, strategy, createdAt string
		fallback                   int
	)
	err := row.Scan(&l.ID, &sessionID, &l.CourseTitle, &module, &l.LessonTitle, &l.Title, &desc,
		&depth, &strategy, &l.Content, &sections, &metadata, &report, &fallback, &createdAt)
	db.mu.RUnlock()
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}

	l.SessionID, l.ModuleTitle, l.Description = sessionID.String, module.String, desc.String
	l.Depth, l.Strategy = models.DepthLevel(depth), models.Strategy(strategy)
	l.Fallback = fallback != 0
	l.CreatedAt, _ = parseTime(createdAt)
	if err := unmarshalJSON(sections, &l.Sections); err != nil {
		return nil, fmt.Errorf("get lesson %s: sections: %w", id, err)
	}
	if err := unmarshalJSON(metadata, &l.Metadata); err != nil {
		return nil, fmt.Errorf("get lesson %s: metadata: %w", id, err)
	}
	if err := unmarshalJSON(report, &l.Report); err != nil {
		return nil, fmt.Errorf("get lesson %s: report: %w", id, err)
	}
	return &l, nil
}

// ListLessons returns the newest lessons first. limit <= 0 means DefaultListLimit.
func (db *DB) ListLessons(ctx context.Context, limit int) ([]LessonSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	db.mu.RLock()
	defer db.mu.RUnlock()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, course_title, depth, strategy, fallback, created_at
		FROM lessons ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var out []LessonSummary
	for rows.Next() {
		var (
			s                          LessonSummary
			depth, strategy, createdAt string
			fallback                   int
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.CourseTitle, &depth, &strategy, &fallback, &createdAt); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		s.Depth, s.Strategy = models.DepthLevel(depth), models.Strategy(strategy)
		s.Fallback = fallback != 0
		s.CreatedAt, _ = parseTime(createdAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteLesson deletes a lesson and its task results.
// Deleting a missing lesson returns ErrNotFound.
func (db *DB) DeleteLesson(ctx context.Context, id string) error {
	return db.Transaction(func(tx *sql.Tx) error {
		// Foreign keys are enabled per connection, so task results are cleared explicitly.
		if _, err := tx.ExecContext(ctx, "DELETE FROM task_results WHERE lesson_id = ?", id); err != nil {
			return fmt.Errorf("delete task results: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM lessons WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete lesson: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
}

// SaveTaskResults replaces the task results of a lesson.
func (db *DB) SaveTaskResults(ctx context.Context, lessonID string, results []TaskResult) error {
	return db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM task_results WHERE lesson_id = ?", lessonID); err != nil {
			return fmt.Errorf("clear task results: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO task_results (lesson_id, task_id, kind, status, result, error,
				retry_count, quality_score, provider, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare task result insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range results {
			if _, err := stmt.ExecContext(ctx, lessonID, r.TaskID, string(r.Kind), string(r.Status), r.Result,
				r.Error, r.RetryCount, r.QualityScore, r.Provider, r.Duration.Milliseconds()); err != nil {
				return fmt.Errorf("insert task result %s: %w", r.TaskID, err)
			}
		}
		return nil
	})
}

// ListTaskResults returns the task results of a lesson in insertion order.
func (db *DB) ListTaskResults(ctx context.Context, lessonID string) ([]TaskResult, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT task_id, kind, status, result, error, retry_count, quality_score, provider, duration_ms
		FROM task_results WHERE lesson_id = ? ORDER BY rowid
	`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list task results: %w", err)
	}
	defer rows.Close()

	var out []TaskResult
	for rows.Next() {
		var (
			r                    TaskResult
			kind, status         string
			result, errMsg, prov sql.NullString
			durationMS           int64
		)
		if err := rows.Scan(&r.TaskID, &kind, &status, &result, &errMsg, &r.RetryCount,
			&r.QualityScore, &prov, &durationMS); err != nil {
			return nil, fmt.Errorf("scan task result: %w", err)
		}
		r.Kind, r.Status = models.TaskKind(kind), models.TaskStatus(status)
		r.Result, r.Error, r.Provider = result.String, errMsg.String, prov.String
		r.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalJSON(s sql.NullString, v any) error {
	if !s.Valid || s.String == "" || s.String == "null" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), v)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
