package state

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

func sampleLesson(id string, createdAt time.Time) *LessonRecord {
	return &LessonRecord{
		ID:          id,
		SessionID:   "sess-" + id,
		CourseTitle: "Intro to Networks",
		ModuleTitle: "Foundations",
		LessonTitle: "The OSI Model",
		Title:       "The OSI Model",
		Description: "Seven layers, one packet.",
		Depth:       models.DepthStandard,
		Strategy:    models.StrategyTasks,
		Content:     "# The OSI Model\n\nBody text.",
		Sections: []models.LessonSection{
			{Key: models.SectionIntroduction, Title: "Introduction", Content: "Hook."},
			{Key: models.SectionTheory, Title: "Theory", Content: "Layers."},
		},
		Metadata: map[string]any{"depth": "standard"},
		Report: models.GenerationReport{
			TotalTasks:     18,
			CompletedTasks: 17,
			FailedTasks:    1,
			FailedTaskIDs:  []string{"case_study"},
			Strategy:       models.StrategyTasks,
			Depth:          models.DepthStandard,
		},
		CreatedAt: createdAt,
	}
}

func TestSaveAndGetLesson(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	want := sampleLesson("l-1", created)
	if err := db.SaveLesson(ctx, want); err != nil {
		t.Fatalf("SaveLesson failed: %v", err)
	}

	got, err := db.GetLesson(ctx, "l-1")
	if err != nil {
		t.Fatalf("GetLesson failed: %v", err)
	}
	if got.Title != want.Title || got.Content != want.Content || got.ModuleTitle != want.ModuleTitle {
		t.Errorf("GetLesson = %+v, want %+v", got, want)
	}
	if got.Depth != models.DepthStandard || got.Strategy != models.StrategyTasks {
		t.Errorf("depth/strategy = %s/%s", got.Depth, got.Strategy)
	}
	if len(got.Sections) != 2 || got.Sections[1].Key != models.SectionTheory {
		t.Errorf("sections = %+v", got.Sections)
	}
	if got.Metadata["depth"] != "standard" {
		t.Errorf("metadata = %v", got.Metadata)
	}
	if got.Report.CompletedTasks != 17 || len(got.Report.FailedTaskIDs) != 1 {
		t.Errorf("report = %+v", got.Report)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}

	res := got.Result()
	if res.LessonID != "l-1" || res.SessionID != "sess-l-1" || res.ContentData != want.Content {
		t.Errorf("Result() = %+v", res)
	}
}

func TestSaveLesson_Upsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	l := sampleLesson("l-1", time.Now())
	if err := db.SaveLesson(ctx, l); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := db.SaveTaskResults(ctx, "l-1", []TaskResult{{TaskID: "topic_research", Kind: models.KindTopicResearch, Status: models.TaskStatusCompleted}}); err != nil {
		t.Fatalf("SaveTaskResults: %v", err)
	}

	l.Title = "Revised"
	if err := db.SaveLesson(ctx, l); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := db.GetLesson(ctx, "l-1")
	if err != nil {
		t.Fatalf("GetLesson: %v", err)
	}
	if got.Title != "Revised" {
		t.Errorf("Title = %q, want Revised", got.Title)
	}
	results, err := db.ListTaskResults(ctx, "l-1")
	if err != nil {
		t.Fatalf("ListTaskResults: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("upsert dropped task results: got %d", len(results))
	}
}

func TestSaveLesson_EmptyID(t *testing.T) {
	db := setupTestDB(t)
	if err := db.SaveLesson(context.Background(), &LessonRecord{}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestGetLesson_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetLesson(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListLessons(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		l := sampleLesson(fmt.Sprintf("l-%d", i), base.Add(time.Duration(i)*time.Hour))
		if i == 4 {
			l.Fallback = true
		}
		if err := db.SaveLesson(ctx, l); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"limit applies newest first", 2, []string{"l-4", "l-3"}},
		{"zero means default", 0, []string{"l-4", "l-3", "l-2", "l-1", "l-0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ListLessons(ctx, tt.limit)
			if err != nil {
				t.Fatalf("ListLessons: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d lessons, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("lesson[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
			if !got[0].Fallback {
				t.Error("expected newest lesson to be flagged fallback")
			}
		})
	}
}

func TestTaskResults_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	if err := db.SaveLesson(ctx, sampleLesson("l-1", time.Now())); err != nil {
		t.Fatalf("SaveLesson: %v", err)
	}

	in := []TaskResult{
		{TaskID: "topic_research", Kind: models.KindTopicResearch, Status: models.TaskStatusCompleted,
			Result: "facts", QualityScore: 90, Provider: "openrouter", Duration: 1500 * time.Millisecond},
		{TaskID: "case_study", Kind: models.KindCaseStudy, Status: models.TaskStatusFailed,
			Error: "validation failed", RetryCount: 2},
	}
	if err := db.SaveTaskResults(ctx, "l-1", in); err != nil {
		t.Fatalf("SaveTaskResults: %v", err)
	}
	// Saving again replaces rather than duplicating.
	if err := db.SaveTaskResults(ctx, "l-1", in); err != nil {
		t.Fatalf("SaveTaskResults again: %v", err)
	}

	got, err := db.ListTaskResults(ctx, "l-1")
	if err != nil {
		t.Fatalf("ListTaskResults: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0] != in[0] || got[1] != in[1] {
		t.Errorf("results = %+v, want %+v", got, in)
	}
}

func TestDeleteLesson(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	if err := db.SaveLesson(ctx, sampleLesson("l-1", time.Now())); err != nil {
		t.Fatalf("SaveLesson: %v", err)
	}
	if err := db.SaveTaskResults(ctx, "l-1", []TaskResult{{TaskID: "a", Kind: models.KindTopicResearch, Status: models.TaskStatusCompleted}}); err != nil {
		t.Fatalf("SaveTaskResults: %v", err)
	}

	if err := db.DeleteLesson(ctx, "l-1"); err != nil {
		t.Fatalf("DeleteLesson: %v", err)
	}
	if _, err := db.GetLesson(ctx, "l-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetLesson after delete: %v", err)
	}
	results, err := db.ListTaskResults(ctx, "l-1")
	if err != nil {
		t.Fatalf("ListTaskResults: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("task results survived delete: %d", len(results))
	}

	if err := db.DeleteLesson(ctx, "l-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestNewLessonRecordAndTaskResults(t *testing.T) {
	now := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	lc := models.LessonContext{CourseTitle: "C", ModuleTitle: "M", LessonTitle: "L"}
	tasks := []*models.Task{
		{ID: "a", Kind: models.KindTopicResearch, Status: models.TaskStatusCompleted, Result: "x", Provider: "gemini"},
		{ID: "b", Kind: models.KindCoreConcepts, Status: models.TaskStatusSkipped, DependsOn: []string{"a"}},
	}
	sess := models.NewSession("s-1", lc, models.DepthBasic, tasks, now)
	sess.Timing.TaskDurations["a"] = time.Second

	results := TaskResults(sess)
	if len(results) != 2 || results[0].TaskID != "a" || results[1].TaskID != "b" {
		t.Fatalf("TaskResults order = %+v", results)
	}
	if results[0].Duration != time.Second || results[0].Provider != "gemini" {
		t.Errorf("result[0] = %+v", results[0])
	}

	res := &models.LessonResult{
		Title:     "L",
		SessionID: "s-1",
		LessonID:  "lesson-1",
		Report:    models.GenerationReport{Depth: models.DepthBasic, Strategy: models.StrategyTasks, Fallback: true},
	}
	rec := NewLessonRecord(res, lc, now)
	if rec.ID != "lesson-1" || rec.ModuleTitle != "M" || !rec.Fallback || rec.Depth != models.DepthBasic {
		t.Errorf("NewLessonRecord = %+v", rec)
	}
	if !rec.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v", rec.CreatedAt)
	}
}
