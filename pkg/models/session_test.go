package models

import (
	"testing"
	"time"
)

func newTestSession() *Session {
	tasks := []*Task{
		{ID: "a", Status: TaskStatusPending},
		{ID: "b", Status: TaskStatusPending, DependsOn: []string{"a"}},
		{ID: "c", Status: TaskStatusPending, DependsOn: []string{"b"}},
		{ID: "d", Status: TaskStatusPending},
	}
	return NewSession("s1", LessonContext{LessonTitle: "Loops"}, DepthBasic, tasks, time.Now())
}

func TestSession_RecomputeProgress(t *testing.T) {
	s := newTestSession()
	if s.Progress.Total != 4 || s.Progress.Percent != 0 {
		t.Fatalf("unexpected initial progress: %+v", s.Progress)
	}

	s.Tasks["a"].Status = TaskStatusCompleted
	s.Tasks["b"].Status = TaskStatusFailed
	s.Tasks["c"].Status = TaskStatusSkipped
	s.RecomputeProgress()

	if s.Progress.Completed != 1 || s.Progress.Failed != 1 || s.Progress.Skipped != 1 {
		t.Errorf("unexpected counters: %+v", s.Progress)
	}
	if s.Progress.Percent != 25 {
		t.Errorf("expected 25%%, got %v", s.Progress.Percent)
	}
	if s.Done() {
		t.Error("session with a pending task should not be done")
	}
}

func TestSession_OrderedTasksKeepsInsertionOrder(t *testing.T) {
	s := newTestSession()
	var ids []string
	for _, task := range s.OrderedTasks() {
		ids = append(ids, task.ID)
	}
	want := []string{"a", "b", "c", "d"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
}

func TestSession_CloneIsIndependent(t *testing.T) {
	s := newTestSession()
	c := s.Clone()
	c.Tasks["a"].Status = TaskStatusCompleted
	c.Order[0] = "z"

	if s.Tasks["a"].Status != TaskStatusPending {
		t.Error("clone shares task pointers with original")
	}
	if s.Order[0] != "a" {
		t.Error("clone shares order slice with original")
	}
}

func TestSession_TaskIDsWithStatus(t *testing.T) {
	s := newTestSession()
	s.Tasks["d"].Status = TaskStatusFailed
	s.Tasks["b"].Status = TaskStatusFailed

	got := s.TaskIDsWithStatus(TaskStatusFailed)
	if len(got) != 2 || got[0] != "b" || got[1] != "d" {
		t.Errorf("failed ids = %v, want [b d]", got)
	}
}
