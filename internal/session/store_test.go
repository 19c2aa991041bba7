package session

import (
	"sync"
	"testing"
	"time"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func tasks() []*models.Task {
	return []*models.Task{
		{ID: "a", Kind: models.KindTopicResearch, Status: models.TaskStatusPending},
		{ID: "b", Kind: models.KindCoreConcepts, DependsOn: []string{"a"}, Status: models.TaskStatusPending},
	}
}

func lessonCtx() models.LessonContext {
	return models.LessonContext{CourseTitle: "Go", LessonTitle: "Channels"}
}

func TestStore_CreateAndGet(t *testing.T) {
	s := NewStore()
	created := s.Create(lessonCtx(), models.DepthBasic, tasks())

	if created.ID == "" {
		t.Fatal("session id should be set")
	}
	got := s.Get(created.ID)
	if got == nil {
		t.Fatal("Get returned nil for a fresh session")
	}
	if got.Progress.Total != 2 || len(got.Order) != 2 {
		t.Errorf("progress = %+v, order = %v", got.Progress, got.Order)
	}
	if s.Get("missing") != nil {
		t.Error("Get of unknown id should be nil")
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := NewStore()
	created := s.Create(lessonCtx(), models.DepthBasic, tasks())

	created.Tasks["a"].Status = models.TaskStatusCompleted
	got := s.Get(created.ID)
	if got.Tasks["a"].Status != models.TaskStatusPending {
		t.Error("mutating the returned session leaked into the store")
	}

	got.Tasks["a"].Status = models.TaskStatusFailed
	if s.Get(created.ID).Tasks["a"].Status != models.TaskStatusPending {
		t.Error("mutating a Get result leaked into the store")
	}
}

func TestStore_Update(t *testing.T) {
	c := newClock()
	s := NewStore(WithClock(c.Now))
	sess := s.Create(lessonCtx(), models.DepthBasic, tasks())

	c.Advance(time.Minute)
	sess.Tasks["a"].Status = models.TaskStatusCompleted
	sess.RecomputeProgress()
	s.Update(sess)

	got := s.Get(sess.ID)
	if got.Tasks["a"].Status != models.TaskStatusCompleted {
		t.Error("update not stored")
	}
	if got.Progress.Percent != 50 {
		t.Errorf("percent = %v, want 50", got.Progress.Percent)
	}
	if !got.UpdatedAt.Equal(c.Now()) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, c.Now())
	}
}

func TestStore_ExpiredSessionIsAbsent(t *testing.T) {
	c := newClock()
	s := NewStore(WithClock(c.Now), WithTTL(time.Hour))
	sess := s.Create(lessonCtx(), models.DepthBasic, tasks())

	c.Advance(2 * time.Hour)
	if s.Get(sess.ID) != nil {
		t.Error("expired session should be absent")
	}
	if s.Len() != 0 {
		t.Errorf("expired session should be dropped on read, Len = %d", s.Len())
	}
}

func TestStore_OverflowEvictsLeastRecentlyUpdated(t *testing.T) {
	c := newClock()
	s := NewStore(WithClock(c.Now))

	ids := make([]string, 0, 101)
	for i := 0; i < 100; i++ {
		ids = append(ids, s.Create(lessonCtx(), models.DepthBasic, tasks()).ID)
		c.Advance(time.Second)
	}
	// Reading the oldest must not protect it.
	_ = s.Get(ids[0])

	ids = append(ids, s.Create(lessonCtx(), models.DepthBasic, tasks()).ID)

	if s.Len() != 100 {
		t.Fatalf("Len = %d, want 100", s.Len())
	}
	if s.Get(ids[0]) != nil {
		t.Error("oldest session should have been evicted")
	}
	for _, id := range ids[1:] {
		if s.Get(id) == nil {
			t.Fatalf("session %s should have survived", id)
		}
	}
}

func TestStore_OverflowPrefersExpired(t *testing.T) {
	c := newClock()
	s := NewStore(WithClock(c.Now), WithCapacity(3), WithTTL(time.Hour))

	oldest := s.Create(lessonCtx(), models.DepthBasic, tasks())
	c.Advance(time.Minute)
	stale := s.Create(lessonCtx(), models.DepthBasic, tasks())
	c.Advance(time.Minute)
	fresh := s.Create(lessonCtx(), models.DepthBasic, tasks())

	// Keep oldest alive, let stale expire.
	c.Advance(59 * time.Minute)
	s.Update(oldest)
	c.Advance(30 * time.Second)
	_ = s.Create(lessonCtx(), models.DepthBasic, tasks())

	if s.Get(oldest.ID) == nil {
		t.Error("recently updated session should survive")
	}
	if s.Get(stale.ID) != nil {
		t.Error("expired session should be evicted first")
	}
	if s.Get(fresh.ID) == nil {
		t.Error("fresh session was evicted")
	}
}

func TestStore_UpdateRefreshesRecency(t *testing.T) {
	c := newClock()
	s := NewStore(WithClock(c.Now), WithCapacity(2))

	a := s.Create(lessonCtx(), models.DepthBasic, tasks())
	c.Advance(time.Second)
	b := s.Create(lessonCtx(), models.DepthBasic, tasks())
	c.Advance(time.Second)
	s.Update(a)
	c.Advance(time.Second)
	_ = s.Create(lessonCtx(), models.DepthBasic, tasks())

	if s.Get(a.ID) == nil {
		t.Error("updated session should survive")
	}
	if s.Get(b.ID) != nil {
		t.Error("least recently updated session should be evicted")
	}
}

func TestStore_ListAndRemove(t *testing.T) {
	s := NewStore()
	a := s.Create(lessonCtx(), models.DepthBasic, tasks())
	_ = s.Create(lessonCtx(), models.DepthStandard, tasks())

	if got := len(s.List()); got != 2 {
		t.Fatalf("List = %d sessions, want 2", got)
	}
	if !s.Remove(a.ID) {
		t.Error("Remove should report the session was present")
	}
	if s.Remove(a.ID) {
		t.Error("second Remove should report absent")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore(WithCapacity(10))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sess := s.Create(lessonCtx(), models.DepthBasic, tasks())
				sess.Attempts++
				s.Update(sess)
				_ = s.Get(sess.ID)
				_ = s.List()
			}
		}()
	}
	wg.Wait()
	if s.Len() > 10 {
		t.Errorf("Len = %d exceeds capacity", s.Len())
	}
}
