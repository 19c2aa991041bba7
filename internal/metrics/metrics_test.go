package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMustNewMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := MustNewMetrics(reg)
	b := MustNewMetrics(reg)

	a.ProviderRequest("openrouter", "ok")
	b.ProviderRequest("openrouter", "ok")

	got := testutil.ToFloat64(a.providerRequests.WithLabelValues("openrouter", "ok"))
	if got != 2 {
		t.Errorf("expected shared counter value 2, got %v", got)
	}
}

func TestMetrics_Record(t *testing.T) {
	m := MustNewMetrics(prometheus.NewRegistry())

	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.TaskFinished("core_concepts", "completed", 2*time.Second)
	m.ProviderTokens("gemini", 100, 40)
	m.SessionStarted()
	m.SessionStarted()
	m.SessionFinished()
	m.LessonGenerated("tasks", false)

	if v := testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")); v != 2 {
		t.Errorf("cache misses = %v, want 2", v)
	}
	if v := testutil.ToFloat64(m.taskOutcomes.WithLabelValues("core_concepts", "completed")); v != 1 {
		t.Errorf("task outcomes = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.providerTokens.WithLabelValues("gemini", "input")); v != 100 {
		t.Errorf("input tokens = %v, want 100", v)
	}
	if v := testutil.ToFloat64(m.activeSessions); v != 1 {
		t.Errorf("active sessions = %v, want 1", v)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ProviderRequest("x", "ok")
	m.CacheLookup(true)
	m.TaskFinished("k", "failed", time.Second)
	m.SessionStarted()
	m.SessionFinished()
	m.LessonGenerated("tasks", true)
	m.ProviderTokens("x", 1, 1)
}
