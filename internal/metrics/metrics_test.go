package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsRecord(t *testing.T) {
	m := New()

	m.StatusTransition("NOT_SYNCED", "SYNCING")
	m.StatusTransition("NOT_SYNCED", "SYNCING")
	m.QueueRejected("in_flight")
	m.SyncFinished("git", "COMPILING")
	m.ConfigReload(false)

	if got := testutil.ToFloat64(m.statusTransitions.WithLabelValues("NOT_SYNCED", "SYNCING")); got != 2 {
		t.Errorf("transitions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.queueRejections.WithLabelValues("in_flight")); got != 1 {
		t.Errorf("rejections = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.configReloads.WithLabelValues("error")); got != 1 {
		t.Errorf("reload errors = %v, want 1", got)
	}
}

func TestProjectCountsReplacesGauge(t *testing.T) {
	m := New()
	m.ProjectCounts(map[string]int{"READY": 2, "FAILED_SYNC": 1})
	m.ProjectCounts(map[string]int{"READY": 3})

	if got := testutil.ToFloat64(m.projectsByStatus.WithLabelValues("READY")); got != 3 {
		t.Errorf("READY = %v, want 3", got)
	}
	if n := testutil.CollectAndCount(m.projectsByStatus); n != 1 {
		t.Errorf("series = %d, want 1", n)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.BuildFinished("maven", "READY", 3*time.Second)
	m.AnalysisFinished("ok", 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"javaseeker_build_duration_seconds_count{status=\"READY\",tool=\"maven\"} 1",
		"javaseeker_analysis_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.StatusTransition("a", "b")
	m.BuildFinished("", "READY", time.Second)
	m.AnalysisReferences("TO", 3)
	m.HTTPRequest("/health", "200")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Errorf("nil handler code = %d, want 404", rec.Code)
	}
}
