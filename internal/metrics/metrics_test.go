package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/f-sync/unfollow/internal/metrics"
)

func TestCollectorRecordsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	collector.RecordAnalysisSuccess(12, 250*time.Millisecond)
	collector.RecordAnalysisFailure("parse")
	collector.RecordAnalysisFailure("parse")
	collector.RecordHide("mutuals")
	collector.RecordReset("mutuals")
	collector.RecordExport("not_following_back")

	expected := `
# HELP unfollow_analysis_failure_total Archive analyses that failed, by failure kind.
# TYPE unfollow_analysis_failure_total counter
unfollow_analysis_failure_total{kind="parse"} 2
# HELP unfollow_analysis_success_total Archives analyzed successfully.
# TYPE unfollow_analysis_success_total counter
unfollow_analysis_success_total 1
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "unfollow_analysis_failure_total", "unfollow_analysis_success_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
	if count := testutil.CollectAndCount(registry, "unfollow_hide_total", "unfollow_reset_total", "unfollow_export_total"); count != 3 {
		t.Fatalf("expected 3 action series, got %d", count)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics.NewCollector(registry).RecordExport("mutuals")

	recorder := httptest.NewRecorder()
	metrics.Handler(registry).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `unfollow_export_total{list="mutuals"} 1`) {
		t.Fatalf("expected export counter in body, got %s", recorder.Body.String())
	}
}
