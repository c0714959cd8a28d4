package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			var sum float64
			for _, m := range mf.GetMetric() {
				sum += m.GetCounter().GetValue()
			}
			return sum
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

// TestRecordSearch_IncrementsCounters は検索カウンタが増加することを検証する。
func TestRecordSearch_IncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSearch("クエリ1")
	c.RecordSearch("クエリ2")
	c.RecordSearchFailure("クエリ2")

	if got := counterValue(t, reg, "oshiscout_search_total"); got != 2 {
		t.Errorf("search_total = %v, want 2", got)
	}
	if got := counterValue(t, reg, "oshiscout_search_fail_total"); got != 1 {
		t.Errorf("search_fail_total = %v, want 1", got)
	}
}

// TestRecordItemsCreated_LabelsBySource は収集経路ラベル別に記録されることを検証する。
func TestRecordItemsCreated_LabelsBySource(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordItemsCreated("direct", 3)
	c.RecordItemsCreated("network", 2)
	c.RecordItemsCreated("direct", 1)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() != "oshiscout_items_created_total" {
			continue
		}
		if len(mf.GetMetric()) != 2 {
			t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
		}
		for _, m := range mf.GetMetric() {
			label := m.GetLabel()[0].GetValue()
			val := m.GetCounter().GetValue()
			switch label {
			case "direct":
				if val != 4 {
					t.Errorf("items_created_total{source=direct} = %v, want 4", val)
				}
			case "network":
				if val != 2 {
					t.Errorf("items_created_total{source=network} = %v, want 2", val)
				}
			default:
				t.Errorf("unexpected label value: %s", label)
			}
		}
		return
	}
	t.Error("oshiscout_items_created_total metric not found")
}

// TestRecordWorkflowDuration_ObservesHistogram はワークフロー時間が記録されることを検証する。
func TestRecordWorkflowDuration_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordWorkflowDuration("scout", 100*time.Millisecond)
	c.RecordWorkflowDuration("scout", 2*time.Second)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "oshiscout_workflow_duration_seconds" {
			found = true
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 2 {
				t.Errorf("sample_count = %d, want 2", h.GetSampleCount())
			}
		}
	}
	if !found {
		t.Error("oshiscout_workflow_duration_seconds metric not found")
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat は/metricsがPrometheus形式で返すことを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSearch("query")
	c.RecordItemsCreated("direct", 3)
	c.RecordClassification("urgent")
	c.RecordClassifyFallback()
	c.RecordNodesDiscovered(5)

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	expectedMetrics := []string{
		"oshiscout_search_total",
		"oshiscout_items_created_total",
		"oshiscout_classifications_total",
		"oshiscout_classify_fallback_total",
		"oshiscout_nodes_discovered_total",
	}

	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

// TestCollector_ImplementsMetricsCollectorInterface はCollectorがMetricsCollectorインターフェースを実装することを検証する。
func TestCollector_ImplementsMetricsCollectorInterface(t *testing.T) {
	reg := prometheus.NewRegistry()
	var _ MetricsCollector = NewCollector(reg)
}
