// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// エージェントやハンドラーから利用する。
type MetricsCollector interface {
	RecordSearch(query string)
	RecordSearchFailure(query string)
	RecordItemsCreated(source string, count int)
	RecordClassification(priority string)
	RecordClassifyFallback()
	RecordNodesDiscovered(count int)
	RecordWorkflowDuration(workflow string, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	searchTotal      prometheus.Counter
	searchFail       prometheus.Counter
	itemsCreated     *prometheus.CounterVec
	classifications  *prometheus.CounterVec
	classifyFallback prometheus.Counter
	nodesDiscovered  prometheus.Counter
	workflowDuration *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		searchTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oshiscout_search_total",
			Help: "検索実行の合計数",
		}),
		searchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oshiscout_search_fail_total",
			Help: "検索失敗の合計数",
		}),
		itemsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oshiscout_items_created_total",
			Help: "新規作成された収集情報の合計数（収集経路別）",
		}, []string{"source"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oshiscout_classifications_total",
			Help: "重要度判定の合計数（判定結果別）",
		}, []string{"priority"}),
		classifyFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oshiscout_classify_fallback_total",
			Help: "判定失敗によりnormalへフォールバックした合計数",
		}),
		nodesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oshiscout_nodes_discovered_total",
			Help: "発見されたネットワークノードの合計数",
		}),
		workflowDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oshiscout_workflow_duration_seconds",
			Help:    "ワークフロー実行時間（秒、ワークフロー別）",
			Buckets: prometheus.DefBuckets,
		}, []string{"workflow"}),
	}

	reg.MustRegister(
		c.searchTotal,
		c.searchFail,
		c.itemsCreated,
		c.classifications,
		c.classifyFallback,
		c.nodesDiscovered,
		c.workflowDuration,
	)

	return c
}

// RecordSearch は検索実行を記録する。
func (c *Collector) RecordSearch(query string) {
	c.searchTotal.Inc()
}

// RecordSearchFailure は検索失敗を記録する。
func (c *Collector) RecordSearchFailure(query string) {
	c.searchFail.Inc()
}

// RecordItemsCreated は新規収集情報数を収集経路（direct/network/feed）別に記録する。
func (c *Collector) RecordItemsCreated(source string, count int) {
	c.itemsCreated.WithLabelValues(source).Add(float64(count))
}

// RecordClassification は重要度判定の結果を記録する。
func (c *Collector) RecordClassification(priority string) {
	c.classifications.WithLabelValues(priority).Inc()
}

// RecordClassifyFallback は判定失敗によるフォールバックを記録する。
func (c *Collector) RecordClassifyFallback() {
	c.classifyFallback.Inc()
}

// RecordNodesDiscovered は発見ノード数を記録する。
func (c *Collector) RecordNodesDiscovered(count int) {
	c.nodesDiscovered.Add(float64(count))
}

// RecordWorkflowDuration はワークフローの実行時間を記録する。
func (c *Collector) RecordWorkflowDuration(workflow string, duration time.Duration) {
	c.workflowDuration.WithLabelValues(workflow).Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
