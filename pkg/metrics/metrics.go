// Package metrics 定义推荐链路的 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NodeDuration Pipeline 各节点耗时
	NodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courserec_node_duration_seconds",
			Help:    "Duration of pipeline node execution in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"node", "kind"},
	)

	NodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courserec_node_errors_total",
			Help: "Total number of pipeline node failures",
		},
		[]string{"node", "kind"},
	)

	// NodeItems 节点输出的候选数量
	NodeItems = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courserec_node_items",
			Help:    "Number of candidates produced by a pipeline node",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000, 10000},
		},
		[]string{"node"},
	)

	// FilteredCandidates 被过滤的候选，reason 为过滤器名称（filter.exam 等），出错时为 error
	FilteredCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courserec_filtered_candidates_total",
			Help: "Total number of candidates removed by eligibility filters",
		},
		[]string{"reason"},
	)

	MalformedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courserec_malformed_records_total",
			Help: "Total number of catalog records skipped because they could not be parsed",
		},
		[]string{"source"},
	)

	RetrievalRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "courserec_retrieval_retries_total",
			Help: "Total number of catalog index retries after an unavailable error",
		},
	)

	// Requests 推荐请求，outcome: ok / empty / invalid / configuration / unavailable / canceled / error
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courserec_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	RequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "courserec_request_duration_seconds",
			Help:    "End-to-end duration of recommendation requests",
			Buckets: prometheus.DefBuckets,
		},
	)

	EmbeddingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "courserec_embedding_duration_seconds",
			Help:    "Duration of query embedding calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"embedder"},
	)

	// CatalogCourses 当前快照中每个学期的课程数
	CatalogCourses = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "courserec_catalog_courses",
			Help: "Number of courses per semester in the active catalog snapshot",
		},
		[]string{"semester"},
	)
)

// RecordNode 记录一次节点执行
func RecordNode(node, kind string, start time.Time, items int, err error) {
	NodeDuration.WithLabelValues(node, kind).Observe(time.Since(start).Seconds())
	if err != nil {
		NodeErrors.WithLabelValues(node, kind).Inc()
		return
	}
	NodeItems.WithLabelValues(node).Observe(float64(items))
}

// RecordRequest 记录一次推荐请求
func RecordRequest(outcome string, start time.Time) {
	Requests.WithLabelValues(outcome).Inc()
	RequestDuration.Observe(time.Since(start).Seconds())
}
