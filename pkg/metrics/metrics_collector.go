package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector 指标收集器
type MetricsCollector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// 数据库指标
	dbConnectionsActive prometheus.Gauge
	dbConnectionsIdle   prometheus.Gauge

	// 缓存指标
	cacheHitsTotal   *prometheus.CounterVec
	cacheMissesTotal *prometheus.CounterVec

	// 业务指标
	likeTogglesTotal     *prometheus.CounterVec
	feedSubscribers      prometheus.Gauge
	feedReloadsTotal     prometheus.Counter
	supportMessagesTotal *prometheus.CounterVec
	orphanCleanupTotal   *prometheus.CounterVec
}

// NewMetricsCollector 创建指标收集器，指标注册到 reg
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(reg)
	return &MetricsCollector{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "endpoint"},
		),

		dbConnectionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connections_active",
				Help: "Number of active database connections",
			},
		),

		dbConnectionsIdle: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connections_idle",
				Help: "Number of idle database connections",
			},
		),

		cacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"key_prefix"},
		),

		cacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"key_prefix"},
		),

		likeTogglesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "post_like_toggles_total",
				Help: "Like toggles by result",
			},
			[]string{"result"},
		),

		feedSubscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "feed_stream_subscribers",
				Help: "Number of open feed stream connections",
			},
		),

		feedReloadsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "feed_reloads_total",
				Help: "Feed reloads triggered by post changes",
			},
		),

		supportMessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "support_messages_total",
				Help: "Support messages by outcome",
			},
			[]string{"status"},
		),

		orphanCleanupTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orphan_cleanup_total",
				Help: "Orphaned attachment cleanups by outcome",
			},
			[]string{"status"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, status string, duration time.Duration, responseSize int) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	if responseSize > 0 {
		m.httpResponseSize.WithLabelValues(method, endpoint).Observe(float64(responseSize))
	}
}

// RecordCacheLookup 记录缓存命中情况
func (m *MetricsCollector) RecordCacheLookup(keyPrefix string, hit bool) {
	if hit {
		m.cacheHitsTotal.WithLabelValues(keyPrefix).Inc()
	} else {
		m.cacheMissesTotal.WithLabelValues(keyPrefix).Inc()
	}
}

// UpdateDBConnections 更新数据库连接指标
func (m *MetricsCollector) UpdateDBConnections(active, idle int) {
	m.dbConnectionsActive.Set(float64(active))
	m.dbConnectionsIdle.Set(float64(idle))
}

// RecordLikeToggle result 为 liked、unliked、reconciled 或 error
func (m *MetricsCollector) RecordLikeToggle(result string) {
	m.likeTogglesTotal.WithLabelValues(result).Inc()
}

func (m *MetricsCollector) FeedSubscriberAdded()   { m.feedSubscribers.Inc() }
func (m *MetricsCollector) FeedSubscriberRemoved() { m.feedSubscribers.Dec() }
func (m *MetricsCollector) RecordFeedReload()      { m.feedReloadsTotal.Inc() }

// RecordSupportMessage 记录留言提交结果
func (m *MetricsCollector) RecordSupportMessage(success bool) {
	m.supportMessagesTotal.WithLabelValues(outcome(success)).Inc()
}

// RecordOrphanCleanup 记录孤儿附件清理结果
func (m *MetricsCollector) RecordOrphanCleanup(success bool) {
	m.orphanCleanupTotal.WithLabelValues(outcome(success)).Inc()
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// StatusCategory 状态分类
func StatusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// 全局指标收集器实例
var (
	globalCollector *MetricsCollector
	globalOnce      sync.Once
)

// GetGlobalCollector 获取全局指标收集器，注册到默认 Registerer
func GetGlobalCollector() *MetricsCollector {
	globalOnce.Do(func() {
		globalCollector = NewMetricsCollector(prometheus.DefaultRegisterer)
	})
	return globalCollector
}
