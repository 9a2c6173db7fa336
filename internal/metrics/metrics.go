// Package metrics Prometheus 指标
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chat_widget"

// Metrics 服务指标，nil 时所有记录方法都不做任何事
type Metrics struct {
	registry *prometheus.Registry

	chatRequests   *prometheus.CounterVec
	chatDuration   prometheus.Histogram
	parseResults   *prometheus.CounterVec
	historyOps     *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	activeSessions prometheus.Gauge
}

// New 创建并注册指标
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "对话端点请求数，按结果分类",
		}, []string{"result"}),
		chatDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_request_duration_seconds",
			Help:      "对话端点请求耗时",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		parseResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_results_total",
			Help:      "回复解析结果，按命中的策略分类",
		}, []string{"strategy"}),
		historyOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_operations_total",
			Help:      "对话记录读写次数",
		}, []string{"op", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP请求数",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP请求耗时",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "当前会话数",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.chatRequests,
		m.chatDuration,
		m.parseResults,
		m.historyOps,
		m.httpRequests,
		m.httpDuration,
		m.activeSessions,
	)
	return m
}

// Registry 返回指标注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveChat 记录一次对话端点请求
func (m *Metrics) ObserveChat(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.chatRequests.WithLabelValues(result).Inc()
	m.chatDuration.Observe(elapsed.Seconds())
}

// ObserveParse 记录一次回复解析
func (m *Metrics) ObserveParse(strategy string) {
	if m == nil {
		return
	}
	m.parseResults.WithLabelValues(strategy).Inc()
}

// ObserveHistory 记录一次对话记录读写
func (m *Metrics) ObserveHistory(op string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.historyOps.WithLabelValues(op, result).Inc()
}

// ObserveHTTP 记录一次HTTP请求
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SetActiveSessions 更新当前会话数
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
