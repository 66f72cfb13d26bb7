// Package metrics 提供 Prometheus helper，包含 HTTP、上游调用与业务指标
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sharemeal/console/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 上游平台调用计数
	PlatformRequestsTotal *prometheus.CounterVec
	// 上游平台调用耗时
	PlatformRequestDuration *prometheus.HistogramVec

	// 业务指标
	ApplicationsSubmitted *prometheus.CounterVec
	ApplicationsReviewed  *prometheus.CounterVec
}

// New 创建指标实例并注册
func New(serviceName string) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharemeal",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sharemeal",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		PlatformRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharemeal",
			Subsystem: serviceName,
			Name:      "platform_requests_total",
			Help:      "Total upstream platform API requests",
		}, []string{"operation", "outcome"}),
		PlatformRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sharemeal",
			Subsystem: serviceName,
			Name:      "platform_request_duration_seconds",
			Help:      "Upstream platform API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		ApplicationsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharemeal",
			Subsystem: serviceName,
			Name:      "applications_submitted_total",
			Help:      "Total applications submitted through the console",
		}, []string{"type"}),
		ApplicationsReviewed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharemeal",
			Subsystem: serviceName,
			Name:      "applications_reviewed_total",
			Help:      "Total approve/reject actions executed",
		}, []string{"action"}),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PlatformRequestsTotal,
		m.PlatformRequestDuration,
		m.ApplicationsSubmitted,
		m.ApplicationsReviewed,
	)

	return m
}

// Serve 启动独立的指标 HTTP 服务
func (m *Metrics) Serve(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	go func() {
		addr := fmt.Sprintf(":%d", port)
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Error(context.Background(), "metrics server failed", "error", err)
		}
	}()
}
