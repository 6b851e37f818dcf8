package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_gateway_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_gateway_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_gateway_upstream_requests_total",
		Help: "Total number of upstream calls",
	}, []string{"kind", "model", "status"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_gateway_upstream_request_duration_seconds",
		Help:    "Duration of upstream calls",
		Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"kind", "model"})

	catalogCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_gateway_catalog_cache_total",
		Help: "Model catalog cache lookups",
	}, []string{"result"})

	testLimitRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_gateway_test_limit_rejected_total",
		Help: "Requests rejected by the test account IP ceiling",
	})
)

// RecordUpstream 记录一次上游调用
func RecordUpstream(kind, model, status string, duration time.Duration) {
	upstreamRequests.WithLabelValues(kind, model, status).Inc()
	upstreamDuration.WithLabelValues(kind, model).Observe(duration.Seconds())
}

// RecordCacheHit 目录缓存命中
func RecordCacheHit() {
	catalogCache.WithLabelValues("hit").Inc()
}

// RecordCacheMiss 目录缓存未命中
func RecordCacheMiss() {
	catalogCache.WithLabelValues("miss").Inc()
}

// RecordTestLimitRejected 测试账号被拒绝
func RecordTestLimitRejected() {
	testLimitRejected.Inc()
}

// Middleware 按路由模板统计请求
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler 暴露给 gin 的 /metrics 处理函数
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// NewServer 独立端口的监控服务
func NewServer(port int, path string) *http.Server {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler())
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
