// Package metrics собирает метрики Prometheus сервиса расселения.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry хранит коллекторы приложения.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roommate",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roommate",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roommate",
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "State transitions applied to allocations, participants and preferences.",
		},
		[]string{"entity", "from", "to"},
	)

	domainErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roommate",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Domain errors returned to API clients by kind.",
		},
		[]string{"kind"},
	)

	reconciled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roommate",
			Subsystem: "maintenance",
			Name:      "reconciled_documents_total",
			Help:      "Documents rewritten by reconciliation passes.",
		},
		[]string{"pass"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		transitions,
		domainErrors,
		reconciled,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler отдаёт зарегистрированные метрики.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware считает запросы и их длительность по шаблону маршрута gin.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordTransition учитывает смену состояния сущности.
func RecordTransition(entity, from, to string) {
	if from == to {
		return
	}
	transitions.WithLabelValues(entity, from, to).Inc()
}

// RecordError учитывает доменную ошибку, отданную клиенту.
func RecordError(kind string) {
	domainErrors.WithLabelValues(kind).Inc()
}

// RecordReconciled учитывает документы, исправленные проходом сверки.
func RecordReconciled(pass string, n int) {
	if n > 0 {
		reconciled.WithLabelValues(pass).Add(float64(n))
	}
}
