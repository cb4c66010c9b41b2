package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	summaryVec  *prometheus.SummaryVec
	counterVec  *prometheus.CounterVec
	rowsVec     *prometheus.HistogramVec
	failuresVec *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		summaryVec: factory.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request duration in seconds",
				Objectives: map[float64]float64{
					0.5:  0.05,
					0.9:  0.01,
					0.95: 0.005,
					0.99: 0.001,
				},
			},
			[]string{"method", "path", "status_code"},
		),
		counterVec: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		rowsVec: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dsdash_selected_rows",
				Help:    "Data-analyst rows left after selection and keyword filtering",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"section"},
		),
		failuresVec: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dsdash_section_failures_total",
				Help: "Dashboard sections that returned no data",
			},
			[]string{"section", "code"},
		),
	}
}

func (m *metrics) middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		duration := time.Since(start).Seconds()
		method := ctx.Request.Method
		path := ctx.FullPath()
		if path == "" {
			path = ctx.Request.URL.Path
		}
		statusCode := strconv.Itoa(ctx.Writer.Status())

		m.summaryVec.WithLabelValues(method, path, statusCode).Observe(duration)
		m.counterVec.WithLabelValues(method, path, statusCode).Inc()
	}
}
