// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// metrics lives on its own registry per Host, so several hosts in one
// test binary never collide on registration.
type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	info     *prometheus.GaugeVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fnhost",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fnhost",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		info: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "fnhost",
				Subsystem: "host",
				Name:      "info",
				Help:      "Constant 1, labeled with the host instance.",
			},
			[]string{"instance_id", "version"},
		),
	}
	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.info,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) record(method, path string, status int, elapsed time.Duration) {
	statusLabel := strconv.Itoa(status)
	m.requests.WithLabelValues(method, path, statusLabel).Inc()
	m.duration.WithLabelValues(method, path, statusLabel).Observe(elapsed.Seconds())
}

// middleware records every request under its route pattern. Requests
// that match no route share the "unmatched" label.
func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.record(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
