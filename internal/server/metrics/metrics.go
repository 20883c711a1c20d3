// Package metrics exposes service counters over a private Prometheus
// registry. Nothing is registered globally.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "auth"

type Collector struct {
	registry *prometheus.Registry

	requests   *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	operations *prometheus.CounterVec
}

// New registers the service metrics on a fresh registry. started is the
// reference point for auth_uptime_seconds.
func New(service, version string, started time.Time) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of requests.",
		}, []string{"transport", "route", "code"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transport", "route"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Identity operations by outcome.",
		}, []string{"op", "outcome"}),
	}

	uptime := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "uptime_seconds",
		Help:      "Service uptime in seconds.",
	}, func() float64 { return time.Since(started).Seconds() })

	info := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "info",
		Help:        "Service information.",
		ConstLabels: prometheus.Labels{"version": version, "service": service},
	})
	info.Set(1)

	reg.MustRegister(
		c.requests,
		c.durations,
		c.operations,
		uptime,
		info,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveRequest records one finished HTTP or gRPC request.
func (c *Collector) ObserveRequest(transport, route string, code int, took time.Duration) {
	c.requests.WithLabelValues(transport, route, strconv.Itoa(code)).Inc()
	c.durations.WithLabelValues(transport, route).Observe(took.Seconds())
}

// AuthEvent implements services.Recorder.
func (c *Collector) AuthEvent(op, outcome string) {
	c.operations.WithLabelValues(op, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
