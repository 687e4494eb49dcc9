package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	EnqueuedTotal     = prometheus.NewCounter(prometheus.CounterOpts{Name: "applications_enqueued_total", Help: "Jobs accepted into the application queue"})
	CompletedTotal    = prometheus.NewCounter(prometheus.CounterOpts{Name: "applications_completed_total", Help: "Applications confirmed submitted"})
	FailedTotal       = prometheus.NewCounter(prometheus.CounterOpts{Name: "applications_failed_total", Help: "Application attempts that failed"})
	RateDeferredTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "applications_rate_deferred_total", Help: "Drain loops deferred by the rate limiter"})
	SafetyStopsTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "applications_safety_stops_total", Help: "Drain loops stopped by the safety gate"})
	QueueDepthGauge   = prometheus.NewGauge(prometheus.GaugeOpts{Name: "applications_queue_depth", Help: "Active queue depth"})
)

// Handler exposes /metrics with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			EnqueuedTotal,
			CompletedTotal,
			FailedTotal,
			RateDeferredTotal,
			SafetyStopsTotal,
			QueueDepthGauge,
		)
	})
	return promhttp.Handler()
}
