package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// DetectRequestsTotal counts detect requests by outcome.
	DetectRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "riceguard",
		Subsystem: "detect",
		Name:      "requests_total",
		Help:      "Total number of detect requests, labeled by result.",
	}, []string{"result"})

	// DetectorLatencySeconds is the time spent inside the detector sidecar call.
	DetectorLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "riceguard",
		Subsystem: "detect",
		Name:      "detector_latency_seconds",
		Help:      "Latency of detector sidecar invocations.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	// SeverityTotal counts resolved results by severity tier.
	SeverityTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "riceguard",
		Subsystem: "detect",
		Name:      "severity_total",
		Help:      "Total number of resolved detections, labeled by severity tier.",
	}, []string{"severity"})

	// LesionCount observes the per-image lesion counts driving severity.
	LesionCount = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "riceguard",
		Subsystem: "detect",
		Name:      "lesion_count",
		Help:      "Number of boxes detected per image.",
		Buckets:   []float64{0, 1, 2, 3, 5, 7, 10, 15, 25},
	})
)

// Register registers riceguard metrics with the default Prometheus
// registry. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			DetectRequestsTotal,
			DetectorLatencySeconds,
			SeverityTotal,
			LesionCount,
		)
	})
}
