package telemetry

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FramesProcessed counts batches that produced adjusted output.
	FramesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geomagd_frames_processed_total",
		Help: "Observation frames successfully adjusted and pushed to sinks.",
	})

	// FramesSkipped counts batches rejected by the availability check.
	FramesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geomagd_frames_skipped_total",
		Help: "Observation frames skipped for insufficient channel coverage.",
	})

	// FramesFailed counts decode or transform failures.
	FramesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geomagd_frames_failed_total",
		Help: "Observation frames that failed to decode or transform.",
	})

	// StateLoadFallbacks counts calibration loads that fell back to the
	// identity baseline.
	StateLoadFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geomagd_state_load_fallbacks_total",
		Help: "Calibration loads that used the identity default.",
	})

	// ProcessDuration observes per-batch transform latency.
	ProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "geomagd_process_duration_seconds",
		Help:    "Wall time spent adjusting one observation frame.",
		Buckets: prometheus.DefBuckets,
	})
)

func Expose(port int) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
	}()
}
