package image

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spotbuild",
			Name:      "runs_total",
			Help:      "Total number of build runs by result",
		},
		[]string{"result"},
	)

	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "spotbuild",
			Name:      "run_duration_seconds",
			Help:      "Duration of build runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(30, 2, 8), // 30s to ~64min
		},
	)

	phaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spotbuild",
			Name:      "phase_duration_seconds",
			Help:      "Duration of build phases in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68min
		},
		[]string{"phase"},
	)

	terminationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spotbuild",
			Name:      "terminations_total",
			Help:      "Total number of termination requests by result",
		},
		[]string{"result"},
	)
)

// Build phases recorded in phase_duration_seconds.
const (
	phaseProvision = "provision"
	phaseBoot      = "boot"
	phaseConnect   = "connect"
	phaseBuild     = "build"
	phaseTerminate = "terminate"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// RegisterMetrics registers the build metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{runsTotal, runDuration, phaseDuration, terminationsTotal} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
