package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ceremonyStepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orchestra_ceremony_step_duration_seconds",
		Help:    "Duration of ceremony steps.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
	}, []string{"step"})

	ceremonyStepOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orchestra_ceremony_steps_total",
		Help: "Ceremony step outcomes.",
	}, []string{"step", "outcome"})
)

// ObserveStep records duration and outcome of one ceremony step.
func ObserveStep(step string, start time.Time, err error) {
	ceremonyStepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ceremonyStepOutcomes.WithLabelValues(step, outcome).Inc()
}
