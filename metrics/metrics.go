package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var EntitiesProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wccleanup_entities_processed_total",
		Help: "Entities processed by deletion runs, by entity type and outcome.",
	},
	[]string{"entity", "outcome"},
)

var BatchRunDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "wccleanup_batch_run_duration_seconds",
		Help:    "Duration of a full deletion run.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	},
	[]string{"entity"},
)

var CacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wccleanup_cache_lookups_total",
		Help: "Count cache lookups, by result.",
	},
	[]string{"result"},
)

var TotalRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wccleanup_http_requests_total",
		Help: "Number of HTTP requests.",
	},
	[]string{"operation", "code", "method"},
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{EntitiesProcessed, BatchRunDuration, CacheLookups, TotalRequests} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

func ObserveRun(entity string, deleted, skipped, errored int, elapsed time.Duration) {
	EntitiesProcessed.WithLabelValues(entity, "deleted").Add(float64(deleted))
	EntitiesProcessed.WithLabelValues(entity, "skipped").Add(float64(skipped))
	EntitiesProcessed.WithLabelValues(entity, "errored").Add(float64(errored))
	BatchRunDuration.WithLabelValues(entity).Observe(elapsed.Seconds())
}
