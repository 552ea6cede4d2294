package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the school module: lifecycle counters
// and durations on the temporal query paths.
type Metrics struct {
	SchoolsCreated   prometheus.Counter
	SchoolsUpdated   prometheus.Counter
	SchoolsDeleted   prometheus.Counter
	QueryDuration    *prometheus.HistogramVec
	VersionsReturned prometheus.Histogram
}

// New creates a Metrics instance with all school module metrics registered.
func New() *Metrics {
	return &Metrics{
		SchoolsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_schools_created_total",
			Help: "Total number of schools created",
		}),
		SchoolsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_schools_updated_total",
			Help: "Total number of school updates (new temporal versions)",
		}),
		SchoolsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registrar_schools_deleted_total",
			Help: "Total number of schools deleted",
		}),
		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_school_query_duration_seconds",
			Help:    "Duration of school query operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		VersionsReturned: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "registrar_school_versions_returned",
			Help:    "Number of temporal versions returned per history query",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
	}
}

// ObserveQuery records the duration of a named query operation.
func (m *Metrics) ObserveQuery(operation string, start time.Time) {
	m.QueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
