// Package metrics provides Prometheus metrics for the dispatch engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reservation outcome label values.
const (
	OutcomeReserved    = "reserved"
	OutcomeAlternative = "alternative"
	OutcomeWaitlisted  = "waitlisted"
	OutcomeDuplicate   = "duplicate"
)

// Metrics holds all engine metrics.
type Metrics struct {
	EmergenciesScored prometheus.Counter
	EmergenciesQueued prometheus.Counter
	Dispatches        prometheus.Counter
	QueueDepth        prometheus.Gauge
	SeverityScores    prometheus.Histogram
	Reservations      *prometheus.CounterVec
	Admissions        prometheus.Counter
	BedsAvailable     *prometheus.GaugeVec
	DispatchDuration  prometheus.Histogram
}

// New creates and registers all metrics. A nil registerer uses the default
// registry; tests pass their own to stay isolated.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		EmergenciesScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ems_emergencies_scored_total",
			Help: "Total emergencies scored for severity",
		}),
		EmergenciesQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ems_emergencies_queued_total",
			Help: "Total emergencies added to the priority queue",
		}),
		Dispatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ems_dispatches_total",
			Help: "Total emergencies dispatched",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ems_queue_depth",
			Help: "Emergencies currently waiting in the priority queue",
		}),
		SeverityScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ems_severity_scores",
			Help:    "Distribution of computed severity scores",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		}),
		Reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ems_bed_reservations_total",
			Help: "Bed reservation attempts by outcome",
		}, []string{"outcome"}),
		Admissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ems_admissions_total",
			Help: "Total confirmed admissions",
		}),
		BedsAvailable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ems_beds_available",
			Help: "Available beds per type",
		}, []string{"bed_type"}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ems_dispatch_duration_seconds",
			Help:    "Time spent building one dispatch decision",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
	}

	reg.MustRegister(
		m.EmergenciesScored,
		m.EmergenciesQueued,
		m.Dispatches,
		m.QueueDepth,
		m.SeverityScores,
		m.Reservations,
		m.Admissions,
		m.BedsAvailable,
		m.DispatchDuration,
	)

	return m
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
