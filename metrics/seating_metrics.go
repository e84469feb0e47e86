// Package metrics exposes prometheus collectors for seating and status flows.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SeatingMetrics holds the collectors recorded by the reservation services.
// A nil *SeatingMetrics records nothing.
type SeatingMetrics struct {
	seatings            prometheus.Counter
	clears              prometheus.Counter
	statusTransitions   *prometheus.CounterVec
	ruleRejections      *prometheus.CounterVec
	coordinationFailure *prometheus.CounterVec
	sagaDuration        *prometheus.HistogramVec
}

// NewSeatingMetrics registers on the default registerer.
func NewSeatingMetrics() *SeatingMetrics {
	return NewSeatingMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewSeatingMetricsWithRegisterer(registerer prometheus.Registerer) *SeatingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &SeatingMetrics{
		seatings: registerCounter(registerer, prometheus.CounterOpts{
			Name: "periodic_tables_seatings_total",
			Help: "Total number of reservations seated at a table",
		}),
		clears: registerCounter(registerer, prometheus.CounterOpts{
			Name: "periodic_tables_clears_total",
			Help: "Total number of tables cleared",
		}),
		statusTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "periodic_tables_status_transitions_total",
			Help: "Reservation status transitions by source and target status",
		}, []string{"from", "to"}),
		ruleRejections: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "periodic_tables_rule_rejections_total",
			Help: "Requests rejected by a business rule, by rule code",
		}, []string{"code"}),
		coordinationFailure: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "periodic_tables_coordination_failures_total",
			Help: "Seating or clearing sagas that could not be compensated",
		}, []string{"code"}),
		sagaDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "periodic_tables_saga_duration_seconds",
			Help:    "Duration of seat and clear sagas in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"saga"}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

func (m *SeatingMetrics) RecordSeated() {
	if m == nil {
		return
	}
	m.seatings.Inc()
}

func (m *SeatingMetrics) RecordCleared() {
	if m == nil {
		return
	}
	m.clears.Inc()
}

func (m *SeatingMetrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

func (m *SeatingMetrics) RecordRuleRejection(code string) {
	if m == nil {
		return
	}
	m.ruleRejections.WithLabelValues(code).Inc()
}

func (m *SeatingMetrics) RecordCoordinationFailure(code string) {
	if m == nil {
		return
	}
	m.coordinationFailure.WithLabelValues(code).Inc()
}

// RecordSagaDuration observes how long the named saga ("seat", "clear") ran.
func (m *SeatingMetrics) RecordSagaDuration(saga string, d time.Duration) {
	if m == nil {
		return
	}
	m.sagaDuration.WithLabelValues(saga).Observe(d.Seconds())
}
