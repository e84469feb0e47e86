package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatingMetricsRecord(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewSeatingMetricsWithRegisterer(registry)

	m.RecordSeated()
	m.RecordSeated()
	m.RecordCleared()
	m.RecordTransition("booked", "seated")
	m.RecordRuleRejection("capacity")
	m.RecordRuleRejection("capacity")
	m.RecordCoordinationFailure("partial_assignment")
	m.RecordSagaDuration("seat", 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.seatings))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clears))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusTransitions.WithLabelValues("booked", "seated")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ruleRejections.WithLabelValues("capacity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.coordinationFailure.WithLabelValues("partial_assignment")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.sagaDuration))
}

func TestSeatingMetricsReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := NewSeatingMetricsWithRegisterer(registry)
	second := NewSeatingMetricsWithRegisterer(registry)

	first.RecordSeated()
	second.RecordSeated()

	assert.Equal(t, 2.0, testutil.ToFloat64(first.seatings))
}

func TestNilSeatingMetricsIsNoop(t *testing.T) {
	var m *SeatingMetrics
	require.NotPanics(t, func() {
		m.RecordSeated()
		m.RecordCleared()
		m.RecordTransition("booked", "cancelled")
		m.RecordRuleRejection("occupied")
		m.RecordCoordinationFailure("partial_clear")
		m.RecordSagaDuration("clear", time.Millisecond)
	})
}
