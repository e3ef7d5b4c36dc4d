// Package metrics exposes Prometheus collectors for the booking pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics counts booking outcomes and lifecycle transitions and
// tracks slot-generation latency.
type BookingMetrics struct {
	BookingsTotal    *prometheus.CounterVec
	TransitionsTotal *prometheus.CounterVec
	SlotGenSeconds   prometheus.Histogram
}

// NewBookingMetrics builds the collectors and registers them with reg.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		BookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "appointments",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome.",
		}, []string{"outcome"}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "appointments",
			Name:      "transitions_total",
			Help:      "Lifecycle transitions by operation and outcome.",
		}, []string{"operation", "outcome"}),
		SlotGenSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "appointments",
			Name:      "slot_generation_seconds",
			Help:      "Time spent expanding weekly availability into slots.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.BookingsTotal, m.TransitionsTotal, m.SlotGenSeconds)
	}
	return m
}

// RecordBooking counts one booking attempt.
func (m *BookingMetrics) RecordBooking(outcome string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(outcome).Inc()
}

// RecordTransition counts one lifecycle transition attempt.
func (m *BookingMetrics) RecordTransition(operation, outcome string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveSlotGen records one slot-generation duration in seconds.
func (m *BookingMetrics) ObserveSlotGen(seconds float64) {
	if m == nil {
		return
	}
	m.SlotGenSeconds.Observe(seconds)
}
