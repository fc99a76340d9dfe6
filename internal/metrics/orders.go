// Package metrics exposes Prometheus instrumentation for the order engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Failure reasons recorded by order_create_failures_total.
const (
	ReasonValidation        = "validation"
	ReasonNotFound          = "not_found"
	ReasonInsufficientStock = "insufficient_stock"
	ReasonCodeExhausted     = "code_exhausted"
	ReasonStorage           = "storage"
)

// OrderMetrics records order lifecycle events. A nil *OrderMetrics is a
// valid no-op recorder.
type OrderMetrics struct {
	created    prometheus.Counter
	failures   *prometheus.CounterVec
	collisions prometheus.Counter
	duration   prometheus.Histogram
	updates    *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return nil
	}
	m := &OrderMetrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders committed successfully.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_create_failures_total",
			Help: "Order creations rolled back, by reason.",
		}, []string{"reason"}),
		collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pickup_code_collisions_total",
			Help: "Pickup codes discarded because another order holds them.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "order_create_duration_seconds",
			Help:    "Duration of order creation transactions in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_updates_total",
			Help: "Order status and payment updates, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.created, m.failures, m.collisions, m.duration, m.updates)
	return m
}

// OrderCreated records a committed order and how long it took.
func (m *OrderMetrics) OrderCreated(took time.Duration) {
	if m == nil {
		return
	}
	m.created.Inc()
	m.duration.Observe(took.Seconds())
}

// CreateFailed records a rolled back creation.
func (m *OrderMetrics) CreateFailed(reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// PickupCodeCollision records a discarded pickup code.
func (m *OrderMetrics) PickupCodeCollision() {
	if m == nil {
		return
	}
	m.collisions.Inc()
}

// OrderUpdated records the outcome of a status or payment update.
func (m *OrderMetrics) OrderUpdated(result string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
