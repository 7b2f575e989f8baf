package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors for the trip and billing engine.
type Metrics struct {
	TripTransitions   *prometheus.CounterVec
	ValidationRejects *prometheus.CounterVec
	ResourceConflicts *prometheus.CounterVec
	InvoicesGenerated prometheus.Counter
	InvoiceAmount     prometheus.Histogram
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TripTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "manifest",
			Name:      "trip_transitions_total",
			Help:      "Explicit trip status transitions by target status.",
		}, []string{"to"}),
		ValidationRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "manifest",
			Name:      "trip_validation_rejects_total",
			Help:      "Trip saves rejected by validation, by operation.",
		}, []string{"op"}),
		ResourceConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "manifest",
			Name:      "resource_conflicts_total",
			Help:      "Double-booking attempts detected, by resource kind.",
		}, []string{"resource"}),
		InvoicesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "manifest",
			Name:      "invoices_generated_total",
			Help:      "Invoices created from completed trips.",
		}),
		InvoiceAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "manifest",
			Name:      "invoice_amount",
			Help:      "Pre-tax amount of generated invoices.",
			Buckets:   []float64{50, 100, 150, 200, 300, 500, 1000},
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.TripTransitions,
			m.ValidationRejects,
			m.ResourceConflicts,
			m.InvoicesGenerated,
			m.InvoiceAmount,
		)
	}
	return m
}

// Nop returns unregistered collectors.
func Nop() *Metrics { return New(nil) }
