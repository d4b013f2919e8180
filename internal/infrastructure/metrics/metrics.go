package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/taskmaster/tracker/internal/domain/entities"
)

// Metrics holds the tracker's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry           *prometheus.Registry
	storeOperations    *prometheus.CounterVec
	storeFailures      *prometheus.CounterVec
	statusTransitions  *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
}

// New creates the collectors on a private registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		storeOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_store_operations_total",
				Help: "Total number of record file operations",
			},
			[]string{"store", "op"},
		),
		storeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_store_failures_total",
				Help: "Total number of record file operations that failed",
			},
			[]string{"store", "op"},
		),
		statusTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_status_transitions_total",
				Help: "Total number of accepted task status transitions",
			},
			[]string{"from", "to"},
		),
		validationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracker_validation_failures_total",
				Help: "Total number of rejected requests by field",
			},
			[]string{"field"},
		),
	}

	registry.MustRegister(
		m.storeOperations,
		m.storeFailures,
		m.statusTransitions,
		m.validationFailures,
		collectors.NewGoCollector(),
	)

	return m
}

// Registry returns the registry backing the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// StoreOperation counts one store operation and, if err is set, one failure
func (m *Metrics) StoreOperation(store, op string, err error) {
	if m == nil {
		return
	}
	m.storeOperations.WithLabelValues(store, op).Inc()
	if err != nil {
		m.storeFailures.WithLabelValues(store, op).Inc()
	}
}

func (m *Metrics) StatusTransition(from, to entities.TaskStatus) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(strconv.Itoa(int(from)), strconv.Itoa(int(to))).Inc()
}

func (m *Metrics) ValidationFailure(field string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(field).Inc()
}

// WriteTextfile dumps the registry in the node exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
