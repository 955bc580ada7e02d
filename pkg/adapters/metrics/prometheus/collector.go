package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements ports.MetricsCollector using Prometheus
type Collector struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	submodels         prometheus.Gauge
	eventsPublished   *prometheus.CounterVec
	storeUp           *prometheus.GaugeVec
}

// NewCollector creates a collector registered on reg.
// A nil reg registers on the default registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smrepo_operations_total",
				Help: "Total number of repository operations by outcome",
			},
			[]string{"operation", "status"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smrepo_operation_duration_seconds",
				Help:    "Repository operation duration in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),
		submodels: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "smrepo_submodels",
				Help: "Number of stored submodels",
			},
		),
		eventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smrepo_events_published_total",
				Help: "Total number of submodel events published",
			},
			[]string{"type", "status"},
		),
		storeUp: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "smrepo_store_up",
				Help: "Whether the last store health check succeeded",
			},
			[]string{"backend"},
		),
	}
}

// RecordOperation records one repository operation
func (c *Collector) RecordOperation(operation, status string, duration time.Duration) {
	c.operations.WithLabelValues(operation, status).Inc()
	c.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetSubmodelCount sets the number of stored submodels
func (c *Collector) SetSubmodelCount(count int) {
	c.submodels.Set(float64(count))
}

// RecordEventPublished counts a published event
func (c *Collector) RecordEventPublished(eventType string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	c.eventsPublished.WithLabelValues(eventType, status).Inc()
}

// SetStoreUp records the last store health check result
func (c *Collector) SetStoreUp(backend string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	c.storeUp.WithLabelValues(backend).Set(v)
}
