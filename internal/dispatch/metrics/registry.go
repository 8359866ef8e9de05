package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry encapsulates all metrics and provides a clean interface
// for recording metrics without global state
type Registry struct {
	registry *prometheus.Registry

	// Publish metrics
	publishTotal      *prometheus.CounterVec
	publishDuration   *prometheus.HistogramVec
	publishRecipients *prometheus.HistogramVec
	deliveriesTotal   *prometheus.CounterVec

	// Registry mutation metrics
	subscribeTotal       *prometheus.CounterVec
	unsubscribeTotal     *prometheus.CounterVec
	subscriptionsRemoved *prometheus.CounterVec

	// Machine metrics
	machineStock        *prometheus.GaugeVec
	unitsSoldTotal      *prometheus.CounterVec
	unitsRefilledTotal  *prometheus.CounterVec
	salesSuspendedTotal prometheus.Counter

	// System health metrics
	systemInfo *prometheus.GaugeVec
	startTime  prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()

	r := &Registry{
		registry: registry,

		// Publish metrics
		publishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_publish_total",
				Help: "Total number of publish operations",
			},
			[]string{"event_type", "status"}, // status: success, error
		),

		publishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispatch_publish_duration_seconds",
				Help:    "Time spent dispatching a single event to its subscribers",
				Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"event_type"},
		),

		publishRecipients: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dispatch_recipients",
				Help:    "Number of subscribers invoked per publish",
				Buckets: []float64{0, 1, 2, 3, 5, 10, 25, 50},
			},
			[]string{"event_type"},
		),

		deliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_deliveries_total",
				Help: "Total number of handler invocations",
			},
			[]string{"event_type"},
		),

		// Registry mutation metrics
		subscribeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_subscribe_total",
				Help: "Total number of subscribe operations",
			},
			[]string{"event_type", "outcome"}, // outcome: added, duplicate
		),

		unsubscribeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_unsubscribe_total",
				Help: "Total number of unsubscribe operations",
			},
			[]string{"event_type"},
		),

		subscriptionsRemoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_subscriptions_removed_total",
				Help: "Total number of subscription records removed",
			},
			[]string{"event_type"},
		),

		// Machine metrics
		machineStock: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "machine_stock",
				Help: "Current stock level per machine",
			},
			[]string{"machine"},
		),

		unitsSoldTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "machine_units_sold_total",
				Help: "Total units removed by sales",
			},
			[]string{"machine"},
		),

		unitsRefilledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "machine_units_refilled_total",
				Help: "Total units added by refills",
			},
			[]string{"machine"},
		),

		salesSuspendedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "machine_sales_suspended_total",
				Help: "Times sale processing was suspended on a low stock alert",
			},
		),

		// System health metrics
		systemInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dispatch_system_info",
				Help: "System information (value is always 1, labels contain info)",
			},
			[]string{"version", "build_time"},
		),

		startTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dispatch_start_time_seconds",
				Help: "Unix timestamp when the application started",
			},
		),
	}

	// add default Go metrics (memory, GC, goroutines, etc.)
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Register application metrics
	registry.MustRegister(
		r.publishTotal,
		r.publishDuration,
		r.publishRecipients,
		r.deliveriesTotal,
		r.subscribeTotal,
		r.unsubscribeTotal,
		r.subscriptionsRemoved,
		r.machineStock,
		r.unitsSoldTotal,
		r.unitsRefilledTotal,
		r.salesSuspendedTotal,
		r.systemInfo,
		r.startTime,
	)

	// Set start time
	r.startTime.SetToCurrentTime()

	return r
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          r.registry,
	})
}

// RecordPublish records one publish operation. invoked counts the handlers
// actually called, which on an aborted dispatch is fewer than the snapshot.
func (r *Registry) RecordPublish(eventType string, invoked int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	r.publishTotal.WithLabelValues(eventType, status).Inc()
	r.publishDuration.WithLabelValues(eventType).Observe(duration.Seconds())
	r.publishRecipients.WithLabelValues(eventType).Observe(float64(invoked))
	if invoked > 0 {
		r.deliveriesTotal.WithLabelValues(eventType).Add(float64(invoked))
	}
}

// RecordSubscribe records a subscribe operation and whether it appended a record
func (r *Registry) RecordSubscribe(eventType string, added bool) {
	outcome := "added"
	if !added {
		outcome = "duplicate"
	}

	r.subscribeTotal.WithLabelValues(eventType, outcome).Inc()
}

// RecordUnsubscribe records an unsubscribe operation and the records it removed
func (r *Registry) RecordUnsubscribe(eventType string, removed int) {
	r.unsubscribeTotal.WithLabelValues(eventType).Inc()
	if removed > 0 {
		r.subscriptionsRemoved.WithLabelValues(eventType).Add(float64(removed))
	}
}

// UpdateMachineStock updates the stock gauge for a machine
func (r *Registry) UpdateMachineStock(machine string, stock int) {
	r.machineStock.WithLabelValues(machine).Set(float64(stock))
}

// RecordUnitsSold records units removed from a machine by a sale
func (r *Registry) RecordUnitsSold(machine string, units int) {
	r.unitsSoldTotal.WithLabelValues(machine).Add(float64(units))
}

// RecordUnitsRefilled records units added to a machine by a refill
func (r *Registry) RecordUnitsRefilled(machine string, units int) {
	r.unitsRefilledTotal.WithLabelValues(machine).Add(float64(units))
}

// RecordSalesSuspended records a suspension of sale processing
func (r *Registry) RecordSalesSuspended() {
	r.salesSuspendedTotal.Inc()
}

// SetSystemInfo sets system information metrics
func (r *Registry) SetSystemInfo(version, buildTime string) {
	r.systemInfo.WithLabelValues(version, buildTime).Set(1)
}
