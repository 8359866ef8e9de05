package broker

import (
	"context"
	"time"

	"dispatch/internal/dispatch"
	"dispatch/internal/dispatch/metrics"
)

// MetricsDispatcher wraps a dispatch.Dispatcher with metrics collection
type MetricsDispatcher struct {
	dispatcher dispatch.Dispatcher
	registry   *metrics.Registry
}

// NewMetricsDispatcher creates a new instrumented dispatcher
func NewMetricsDispatcher(dispatcher dispatch.Dispatcher, registry *metrics.Registry) dispatch.Dispatcher {
	return &MetricsDispatcher{
		dispatcher: dispatcher,
		registry:   registry,
	}
}

// Publish implements dispatch.Dispatcher.Publish with metrics collection
func (d *MetricsDispatcher) Publish(ctx context.Context, ev dispatch.Event) (int, error) {
	start := time.Now()

	invoked, err := d.dispatcher.Publish(ctx, ev)
	duration := time.Since(start)

	d.registry.RecordPublish(ev.Type(), invoked, duration, err)

	return invoked, err
}

// Subscribe implements dispatch.Dispatcher.Subscribe with metrics collection
func (d *MetricsDispatcher) Subscribe(eventType string, sub dispatch.Subscriber) bool {
	added := d.dispatcher.Subscribe(eventType, sub)

	d.registry.RecordSubscribe(eventType, added)

	return added
}

// Unsubscribe implements dispatch.Dispatcher.Unsubscribe with metrics collection
func (d *MetricsDispatcher) Unsubscribe(eventType string, subs ...dispatch.Subscriber) int {
	removed := d.dispatcher.Unsubscribe(eventType, subs...)

	d.registry.RecordUnsubscribe(eventType, removed)

	return removed
}
