package broker

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"dispatch/internal/dispatch"
	"dispatch/internal/dispatch/tracing"
)

// TracedDispatcher wraps a dispatch.Dispatcher with tracing.
// Layer order: TracedDispatcher -> MetricsDispatcher -> Broker (real thing).
// Handlers re-enter through the Broker directly, so spans cover the outer
// producer surface, not nested dispatches.
type TracedDispatcher struct {
	dispatcher dispatch.Dispatcher
	tracer     *tracing.Tracer
}

// NewTracedDispatcher creates a new traced dispatcher that wraps a metrics dispatcher
func NewTracedDispatcher(dispatcher dispatch.Dispatcher, tracer *tracing.Tracer) dispatch.Dispatcher {
	return &TracedDispatcher{
		dispatcher: dispatcher,
		tracer:     tracer,
	}
}

// Publish implements dispatch.Dispatcher.Publish with tracing
func (d *TracedDispatcher) Publish(ctx context.Context, ev dispatch.Event) (int, error) {
	ctx, span := d.tracer.StartSpan(ctx, "broker.publish")
	defer span.End()

	span.SetAttributes(
		d.tracer.EventAttributes(ev.Type(), ev.MachineID())...,
	)

	invoked, err := d.dispatcher.Publish(ctx, ev)

	if err != nil {
		d.tracer.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.SetAttributes(attribute.Int("dispatch.recipients", invoked))
	span.SetAttributes(d.tracer.ErrorAttributes(err)...)
	return invoked, err
}

// Subscribe implements dispatch.Dispatcher.Subscribe with tracing
func (d *TracedDispatcher) Subscribe(eventType string, sub dispatch.Subscriber) bool {
	_, span := d.tracer.StartSpan(context.Background(), "broker.subscribe")
	defer span.End()

	span.SetAttributes(
		d.tracer.RegistryAttributes("subscribe", eventType)...,
	)
	if sub != nil {
		span.SetAttributes(attribute.String("dispatch.subscriber_kind", sub.Kind()))
	}

	added := d.dispatcher.Subscribe(eventType, sub)

	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.Bool("dispatch.added", added))
	return added
}

// Unsubscribe implements dispatch.Dispatcher.Unsubscribe with tracing
func (d *TracedDispatcher) Unsubscribe(eventType string, subs ...dispatch.Subscriber) int {
	_, span := d.tracer.StartSpan(context.Background(), "broker.unsubscribe")
	defer span.End()

	span.SetAttributes(
		d.tracer.RegistryAttributes("unsubscribe", eventType)...,
	)
	span.SetAttributes(attribute.Int("dispatch.selectors", len(subs)))

	removed := d.dispatcher.Unsubscribe(eventType, subs...)

	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.Int("dispatch.removed", removed))
	return removed
}
