package broker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dispatch/internal/dispatch"
	"dispatch/internal/validator"
)

// record pins one subscriber to one event type. The broker keeps records in a
// single flat slice so insertion order doubles as delivery order.
type record struct {
	eventType string
	sub       dispatch.Subscriber
}

// Broker is the concrete implementation of the dispatch.Dispatcher interface.
// It keeps the subscription registry in memory and walks a snapshot of it on
// every publish, so handlers may subscribe and unsubscribe mid-dispatch
// without disturbing the delivery in progress.
//
// The broker holds no locks and must stay confined to a single goroutine.
// The one supported form of nesting is a Handle call re-entering the broker
// on the same call stack.
type Broker struct {
	records []record
	logger  *zap.Logger
}

// NewBroker creates a Broker with an empty registry.
func NewBroker(logger *zap.Logger) (*Broker, error) {
	b := Broker{
		logger: logger,
	}

	if err := validator.Validate("broker", b.logger); err != nil {
		return nil, fmt.Errorf("failed to validate broker deps: %w", err)
	}

	return &b, nil
}

// Publish implements dispatch.Dispatcher.Publish. The recipient set is
// snapshotted before the first delivery; registry changes made by recipients
// apply to future publishes only. A handler error stops the walk and is
// returned wrapped with the event type and the failing subscriber's kind,
// with that subscriber counted among the invoked.
func (b *Broker) Publish(ctx context.Context, ev dispatch.Event) (int, error) {
	if len(b.records) == 0 {
		return 0, nil
	}

	recipients := b.snapshot(ev.Type())
	if len(recipients) == 0 {
		return 0, nil
	}

	logger := b.logger.With(zap.String("eventType", ev.Type()), zap.String("machineId", ev.MachineID()))
	logger.Debug("dispatching event", zap.Int("recipients", len(recipients)))

	for i, sub := range recipients {
		if err := b.deliver(ctx, sub, ev); err != nil {
			logger.Debug("aborting dispatch", zap.String("kind", sub.Kind()), zap.Int("invoked", i+1))
			return i + 1, fmt.Errorf("failed to deliver %s event to subscriber %s: %w", ev.Type(), sub.Kind(), err)
		}
	}

	return len(recipients), nil
}

// deliver runs a single Handle call with the subscriber's in-flight flag
// raised. The deferred clear runs on every exit path, error and panic
// unwinding included.
func (b *Broker) deliver(ctx context.Context, sub dispatch.Subscriber, ev dispatch.Event) error {
	sub.SetPending(true)
	defer sub.SetPending(false)

	return sub.Handle(ctx, b, ev)
}

// snapshot copies the subscribers registered for eventType into a fresh
// slice. Unsubscribe reuses the registry's backing array, so the snapshot
// must never share it.
func (b *Broker) snapshot(eventType string) []dispatch.Subscriber {
	subs := make([]dispatch.Subscriber, 0, len(b.records))
	for _, rec := range b.records {
		if rec.eventType == eventType {
			subs = append(subs, rec.sub)
		}
	}

	return subs
}

// Subscribe implements dispatch.Dispatcher.Subscribe. Identity is the
// subscriber's Kind: a second instance reporting an already-registered kind
// for the same type is dropped, so a handler resubscribing itself during
// dispatch cannot double-register. A nil subscriber is ignored.
func (b *Broker) Subscribe(eventType string, sub dispatch.Subscriber) bool {
	if sub == nil {
		return false
	}

	for _, rec := range b.records {
		if rec.eventType == eventType && rec.sub.Kind() == sub.Kind() {
			b.logger.Debug("subscription already registered",
				zap.String("eventType", eventType), zap.String("kind", sub.Kind()))
			return false
		}
	}

	b.records = append(b.records, record{eventType: eventType, sub: sub})
	b.logger.Debug("subscribed", zap.String("eventType", eventType), zap.String("kind", sub.Kind()))

	return true
}

// Unsubscribe implements dispatch.Dispatcher.Unsubscribe. With no subscriber
// arguments every record for the type is dropped; otherwise matching is by
// Kind, so any instance of a handler cancels the registered one.
func (b *Broker) Unsubscribe(eventType string, subs ...dispatch.Subscriber) int {
	all := len(subs) == 0
	kinds := make(map[string]struct{}, len(subs))
	for _, sub := range subs {
		if sub != nil {
			kinds[sub.Kind()] = struct{}{}
		}
	}

	kept := b.records[:0]
	removed := 0
	for _, rec := range b.records {
		if rec.eventType == eventType {
			_, hit := kinds[rec.sub.Kind()]
			if all || hit {
				removed++
				continue
			}
		}
		kept = append(kept, rec)
	}
	b.records = kept

	if removed > 0 {
		b.logger.Debug("unsubscribed", zap.String("eventType", eventType), zap.Int("removed", removed))
	}

	return removed
}
