package dispatch

import "context"

// Subscriber is a registered participant that processes events of the types
// it is subscribed to. Beyond handling events it exposes two capabilities the
// dispatch loop relies on: a stable kind tag that defines its registry
// identity, and an in-flight flag other subscribers may inspect mid-dispatch.
type Subscriber interface {
	// Kind returns the stable identity tag for this subscriber implementation.
	// The registry treats every instance reporting the same kind as the same
	// subscription slot: Subscribe de-duplicates on (type, kind) and
	// Unsubscribe removes records by kind rather than by instance. Two
	// independent instances of the same kind are therefore indistinguishable
	// to the dispatcher.
	Kind() string

	// Pending reports whether the dispatcher is currently delivering an event
	// to this subscriber. It is true only between the dispatcher raising the
	// flag immediately before this subscriber's Handle call and lowering it
	// when Handle returns, so another subscriber reading it mid-dispatch can
	// tell whether this one's effect for the current event has already been
	// applied or is still in progress.
	Pending() bool

	// SetPending updates the in-flight flag. It is reserved to the
	// dispatcher, which toggles it around every Handle invocation.
	SetPending(bool)

	// Handle processes one event. The dispatcher delivering the event passes
	// itself in, so a handler may call Subscribe, Unsubscribe, or Publish
	// re-entrantly during its own invocation; those calls take effect on the
	// live registry without disturbing the delivery in progress.
	Handle(ctx context.Context, d Dispatcher, ev Event) error
}
