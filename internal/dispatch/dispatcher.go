package dispatch

import "context"

// Dispatcher defines the interface for routing events to subscribers.
// The Dispatcher owns the subscription registry outright; no other component
// reads or writes it directly. Every operation below may be called
// re-entrantly from inside a Handle invocation it is currently driving.
type Dispatcher interface {
	// Publish delivers ev to every subscriber registered for ev.Type().
	// The set and order of recipients is frozen when Publish begins: a
	// snapshot of the matching registry records, in insertion order. Calls to
	// Subscribe or Unsubscribe made by a recipient during this Publish only
	// affect future Publish calls, never the snapshot being walked.
	// Around each recipient's Handle call the dispatcher raises and lowers
	// that subscriber's in-flight flag, on every exit path.
	// A handler error aborts the remaining recipients of this call and is
	// returned wrapped; publishing with an empty registry or a type nobody
	// subscribed to is a no-op.
	// Returns the number of subscribers invoked.
	Publish(ctx context.Context, ev Event) (int, error)

	// Subscribe appends a registry record for (eventType, sub). If a record
	// with the same type and subscriber kind already exists the call is a
	// no-op, keeping at most one record per (type, kind) pair.
	// Reports whether a new record was appended.
	Subscribe(eventType string, sub Subscriber) bool

	// Unsubscribe removes registry records for eventType. With no subscriber
	// arguments it removes every record for the type; with arguments it
	// removes only records whose subscriber kind matches one of the given
	// subscribers' kinds. Removing nothing is a silent no-op.
	// Returns the number of records removed.
	Unsubscribe(eventType string, subs ...Subscriber) int
}
