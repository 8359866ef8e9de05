// Package dispatch defines the in-process event dispatch contract: events,
// subscribers, and the dispatcher that routes one to the other. The package
// holds only types and interfaces; the concrete dispatcher lives in the
// broker subpackage.
package dispatch

// Event is an immutable fact about a single machine, routed to subscribers
// by its type tag. Implementations are value types with accessor methods;
// an event lives for exactly one Publish call and is never mutated.
type Event interface {
	// Type identifies the kind of event (e.g., "machine.sale", "machine.refill").
	Type() string

	// MachineID identifies the machine the event concerns.
	MachineID() string
}
