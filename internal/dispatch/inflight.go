package dispatch

// Inflight provides a simple implementation of the in-flight flag half of the
// Subscriber contract. It can be embedded in subscriber implementations that
// need Pending/SetPending without writing the bookkeeping themselves.
//
// The flag is a plain bool: dispatch is confined to a single goroutine, so
// the only writer is the dispatcher toggling it around Handle calls and the
// only readers are handlers running inside the same dispatch.
type Inflight struct {
	pending bool
}

// Pending reports whether the owning subscriber's Handle call is executing.
func (f *Inflight) Pending() bool {
	return f.pending
}

// SetPending updates the in-flight flag.
func (f *Inflight) SetPending(p bool) {
	f.pending = p
}
