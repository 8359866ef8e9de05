// Package machine holds the vending machine simulation: the machines
// themselves, the inventory events routed between them, and the handlers
// that react to those events through a dispatch.Dispatcher.
package machine

import (
	"errors"
	"fmt"
)

// ErrUnknownMachine is returned by Fleet lookups for IDs that were never
// registered.
var ErrUnknownMachine = errors.New("unknown machine")

// Machine is a single vending machine's inventory record. It is a plain
// mutable value with no synchronization; all mutation happens on the
// dispatch goroutine.
type Machine struct {
	id    string
	stock int
}

// NewMachine creates a machine holding stock units.
func NewMachine(id string, stock int) *Machine {
	return &Machine{
		id:    id,
		stock: stock,
	}
}

// ID returns the machine identifier.
func (m *Machine) ID() string {
	return m.id
}

// Stock returns the current stock level.
func (m *Machine) Stock() int {
	return m.stock
}

// Remove takes up to n units out of the machine and returns the number
// actually removed, which is less than n when stock runs short. Stock never
// goes negative.
func (m *Machine) Remove(n int) int {
	if n <= 0 || m.stock == 0 {
		return 0
	}
	if n > m.stock {
		n = m.stock
	}
	m.stock -= n

	return n
}

// Add puts n units into the machine. Non-positive n is ignored.
func (m *Machine) Add(n int) {
	if n > 0 {
		m.stock += n
	}
}

// Fleet is the set of machines under simulation, addressable by ID and
// iterable in registration order.
type Fleet struct {
	machines map[string]*Machine
	ids      []string
}

// NewFleet builds a fleet from the given machines. A machine whose ID is
// already registered is dropped.
func NewFleet(machines ...*Machine) *Fleet {
	f := Fleet{
		machines: make(map[string]*Machine, len(machines)),
	}

	for _, m := range machines {
		if _, ok := f.machines[m.ID()]; ok {
			continue
		}
		f.machines[m.ID()] = m
		f.ids = append(f.ids, m.ID())
	}

	return &f
}

// Machine looks up a machine by ID.
func (f *Fleet) Machine(id string) (*Machine, error) {
	m, ok := f.machines[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMachine, id)
	}

	return m, nil
}

// IDs returns the machine IDs in registration order. The caller owns the
// returned slice.
func (f *Fleet) IDs() []string {
	ids := make([]string, len(f.ids))
	copy(ids, f.ids)

	return ids
}

// Size returns the number of machines in the fleet.
func (f *Fleet) Size() int {
	return len(f.ids)
}
