package machine

import (
	"errors"
	"fmt"
	"math/rand"

	"dispatch/internal/dispatch"
	"dispatch/internal/validator"
)

const (
	maxSaleQuantity   = 3
	maxRefillQuantity = 10

	// saleWeight is how many events out of ten are sales; the rest are
	// refills.
	saleWeight = 7
)

// Generator produces a randomized stream of sale and refill events over a
// fleet. The same seed over the same fleet yields the same stream.
type Generator struct {
	rng *rand.Rand
	ids []string
}

// NewGenerator creates a generator seeded with seed, drawing machine IDs
// from the fleet.
func NewGenerator(fleet *Fleet, seed int64) (*Generator, error) {
	if err := validator.Validate("generator", fleet); err != nil {
		return nil, fmt.Errorf("failed to validate generator deps: %w", err)
	}

	g := Generator{
		rng: rand.New(rand.NewSource(seed)),
		ids: fleet.IDs(),
	}

	if len(g.ids) == 0 {
		return nil, errors.New("fleet has no machines")
	}

	return &g, nil
}

// Next returns one random event for a random machine. Sale quantities are
// uniform in [1, 3], refill quantities in [1, 10].
func (g *Generator) Next() dispatch.Event {
	id := g.ids[g.rng.Intn(len(g.ids))]

	if g.rng.Intn(10) < saleWeight {
		return NewSaleEvent(id, 1+g.rng.Intn(maxSaleQuantity))
	}

	return NewRefillEvent(id, 1+g.rng.Intn(maxRefillQuantity))
}

// Batch returns the next n events of the stream.
func (g *Generator) Batch(n int) []dispatch.Event {
	events := make([]dispatch.Event, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, g.Next())
	}

	return events
}
