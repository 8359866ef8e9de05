package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_DeterministicForSeed(t *testing.T) {
	fleet := NewFleet(NewMachine("a", 10), NewMachine("b", 10))

	g1, err := NewGenerator(fleet, 42)
	require.NoError(t, err)
	g2, err := NewGenerator(fleet, 42)
	require.NoError(t, err)

	assert.Equal(t, g1.Batch(50), g2.Batch(50), "same seed over the same fleet yields the same stream")
}

func TestGenerator_RequiresFleet(t *testing.T) {
	_, err := NewGenerator(nil, 1)
	require.Error(t, err)
}

func TestGenerator_EmptyFleet(t *testing.T) {
	_, err := NewGenerator(NewFleet(), 1)
	require.Error(t, err)
}

func TestGenerator_EventShape(t *testing.T) {
	fleet := NewFleet(NewMachine("a", 10), NewMachine("b", 10), NewMachine("c", 10))
	g, err := NewGenerator(fleet, 7)
	require.NoError(t, err)

	known := map[string]bool{"a": true, "b": true, "c": true}
	var sales, refills int

	for _, ev := range g.Batch(200) {
		assert.True(t, known[ev.MachineID()], "machine IDs come from the fleet")

		switch e := ev.(type) {
		case SaleEvent:
			sales++
			assert.GreaterOrEqual(t, e.Quantity(), 1)
			assert.LessOrEqual(t, e.Quantity(), maxSaleQuantity)
		case RefillEvent:
			refills++
			assert.GreaterOrEqual(t, e.Quantity(), 1)
			assert.LessOrEqual(t, e.Quantity(), maxRefillQuantity)
		default:
			t.Fatalf("unexpected event type %T", ev)
		}
	}

	assert.Positive(t, sales)
	assert.Positive(t, refills)
	assert.Greater(t, sales, refills, "the mix is weighted toward sales")
}
