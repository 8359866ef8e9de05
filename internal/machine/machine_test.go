package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_RemoveFloorsAtZero(t *testing.T) {
	m := NewMachine("vm-1", 5)

	assert.Equal(t, 3, m.Remove(3))
	assert.Equal(t, 2, m.Stock())

	assert.Equal(t, 2, m.Remove(10), "removal is capped at the remaining stock")
	assert.Zero(t, m.Stock())

	assert.Zero(t, m.Remove(1))
	assert.Zero(t, m.Stock())
	assert.Zero(t, m.Remove(-1))
}

func TestMachine_AddIgnoresNonPositive(t *testing.T) {
	m := NewMachine("vm-1", 0)

	m.Add(4)
	assert.Equal(t, 4, m.Stock())

	m.Add(0)
	m.Add(-2)
	assert.Equal(t, 4, m.Stock())
}

func TestFleet_LookupAndOrder(t *testing.T) {
	a := NewMachine("a", 1)
	b := NewMachine("b", 2)
	dupe := NewMachine("a", 99)

	f := NewFleet(a, b, dupe)

	assert.Equal(t, 2, f.Size())
	assert.Equal(t, []string{"a", "b"}, f.IDs())

	got, err := f.Machine("a")
	require.NoError(t, err)
	assert.Same(t, a, got, "the first registration wins over a duplicate ID")

	_, err = f.Machine("ghost")
	require.ErrorIs(t, err, ErrUnknownMachine)
}

func TestFleet_IDsCallerOwned(t *testing.T) {
	f := NewFleet(NewMachine("a", 1), NewMachine("b", 1))

	ids := f.IDs()
	ids[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, f.IDs())
}
