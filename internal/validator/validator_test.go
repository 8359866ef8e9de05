package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AcceptsPresentDeps(t *testing.T) {
	n := 1
	require.NoError(t, Validate("component", &n, "name", 42, time.Second, map[string]int{"a": 1}))
}

func TestValidate_RejectsMissingDeps(t *testing.T) {
	var ptr *int

	tests := []struct {
		name string
		dep  any
	}{
		{name: "untyped nil", dep: nil},
		{name: "nil pointer", dep: ptr},
		{name: "nil map", dep: map[string]int(nil)},
		{name: "nil func", dep: (func())(nil)},
		{name: "empty string", dep: ""},
		{name: "zero int", dep: 0},
		{name: "zero duration", dep: time.Duration(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate("component", tt.dep)
			require.Error(t, err)
			assert.ErrorContains(t, err, "component")
		})
	}
}
