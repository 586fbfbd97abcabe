package bptree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssertNoopWhenDisabled(t *testing.T) {
	SetDebugAssertions(false)
	require.NotPanics(t, func() { assert(false, "never triggers") })
}

func TestAssertPanicsWhenEnabled(t *testing.T) {
	SetDebugAssertions(true)
	defer SetDebugAssertions(false)

	require.PanicsWithValue(t, assertionError{msg: "boom"}, func() {
		assert(false, "boom")
	})
}

func TestAssertionErrorUnwrapsToInvariantViolation(t *testing.T) {
	err := assertionError{msg: "boom"}
	require.True(t, errors.Is(err, ErrInvariantViolation))
	require.Contains(t, err.Error(), "boom")
}
