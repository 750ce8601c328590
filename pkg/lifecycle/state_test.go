package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custos/pkg/domain-errors"
)

func TestStateNamesRoundTrip(t *testing.T) {
	for _, s := range []State{StateCreated, StateInactive, StateActive, StateEffective, StateTerminated} {
		parsed, err := ParseState(s.String())
		require.NoError(t, err, "state %s", s)
		assert.Equal(t, s, parsed)
	}
}

func TestStateTagsAreStable(t *testing.T) {
	// Serialized integer tags are part of the storage contract.
	assert.Equal(t, 0, int(StateCreated))
	assert.Equal(t, 1, int(StateInactive))
	assert.Equal(t, 2, int(StateActive))
	assert.Equal(t, 3, int(StateEffective))
	assert.Equal(t, 4, int(StateTerminated))
}

func TestParseStateRejectsUnknownNames(t *testing.T) {
	for _, input := range []string{"", "deleted", "ACTIVE", "Created"} {
		_, err := ParseState(input)
		require.Error(t, err, "input %q", input)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, StateActive.IsValid())
	assert.False(t, State(42).IsValid())
	assert.False(t, State(-1).IsValid())
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    State
		to      State
		allowed bool
	}{
		{StateCreated, StateActive, true},
		{StateActive, StateInactive, true},
		{StateActive, StateEffective, true},
		{StateInactive, StateActive, true},
		{StateEffective, StateInactive, true},

		{StateCreated, StateEffective, false},
		{StateInactive, StateEffective, false},
		{StateEffective, StateActive, false},
		// Terminated is terminal for every gated event.
		{StateTerminated, StateActive, false},
		{StateTerminated, StateInactive, false},
		{StateTerminated, StateEffective, false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestStateTextMarshalling(t *testing.T) {
	t.Run("known state serializes by name", func(t *testing.T) {
		text, err := StateEffective.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, "effective", string(text))
	})

	t.Run("unknown state refuses to serialize", func(t *testing.T) {
		_, err := State(99).MarshalText()
		require.Error(t, err)
	})

	t.Run("unmarshal validates the name", func(t *testing.T) {
		var s State
		require.NoError(t, s.UnmarshalText([]byte("terminated")))
		assert.Equal(t, StateTerminated, s)

		err := s.UnmarshalText([]byte("zombie"))
		require.Error(t, err)
	})
}
