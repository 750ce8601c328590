package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct error", func(t *testing.T) {
		err := New(CodeNotFound, "item missing")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		inner := New(CodeConflict, "state clash")
		wrapped := fmt.Errorf("commit failed: %w", inner)
		assert.True(t, HasCode(wrapped, CodeConflict))
	})

	t.Run("false for plain errors", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})

	t.Run("false for nil", func(t *testing.T) {
		assert.False(t, HasCode(nil, CodeNotFound))
	})
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "store unavailable")

	require.True(t, errors.Is(err, cause))
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Contains(t, err.Error(), "store unavailable")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestValidationFields(t *testing.T) {
	t.Run("full map constructor", func(t *testing.T) {
		err := NewValidation(map[string][]string{
			"name":  {"must not be empty"},
			"owner": {"must be a valid UUID", "must not be the nil UUID"},
		})

		require.True(t, HasCode(err, CodeValidation))
		fields := FieldsOf(err)
		require.Len(t, fields, 2)
		assert.Equal(t, []string{"must not be empty"}, fields["name"])
		assert.Len(t, fields["owner"], 2)
	})

	t.Run("single pair convenience", func(t *testing.T) {
		err := NewFieldValidation("name", "must not be empty")

		require.True(t, HasCode(err, CodeValidation))
		assert.Equal(t, map[string][]string{"name": {"must not be empty"}}, FieldsOf(err))
	})

	t.Run("fields survive wrapping", func(t *testing.T) {
		err := fmt.Errorf("request rejected: %w", NewFieldValidation("state", "unknown state name"))
		assert.Equal(t, []string{"unknown state name"}, FieldsOf(err)["state"])
	})
}

func TestCodeOfFallsBackToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("driver: bad connection")))
}

func TestErrorsIsMatchesEquivalentConstruction(t *testing.T) {
	err := New(CodeUnauthorized, "token has expired")

	require.ErrorIs(t, err, New(CodeUnauthorized, "token has expired"))
	assert.NotErrorIs(t, err, New(CodeUnauthorized, "invalid token"))
	assert.NotErrorIs(t, err, New(CodeForbidden, "token has expired"))
}

func TestIsDomain(t *testing.T) {
	assert.True(t, IsDomain(New(CodeBusiness, "quota exhausted")))
	assert.True(t, IsDomain(fmt.Errorf("outer: %w", New(CodeForbidden, "not the owner"))))
	assert.False(t, IsDomain(errors.New("plain")))
}
