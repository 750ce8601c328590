package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

func TestStaticRolesFor(t *testing.T) {
	actorID := id.NewActorID()
	source := Static{
		actorID.String(): {"admin", "editor"},
	}

	got, err := source.RolesFor(context.Background(), actorID)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "editor"}, got)

	// Unknown actors resolve to no roles, not an error.
	got, err = source.RolesFor(context.Background(), id.NewActorID())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStaticReturnsCopy(t *testing.T) {
	actorID := id.NewActorID()
	source := Static{actorID.String(): {"admin"}}

	got, _ := source.RolesFor(context.Background(), actorID)
	got[0] = "mutated"

	again, _ := source.RolesFor(context.Background(), actorID)
	assert.Equal(t, []string{"admin"}, again)
}

func TestMerge(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Merge([]string{"a", "b"}, []string{"b", "c"}))
	assert.Equal(t, []string{"a"}, Merge([]string{"a"}, nil))
	assert.Equal(t, []string{"a"}, Merge(nil, []string{"a"}))
	assert.Empty(t, Merge(nil, nil))
}

func TestParseStatic(t *testing.T) {
	adminID := id.NewActorID()
	editorID := id.NewActorID()

	table, err := ParseStatic([]string{
		adminID.String() + ":admin|auditor| admin ",
		editorID.String() + ":editor",
	})
	require.NoError(t, err)

	got, err := table.RolesFor(context.Background(), adminID)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "auditor"}, got)

	got, err = table.RolesFor(context.Background(), editorID)
	require.NoError(t, err)
	assert.Equal(t, []string{"editor"}, got)
}

func TestParseStaticEmpty(t *testing.T) {
	table, err := ParseStatic(nil)
	require.NoError(t, err)
	assert.Nil(t, table)
}

func TestParseStaticMalformed(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{"missing separator", "no-colon-here"},
		{"bad actor id", "not-a-uuid:admin"},
		{"no roles", id.NewActorID().String() + ":  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStatic([]string{tt.entry})
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}
