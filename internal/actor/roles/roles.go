// Package roles resolves the role set for an actor. Tokens carry a baseline
// role list; deployments that manage roles centrally plug in a Source and
// optionally cache it in Redis.
package roles

import (
	"context"
	"fmt"
	"slices"
	"strings"

	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	pstrings "custos/pkg/platform/strings"
)

// Source looks up the roles granted to an actor. A missing actor yields an
// empty slice, not an error.
type Source interface {
	RolesFor(ctx context.Context, actorID id.ActorID) ([]string, error)
}

// Static is a fixed in-process role table keyed by actor ID string. Useful
// for small deployments and tests.
type Static map[string][]string

func (s Static) RolesFor(_ context.Context, actorID id.ActorID) ([]string, error) {
	return slices.Clone(s[actorID.String()]), nil
}

// Merge unions the token's baseline roles with centrally managed ones,
// preserving first-seen order.
func Merge(tokenRoles, sourced []string) []string {
	return pstrings.Union(tokenRoles, sourced)
}

// ParseStatic decodes "actor-id:role|role" config entries into a Static
// table.
func ParseStatic(entries []string) (Static, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	table := make(Static, len(entries))
	for _, entry := range entries {
		actorRef, roleList, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, dErrors.NewFieldValidation("actor_roles",
				fmt.Sprintf("malformed entry %q: want actor-id:role|role", entry))
		}
		actorID, err := id.ParseActorID(actorRef)
		if err != nil {
			return nil, err
		}
		granted := pstrings.DedupeAndTrim(strings.Split(roleList, "|"))
		if len(granted) == 0 {
			return nil, dErrors.NewFieldValidation("actor_roles",
				fmt.Sprintf("entry %q grants no roles", entry))
		}
		table[actorID.String()] = granted
	}
	return table, nil
}
