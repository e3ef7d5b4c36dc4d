// Package identity carries the authenticated actor through request context.
// Verifying who the actor is belongs to the external identity provider; this
// package only transports the resolved id and role.
package identity

import "context"

// Role is the portal-level role of an actor.
type Role string

const (
	RoleUser     Role = "user"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
	// RoleSystem marks internally initiated operations such as the
	// time-based completion sweep. It is never minted from a token.
	RoleSystem Role = "system"
)

// Valid reports whether r is a role a token may carry.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// Actor identifies who is performing a request.
type Actor struct {
	ID   string
	Role Role
}

type ctxKey string

const actorKey ctxKey = "portal.actor"

// WithActor stores the actor in context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext extracts the actor if present.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	val := ctx.Value(actorKey)
	if val == nil {
		return Actor{}, false
	}
	actor, ok := val.(Actor)
	return actor, ok && actor.ID != ""
}
