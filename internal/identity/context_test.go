package identity

import (
	"context"
	"testing"
)

func TestActorRoundTrip(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{ID: "user-1", Role: RoleUser})

	actor, ok := ActorFromContext(ctx)
	if !ok {
		t.Fatal("expected actor in context")
	}
	if actor.ID != "user-1" || actor.Role != RoleUser {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestActorFromContext_Missing(t *testing.T) {
	if _, ok := ActorFromContext(context.Background()); ok {
		t.Fatal("expected no actor in empty context")
	}
}

func TestActorFromContext_EmptyID(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{Role: RoleAdmin})
	if _, ok := ActorFromContext(ctx); ok {
		t.Fatal("expected actor with empty id to be rejected")
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleUser, RoleProvider, RoleAdmin} {
		if !role.Valid() {
			t.Errorf("expected %q to be valid", role)
		}
	}
	if RoleSystem.Valid() {
		t.Error("system role must not be mintable from tokens")
	}
	if Role("root").Valid() {
		t.Error("unknown role must be invalid")
	}
}
