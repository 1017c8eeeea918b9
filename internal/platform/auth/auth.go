// Package auth resolves the caller's identity and role from a bearer token
// and exposes them to the rest of the service as an Actor. The domain layer
// never parses credentials itself.
package auth

import (
	"context"

	"github.com/google/uuid"
)

// Role is the caller's platform role carried in the token.
type Role string

const (
	RoleClient     Role = "client"
	RoleConsultant Role = "consultant"
	RoleAdmin      Role = "admin"
)

// Valid reports whether the role is one the platform knows about.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleConsultant, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller handed to domain services.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// IsStaff reports whether the actor may perform consultant-side actions.
func (a Actor) IsStaff() bool {
	return a.Role == RoleConsultant || a.Role == RoleAdmin
}

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RoleKey   contextKey = "user_role"
)

// UserIDFromContext returns the authenticated user id, or "" if absent.
func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

// RoleFromContext returns the authenticated role, or "" if absent.
func RoleFromContext(ctx context.Context) Role {
	role, _ := ctx.Value(RoleKey).(Role)
	return role
}

// WithActor returns a context carrying the given actor's identity.
func WithActor(ctx context.Context, a Actor) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, a.UserID.String())
	return context.WithValue(ctx, RoleKey, a.Role)
}

// ActorFromContext assembles the Actor for the current request. ok is false
// when the request carries no usable identity.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	uid, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return Actor{}, false
	}
	role := RoleFromContext(ctx)
	if !role.Valid() {
		return Actor{}, false
	}
	return Actor{UserID: uid, Role: role}, true
}
