package identity

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides read access to user accounts.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Create(ctx context.Context, u *User) error
}
