package transaction

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// ListFilter narrows a transaction listing. Zero values match everything.
type ListFilter struct {
	Type         Type
	ConsultantID *uuid.UUID
}

type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Transaction, int, error)
}
