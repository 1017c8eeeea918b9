package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrEarningNotFound = errors.New("earning not found")
	// ErrDuplicateEntry is returned when a ledger entry already exists for a
	// transaction. At most one entry is created per transaction id.
	ErrDuplicateEntry = errors.New("ledger entry already exists for transaction")
)

type Repository interface {
	Create(ctx context.Context, e *ConsultantEarning) error
	GetByID(ctx context.Context, id uuid.UUID) (*ConsultantEarning, error)
	GetByTransaction(ctx context.Context, transactionID uuid.UUID) (*ConsultantEarning, error)
	ListByConsultant(ctx context.Context, consultantID uuid.UUID, limit, offset int) ([]*ConsultantEarning, int, error)
	List(ctx context.Context, limit, offset int) ([]*ConsultantEarning, int, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error
}
