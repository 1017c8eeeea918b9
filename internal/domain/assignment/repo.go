package assignment

import (
	"context"

	"github.com/google/uuid"
)

type RequestRepository interface {
	Create(ctx context.Context, req *AssignmentRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*AssignmentRequest, error)
	// GetByIDForUpdate locks the row for the duration of the surrounding
	// transaction so concurrent transitions serialize.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*AssignmentRequest, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)
	Update(ctx context.Context, req *AssignmentRequest) error
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*AssignmentRequest, int, error)
	ListByConsultant(ctx context.Context, consultantID uuid.UUID, limit, offset int) ([]*AssignmentRequest, int, error)
	List(ctx context.Context, limit, offset int) ([]*AssignmentRequest, int, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *AssignmentMessage) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*AssignmentMessage, error)
}
