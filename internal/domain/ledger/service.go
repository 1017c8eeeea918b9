package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/consulthub/consulthub/internal/platform/auth"
)

var ErrForbidden = errors.New("caller may not access these earnings")

// Service exposes the earnings ledger and records new entries on behalf of
// the transaction orchestrator.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, log: logger}
}

// ValidatePolicies verifies the built-in distribution policies at startup.
func ValidatePolicies() error {
	for _, p := range []Policy{ConsultationFeePolicy, PartnershipPolicy} {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// RecordDistribution computes the split for a transaction under the given
// policy and persists exactly one ledger entry. A second call for the same
// transaction id fails with ErrDuplicateEntry.
func (s *Service) RecordDistribution(ctx context.Context, p Policy, transactionID uuid.UUID, consultantID *uuid.UUID, amount float64) (*ConsultantEarning, error) {
	dist, err := p.Distribute(amount)
	if err != nil {
		return nil, err
	}

	e := &ConsultantEarning{
		ID:             uuid.New(),
		ConsultantID:   consultantID,
		TransactionID:  transactionID,
		Amount:         dist.Amount,
		CommissionRate: dist.CommissionRate,
		NetEarning:     dist.NetEarning,
		WebsiteFee:     dist.WebsiteFee,
		TeamFee:        dist.TeamFee,
		Notes:          dist.Notes,
		PaymentStatus:  PaymentPending,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("persist ledger entry: %w", err)
	}
	return e, nil
}

// ListForActor returns earnings the caller may see: consultants their own,
// admins everything.
func (s *Service) ListForActor(ctx context.Context, actor auth.Actor, limit, offset int) ([]*ConsultantEarning, int, error) {
	if actor.Role == auth.RoleAdmin {
		return s.repo.List(ctx, limit, offset)
	}
	if actor.Role == auth.RoleConsultant {
		return s.repo.ListByConsultant(ctx, actor.UserID, limit, offset)
	}
	return nil, 0, ErrForbidden
}

// GetForActor returns a single entry, enforcing the same visibility rules as
// ListForActor.
func (s *Service) GetForActor(ctx context.Context, actor auth.Actor, id uuid.UUID) (*ConsultantEarning, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == auth.RoleAdmin {
		return e, nil
	}
	if actor.Role == auth.RoleConsultant && e.ConsultantID != nil && *e.ConsultantID == actor.UserID {
		return e, nil
	}
	return nil, ErrForbidden
}

// MarkPayment flips an entry's payment status. Admin only; the entry's
// monetary fields are immutable.
func (s *Service) MarkPayment(ctx context.Context, actor auth.Actor, id uuid.UUID, status PaymentStatus) (*ConsultantEarning, error) {
	if actor.Role != auth.RoleAdmin {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid payment status %q", status)
	}
	if err := s.repo.UpdatePaymentStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}
