package transaction

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/consulthub/consulthub/internal/domain/ledger"
	"github.com/consulthub/consulthub/internal/platform/auth"
	"github.com/consulthub/consulthub/internal/platform/db"
)

var ErrValidation = errors.New("invalid transaction payload")

// RecordInput is the payload of the transaction-recording endpoint.
type RecordInput struct {
	Type                Type       `json:"transaction_type"`
	Amount              *float64   `json:"amount"`
	Currency            string     `json:"currency"`
	ConsultantID        *uuid.UUID `json:"consultant_id,omitempty"`
	AssignmentRequestID *uuid.UUID `json:"assignment_request_id,omitempty"`
	Description         string     `json:"description"`
	DistributeToTeam    bool       `json:"distribute_to_team"`
}

// Service records transactions and orchestrates commission distribution.
type Service struct {
	repo   Repository
	ledger *ledger.Service
	tx     db.Transactor
	log    zerolog.Logger
}

func NewService(repo Repository, ledgerSvc *ledger.Service, tx db.Transactor, logger zerolog.Logger) *Service {
	return &Service{repo: repo, ledger: ledgerSvc, tx: tx, log: logger}
}

// Record inserts the transaction and, when it qualifies, creates exactly one
// ledger entry in the same database transaction:
//
//   - consultation fees with a consultant get the consultation-fee policy
//   - other types distribute under the partnership policy only when the
//     caller explicitly asks, with a null consultant
//
// A transaction that never qualifies produces no ledger entry at all. The
// engine is never invoked with a missing or non-positive amount; such
// payloads reject the whole recording.
func (s *Service) Record(ctx context.Context, actor auth.Actor, in RecordInput) (*Transaction, *ledger.ConsultantEarning, error) {
	if !in.Type.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown transaction_type %q", ErrValidation, in.Type)
	}
	if in.Amount == nil {
		return nil, nil, fmt.Errorf("%w: amount is required", ErrValidation)
	}
	amount := *in.Amount
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, nil, fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	}
	if in.Type == TypeConsultationFee && in.ConsultantID == nil {
		return nil, nil, fmt.Errorf("%w: consultation_fee requires consultant_id", ErrValidation)
	}
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	txn := &Transaction{
		ID:                  uuid.New(),
		Type:                in.Type,
		Amount:              amount,
		Currency:            currency,
		ConsultantID:        in.ConsultantID,
		AssignmentRequestID: in.AssignmentRequestID,
		Description:         in.Description,
		RecordedBy:          actor.UserID,
	}

	var entry *ledger.ConsultantEarning
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, txn); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		switch {
		case txn.Type == TypeConsultationFee:
			var err error
			entry, err = s.ledger.RecordDistribution(ctx, ledger.ConsultationFeePolicy, txn.ID, txn.ConsultantID, amount)
			return err
		case in.DistributeToTeam:
			var err error
			entry, err = s.ledger.RecordDistribution(ctx, ledger.PartnershipPolicy, txn.ID, nil, amount)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return txn, entry, nil
}

// Get returns a recorded transaction.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns transactions newest first, narrowed by the filter.
func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Transaction, int, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown transaction_type %q", ErrValidation, f.Type)
	}
	return s.repo.List(ctx, f, limit, offset)
}
