package transaction

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies a recorded transaction. Only consultation fees feed the
// individual-consultant distribution policy.
type Type string

const (
	TypeConsultationFee Type = "consultation_fee"
	TypeGrant           Type = "grant"
	TypeBulkPayment     Type = "bulk_payment"
	TypeOther           Type = "other"
)

func (t Type) Valid() bool {
	switch t {
	case TypeConsultationFee, TypeGrant, TypeBulkPayment, TypeOther:
		return true
	}
	return false
}

// Transaction is one recorded financial event. Recording it may trigger a
// commission distribution as a side effect.
type Transaction struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	Type                Type       `db:"transaction_type" json:"transaction_type"`
	Amount              float64    `db:"amount" json:"amount"`
	Currency            string     `db:"currency" json:"currency"`
	ConsultantID        *uuid.UUID `db:"consultant_id" json:"consultant_id,omitempty"`
	AssignmentRequestID *uuid.UUID `db:"assignment_request_id" json:"assignment_request_id,omitempty"`
	Description         string     `db:"description" json:"description"`
	RecordedBy          uuid.UUID  `db:"recorded_by" json:"recorded_by"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}
