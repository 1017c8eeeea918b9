package ledger

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks whether a consultant has been paid out for an entry.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentPaid
}

// ConsultantEarning is one immutable split of a transaction's amount. A nil
// ConsultantID marks a partnership-only distribution with no individual
// payee. Monetary fields keep full computed precision; rounding happens only
// in the Notes breakdown.
type ConsultantEarning struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	ConsultantID   *uuid.UUID    `db:"consultant_id" json:"consultant_id,omitempty"`
	TransactionID  uuid.UUID     `db:"transaction_id" json:"transaction_id"`
	Amount         float64       `db:"amount" json:"amount"`
	CommissionRate float64       `db:"commission_rate" json:"commission_rate"`
	NetEarning     float64       `db:"net_earning" json:"net_earning"`
	WebsiteFee     float64       `db:"website_fee" json:"website_fee"`
	TeamFee        float64       `db:"team_fee" json:"team_fee"`
	Notes          string        `db:"notes" json:"notes"`
	PaymentStatus  PaymentStatus `db:"payment_status" json:"payment_status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}
