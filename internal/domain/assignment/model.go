package assignment

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an assignment request.
type Status string

const (
	StatusPending        Status = "pending"
	StatusPriceProposed  Status = "price_proposed"
	StatusNegotiating    Status = "negotiating"
	StatusPaymentPending Status = "payment_pending"
	StatusInProgress     Status = "in_progress"
	StatusCompleted      Status = "completed"
	StatusRejected       Status = "rejected"
)

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPriceProposed, StatusNegotiating,
		StatusPaymentPending, StatusInProgress, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// PricingBearing reports whether a proposed price is on the table awaiting a
// client response.
func (s Status) PricingBearing() bool {
	return s == StatusPriceProposed
}

// MessageType categorizes an entry in an assignment's audit/communication thread.
type MessageType string

const (
	MessagePriceProposal MessageType = "price_proposal"
	MessageAcceptance    MessageType = "acceptance"
	MessageRejection     MessageType = "rejection"
	MessagePriceCounter  MessageType = "price_counter"
	MessageGeneral       MessageType = "general"
)

// AssignmentRequest maps to the assignment_requests table. A client submits
// it, a consultant prices it, and the two negotiate until the request is
// rejected or paid for and work starts.
//
// ConsultantID is null only while the request is pending; the first pricing
// action sets it permanently. FinalPrice always mirrors ProposedPrice when a
// price-setting transition fires.
type AssignmentRequest struct {
	ID                 uuid.UUID   `db:"id" json:"id"`
	ClientID           uuid.UUID   `db:"client_id" json:"client_id"`
	ConsultantID       *uuid.UUID  `db:"consultant_id" json:"consultant_id,omitempty"`
	Title              string      `db:"title" json:"title"`
	Description        string      `db:"description" json:"description"`
	Status             Status      `db:"status" json:"status"`
	ProposedPrice      *float64    `db:"proposed_price" json:"proposed_price,omitempty"`
	FinalPrice         *float64    `db:"final_price" json:"final_price,omitempty"`
	NegotiatedPrice    *float64    `db:"negotiated_price" json:"negotiated_price,omitempty"`
	Currency           string      `db:"currency" json:"currency"`
	ConsultantNotes    *string     `db:"consultant_notes" json:"consultant_notes,omitempty"`
	NegotiationMessage *string     `db:"negotiation_message" json:"negotiation_message,omitempty"`
	RejectionReason    *string     `db:"rejection_reason" json:"rejection_reason,omitempty"`
	PaymentMethod      *string     `db:"payment_method" json:"payment_method,omitempty"`
	BriefBlobID        *string     `db:"brief_blob_id" json:"-"`
	BriefFilename      *string     `db:"brief_filename" json:"-"`
	ReceiptBlobID      *string     `db:"receipt_blob_id" json:"-"`
	ReceiptFilename    *string     `db:"receipt_filename" json:"-"`
	PriceProposedAt    *time.Time  `db:"price_proposed_at" json:"price_proposed_at,omitempty"`
	ReviewedAt         *time.Time  `db:"reviewed_at" json:"reviewed_at,omitempty"`
	AcceptedAt         *time.Time  `db:"accepted_at" json:"accepted_at,omitempty"`
	RejectedAt         *time.Time  `db:"rejected_at" json:"rejected_at,omitempty"`
	PaymentVerifiedAt  *time.Time  `db:"payment_verified_at" json:"payment_verified_at,omitempty"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updated_at"`
}

// AssignmentMessage maps to the assignment_messages table. Exactly one row is
// appended per successful state transition; rows are never updated or deleted.
type AssignmentMessage struct {
	ID                  uuid.UUID   `db:"id" json:"id"`
	AssignmentRequestID uuid.UUID   `db:"assignment_request_id" json:"assignment_request_id"`
	SenderID            uuid.UUID   `db:"sender_id" json:"sender_id"`
	Type                MessageType `db:"message_type" json:"message_type"`
	Message             string      `db:"message" json:"message"`
	CreatedAt           time.Time   `db:"created_at" json:"created_at"`
}

// Detail is the read-model for a single assignment request. Binary attachment
// fields are replaced by presence flags; raw bytes never travel alongside
// metadata.
type Detail struct {
	AssignmentRequest
	ClientName     string `json:"client_name"`
	ConsultantName string `json:"consultant_name,omitempty"`
	HasAttachment  bool   `json:"has_attachment"`
	HasReceipt     bool   `json:"has_receipt"`
}

// NewDetail builds the read-model for a request with joined display names.
func NewDetail(req *AssignmentRequest, clientName, consultantName string) *Detail {
	return &Detail{
		AssignmentRequest: *req,
		ClientName:        clientName,
		ConsultantName:    consultantName,
		HasAttachment:     req.BriefBlobID != nil,
		HasReceipt:        req.ReceiptBlobID != nil,
	}
}
