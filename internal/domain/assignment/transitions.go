package assignment

import "errors"

// Action names a state-machine transition requested by a caller.
type Action string

const (
	ActionProposePrice     Action = "propose_price"
	ActionAcceptPrice      Action = "accept_price"
	ActionRejectPrice      Action = "reject_price"
	ActionRequestReduction Action = "request_reduction"
	ActionUpdatePrice      Action = "update_price"
	ActionUploadPayment    Action = "upload_payment"
	ActionVerifyPayment    Action = "verify_payment"
)

// Sentinel errors for the transition error taxonomy. Handlers map these onto
// HTTP statuses; services wrap them with detail.
var (
	ErrNotFound          = errors.New("assignment request not found")
	ErrForbidden         = errors.New("caller may not perform this action")
	ErrInvalidAction     = errors.New("invalid action")
	ErrInvalidTransition = errors.New("action not allowed in current status")
	ErrValidation        = errors.New("invalid request payload")
)

// ActionRequest is the payload of the single action-dispatch endpoint.
// Which fields are required depends on the action.
type ActionRequest struct {
	Action          Action   `json:"action"`
	Price           *float64 `json:"price,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	Reason          string   `json:"reason,omitempty"`
	Message         string   `json:"message,omitempty"`
	CounterPrice    *float64 `json:"counter_price,omitempty"`
	ReceiptData     []byte   `json:"receipt_data,omitempty"`
	ReceiptFilename string   `json:"receipt_filename,omitempty"`
	PaymentMethod   string   `json:"payment_method,omitempty"`
}

// rule declares who may fire a transition and from which statuses. The guard
// is consulted in one place (Service.Apply) so every action is checked the
// same way.
type rule struct {
	staffOnly bool     // consultant or admin
	ownerOnly bool     // the client who created the request
	from      []Status // allowed source statuses; empty means any
	message   MessageType
}

// transitions is the single declarative table driving the state machine.
// The upstream product left accept/reject/counter callable from any status;
// here they require a live proposal.
var transitions = map[Action]rule{
	ActionProposePrice:     {staffOnly: true, message: MessagePriceProposal},
	ActionAcceptPrice:      {ownerOnly: true, from: []Status{StatusPriceProposed}, message: MessageAcceptance},
	ActionRejectPrice:      {ownerOnly: true, from: []Status{StatusPriceProposed}, message: MessageRejection},
	ActionRequestReduction: {ownerOnly: true, from: []Status{StatusPriceProposed}, message: MessagePriceCounter},
	ActionUpdatePrice:      {staffOnly: true, from: []Status{StatusNegotiating, StatusPriceProposed}, message: MessagePriceProposal},
	ActionUploadPayment:    {ownerOnly: true, from: []Status{StatusPaymentPending}, message: MessageGeneral},
	ActionVerifyPayment:    {staffOnly: true, from: []Status{StatusInProgress}, message: MessageGeneral},
}

func (r rule) allowsFrom(s Status) bool {
	if len(r.from) == 0 {
		return true
	}
	for _, allowed := range r.from {
		if s == allowed {
			return true
		}
	}
	return false
}
