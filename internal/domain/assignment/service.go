package assignment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/consulthub/consulthub/internal/domain/identity"
	"github.com/consulthub/consulthub/internal/platform/auth"
	"github.com/consulthub/consulthub/internal/platform/blobstore"
	"github.com/consulthub/consulthub/internal/platform/db"
	"github.com/consulthub/consulthub/internal/platform/events"
	"github.com/consulthub/consulthub/internal/platform/notification"
)

// Service owns the negotiation lifecycle. Every transition goes through
// Apply, which runs guard, mutation, and audit append inside one database
// transaction. Notifications and events fire after commit and never fail
// the operation.
type Service struct {
	requests RequestRepository
	messages MessageRepository
	users    identity.Repository
	tx       db.Transactor
	blobs    blobstore.BlobStore
	notifier *notification.Manager
	events   events.Publisher
	log      zerolog.Logger
}

func NewService(
	requests RequestRepository,
	messages MessageRepository,
	users identity.Repository,
	tx db.Transactor,
	blobs blobstore.BlobStore,
	notifier *notification.Manager,
	publisher events.Publisher,
	logger zerolog.Logger,
) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		requests: requests,
		messages: messages,
		users:    users,
		tx:       tx,
		blobs:    blobs,
		notifier: notifier,
		events:   publisher,
		log:      logger,
	}
}

// CreateInput carries the fields a client submits when opening a request.
// The brief attachment is optional.
type CreateInput struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Currency      string `json:"currency"`
	BriefData     []byte `json:"brief_data,omitempty"`
	BriefFilename string `json:"brief_filename,omitempty"`
}

// Create opens a new request owned by the calling client.
func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (*AssignmentRequest, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	req := &AssignmentRequest{
		ID:          uuid.New(),
		ClientID:    actor.UserID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      StatusPending,
		Currency:    currency,
	}

	if len(in.BriefData) > 0 {
		meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
			FileName: in.BriefFilename,
			Category: blobstore.CategoryBrief,
			OwnerID:  actor.UserID.String(),
		}, bytes.NewReader(in.BriefData))
		if err != nil {
			if errors.Is(err, blobstore.ErrMissingFileName) || errors.Is(err, blobstore.ErrFileTooLarge) {
				return nil, fmt.Errorf("%w: %v", ErrValidation, err)
			}
			return nil, fmt.Errorf("store brief: %w", err)
		}
		req.BriefBlobID = &meta.ID
		req.BriefFilename = &meta.FileName
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.publish(ctx, "assignment.created", events.Event{
		Type:      "assignment.created",
		RequestID: req.ID,
		ActorID:   actor.UserID,
		ToStatus:  string(StatusPending),
	})
	return req, nil
}

// Apply executes one state-machine transition. Guard checks, field mutation,
// and the audit message append are a single atomic unit: a failure in any
// step leaves the request and its message thread untouched.
func (s *Service) Apply(ctx context.Context, actor auth.Actor, requestID uuid.UUID, in ActionRequest) (*AssignmentRequest, error) {
	r, ok := transitions[in.Action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, in.Action)
	}
	if err := validatePayload(in); err != nil {
		return nil, err
	}

	var (
		req        *AssignmentRequest
		fromStatus Status
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.requests.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		if r.staffOnly && !actor.IsStaff() {
			return fmt.Errorf("%w: %s requires a consultant or admin", ErrForbidden, in.Action)
		}
		if r.ownerOnly && req.ClientID != actor.UserID {
			return fmt.Errorf("%w: only the request owner may %s", ErrForbidden, in.Action)
		}
		if !r.allowsFrom(req.Status) {
			return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, in.Action, req.Status)
		}

		fromStatus = req.Status
		text, err := s.applyEffect(ctx, actor, req, in)
		if err != nil {
			return err
		}

		if err := s.requests.Update(ctx, req); err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		msg := &AssignmentMessage{
			ID:                  uuid.New(),
			AssignmentRequestID: req.ID,
			SenderID:            actor.UserID,
			Type:                r.message,
			Message:             text,
		}
		if err := s.messages.Create(ctx, msg); err != nil {
			return fmt.Errorf("append audit message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "assignment."+string(in.Action), events.Event{
		Type:       "assignment." + string(in.Action),
		RequestID:  req.ID,
		ActorID:    actor.UserID,
		FromStatus: string(fromStatus),
		ToStatus:   string(req.Status),
	})
	s.notify(ctx, actor, req, in)

	return req, nil
}

// validatePayload checks the action-specific required fields before any row
// is locked.
func validatePayload(in ActionRequest) error {
	switch in.Action {
	case ActionProposePrice, ActionUpdatePrice:
		if in.Price == nil {
			return fmt.Errorf("%w: price is required for %s", ErrValidation, in.Action)
		}
		if *in.Price <= 0 {
			return fmt.Errorf("%w: price must be positive", ErrValidation)
		}
	case ActionRejectPrice:
		if strings.TrimSpace(in.Reason) == "" {
			return fmt.Errorf("%w: reason is required for reject_price", ErrValidation)
		}
	case ActionRequestReduction:
		if strings.TrimSpace(in.Message) == "" {
			return fmt.Errorf("%w: message is required for request_reduction", ErrValidation)
		}
		if in.CounterPrice != nil && *in.CounterPrice <= 0 {
			return fmt.Errorf("%w: counter price must be positive", ErrValidation)
		}
	case ActionUploadPayment:
		if len(in.ReceiptData) == 0 {
			return fmt.Errorf("%w: receipt_data is required for upload_payment", ErrValidation)
		}
		if in.ReceiptFilename == "" {
			return fmt.Errorf("%w: receipt_filename is required for upload_payment", ErrValidation)
		}
	}
	return nil
}

// applyEffect mutates req in place for the given action and returns the
// audit message text. Lifecycle timestamps are set once and never reset,
// except PaymentVerifiedAt which verify_payment re-stamps on purpose.
func (s *Service) applyEffect(ctx context.Context, actor auth.Actor, req *AssignmentRequest, in ActionRequest) (string, error) {
	now := time.Now().UTC()

	switch in.Action {
	case ActionProposePrice:
		if req.ConsultantID == nil {
			id := actor.UserID
			req.ConsultantID = &id
		}
		req.ProposedPrice = in.Price
		req.FinalPrice = in.Price
		if in.Currency != "" {
			req.Currency = in.Currency
		}
		if in.Notes != "" {
			notes := in.Notes
			req.ConsultantNotes = &notes
		}
		req.Status = StatusPriceProposed
		if req.PriceProposedAt == nil {
			req.PriceProposedAt = &now
		}
		if req.ReviewedAt == nil {
			req.ReviewedAt = &now
		}
		return fmt.Sprintf("Price proposed: %.2f %s", *in.Price, req.Currency), nil

	case ActionAcceptPrice:
		req.Status = StatusPaymentPending
		if req.AcceptedAt == nil {
			req.AcceptedAt = &now
		}
		return fmt.Sprintf("Price of %.2f %s accepted", deref(req.FinalPrice), req.Currency), nil

	case ActionRejectPrice:
		reason := strings.TrimSpace(in.Reason)
		req.Status = StatusRejected
		req.RejectionReason = &reason
		if req.RejectedAt == nil {
			req.RejectedAt = &now
		}
		return "Price rejected: " + reason, nil

	case ActionRequestReduction:
		message := strings.TrimSpace(in.Message)
		req.Status = StatusNegotiating
		req.NegotiationMessage = &message
		req.NegotiatedPrice = in.CounterPrice
		if in.CounterPrice != nil {
			return fmt.Sprintf("Reduction requested (counter %.2f %s): %s", *in.CounterPrice, req.Currency, message), nil
		}
		return "Reduction requested: " + message, nil

	case ActionUpdatePrice:
		req.ProposedPrice = in.Price
		req.FinalPrice = in.Price
		if in.Notes != "" {
			notes := in.Notes
			req.ConsultantNotes = &notes
		}
		req.Status = StatusPriceProposed
		return fmt.Sprintf("Price updated: %.2f %s", *in.Price, req.Currency), nil

	case ActionUploadPayment:
		meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
			FileName: in.ReceiptFilename,
			Category: blobstore.CategoryReceipt,
			OwnerID:  actor.UserID.String(),
		}, bytes.NewReader(in.ReceiptData))
		if err != nil {
			if errors.Is(err, blobstore.ErrFileTooLarge) {
				return "", fmt.Errorf("%w: %v", ErrValidation, err)
			}
			return "", fmt.Errorf("store receipt: %w", err)
		}
		req.ReceiptBlobID = &meta.ID
		req.ReceiptFilename = &meta.FileName
		if in.PaymentMethod != "" {
			method := in.PaymentMethod
			req.PaymentMethod = &method
		}
		req.Status = StatusInProgress
		// Tentative stamp; verify_payment confirms it.
		if req.PaymentVerifiedAt == nil {
			req.PaymentVerifiedAt = &now
		}
		return "Payment receipt uploaded", nil

	case ActionVerifyPayment:
		req.PaymentVerifiedAt = &now
		return "Payment verified, work authorized", nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidAction, in.Action)
}

// Get returns the raw request row, restricted to the owner and staff.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*AssignmentRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.mayView(actor, req); err != nil {
		return nil, err
	}
	return req, nil
}

// GetDetail returns the read-model with joined display names and attachment
// presence flags.
func (s *Service) GetDetail(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Detail, error) {
	detail, err := s.requests.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.mayView(actor, &detail.AssignmentRequest); err != nil {
		return nil, err
	}
	return detail, nil
}

// ListForActor scopes the listing to what the caller may see: clients see
// their own requests, consultants the ones assigned to them, admins all.
func (s *Service) ListForActor(ctx context.Context, actor auth.Actor, limit, offset int) ([]*AssignmentRequest, int, error) {
	switch actor.Role {
	case auth.RoleAdmin:
		return s.requests.List(ctx, limit, offset)
	case auth.RoleConsultant:
		return s.requests.ListByConsultant(ctx, actor.UserID, limit, offset)
	default:
		return s.requests.ListByClient(ctx, actor.UserID, limit, offset)
	}
}

// ListMessages returns the audit/communication thread for a request.
func (s *Service) ListMessages(ctx context.Context, actor auth.Actor, requestID uuid.UUID) ([]*AssignmentMessage, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.mayView(actor, req); err != nil {
		return nil, err
	}
	return s.messages.ListByRequest(ctx, requestID)
}

// DownloadBrief streams the client's original attachment.
func (s *Service) DownloadBrief(ctx context.Context, actor auth.Actor, requestID uuid.UUID) (io.ReadCloser, *blobstore.BlobMetadata, error) {
	return s.download(ctx, actor, requestID, func(req *AssignmentRequest) *string { return req.BriefBlobID })
}

// DownloadReceipt streams the uploaded payment receipt.
func (s *Service) DownloadReceipt(ctx context.Context, actor auth.Actor, requestID uuid.UUID) (io.ReadCloser, *blobstore.BlobMetadata, error) {
	return s.download(ctx, actor, requestID, func(req *AssignmentRequest) *string { return req.ReceiptBlobID })
}

func (s *Service) download(ctx context.Context, actor auth.Actor, requestID uuid.UUID, pick func(*AssignmentRequest) *string) (io.ReadCloser, *blobstore.BlobMetadata, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.mayView(actor, req); err != nil {
		return nil, nil, err
	}
	blobID := pick(req)
	if blobID == nil {
		return nil, nil, fmt.Errorf("%w: no attachment", ErrNotFound)
	}
	return s.blobs.Download(ctx, *blobID)
}

func (s *Service) mayView(actor auth.Actor, req *AssignmentRequest) error {
	if actor.IsStaff() || req.ClientID == actor.UserID {
		return nil
	}
	return fmt.Errorf("%w: not a party to this request", ErrForbidden)
}

func (s *Service) publish(ctx context.Context, key string, evt events.Event) {
	if err := s.events.Publish(ctx, key, evt); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("event publish failed")
	}
}

// notify emails the counterparty about the transition. Delivery failures are
// logged and dropped.
func (s *Service) notify(ctx context.Context, actor auth.Actor, req *AssignmentRequest, in ActionRequest) {
	if s.notifier == nil || s.users == nil {
		return
	}

	var (
		templateID  string
		recipientID uuid.UUID
	)
	switch in.Action {
	case ActionProposePrice, ActionUpdatePrice:
		templateID, recipientID = "price-proposed", req.ClientID
	case ActionAcceptPrice:
		templateID = "price-accepted"
	case ActionRejectPrice:
		templateID = "price-rejected"
	case ActionRequestReduction:
		templateID = "price-counter"
	case ActionUploadPayment:
		templateID = "payment-received"
	case ActionVerifyPayment:
		templateID, recipientID = "payment-verified", req.ClientID
	default:
		return
	}
	// Client-initiated actions go to the assigned consultant.
	if recipientID == uuid.Nil {
		if req.ConsultantID == nil {
			return
		}
		recipientID = *req.ConsultantID
	}

	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		s.log.Warn().Err(err).Stringer("user_id", recipientID).Msg("notification recipient lookup failed")
		return
	}

	data := map[string]string{
		"title":       req.Title,
		"client_name": recipient.FullName,
		"currency":    req.Currency,
		"price":       fmt.Sprintf("%.2f", deref(req.FinalPrice)),
		"reason":      in.Reason,
		"message":     in.Message,
	}
	if _, err := s.notifier.SendFromTemplate(ctx, templateID, data, recipient.Email); err != nil {
		s.log.Warn().Err(err).Str("template", templateID).Msg("notification send failed")
	}
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
