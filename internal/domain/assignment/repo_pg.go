package assignment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/consulthub/consulthub/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Request Repository ===========

type requestRepoPG struct{ pool *pgxpool.Pool }

func NewRequestRepoPG(pool *pgxpool.Pool) RequestRepository { return &requestRepoPG{pool: pool} }

func (r *requestRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reqCols = `id, client_id, consultant_id, title, description, status,
	proposed_price, final_price, negotiated_price, currency,
	consultant_notes, negotiation_message, rejection_reason, payment_method,
	brief_blob_id, brief_filename, receipt_blob_id, receipt_filename,
	price_proposed_at, reviewed_at, accepted_at, rejected_at, payment_verified_at,
	created_at, updated_at`

func scanRequest(row pgx.Row) (*AssignmentRequest, error) {
	var a AssignmentRequest
	err := row.Scan(&a.ID, &a.ClientID, &a.ConsultantID, &a.Title, &a.Description, &a.Status,
		&a.ProposedPrice, &a.FinalPrice, &a.NegotiatedPrice, &a.Currency,
		&a.ConsultantNotes, &a.NegotiationMessage, &a.RejectionReason, &a.PaymentMethod,
		&a.BriefBlobID, &a.BriefFilename, &a.ReceiptBlobID, &a.ReceiptFilename,
		&a.PriceProposedAt, &a.ReviewedAt, &a.AcceptedAt, &a.RejectedAt, &a.PaymentVerifiedAt,
		&a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *requestRepoPG) Create(ctx context.Context, req *AssignmentRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO assignment_requests (id, client_id, consultant_id, title, description, status,
			proposed_price, final_price, negotiated_price, currency,
			consultant_notes, negotiation_message, rejection_reason, payment_method,
			brief_blob_id, brief_filename, receipt_blob_id, receipt_filename)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		req.ID, req.ClientID, req.ConsultantID, req.Title, req.Description, req.Status,
		req.ProposedPrice, req.FinalPrice, req.NegotiatedPrice, req.Currency,
		req.ConsultantNotes, req.NegotiationMessage, req.RejectionReason, req.PaymentMethod,
		req.BriefBlobID, req.BriefFilename, req.ReceiptBlobID, req.ReceiptFilename)
	return err
}

func (r *requestRepoPG) getByID(ctx context.Context, id uuid.UUID, lock string) (*AssignmentRequest, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+reqCols+` FROM assignment_requests WHERE id = $1`+lock, id)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *requestRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*AssignmentRequest, error) {
	return r.getByID(ctx, id, "")
}

func (r *requestRepoPG) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*AssignmentRequest, error) {
	return r.getByID(ctx, id, " FOR UPDATE")
}

func (r *requestRepoPG) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT r.id, r.client_id, r.consultant_id, r.title, r.description, r.status,
			r.proposed_price, r.final_price, r.negotiated_price, r.currency,
			r.consultant_notes, r.negotiation_message, r.rejection_reason, r.payment_method,
			r.brief_blob_id, r.brief_filename, r.receipt_blob_id, r.receipt_filename,
			r.price_proposed_at, r.reviewed_at, r.accepted_at, r.rejected_at, r.payment_verified_at,
			r.created_at, r.updated_at,
			c.full_name,
			COALESCE(k.full_name, '')
		FROM assignment_requests r
		JOIN users c ON c.id = r.client_id
		LEFT JOIN users k ON k.id = r.consultant_id
		WHERE r.id = $1`, id)

	var (
		a              AssignmentRequest
		clientName     string
		consultantName string
	)
	err := row.Scan(&a.ID, &a.ClientID, &a.ConsultantID, &a.Title, &a.Description, &a.Status,
		&a.ProposedPrice, &a.FinalPrice, &a.NegotiatedPrice, &a.Currency,
		&a.ConsultantNotes, &a.NegotiationMessage, &a.RejectionReason, &a.PaymentMethod,
		&a.BriefBlobID, &a.BriefFilename, &a.ReceiptBlobID, &a.ReceiptFilename,
		&a.PriceProposedAt, &a.ReviewedAt, &a.AcceptedAt, &a.RejectedAt, &a.PaymentVerifiedAt,
		&a.CreatedAt, &a.UpdatedAt,
		&clientName, &consultantName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return NewDetail(&a, clientName, consultantName), nil
}

func (r *requestRepoPG) Update(ctx context.Context, req *AssignmentRequest) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE assignment_requests SET
			consultant_id = $2, status = $3,
			proposed_price = $4, final_price = $5, negotiated_price = $6, currency = $7,
			consultant_notes = $8, negotiation_message = $9, rejection_reason = $10, payment_method = $11,
			brief_blob_id = $12, brief_filename = $13, receipt_blob_id = $14, receipt_filename = $15,
			price_proposed_at = $16, reviewed_at = $17, accepted_at = $18, rejected_at = $19,
			payment_verified_at = $20, updated_at = NOW()
		WHERE id = $1`,
		req.ID, req.ConsultantID, req.Status,
		req.ProposedPrice, req.FinalPrice, req.NegotiatedPrice, req.Currency,
		req.ConsultantNotes, req.NegotiationMessage, req.RejectionReason, req.PaymentMethod,
		req.BriefBlobID, req.BriefFilename, req.ReceiptBlobID, req.ReceiptFilename,
		req.PriceProposedAt, req.ReviewedAt, req.AcceptedAt, req.RejectedAt,
		req.PaymentVerifiedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *requestRepoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*AssignmentRequest, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM assignment_requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM assignment_requests%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		reqCols, where, len(args)+1, len(args)+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*AssignmentRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}

func (r *requestRepoPG) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*AssignmentRequest, int, error) {
	return r.list(ctx, ` WHERE client_id = $1`, []interface{}{clientID}, limit, offset)
}

func (r *requestRepoPG) ListByConsultant(ctx context.Context, consultantID uuid.UUID, limit, offset int) ([]*AssignmentRequest, int, error) {
	return r.list(ctx, ` WHERE consultant_id = $1`, []interface{}{consultantID}, limit, offset)
}

func (r *requestRepoPG) List(ctx context.Context, limit, offset int) ([]*AssignmentRequest, int, error) {
	return r.list(ctx, ``, nil, limit, offset)
}

// =========== Message Repository ===========

type messageRepoPG struct{ pool *pgxpool.Pool }

func NewMessageRepoPG(pool *pgxpool.Pool) MessageRepository { return &messageRepoPG{pool: pool} }

func (r *messageRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const msgCols = `id, assignment_request_id, sender_id, message_type, message, created_at`

func (r *messageRepoPG) Create(ctx context.Context, msg *AssignmentMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO assignment_messages (id, assignment_request_id, sender_id, message_type, message)
		VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.AssignmentRequestID, msg.SenderID, msg.Type, msg.Message)
	return err
}

func (r *messageRepoPG) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*AssignmentMessage, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+msgCols+` FROM assignment_messages WHERE assignment_request_id = $1 ORDER BY created_at ASC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*AssignmentMessage
	for rows.Next() {
		var m AssignmentMessage
		if err := rows.Scan(&m.ID, &m.AssignmentRequestID, &m.SenderID, &m.Type, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
