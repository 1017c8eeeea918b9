package transaction

import (
	"context"
	"errors"

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const txnCols = `id, transaction_type, amount, currency, consultant_id,
	assignment_request_id, description, recorded_by, created_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.Type, &t.Amount, &t.Currency, &t.ConsultantID,
		&t.AssignmentRequestID, &t.Description, &t.RecordedBy, &t.CreatedAt)
	return &t, err
}

func (r *repoPG) Create(ctx context.Context, t *Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO transactions (id, transaction_type, amount, currency, consultant_id,
			assignment_request_id, description, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		t.ID, t.Type, t.Amount, t.Currency, t.ConsultantID,
		t.AssignmentRequestID, t.Description, t.RecordedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+txnCols+` FROM transactions WHERE id = $1`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Transaction, int, error) {
	where := ` WHERE ($1::text = '' OR transaction_type = $1)
		AND ($2::uuid IS NULL OR consultant_id = $2)`
	typ := string(f.Type)

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions`+where, typ, f.ConsultantID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+txnCols+` FROM transactions`+where+
			` ORDER BY created_at DESC LIMIT $3 OFFSET $4`, typ, f.ConsultantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}
