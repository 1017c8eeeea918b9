package ledger

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const earningCols = `id, consultant_id, transaction_id, amount, commission_rate,
	net_earning, website_fee, team_fee, notes, payment_status, created_at`

func scanEarning(row pgx.Row) (*ConsultantEarning, error) {
	var e ConsultantEarning
	err := row.Scan(&e.ID, &e.ConsultantID, &e.TransactionID, &e.Amount, &e.CommissionRate,
		&e.NetEarning, &e.WebsiteFee, &e.TeamFee, &e.Notes, &e.PaymentStatus, &e.CreatedAt)
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *ConsultantEarning) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.PaymentStatus == "" {
		e.PaymentStatus = PaymentPending
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consultant_earnings (id, consultant_id, transaction_id, amount,
			commission_rate, net_earning, website_fee, team_fee, notes, payment_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		e.ID, e.ConsultantID, e.TransactionID, e.Amount,
		e.CommissionRate, e.NetEarning, e.WebsiteFee, e.TeamFee, e.Notes, e.PaymentStatus)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEntry
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*ConsultantEarning, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+earningCols+` FROM consultant_earnings WHERE id = $1`, id)
	e, err := scanEarning(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEarningNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *repoPG) GetByTransaction(ctx context.Context, transactionID uuid.UUID) (*ConsultantEarning, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+earningCols+` FROM consultant_earnings WHERE transaction_id = $1`, transactionID)
	e, err := scanEarning(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEarningNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *repoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*ConsultantEarning, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM consultant_earnings`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM consultant_earnings%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		earningCols, where, len(args)+1, len(args)+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*ConsultantEarning
	for rows.Next() {
		e, err := scanEarning(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *repoPG) ListByConsultant(ctx context.Context, consultantID uuid.UUID, limit, offset int) ([]*ConsultantEarning, int, error) {
	return r.list(ctx, ` WHERE consultant_id = $1`, []interface{}{consultantID}, limit, offset)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*ConsultantEarning, int, error) {
	return r.list(ctx, ``, nil, limit, offset)
}

func (r *repoPG) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE consultant_earnings SET payment_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEarningNotFound
	}
	return nil
}
