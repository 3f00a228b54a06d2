package penalties

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dialadrink/ledger/internal/money"
	"github.com/dialadrink/ledger/internal/shared"
)

// Repository defines penalty data access outside the approval transaction.
type Repository interface {
	DriverExists(ctx context.Context, driverID int64) (bool, error)
	Create(ctx context.Context, driverID int64, amount decimal.Decimal, reason string, createdBy int64) (Penalty, error)
	Get(ctx context.Context, id int64) (Penalty, error)
	ListByDriver(ctx context.Context, driverID int64) ([]Penalty, error)
	OpenBalance(ctx context.Context, driverID int64) (decimal.Decimal, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const penaltyColumns = `id, driver_id, amount, balance, reason, created_by, created_at, updated_at`

func (r *pgRepository) DriverExists(ctx context.Context, driverID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM drivers WHERE id = $1)`, driverID).Scan(&exists)
	return exists, err
}

func (r *pgRepository) Create(ctx context.Context, driverID int64, amount decimal.Decimal, reason string, createdBy int64) (Penalty, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO penalties (driver_id, amount, balance, reason, created_by)
VALUES ($1, $2, $2, $3, $4)
RETURNING `+penaltyColumns, driverID, money.ToNumeric(amount), reason, createdBy)
	return scanPenalty(row)
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Penalty, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+penaltyColumns+` FROM penalties WHERE id = $1`, id)
	p, err := scanPenalty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Penalty{}, shared.ErrNotFound
	}
	return p, err
}

func (r *pgRepository) ListByDriver(ctx context.Context, driverID int64) ([]Penalty, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+penaltyColumns+` FROM penalties WHERE driver_id = $1 ORDER BY created_at ASC, id ASC`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Penalty
	for rows.Next() {
		p, err := scanPenalty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgRepository) OpenBalance(ctx context.Context, driverID int64) (decimal.Decimal, error) {
	var sum pgtype.Numeric
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM penalties WHERE driver_id = $1 AND balance > 0`, driverID).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return money.FromNumeric(sum), nil
}

func scanPenalty(row pgx.Row) (Penalty, error) {
	var p Penalty
	var amount, balance pgtype.Numeric
	var createdBy pgtype.Int8
	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&p.ID, &p.DriverID, &amount, &balance, &p.Reason, &createdBy, &createdAt, &updatedAt); err != nil {
		return Penalty{}, err
	}
	p.Amount = money.FromNumeric(amount)
	p.Balance = money.FromNumeric(balance)
	if createdBy.Valid {
		v := createdBy.Int64
		p.CreatedBy = &v
	}
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return p, nil
}
