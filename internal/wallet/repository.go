package wallet

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

// Financials is the stored side of a driver's position.
type Financials struct {
	CashAtHand  decimal.Decimal
	CreditLimit decimal.Decimal
	Savings     decimal.Decimal
}

// Repository reads the aggregates the derived balance is built from.
type Repository interface {
	DriverFinancials(ctx context.Context, driverID int64) (Financials, error)
	// ApprovedSubmissionTotal sums approved driver submissions only. Pending
	// and rejected submissions never move the balance.
	ApprovedSubmissionTotal(ctx context.Context, driverID int64) (decimal.Decimal, error)
	OpenPenaltyTotal(ctx context.Context, driverID int64) (decimal.Decimal, error)
	OfficeTotals(ctx context.Context) (decimal.Decimal, map[string]decimal.Decimal, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed wallet repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) DriverFinancials(ctx context.Context, driverID int64) (Financials, error) {
	var cashAtHand, creditLimit, savings pgtype.Numeric
	err := r.pool.QueryRow(ctx, `SELECT d.cash_at_hand, d.credit_limit, COALESCE(w.savings, 0)
FROM drivers d
LEFT JOIN driver_wallets w ON w.driver_id = d.id
WHERE d.id = $1`, driverID).Scan(&cashAtHand, &creditLimit, &savings)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Financials{}, shared.ErrNotFound
		}
		return Financials{}, err
	}
	return Financials{
		CashAtHand:  money.FromNumeric(cashAtHand),
		CreditLimit: money.FromNumeric(creditLimit),
		Savings:     money.FromNumeric(savings),
	}, nil
}

func (r *pgRepository) ApprovedSubmissionTotal(ctx context.Context, driverID int64) (decimal.Decimal, error) {
	var total pgtype.Numeric
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)
FROM cash_submissions
WHERE driver_id = $1 AND status = 'approved'`, driverID).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return money.FromNumeric(total), nil
}

func (r *pgRepository) OpenPenaltyTotal(ctx context.Context, driverID int64) (decimal.Decimal, error) {
	var total pgtype.Numeric
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0)
FROM penalties
WHERE driver_id = $1 AND balance > 0`, driverID).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return money.FromNumeric(total), nil
}

func (r *pgRepository) OfficeTotals(ctx context.Context) (decimal.Decimal, map[string]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx, `SELECT COALESCE(details->>'accountType', 'unspecified'), COALESCE(SUM(amount), 0)
FROM cash_submissions
WHERE submission_type = 'payment_to_office' AND status = 'approved'
GROUP BY 1`)
	if err != nil {
		return decimal.Zero, nil, err
	}
	defer rows.Close()

	total := decimal.Zero
	byAccount := make(map[string]decimal.Decimal)
	for rows.Next() {
		var account string
		var sum pgtype.Numeric
		if err := rows.Scan(&account, &sum); err != nil {
			return decimal.Zero, nil, err
		}
		amount := money.FromNumeric(sum)
		byAccount[account] = amount
		total = total.Add(amount)
	}
	return total, byAccount, rows.Err()
}
