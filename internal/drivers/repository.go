package drivers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dialadrink/ledger/internal/money"
	"github.com/dialadrink/ledger/internal/platform/db"
	"github.com/dialadrink/ledger/internal/shared"
)

// ErrInsufficientSavings indicates a payout larger than the accrued savings.
var ErrInsufficientSavings = errors.New("insufficient savings")

// Repository defines driver and savings data access.
type Repository interface {
	Get(ctx context.Context, id int64) (Driver, error)
	GetWallet(ctx context.Context, driverID int64) (DriverWallet, error)
	// MoveSavings applies a withhold or payout atomically: wallet row lock,
	// balance change, and an append-only savings entry in one transaction.
	MoveSavings(ctx context.Context, driverID int64, entry SavingsEntryType, amount decimal.Decimal, reference string) (DriverWallet, error)
	ListSavingsEntries(ctx context.Context, driverID int64, limit int) ([]SavingsEntry, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed driver repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Driver, error) {
	var d Driver
	var cashAtHand, creditLimit pgtype.Numeric
	var createdAt, updatedAt pgtype.Timestamptz
	err := r.pool.QueryRow(ctx, `SELECT id, name, phone_number, cash_at_hand, credit_limit, valkyrie_eligible, created_at, updated_at
FROM drivers WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.PhoneNumber, &cashAtHand, &creditLimit, &d.ValkyrieEligible, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Driver{}, shared.ErrNotFound
		}
		return Driver{}, err
	}
	d.CashAtHand = money.FromNumeric(cashAtHand)
	d.CreditLimit = money.FromNumeric(creditLimit)
	d.CreatedAt = createdAt.Time
	d.UpdatedAt = updatedAt.Time
	return d, nil
}

func (r *pgRepository) GetWallet(ctx context.Context, driverID int64) (DriverWallet, error) {
	// Wallets are created lazily on first touch; a driver without one simply
	// has zero savings.
	if _, err := r.pool.Exec(ctx, `INSERT INTO driver_wallets (driver_id) VALUES ($1) ON CONFLICT (driver_id) DO NOTHING`, driverID); err != nil {
		return DriverWallet{}, err
	}
	return r.scanWallet(r.pool.QueryRow(ctx, `SELECT id, driver_id, savings, created_at, updated_at FROM driver_wallets WHERE driver_id = $1`, driverID))
}

func (r *pgRepository) MoveSavings(ctx context.Context, driverID int64, entry SavingsEntryType, amount decimal.Decimal, reference string) (DriverWallet, error) {
	var wallet DriverWallet
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO driver_wallets (driver_id) VALUES ($1) ON CONFLICT (driver_id) DO NOTHING`, driverID); err != nil {
			return err
		}

		var savings pgtype.Numeric
		if err := tx.QueryRow(ctx, `SELECT savings FROM driver_wallets WHERE driver_id = $1 FOR UPDATE`, driverID).Scan(&savings); err != nil {
			return err
		}
		current := money.FromNumeric(savings)

		delta := amount
		if entry == SavingsPayout {
			if current.LessThan(amount) {
				return fmt.Errorf("%w: available %s, requested %s", ErrInsufficientSavings, current, amount)
			}
			delta = amount.Neg()
		}

		row := tx.QueryRow(ctx, `UPDATE driver_wallets SET savings = savings + $2, updated_at = NOW()
WHERE driver_id = $1
RETURNING id, driver_id, savings, created_at, updated_at`, driverID, money.ToNumeric(delta))
		w, err := r.scanWallet(row)
		if err != nil {
			return err
		}
		wallet = w

		_, err = tx.Exec(ctx, `INSERT INTO savings_entries (driver_id, entry_type, amount, reference) VALUES ($1, $2, $3, $4)`,
			driverID, string(entry), money.ToNumeric(amount), reference)
		return err
	})
	return wallet, err
}

func (r *pgRepository) ListSavingsEntries(ctx context.Context, driverID int64, limit int) ([]SavingsEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, driver_id, entry_type, amount, reference, created_at
FROM savings_entries WHERE driver_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, driverID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SavingsEntry
	for rows.Next() {
		var e SavingsEntry
		var entryType string
		var amount pgtype.Numeric
		var reference pgtype.Text
		var createdAt pgtype.Timestamptz
		if err := rows.Scan(&e.ID, &e.DriverID, &entryType, &amount, &reference, &createdAt); err != nil {
			return nil, err
		}
		e.EntryType = SavingsEntryType(entryType)
		e.Amount = money.FromNumeric(amount)
		e.Reference = reference.String
		e.CreatedAt = createdAt.Time
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *pgRepository) scanWallet(row pgx.Row) (DriverWallet, error) {
	var w DriverWallet
	var savings pgtype.Numeric
	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&w.ID, &w.DriverID, &savings, &createdAt, &updatedAt); err != nil {
		return DriverWallet{}, err
	}
	w.Savings = money.FromNumeric(savings)
	w.CreatedAt = createdAt.Time
	w.UpdatedAt = updatedAt.Time
	return w, nil
}
