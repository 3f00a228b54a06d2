package suppliers

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

// Repository defines supplier ledger data access. The transactions table is
// append-only; there are no update or delete operations.
type Repository interface {
	GetSupplier(ctx context.Context, id int64) (Supplier, error)
	AppendTransaction(ctx context.Context, supplierID int64, req CreateTransactionRequest) (Transaction, error)
	// ListTransactions returns entries newest first. A non-empty reference
	// narrows the listing to entries carrying that document reference.
	ListTransactions(ctx context.Context, supplierID int64, reference string, limit, offset int) ([]Transaction, error)
	Totals(ctx context.Context, supplierID int64) (credit, debit decimal.Decimal, err error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed supplier repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	var s Supplier
	var phone pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz
	err := r.pool.QueryRow(ctx, `SELECT id, name, phone_number, created_at, updated_at FROM suppliers WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &phone, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, shared.ErrNotFound
		}
		return Supplier{}, err
	}
	s.PhoneNumber = phone.String
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time
	return s, nil
}

func (r *pgRepository) AppendTransaction(ctx context.Context, supplierID int64, req CreateTransactionRequest) (Transaction, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO supplier_transactions (supplier_id, type, amount, reason, reference, recorded_by)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, supplier_id, type, amount, reason, reference, recorded_by, created_at`,
		supplierID, string(req.Type), money.ToNumeric(req.Amount), req.Reason, req.Reference, req.RecordedBy)
	return scanTransaction(row)
}

func (r *pgRepository) ListTransactions(ctx context.Context, supplierID int64, reference string, limit, offset int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `SELECT id, supplier_id, type, amount, reason, reference, recorded_by, created_at
FROM supplier_transactions
WHERE supplier_id = $1
  AND ($2::text = '' OR reference = $2)
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4`, supplierID, reference, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *pgRepository) Totals(ctx context.Context, supplierID int64) (decimal.Decimal, decimal.Decimal, error) {
	var credit, debit pgtype.Numeric
	err := r.pool.QueryRow(ctx, `SELECT
COALESCE(SUM(amount) FILTER (WHERE type = 'credit'), 0),
COALESCE(SUM(amount) FILTER (WHERE type = 'debit'), 0)
FROM supplier_transactions WHERE supplier_id = $1`, supplierID).Scan(&credit, &debit)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return money.FromNumeric(credit), money.FromNumeric(debit), nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var tx Transaction
	var txType string
	var amount pgtype.Numeric
	var reason, reference pgtype.Text
	var recordedBy pgtype.Int8
	var createdAt pgtype.Timestamptz
	if err := row.Scan(&tx.ID, &tx.SupplierID, &txType, &amount, &reason, &reference, &recordedBy, &createdAt); err != nil {
		return Transaction{}, err
	}
	tx.Type = TransactionType(txType)
	tx.Amount = money.FromNumeric(amount)
	tx.Reason = reason.String
	tx.Reference = reference.String
	if recordedBy.Valid {
		tx.RecordedBy = &recordedBy.Int64
	}
	tx.CreatedAt = createdAt.Time
	return tx, nil
}
