package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dialadrink/ledger/internal/money"
	"github.com/dialadrink/ledger/internal/penalties"
	"github.com/dialadrink/ledger/internal/platform/db"
	"github.com/dialadrink/ledger/internal/shared"
)

// Repository defines submission data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (CashSubmission, error)
	List(ctx context.Context, req ListSubmissionsRequest) ([]CashSubmission, StatusCounts, error)
}

// TxRepository defines the operations available inside a submission
// transaction. It embeds the penalty store so amortization locks and reduces
// penalty rows in the same transaction that flips the submission status.
type TxRepository interface {
	penalties.TxStore

	Insert(ctx context.Context, sub CashSubmission) (int64, error)
	LinkOrder(ctx context.Context, submissionID, orderID int64) error
	Get(ctx context.Context, id int64) (CashSubmission, error)
	// MarkApproved performs the pending→approved compare-and-swap. It reports
	// false when the row was not in pending state.
	MarkApproved(ctx context.Context, id, adminID int64) (bool, error)
	// MarkRejected performs the pending→rejected compare-and-swap.
	MarkRejected(ctx context.Context, id, adminID int64, reason string) (bool, error)
	// Amend updates amount/details of a pending submission; false when terminal.
	Amend(ctx context.Context, id int64, amount *decimal.Decimal, details json.RawMessage) (bool, error)
	RecordAudit(ctx context.Context, log shared.AuditLog) error
}

type pgRepository struct {
	pool  *pgxpool.Pool
	audit *shared.AuditLogger
}

type pgTxRepository struct {
	tx    pgx.Tx
	audit *shared.AuditLogger
}

var (
	_ Repository   = (*pgRepository)(nil)
	_ TxRepository = (*pgTxRepository)(nil)
)

// NewRepository constructs the pgx-backed submission repository.
func NewRepository(pool *pgxpool.Pool, audit *shared.AuditLogger) Repository {
	return &pgRepository{pool: pool, audit: audit}
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx, audit: r.audit})
	})
}

const submissionColumns = `id, driver_id, admin_id, submission_type, status, amount, details,
approved_by, approved_at, rejected_by, rejected_at, rejection_reason, created_at, updated_at`

func (r *pgRepository) Get(ctx context.Context, id int64) (CashSubmission, error) {
	return getSubmission(ctx, r.pool, id)
}

func (r *pgRepository) List(ctx context.Context, req ListSubmissionsRequest) ([]CashSubmission, StatusCounts, error) {
	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT ` + submissionColumns + ` FROM cash_submissions WHERE driver_id = $1`
	args := []any{req.DriverID}
	if req.Status != nil {
		query += ` AND status = $2`
		args = append(args, string(*req.Status))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, StatusCounts{}, err
	}
	defer rows.Close()

	var out []CashSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, StatusCounts{}, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, StatusCounts{}, err
	}

	counts, err := r.statusCounts(ctx, req.DriverID)
	if err != nil {
		return nil, StatusCounts{}, err
	}
	return out, counts, nil
}

func (r *pgRepository) statusCounts(ctx context.Context, driverID int64) (StatusCounts, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM cash_submissions WHERE driver_id = $1 GROUP BY status`, driverID)
	if err != nil {
		return StatusCounts{}, err
	}
	defer rows.Close()

	var counts StatusCounts
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return StatusCounts{}, err
		}
		switch SubmissionStatus(status) {
		case StatusPending:
			counts.Pending = n
		case StatusApproved:
			counts.Approved = n
		case StatusRejected:
			counts.Rejected = n
		}
	}
	return counts, rows.Err()
}

func (r *pgTxRepository) Insert(ctx context.Context, sub CashSubmission) (int64, error) {
	details := sub.Details
	if len(details) == 0 {
		details = json.RawMessage(`{}`)
	}
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO cash_submissions (driver_id, admin_id, submission_type, status, amount, details)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`,
		sub.DriverID, sub.AdminID, string(sub.SubmissionType), string(sub.Status), money.ToNumeric(sub.Amount), details).Scan(&id)
	return id, err
}

func (r *pgTxRepository) LinkOrder(ctx context.Context, submissionID, orderID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO cash_submission_orders (cash_submission_id, order_id) VALUES ($1, $2)`, submissionID, orderID)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return fmt.Errorf("%w: order %d", shared.ErrDuplicateOrderClaim, orderID)
		}
		return err
	}
	return nil
}

func (r *pgTxRepository) Get(ctx context.Context, id int64) (CashSubmission, error) {
	return getSubmission(ctx, r.tx, id)
}

func (r *pgTxRepository) MarkApproved(ctx context.Context, id, adminID int64) (bool, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE cash_submissions
SET status = 'approved', approved_by = $2, approved_at = NOW(), updated_at = NOW()
WHERE id = $1 AND status = 'pending'`, id, adminID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgTxRepository) MarkRejected(ctx context.Context, id, adminID int64, reason string) (bool, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE cash_submissions
SET status = 'rejected', rejected_by = $2, rejected_at = NOW(), rejection_reason = $3, updated_at = NOW()
WHERE id = $1 AND status = 'pending'`, id, adminID, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgTxRepository) Amend(ctx context.Context, id int64, amount *decimal.Decimal, details json.RawMessage) (bool, error) {
	query := `UPDATE cash_submissions SET updated_at = NOW()`
	args := []any{id}
	pos := 2
	if amount != nil {
		query += fmt.Sprintf(`, amount = $%d`, pos)
		args = append(args, money.ToNumeric(*amount))
		pos++
	}
	if len(details) > 0 {
		query += fmt.Sprintf(`, details = $%d`, pos)
		args = append(args, details)
	}
	query += ` WHERE id = $1 AND status = 'pending'`

	tag, err := r.tx.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgTxRepository) ListOpenForUpdate(ctx context.Context, driverID int64) ([]penalties.Penalty, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, driver_id, amount, balance, reason, created_by, created_at, updated_at
FROM penalties
WHERE driver_id = $1 AND balance > 0
ORDER BY created_at ASC, id ASC
FOR UPDATE`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []penalties.Penalty
	for rows.Next() {
		var p penalties.Penalty
		var amount, balance pgtype.Numeric
		var createdBy pgtype.Int8
		var createdAt, updatedAt pgtype.Timestamptz
		if err := rows.Scan(&p.ID, &p.DriverID, &amount, &balance, &p.Reason, &createdBy, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.Amount = money.FromNumeric(amount)
		p.Balance = money.FromNumeric(balance)
		if createdBy.Valid {
			v := createdBy.Int64
			p.CreatedBy = &v
		}
		p.CreatedAt = createdAt.Time
		p.UpdatedAt = updatedAt.Time
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgTxRepository) ReduceBalance(ctx context.Context, penaltyID int64, by decimal.Decimal) error {
	tag, err := r.tx.Exec(ctx, `UPDATE penalties
SET balance = balance - $2, updated_at = NOW()
WHERE id = $1 AND balance >= $2`, penaltyID, money.ToNumeric(by))
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("penalty %d balance below reduction %s", penaltyID, by)
	}
	return nil
}

func (r *pgTxRepository) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	return r.audit.RecordIn(ctx, r.tx, log)
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getSubmission(ctx context.Context, q queryer, id int64) (CashSubmission, error) {
	row := q.QueryRow(ctx, `SELECT `+submissionColumns+` FROM cash_submissions WHERE id = $1`, id)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CashSubmission{}, shared.ErrNotFound
		}
		return CashSubmission{}, err
	}

	rows, err := q.Query(ctx, `SELECT order_id FROM cash_submission_orders WHERE cash_submission_id = $1 ORDER BY order_id`, id)
	if err != nil {
		return CashSubmission{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID int64
		if err := rows.Scan(&orderID); err != nil {
			return CashSubmission{}, err
		}
		sub.OrderIDs = append(sub.OrderIDs, orderID)
	}
	return sub, rows.Err()
}

func scanSubmission(row pgx.Row) (CashSubmission, error) {
	var sub CashSubmission
	var driverID, adminID, approvedBy, rejectedBy pgtype.Int8
	var subType, status string
	var amount pgtype.Numeric
	var details []byte
	var approvedAt, rejectedAt, createdAt, updatedAt pgtype.Timestamptz
	var rejectionReason pgtype.Text

	err := row.Scan(&sub.ID, &driverID, &adminID, &subType, &status, &amount, &details,
		&approvedBy, &approvedAt, &rejectedBy, &rejectedAt, &rejectionReason, &createdAt, &updatedAt)
	if err != nil {
		return CashSubmission{}, err
	}

	sub.SubmissionType = SubmissionType(subType)
	sub.Status = SubmissionStatus(status)
	sub.Amount = money.FromNumeric(amount)
	sub.Details = details
	if driverID.Valid {
		v := driverID.Int64
		sub.DriverID = &v
	}
	if adminID.Valid {
		v := adminID.Int64
		sub.AdminID = &v
	}
	if approvedBy.Valid {
		v := approvedBy.Int64
		sub.ApprovedBy = &v
	}
	if approvedAt.Valid {
		v := approvedAt.Time
		sub.ApprovedAt = &v
	}
	if rejectedBy.Valid {
		v := rejectedBy.Int64
		sub.RejectedBy = &v
	}
	if rejectedAt.Valid {
		v := rejectedAt.Time
		sub.RejectedAt = &v
	}
	if rejectionReason.Valid {
		v := rejectionReason.String
		sub.RejectionReason = &v
	}
	sub.CreatedAt = createdAt.Time
	sub.UpdatedAt = updatedAt.Time
	return sub, nil
}
