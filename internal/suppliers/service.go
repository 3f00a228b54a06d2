package suppliers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dialadrink/ledger/internal/shared"
)

// ErrInvalidTransactionType indicates an unknown ledger direction.
var ErrInvalidTransactionType = errors.New("invalid transaction type")

// Service owns the supplier ledger.
type Service struct {
	repo      Repository
	audit     *shared.AuditLogger
	opTimeout time.Duration
}

// NewService constructs the supplier service.
func NewService(repo Repository, audit *shared.AuditLogger, opTimeout time.Duration) *Service {
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &Service{repo: repo, audit: audit, opTimeout: opTimeout}
}

// Record appends a ledger entry. Zero-amount entries are allowed so that
// reconciliation markers can be posted; negative amounts are not.
func (s *Service) Record(ctx context.Context, supplierID int64, req CreateTransactionRequest) (Transaction, error) {
	if !req.Type.Valid() {
		return Transaction{}, fmt.Errorf("%w: %q", ErrInvalidTransactionType, req.Type)
	}
	if req.Amount.IsNegative() {
		return Transaction{}, fmt.Errorf("%w: amount must not be negative, got %s", shared.ErrInvalidAmount, req.Amount)
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if _, err := s.repo.GetSupplier(opCtx, supplierID); err != nil {
		return Transaction{}, shared.StorageErr(err)
	}
	tx, err := s.repo.AppendTransaction(opCtx, supplierID, req)
	if err != nil {
		return Transaction{}, shared.StorageErr(err)
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  req.RecordedBy,
			Action:   "supplier_transaction.create",
			Entity:   "supplier_transaction",
			EntityID: strconv.FormatInt(tx.ID, 10),
			Meta: map[string]any{
				"supplier_id": supplierID,
				"type":        string(tx.Type),
				"amount":      tx.Amount.String(),
				"reference":   tx.Reference,
			},
		})
	}
	return tx, nil
}

// List returns the supplier's ledger entries, newest first, optionally
// narrowed to entries carrying the given document reference.
func (s *Service) List(ctx context.Context, supplierID int64, reference string, limit, offset int) ([]Transaction, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if _, err := s.repo.GetSupplier(opCtx, supplierID); err != nil {
		return nil, shared.StorageErr(err)
	}
	txs, err := s.repo.ListTransactions(opCtx, supplierID, reference, limit, offset)
	return txs, shared.StorageErr(err)
}

// BalanceFor derives the supplier position from the ledger totals.
func (s *Service) BalanceFor(ctx context.Context, supplierID int64) (Balance, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if _, err := s.repo.GetSupplier(opCtx, supplierID); err != nil {
		return Balance{}, shared.StorageErr(err)
	}
	credit, debit, err := s.repo.Totals(opCtx, supplierID)
	if err != nil {
		return Balance{}, shared.StorageErr(err)
	}
	return Balance{
		SupplierID:  supplierID,
		TotalCredit: credit,
		TotalDebit:  debit,
		Balance:     credit.Sub(debit),
		ComputedAt:  time.Now().UTC(),
	}, nil
}
