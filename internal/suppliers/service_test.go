package suppliers

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dialadrink/ledger/internal/shared"
)

type memorySupplierRepo struct {
	suppliers    map[int64]Supplier
	transactions []Transaction
	nextID       int64
}

func newMemorySupplierRepo() *memorySupplierRepo {
	return &memorySupplierRepo{
		suppliers: map[int64]Supplier{
			1: {ID: 1, Name: "Westlands Wines & Spirits"},
		},
	}
}

func (r *memorySupplierRepo) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return Supplier{}, shared.ErrNotFound
	}
	return s, nil
}

func (r *memorySupplierRepo) AppendTransaction(ctx context.Context, supplierID int64, req CreateTransactionRequest) (Transaction, error) {
	r.nextID++
	tx := Transaction{
		ID:         r.nextID,
		SupplierID: supplierID,
		Type:       req.Type,
		Amount:     req.Amount,
		Reason:     req.Reason,
		Reference:  req.Reference,
		RecordedBy: req.RecordedBy,
		CreatedAt:  time.Now(),
	}
	r.transactions = append(r.transactions, tx)
	return tx, nil
}

func (r *memorySupplierRepo) ListTransactions(ctx context.Context, supplierID int64, reference string, limit, offset int) ([]Transaction, error) {
	var out []Transaction
	for i := len(r.transactions) - 1; i >= 0; i-- {
		tx := r.transactions[i]
		if tx.SupplierID != supplierID {
			continue
		}
		if reference != "" && tx.Reference != reference {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (r *memorySupplierRepo) Totals(ctx context.Context, supplierID int64) (decimal.Decimal, decimal.Decimal, error) {
	credit, debit := decimal.Zero, decimal.Zero
	for _, tx := range r.transactions {
		if tx.SupplierID != supplierID {
			continue
		}
		switch tx.Type {
		case TransactionCredit:
			credit = credit.Add(tx.Amount)
		case TransactionDebit:
			debit = debit.Add(tx.Amount)
		}
	}
	return credit, debit, nil
}

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBalanceIsCreditsMinusDebits(t *testing.T) {
	repo := newMemorySupplierRepo()
	svc := NewService(repo, nil, time.Second)

	_, err := svc.Record(context.Background(), 1, CreateTransactionRequest{Type: TransactionCredit, Amount: dec("10000"), Reason: "stock received"})
	require.NoError(t, err)
	_, err = svc.Record(context.Background(), 1, CreateTransactionRequest{Type: TransactionDebit, Amount: dec("6500"), Reason: "payment"})
	require.NoError(t, err)

	balance, err := svc.BalanceFor(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, balance.TotalCredit.Equal(dec("10000")))
	require.True(t, balance.TotalDebit.Equal(dec("6500")))
	require.True(t, balance.Balance.Equal(dec("3500")), "positive balance means the company owes the supplier")
}

func TestRecordRejectsUnknownTypeAndNegativeAmount(t *testing.T) {
	svc := NewService(newMemorySupplierRepo(), nil, time.Second)

	_, err := svc.Record(context.Background(), 1, CreateTransactionRequest{Type: "refund", Amount: dec("100")})
	require.ErrorIs(t, err, ErrInvalidTransactionType)

	_, err = svc.Record(context.Background(), 1, CreateTransactionRequest{Type: TransactionDebit, Amount: dec("-100")})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestRecordAllowsZeroAmountMarker(t *testing.T) {
	svc := NewService(newMemorySupplierRepo(), nil, time.Second)

	tx, err := svc.Record(context.Background(), 1, CreateTransactionRequest{Type: TransactionCredit, Amount: decimal.Zero, Reason: "reconciliation marker"})
	require.NoError(t, err)
	require.True(t, tx.Amount.IsZero())
}

func TestRecordUnknownSupplier(t *testing.T) {
	svc := NewService(newMemorySupplierRepo(), nil, time.Second)

	_, err := svc.Record(context.Background(), 99, CreateTransactionRequest{Type: TransactionCredit, Amount: dec("100")})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecordKeepsReasonAndReference(t *testing.T) {
	repo := newMemorySupplierRepo()
	svc := NewService(repo, nil, time.Second)

	tx, err := svc.Record(context.Background(), 1, CreateTransactionRequest{
		Type:      TransactionCredit,
		Amount:    dec("18000"),
		Reason:    "stock received on account",
		Reference: "INV-2026-0815",
	})
	require.NoError(t, err)
	require.Equal(t, "stock received on account", tx.Reason)
	require.Equal(t, "INV-2026-0815", tx.Reference)
}

func TestListNewestFirst(t *testing.T) {
	repo := newMemorySupplierRepo()
	svc := NewService(repo, nil, time.Second)

	first, err := svc.Record(context.Background(), 1, CreateTransactionRequest{Type: TransactionCredit, Amount: dec("100")})
	require.NoError(t, err)
	second, err := svc.Record(context.Background(), 1, CreateTransactionRequest{Type: TransactionDebit, Amount: dec("50")})
	require.NoError(t, err)

	txs, err := svc.List(context.Background(), 1, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	require.Equal(t, second.ID, txs[0].ID)
	require.Equal(t, first.ID, txs[1].ID)
}

func TestListByReference(t *testing.T) {
	repo := newMemorySupplierRepo()
	svc := NewService(repo, nil, time.Second)

	_, err := svc.Record(context.Background(), 1, CreateTransactionRequest{Type: TransactionCredit, Amount: dec("9000"), Reference: "INV-77"})
	require.NoError(t, err)
	want, err := svc.Record(context.Background(), 1, CreateTransactionRequest{Type: TransactionDebit, Amount: dec("9000"), Reference: "RCPT-12"})
	require.NoError(t, err)

	txs, err := svc.List(context.Background(), 1, "RCPT-12", 10, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, want.ID, txs[0].ID)
}
