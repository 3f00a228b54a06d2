package suppliers

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier is a stocking partner the company buys from.
type Supplier struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TransactionType enumerates the two ledger directions. Credits record goods
// received on account; debits record payments made to the supplier.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Valid reports whether t is a known direction.
func (t TransactionType) Valid() bool {
	return t == TransactionCredit || t == TransactionDebit
}

// Transaction is one append-only ledger entry. Entries are never updated or
// deleted; corrections are posted as offsetting entries. Reference ties the
// entry back to an external document (invoice, delivery note, receipt number).
type Transaction struct {
	ID         int64           `json:"id"`
	SupplierID int64           `json:"supplier_id"`
	Type       TransactionType `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason,omitempty"`
	Reference  string          `json:"reference,omitempty"`
	RecordedBy *int64          `json:"recorded_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Balance is the derived supplier position: credits minus debits. A positive
// balance means the company owes the supplier.
type Balance struct {
	SupplierID  int64           `json:"supplier_id"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	Balance     decimal.Decimal `json:"balance"`
	ComputedAt  time.Time       `json:"computed_at"`
}

// CreateTransactionRequest carries a new ledger entry.
type CreateTransactionRequest struct {
	Type       TransactionType `json:"type" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	Reason     string          `json:"reason,omitempty" validate:"max=500"`
	Reference  string          `json:"reference,omitempty" validate:"max=120"`
	RecordedBy *int64          `json:"recorded_by,omitempty"`
}
