package submissions

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// SubmissionType is the closed set of cash-submission kinds. New kinds are a
// code change with an additive migration, not an ALTER TYPE on a live enum.
type SubmissionType string

const (
	TypePurchases       SubmissionType = "purchases"
	TypeCash            SubmissionType = "cash"
	TypeGeneralExpense  SubmissionType = "general_expense"
	TypePaymentToOffice SubmissionType = "payment_to_office"
	TypeOrderPayment    SubmissionType = "order_payment"
	TypeWalkInSale      SubmissionType = "walk_in_sale"
)

// Valid reports whether t is a known submission type.
func (t SubmissionType) Valid() bool {
	switch t {
	case TypePurchases, TypeCash, TypeGeneralExpense, TypePaymentToOffice, TypeOrderPayment, TypeWalkInSale:
		return true
	}
	return false
}

// IsSettlement reports whether an approved submission of this type represents
// money returned to the company, which feeds penalty amortization.
func (t SubmissionType) IsSettlement() bool {
	switch t {
	case TypeCash, TypePaymentToOffice, TypeOrderPayment:
		return true
	}
	return false
}

// IsExpense reports whether this type records money the driver spent on the
// company's behalf. Expense types never amortize penalties.
func (t SubmissionType) IsExpense() bool {
	switch t {
	case TypePurchases, TypeGeneralExpense:
		return true
	}
	return false
}

// SubmissionStatus enumerates the submission lifecycle. pending is the only
// non-terminal state; approved and rejected are final.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// Terminal reports whether no further transition may leave this status.
func (s SubmissionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CashSubmission is an attestation of money moved, originated by exactly one
// of a driver or an admin.
type CashSubmission struct {
	ID              int64            `json:"id"`
	DriverID        *int64           `json:"driver_id,omitempty"`
	AdminID         *int64           `json:"admin_id,omitempty"`
	SubmissionType  SubmissionType   `json:"submission_type"`
	Status          SubmissionStatus `json:"status"`
	Amount          decimal.Decimal  `json:"amount"`
	Details         json.RawMessage  `json:"details,omitempty"`
	ApprovedBy      *int64           `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty"`
	RejectedBy      *int64           `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time       `json:"rejected_at,omitempty"`
	RejectionReason *string          `json:"rejection_reason,omitempty"`
	OrderIDs        []int64          `json:"order_ids,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// StatusCounts summarises a driver's submissions per status.
type StatusCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// AmortizationResult reports how an approved settlement was split between
// penalty balances and the general wallet.
type AmortizationResult struct {
	Applied   decimal.Decimal `json:"applied_to_penalties"`
	Remainder decimal.Decimal `json:"credited_to_wallet"`
}
