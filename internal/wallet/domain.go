package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statement is the derived financial position of a driver. The balance is
// never stored; it is recomputed from cash at hand, approved submissions and
// open penalty balances on every read.
type Statement struct {
	DriverID         int64           `json:"driver_id"`
	CashAtHand       decimal.Decimal `json:"cash_at_hand"`
	ApprovedTotal    decimal.Decimal `json:"approved_total"`
	OpenPenaltyTotal decimal.Decimal `json:"open_penalty_total"`
	Balance          decimal.Decimal `json:"balance"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	Savings          decimal.Decimal `json:"savings"`
	ComputedAt       time.Time       `json:"computed_at"`
}

// Decision is the credit-gate verdict for a driver.
type Decision struct {
	DriverID    int64           `json:"driver_id"`
	CanAccept   bool            `json:"can_accept_delivery"`
	Balance     decimal.Decimal `json:"balance"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	ComputedAt  time.Time       `json:"computed_at"`
}

// OfficeBalance aggregates cash routed to the office by channel.
type OfficeBalance struct {
	Total      decimal.Decimal            `json:"total"`
	ByAccount  map[string]decimal.Decimal `json:"by_account"`
	ComputedAt time.Time                  `json:"computed_at"`
}
