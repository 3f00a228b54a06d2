package penalties

import (
	"time"

	"github.com/shopspring/decimal"
)

// Penalty is a driver-targeted deduction. Balance starts equal to Amount and
// only ever decreases; a settled penalty stays on record with balance zero.
type Penalty struct {
	ID        int64           `json:"id"`
	DriverID  int64           `json:"driver_id"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
	Reason    string          `json:"reason"`
	CreatedBy *int64          `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Open reports whether the penalty still has an unpaid balance.
func (p Penalty) Open() bool {
	return p.Balance.IsPositive()
}

// CreatePenaltyRequest carries an admin-issued penalty.
type CreatePenaltyRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Reason    string          `json:"reason" validate:"required"`
	CreatedBy int64           `json:"created_by" validate:"required,gt=0"`
}

// Summary splits a driver's penalties into open and settled totals.
type Summary struct {
	Penalties    []Penalty       `json:"penalties"`
	OpenBalance  decimal.Decimal `json:"open_balance"`
	TotalIssued  decimal.Decimal `json:"total_issued"`
	TotalSettled decimal.Decimal `json:"total_settled"`
}
