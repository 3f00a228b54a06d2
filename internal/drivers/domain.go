package drivers

import (
	"time"

	"github.com/shopspring/decimal"
)

// Driver is the courier identity the ledger reconciles against. CashAtHand is
// the physical float issued to the driver; CreditLimit is the negative floor
// their derived balance may reach before new deliveries are withheld.
type Driver struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	PhoneNumber      string          `json:"phone_number"`
	CashAtHand       decimal.Decimal `json:"cash_at_hand"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	ValkyrieEligible bool            `json:"valkyrie_eligible"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// DriverWallet holds the driver's savings: delivery-fee withholdings that are
// driver-owned leverage, not company revenue. Savings only move through
// explicit withhold and payout events and are never netted against penalties.
type DriverWallet struct {
	ID        int64           `json:"id"`
	DriverID  int64           `json:"driver_id"`
	Savings   decimal.Decimal `json:"savings"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SavingsEntryType enumerates the two savings movements.
type SavingsEntryType string

const (
	SavingsWithhold SavingsEntryType = "withhold"
	SavingsPayout   SavingsEntryType = "payout"
)

// SavingsEntry is the append-only record behind every savings movement.
type SavingsEntry struct {
	ID        int64            `json:"id"`
	DriverID  int64            `json:"driver_id"`
	EntryType SavingsEntryType `json:"entry_type"`
	Amount    decimal.Decimal  `json:"amount"`
	Reference string           `json:"reference,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// SavingsRequest carries a withhold or payout movement.
type SavingsRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Reference string          `json:"reference,omitempty" validate:"max=120"`
	ActorID   int64           `json:"actor_id" validate:"required,gt=0"`
}
