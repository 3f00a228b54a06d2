// Package money holds the decimal helpers shared by the ledger repositories.
// Amounts are shopspring decimals end to end; floats never touch a balance.
package money

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Zero is the additive identity, exported for readability at call sites.
var Zero = decimal.Zero

// FromNumeric converts a scanned pgtype.Numeric into a decimal. A NULL column
// converts to zero, which is the correct identity for every ledger sum.
func FromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	if n.NaN {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

// ToNumeric converts a decimal into a pgtype.Numeric for query parameters.
func ToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:   d.Coefficient(),
		Exp:   d.Exponent(),
		Valid: true,
	}
}

// Min returns the smaller of two decimals.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
