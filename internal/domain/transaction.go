package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one normalized credit-card transaction in the canonical
// schema. Amounts and points carry two decimal places; Points is invalid
// ("not applicable") when no multiplier applies or the auto-pay rule fired.
type Transaction struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	TransactionDate time.Time // date only, from "transaction_date" (YYYY-MM-DD)
	Description     string
	Amount          decimal.Decimal
	Category        string // optional; empty disables the multiplier lookup
	Card            string
	MultiplierID    uuid.NullUUID       // multiplier row used, if any
	Points          decimal.NullDecimal // derived, never user-supplied
	CreatedAt       time.Time
}

// NaturalKey identifies a transaction for duplicate suppression. Category and
// points are deliberately excluded: two imports differing only in category are
// the same purchase.
type NaturalKey struct {
	TransactionDate time.Time
	Description     string
	Amount          decimal.Decimal
	Card            string
}

// Key returns the transaction's natural key.
func (t *Transaction) Key() NaturalKey {
	return NaturalKey{
		TransactionDate: t.TransactionDate,
		Description:     t.Description,
		Amount:          t.Amount,
		Card:            t.Card,
	}
}

// String renders the key in a canonical form usable as a map key, so in-batch
// duplicates are caught before the store is consulted.
func (k NaturalKey) String() string {
	return k.TransactionDate.Format("2006-01-02") + "\x1f" + k.Description + "\x1f" +
		k.Amount.StringFixed(2) + "\x1f" + k.Card
}
