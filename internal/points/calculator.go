// Package points computes loyalty points earned per transaction from the
// reward multiplier table.
package points

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cardwatch/cardwatch/internal/domain"
)

// Lookup resolves a multiplier row by exact (category, card). Implementations
// return nil with no error when no row matches.
type Lookup interface {
	FindMultiplier(ctx context.Context, category, card string) (*domain.Multiplier, error)
}

// Auto-pay exclusion: both whole words must appear in the uppercased
// description. Word-boundary match, not substring, so "AUTOMOTIVE PAYMENT"
// does not trip the rule. The fused spelling "AUTOPAY" counts as both words,
// since that is how card issuers usually print it.
var (
	autoWord = regexp.MustCompile(`\bAUTO(PAY)?\b`)
	payWord  = regexp.MustCompile(`\b(AUTO)?PAY\b`)
)

// IsAutoPay reports whether the description names an autopay transfer.
// Autopay transfers are not reward-earning purchases and earn no points even
// when a matching multiplier row exists.
func IsAutoPay(description string) bool {
	desc := strings.ToUpper(description)
	return autoWord.MatchString(desc) && payWord.MatchString(desc)
}

// Apply recomputes tx.Points and tx.MultiplierID in place:
//
//  1. auto-pay description → not applicable, no lookup;
//  2. missing category or card → not applicable, no lookup;
//  3. no (category, card) multiplier row → not applicable;
//  4. otherwise points = round(amount) × multiplier. The amount is rounded to
//     the nearest integer first (half-to-even) and then multiplied, so a zero
//     amount with a matching row yields 0, not "not applicable".
func Apply(ctx context.Context, tx *domain.Transaction, lookup Lookup) error {
	tx.Points = decimal.NullDecimal{}
	tx.MultiplierID = uuid.NullUUID{}

	if IsAutoPay(tx.Description) {
		return nil
	}
	if tx.Category == "" || tx.Card == "" {
		return nil
	}

	m, err := lookup.FindMultiplier(ctx, tx.Category, tx.Card)
	if err != nil {
		return fmt.Errorf("points: multiplier lookup (%s, %s): %w", tx.Category, tx.Card, err)
	}
	if m == nil {
		return nil
	}

	earned := tx.Amount.RoundBank(0).Mul(decimal.NewFromInt(m.Multiplier))
	tx.Points = decimal.NullDecimal{Decimal: earned, Valid: true}
	tx.MultiplierID = uuid.NullUUID{UUID: m.ID, Valid: true}
	return nil
}
