package points

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cardwatch/cardwatch/internal/domain"
)

// mockLookup serves a fixed multiplier table keyed by category|card.
type mockLookup struct {
	rows map[string]*domain.Multiplier
}

func (m *mockLookup) FindMultiplier(ctx context.Context, category, card string) (*domain.Multiplier, error) {
	return m.rows[category+"|"+card], nil
}

func newLookup(rows ...*domain.Multiplier) *mockLookup {
	l := &mockLookup{rows: make(map[string]*domain.Multiplier)}
	for _, r := range rows {
		l.rows[r.Category+"|"+r.Card] = r
	}
	return l
}

func TestIsAutoPay(t *testing.T) {
	tests := []struct {
		description string
		want        bool
	}{
		{"AUTOPAY THANK YOU", true},
		{"AUTO PAY THANK YOU", true},
		{"auto pay", true},
		{"Thank you - AUTO payment PAY", true},
		{"PAY AUTO", true},
		{"AUTOMOTIVE PAYMENT", false},
		{"STARBUCKS", false},
		{"AUTO PARTS", false},
		{"BILL PAY", false},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			if got := IsAutoPay(tt.description); got != tt.want {
				t.Errorf("IsAutoPay(%q) = %v, want %v", tt.description, got, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	dining := &domain.Multiplier{ID: uuid.New(), Category: "Dining", Card: "amex", Multiplier: 3}
	payment := &domain.Multiplier{ID: uuid.New(), Category: "Payment", Card: "amex", Multiplier: 2}
	lookup := newLookup(dining, payment)

	tests := []struct {
		name        string
		description string
		amount      string
		category    string
		card        string
		wantValid   bool
		wantPoints  string
	}{
		{
			name:        "matching multiplier",
			description: "STARBUCKS",
			amount:      "4.20",
			category:    "Dining",
			card:        "amex",
			wantValid:   true,
			wantPoints:  "12",
		},
		{
			name:        "half to even rounds down at 4.50",
			description: "STARBUCKS",
			amount:      "4.50",
			category:    "Dining",
			card:        "amex",
			wantValid:   true,
			wantPoints:  "12",
		},
		{
			name:        "half to even rounds up at 5.50",
			description: "STARBUCKS",
			amount:      "5.50",
			category:    "Dining",
			card:        "amex",
			wantValid:   true,
			wantPoints:  "18",
		},
		{
			name:        "zero amount earns zero points, still applicable",
			description: "REFUND ADJUSTMENT",
			amount:      "0.00",
			category:    "Dining",
			card:        "amex",
			wantValid:   true,
			wantPoints:  "0",
		},
		{
			name:        "negative amount earns negative points",
			description: "STARBUCKS REFUND",
			amount:      "-4.00",
			category:    "Dining",
			card:        "amex",
			wantValid:   true,
			wantPoints:  "-12",
		},
		{
			name:        "auto pay excluded even with matching multiplier",
			description: "AUTO PAY THANK YOU",
			amount:      "250.00",
			category:    "Payment",
			card:        "amex",
			wantValid:   false,
		},
		{
			name:        "missing category disables lookup",
			description: "STARBUCKS",
			amount:      "4.20",
			category:    "",
			card:        "amex",
			wantValid:   false,
		},
		{
			name:        "no multiplier row",
			description: "STARBUCKS",
			amount:      "4.20",
			category:    "Groceries",
			card:        "amex",
			wantValid:   false,
		},
		{
			name:        "wrong card",
			description: "STARBUCKS",
			amount:      "4.20",
			category:    "Dining",
			card:        "visa",
			wantValid:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &domain.Transaction{
				Description: tt.description,
				Amount:      decimal.RequireFromString(tt.amount),
				Category:    tt.category,
				Card:        tt.card,
			}

			if err := Apply(ctx, tx, lookup); err != nil {
				t.Fatalf("Apply failed: %v", err)
			}

			if tx.Points.Valid != tt.wantValid {
				t.Fatalf("Points.Valid = %v, want %v", tx.Points.Valid, tt.wantValid)
			}
			if tt.wantValid {
				want := decimal.RequireFromString(tt.wantPoints)
				if !tx.Points.Decimal.Equal(want) {
					t.Errorf("points = %s, want %s", tx.Points.Decimal, want)
				}
				if !tx.MultiplierID.Valid {
					t.Error("expected multiplier reference to be set")
				}
			} else if tx.MultiplierID.Valid {
				t.Error("expected no multiplier reference")
			}
		})
	}
}

// Recomputation overwrites whatever was on the transaction before.
func TestApply_OverwritesPriorPoints(t *testing.T) {
	lookup := newLookup()
	tx := &domain.Transaction{
		Description: "STARBUCKS",
		Amount:      decimal.RequireFromString("4.20"),
		Category:    "Dining",
		Card:        "amex",
		Points:      decimal.NullDecimal{Decimal: decimal.RequireFromString("999"), Valid: true},
	}

	if err := Apply(context.Background(), tx, lookup); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if tx.Points.Valid {
		t.Errorf("points = %s, want not applicable", tx.Points.Decimal)
	}
}
