package domain

import "github.com/google/uuid"

// Multiplier is one row of the reward multiplier table, keyed by
// (category, card). The table is maintained outside this system; nothing here
// creates or updates rows.
type Multiplier struct {
	ID         uuid.UUID
	Category   string
	Card       string
	Multiplier int64 // integer reward factor, >= 0
}
