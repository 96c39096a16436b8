package domain

import "github.com/google/uuid"

// User is the authenticated owner that persisted transactions are attributed
// to. Password hashes are bcrypt.
type User struct {
	ID             uuid.UUID
	Username       string
	Email          string
	HashedPassword string
	IsActive       bool
}
