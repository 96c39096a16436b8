package domain

import "errors"

var (
	// ErrDuplicateTransaction signals a natural-key uniqueness violation at
	// the store layer.
	ErrDuplicateTransaction = errors.New("transaction already exists")

	// ErrUserNotFound signals an unknown username or user ID.
	ErrUserNotFound = errors.New("user not found")
)
