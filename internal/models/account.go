package models

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a registered member of the app and their balance.
type Account struct {
	// ID is the unique identifier for the account (UUID format).
	ID string

	// Email is the login address (unique).
	Email string

	// DisplayName is shown on transaction messages, e.g. "Top up by <DisplayName>".
	DisplayName string

	// PasswordHash is the bcrypt hash of the account password.
	PasswordHash string

	// IsAdmin marks accounts allowed to approve events and top-ups.
	IsAdmin bool

	// Approved is set by an admin; only approved accounts can take part in events
	// or receive transfers.
	Approved bool

	// Balance is the signed sum of every ledger delta applied to this account.
	// It is only changed through the ledger commit path.
	Balance Amount

	// Version increases on every write and guards compare-and-swap updates.
	Version int64

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last write.
	UpdatedAt int64
}

// NewAccount creates an unapproved account with a fresh ID and zero balance.
func NewAccount(email, displayName, passwordHash string) *Account {
	now := time.Now().Unix()
	return &Account{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
