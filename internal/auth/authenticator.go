// Package auth verifies who is calling: password accounts and the signed session
// tokens handed out after login.
package auth

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// Authenticator turns credentials into an account.
type Authenticator interface {
	// Register creates an unapproved account. An admin must approve it before it
	// can join events or receive transfers.
	Register(ctx context.Context, email, displayName, credential string) (*models.Account, error)

	// Authenticate returns the account matching email and credential, or
	// ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, credential string) (*models.Account, error)

	// ValidateCredential reports whether credential is acceptable for a new account.
	ValidateCredential(credential string) error
}
