package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
)

// AccountStorage is the subset of storage.Store the authenticator needs.
type AccountStorage interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage AccountStorage
	cost    int
}

var _ Authenticator = (*PasswordAuthenticator)(nil)

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage AccountStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
		cost:    bcrypt.DefaultCost,
	}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new account with a hashed password. New accounts start
// unapproved with a zero balance.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, displayName, credential string) (*models.Account, error) {
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	hash, err := a.hash(credential)
	if err != nil {
		return nil, err
	}

	account := models.NewAccount(normalizeEmail(email), strings.TrimSpace(displayName), hash)
	if err := a.storage.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// Authenticate verifies the email and password, returning the account if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.Account, error) {
	account, err := a.storage.GetAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

// EnsureAdmin makes sure an approved admin account exists for email. An existing
// account with that email is promoted; otherwise one is created with password.
func (a *PasswordAuthenticator) EnsureAdmin(ctx context.Context, email, password string) (*models.Account, error) {
	email = normalizeEmail(email)
	account, err := a.storage.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		if account.IsAdmin && account.Approved {
			return account, nil
		}
		account.IsAdmin, account.Approved = true, true
		if err := a.storage.UpdateAccount(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to promote admin: %w", err)
		}
		slog.Info("Promoted account to admin", "account_id", account.ID, "email", email)
		return account, nil

	case errors.Is(err, storage.ErrNotFound):
		if err := a.ValidateCredential(password); err != nil {
			return nil, err
		}
		hash, err := a.hash(password)
		if err != nil {
			return nil, err
		}
		account = models.NewAccount(email, "Admin", hash)
		account.IsAdmin, account.Approved = true, true
		if err := a.storage.CreateAccount(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to create admin: %w", err)
		}
		slog.Info("Created admin account", "account_id", account.ID, "email", email)
		return account, nil

	default:
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}
}

func (a *PasswordAuthenticator) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
