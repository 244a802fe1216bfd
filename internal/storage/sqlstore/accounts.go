package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const accountColumns = `id, email, display_name, password_hash, is_admin, approved, balance, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.DisplayName,
		&account.PasswordHash,
		&account.IsAdmin,
		&account.Approved,
		&account.Balance,
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	return account, err
}

// CreateAccount inserts a new account into the database.
func (s *SQLStore) CreateAccount(ctx context.Context, account *models.Account) error {
	// Generate ID if not set
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if account.CreatedAt == 0 {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	_, err := s.exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Email,
		account.DisplayName,
		account.PasswordHash,
		account.IsAdmin,
		account.Approved,
		account.Balance,
		account.Version,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetAccount retrieves an account by its ID.
func (s *SQLStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return s.conn.getAccount(ctx, id)
}

// GetAccount reads an account inside the unit of work.
func (t *txStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return t.conn.getAccount(ctx, id)
}

func (c conn) getAccount(ctx context.Context, id string) (*models.Account, error) {
	account, err := scanAccount(c.queryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by ID: %w", c.dialect.classify(err))
	}
	return account, nil
}

// GetAccountByEmail retrieves an account by its email address.
func (s *SQLStore) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	account, err := scanAccount(s.queryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", email, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}

// GetAccountsByIDs retrieves multiple accounts by their IDs.
// Returns a map of account ID to Account.
// Accounts that don't exist are omitted from the result.
func (s *SQLStore) GetAccountsByIDs(ctx context.Context, ids []string) (map[string]*models.Account, error) {
	accounts := make(map[string]*models.Account, len(ids))
	if len(ids) == 0 {
		return accounts, nil
	}

	// Build the IN clause with placeholders
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id IN (?` + repeatPlaceholder(len(ids)-1) + `)`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts[account.ID] = account
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// ListAccounts returns accounts ordered by creation time.
func (s *SQLStore) ListAccounts(ctx context.Context, filter storage.AccountFilter) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	var args []any
	if filter.Approved != nil {
		query += ` WHERE approved = ?`
		args = append(args, *filter.Approved)
	}
	query += ` ORDER BY created_at, id` + limitClause(filter.Page)

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// UpdateAccount writes the profile fields if the stored version still matches.
// The balance column is never touched here; it only moves through AdjustBalance.
func (s *SQLStore) UpdateAccount(ctx context.Context, account *models.Account) error {
	now := time.Now().Unix()
	res, err := s.exec(ctx,
		`UPDATE accounts
		 SET email = ?, display_name = ?, password_hash = ?, is_admin = ?, approved = ?,
		     version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		account.Email,
		account.DisplayName,
		account.PasswordHash,
		account.IsAdmin,
		account.Approved,
		now,
		account.ID,
		account.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		if _, err := s.GetAccount(ctx, account.ID); err != nil {
			return err
		}
		return fmt.Errorf("account %s version %d: %w", account.ID, account.Version, storage.ErrConflict)
	}

	account.Version++
	account.UpdatedAt = now
	return nil
}

// AdjustBalance atomically adds delta to the balance. The addition happens in SQL so
// concurrent commits touching the same account never lose an update.
func (t *txStore) AdjustBalance(ctx context.Context, accountID string, delta models.Amount) (*models.Account, error) {
	account, err := scanAccount(t.queryRow(ctx,
		`UPDATE accounts
		 SET balance = balance + ?, version = version + 1, updated_at = ?
		 WHERE id = ?
		 RETURNING `+accountColumns,
		delta, time.Now().Unix(), accountID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to adjust balance: %w", t.dialect.classify(err))
	}
	return account, nil
}

// repeatPlaceholder returns a string of ", ?" repeated n times.
// Used for building IN clauses with multiple placeholders.
func repeatPlaceholder(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(", ?", n)
}
