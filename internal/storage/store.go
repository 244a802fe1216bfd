// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a compare-and-swap precondition no longer holds.
	ErrConflict = errors.New("conflict")

	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate")

	// ErrTransient marks failures that may succeed when the unit of work is retried
	// (lock contention, serialization failures).
	ErrTransient = errors.New("transient storage failure")
)

// Page selects a window of a listing. Zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// AccountFilter narrows ListAccounts.
type AccountFilter struct {
	Approved *bool
	Page     Page
}

// EventFilter narrows ListEvents.
type EventFilter struct {
	OwnerID       string
	ExcludeStatus models.Status
	Page          Page
}

// TransactionFilter narrows ListTransactions.
// AccountID matches either side of the transaction.
type TransactionFilter struct {
	AccountID string
	EventID   string
	Ascending bool
	Page      Page
}

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the workflow layer.
type Store interface {
	// CreateAccount persists a new account. Returns ErrDuplicate if the email is taken.
	CreateAccount(ctx context.Context, account *models.Account) error

	// GetAccount retrieves an account by ID. Returns ErrNotFound if absent.
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)

	// GetAccountByEmail retrieves an account by email. Returns ErrNotFound if absent.
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)

	// GetAccountsByIDs returns a map of account ID to account.
	// Accounts that don't exist are omitted from the result.
	GetAccountsByIDs(ctx context.Context, ids []string) (map[string]*models.Account, error)

	// ListAccounts returns accounts ordered by creation time.
	ListAccounts(ctx context.Context, filter AccountFilter) ([]*models.Account, error)

	// UpdateAccount writes profile fields (not the balance) if account.Version still
	// matches the stored version, then bumps the version. Returns ErrConflict otherwise.
	UpdateAccount(ctx context.Context, account *models.Account) error

	// CreateEvent persists a new event with its members and contributions.
	CreateEvent(ctx context.Context, event *models.Event) error

	// GetEvent retrieves an event by ID. Returns ErrNotFound if absent.
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)

	// UpdateWaitingEvent replaces the event's content, amount, date and contributor
	// lists only while it is still WAITING. Returns ErrConflict if it is not.
	UpdateWaitingEvent(ctx context.Context, event *models.Event) error

	// ListEvents returns events newest first.
	ListEvents(ctx context.Context, filter EventFilter) ([]*models.Event, error)

	// GetTransaction retrieves a transaction by ID. Returns ErrNotFound if absent.
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)

	// ListTransactions returns transactions ordered by creation time.
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]*models.Transaction, error)

	// SumEntriesByAccount returns the sum of all ledger entry deltas per account.
	SumEntriesByAccount(ctx context.Context) (map[string]models.Amount, error)

	// WithinTx runs fn inside a single unit of work. If fn returns an error every
	// write made through tx is rolled back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}

// Tx is the set of writes that must happen atomically with a settlement,
// transfer or top-up. It is only valid inside Store.WithinTx.
type Tx interface {
	// GetAccount reads an account inside the unit of work.
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)

	// TransitionEventStatus sets status to `to` only if it currently equals `from`.
	// Returns ErrNotFound if the event is absent, ErrConflict if the status differs.
	TransitionEventStatus(ctx context.Context, eventID string, from, to models.Status) (*models.Event, error)

	// TransitionTransactionStatus is TransitionEventStatus for top-up transactions.
	TransitionTransactionStatus(ctx context.Context, transactionID string, from, to models.Status) (*models.Transaction, error)

	// AdjustBalance atomically adds delta to the account balance and returns the
	// updated account. Returns ErrNotFound if the account does not exist.
	AdjustBalance(ctx context.Context, accountID string, delta models.Amount) (*models.Account, error)

	// InsertEntries appends ledger entries.
	InsertEntries(ctx context.Context, entries []models.LedgerEntry) error

	// InsertTransactions appends transaction records.
	InsertTransactions(ctx context.Context, transactions []*models.Transaction) error
}
