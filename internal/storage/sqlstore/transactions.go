package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const transactionColumns = `id, sender_id, receiver_id, amount, message, is_top_up, status, event_id, created_at`

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	transaction := &models.Transaction{}
	var sender, receiver, eventID sql.NullString
	err := row.Scan(
		&transaction.ID,
		&sender,
		&receiver,
		&transaction.Amount,
		&transaction.Message,
		&transaction.IsTopUp,
		&transaction.Status,
		&eventID,
		&transaction.CreatedAt,
	)
	transaction.SenderID = sender.String
	transaction.ReceiverID = receiver.String
	transaction.EventID = eventID.String
	return transaction, err
}

// GetTransaction retrieves a transaction by ID.
func (s *SQLStore) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	return s.conn.getTransaction(ctx, transactionID)
}

func (c conn) getTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	transaction, err := scanTransaction(c.queryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", c.dialect.classify(err))
	}
	return transaction, nil
}

// ListTransactions retrieves transactions matching the filter, newest first unless
// filter.Ascending is set.
func (s *SQLStore) ListTransactions(ctx context.Context, filter storage.TransactionFilter) ([]*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1 = 1`
	var args []any
	if filter.AccountID != "" {
		query += ` AND (sender_id = ? OR receiver_id = ?)`
		args = append(args, filter.AccountID, filter.AccountID)
	}
	if filter.EventID != "" {
		query += ` AND event_id = ?`
		args = append(args, filter.EventID)
	}
	if filter.Ascending {
		query += ` ORDER BY created_at ASC, id ASC`
	} else {
		query += ` ORDER BY created_at DESC, id DESC`
	}
	query += limitClause(filter.Page)

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, transaction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// InsertTransactions persists transaction records. Missing ids and timestamps are filled in.
func (t *txStore) InsertTransactions(ctx context.Context, transactions []*models.Transaction) error {
	now := time.Now().Unix()
	for _, transaction := range transactions {
		if transaction.ID == "" {
			transaction.ID = uuid.New().String()
		}
		if transaction.CreatedAt == 0 {
			transaction.CreatedAt = now
		}

		_, err := t.exec(ctx,
			`INSERT INTO transactions (`+transactionColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			transaction.ID,
			nullString(transaction.SenderID),
			nullString(transaction.ReceiverID),
			transaction.Amount,
			transaction.Message,
			transaction.IsTopUp,
			transaction.Status,
			nullString(transaction.EventID),
			transaction.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
	}
	return nil
}

// TransitionTransactionStatus performs the status compare-and-swap for a top-up.
func (t *txStore) TransitionTransactionStatus(ctx context.Context, transactionID string, from, to models.Status) (*models.Transaction, error) {
	res, err := t.exec(ctx,
		"UPDATE transactions SET status = ? WHERE id = ? AND status = ?",
		to, transactionID, from,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to transition transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check updated rows: %w", err)
	}
	transaction, err := t.getTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("transaction %s is %s: %w", transactionID, transaction.Status, storage.ErrConflict)
	}
	return transaction, nil
}

// InsertEntries appends ledger entries to the journal.
func (t *txStore) InsertEntries(ctx context.Context, entries []models.LedgerEntry) error {
	now := time.Now().Unix()
	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.New().String()
		}
		if entry.CreatedAt == 0 {
			entry.CreatedAt = now
		}
		_, err := t.exec(ctx,
			`INSERT INTO ledger_entries (id, account_id, delta, source_kind, source_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.AccountID, entry.Delta, entry.SourceKind, entry.SourceID, entry.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert ledger entry: %w", err)
		}
	}
	return nil
}

// SumEntriesByAccount totals the journal per account.
func (s *SQLStore) SumEntriesByAccount(ctx context.Context) (map[string]models.Amount, error) {
	rows, err := s.query(ctx,
		"SELECT account_id, SUM(delta) FROM ledger_entries GROUP BY account_id")
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]models.Amount)
	for rows.Next() {
		var accountID string
		var sum models.Amount
		if err := rows.Scan(&accountID, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan ledger sum: %w", err)
		}
		sums[accountID] = sum
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger sums: %w", err)
	}

	return sums, nil
}
