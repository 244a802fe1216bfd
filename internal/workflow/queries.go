package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// TransactionQuery narrows ListTransactions.
type TransactionQuery struct {
	// AccountID matches either side. Non-admins may only ask for their own.
	AccountID string
	EventID   string
	Ascending bool
	Page      storage.Page
}

// GetTransaction returns one transaction. Non-admins only see their own.
func (e *Engine) GetTransaction(ctx context.Context, actor Actor, transactionID string) (*models.Transaction, error) {
	transaction, err := e.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, readError("transaction", transactionID, err)
	}
	if !actor.IsAdmin && transaction.SenderID != actor.AccountID && transaction.ReceiverID != actor.AccountID {
		return nil, ledger.NotFound("transaction", transactionID)
	}
	return transaction, nil
}

// ListTransactions returns transactions newest first unless q.Ascending is set.
func (e *Engine) ListTransactions(ctx context.Context, actor Actor, q TransactionQuery) ([]*models.Transaction, error) {
	if !actor.IsAdmin {
		if q.AccountID == "" {
			q.AccountID = actor.AccountID
		}
		if q.AccountID != actor.AccountID {
			return nil, ledger.Forbidden("cannot list another account's transactions")
		}
	}

	transactions, err := e.store.ListTransactions(ctx, storage.TransactionFilter{
		AccountID: q.AccountID,
		EventID:   q.EventID,
		Ascending: q.Ascending,
		Page:      q.Page,
	})
	if err != nil {
		return nil, ledger.Persistence("failed to list transactions", err)
	}
	return transactions, nil
}

// GetAccount returns one account.
func (e *Engine) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, readError("account", accountID, err)
	}
	return account, nil
}

// ListAccounts returns accounts in creation order, optionally filtered by approval.
func (e *Engine) ListAccounts(ctx context.Context, approved *bool, page storage.Page) ([]*models.Account, error) {
	accounts, err := e.store.ListAccounts(ctx, storage.AccountFilter{Approved: approved, Page: page})
	if err != nil {
		return nil, ledger.Persistence("failed to list accounts", err)
	}
	return accounts, nil
}

// ApproveAccount lets an account take part in events and receive transfers.
// Approving an approved account is a no-op.
func (e *Engine) ApproveAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, readError("account", accountID, err)
	}
	if account.Approved {
		return account, nil
	}

	account.Approved = true
	if err := e.store.UpdateAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ledger.Conflict(fmt.Sprintf("account %s changed concurrently", accountID), err)
		}
		return nil, readError("account", accountID, err)
	}

	slog.Info("Account approved", "account_id", accountID)
	return account, nil
}

// Reconcile compares every stored balance against its ledger journal. The journal
// and the balances are read separately, so commits landing in between can show up
// as discrepancies; run it again to confirm.
func (e *Engine) Reconcile(ctx context.Context) ([]calculator.Discrepancy, error) {
	journal, err := e.store.SumEntriesByAccount(ctx)
	if err != nil {
		return nil, ledger.Persistence("failed to sum ledger entries", err)
	}
	accounts, err := e.store.ListAccounts(ctx, storage.AccountFilter{})
	if err != nil {
		return nil, ledger.Persistence("failed to list accounts", err)
	}

	balances := make([]calculator.AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		balances = append(balances, calculator.AccountBalance{AccountID: a.ID, Balance: a.Balance})
	}

	discrepancies := calculator.Reconcile(balances, journal)
	if len(discrepancies) > 0 {
		slog.Warn("Ledger discrepancies found", "count", len(discrepancies))
	}
	return discrepancies, nil
}
