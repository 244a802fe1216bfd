package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/storage"
)

// Posting is the committed outcome of a transfer or top-up.
type Posting struct {
	Transaction *models.Transaction

	// Accounts are the accounts whose balance changed, sorted by id. Empty for a
	// top-up request or a declined top-up.
	Accounts []*models.Account
}

// Transfer moves amount from the actor to receiverID. Balances may go negative.
func (e *Engine) Transfer(ctx context.Context, actor Actor, receiverID string, amount models.Amount, message string) (*Posting, error) {
	senderID := actor.AccountID
	if senderID == receiverID {
		return nil, ledger.Validation("receiver_id", "cannot transfer to yourself")
	}
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	if _, err := e.store.GetAccount(ctx, senderID); err != nil {
		return nil, readError("account", senderID, err)
	}
	receiver, err := e.store.GetAccount(ctx, receiverID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ledger.Validation("receiver_id", fmt.Sprintf("account %s does not exist", receiverID))
	}
	if err != nil {
		return nil, readError("account", receiverID, err)
	}
	if !receiver.Approved {
		return nil, ledger.Validation("receiver_id", fmt.Sprintf("account %s is not approved", receiverID))
	}

	draft := &models.Transaction{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Message:    message,
		Status:     models.StatusApprove,
	}
	deltas := []models.Delta{
		{AccountID: senderID, Amount: -amount},
		{AccountID: receiverID, Amount: amount},
	}

	result, err := e.post(ctx, "transfer", draft, deltas)
	if err != nil {
		return nil, err
	}

	slog.Info("Transfer completed", "transaction_id", draft.ID, "sender_id", senderID, "receiver_id", receiverID, "amount", amount)
	e.publish(ctx, notify.SubjectTransferCompleted, notify.NewTransactionPosted(result.Transaction))
	return result, nil
}

// RequestTopUp records a WAITING top-up for the actor. Balances are untouched until
// an admin approves it.
func (e *Engine) RequestTopUp(ctx context.Context, actor Actor, amount models.Amount) (*Posting, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	account, err := e.store.GetAccount(ctx, actor.AccountID)
	if err != nil {
		return nil, readError("account", actor.AccountID, err)
	}

	draft := &models.Transaction{
		ID:       uuid.New().String(),
		SenderID: account.ID,
		Amount:   amount,
		Message:  fmt.Sprintf("Top up by %s", account.DisplayName),
		IsTopUp:  true,
		Status:   models.StatusWaiting,
	}

	result, err := e.post(ctx, "request_top_up", draft, nil)
	if err != nil {
		return nil, err
	}

	slog.Info("Top-up requested", "transaction_id", draft.ID, "account_id", account.ID, "amount", amount)
	e.publish(ctx, notify.SubjectTopUpRequested, notify.NewTransactionPosted(result.Transaction))
	return result, nil
}

// TopUpByAdmin credits receiverID directly and records an approved top-up.
func (e *Engine) TopUpByAdmin(ctx context.Context, receiverID string, amount models.Amount) (*Posting, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	receiver, err := e.store.GetAccount(ctx, receiverID)
	if err != nil {
		return nil, readError("account", receiverID, err)
	}

	draft := &models.Transaction{
		ID:         uuid.New().String(),
		ReceiverID: receiver.ID,
		Amount:     amount,
		Message:    fmt.Sprintf("Top up by Admin - for %s", receiver.DisplayName),
		IsTopUp:    true,
		Status:     models.StatusApprove,
	}

	result, err := e.post(ctx, "admin_top_up", draft, []models.Delta{{AccountID: receiver.ID, Amount: amount}})
	if err != nil {
		return nil, err
	}

	slog.Info("Admin top-up applied", "transaction_id", draft.ID, "receiver_id", receiver.ID, "amount", amount)
	e.publish(ctx, notify.SubjectTopUpResolved, notify.NewTransactionPosted(result.Transaction))
	return result, nil
}

// ResolveTopUp approves or declines a WAITING top-up. Approval credits the
// requesting account in the same unit of work as the status change.
func (e *Engine) ResolveTopUp(ctx context.Context, transactionID string, decision models.Status) (*Posting, error) {
	if decision != models.StatusApprove && decision != models.StatusDecline {
		return nil, ledger.Validation("decision", fmt.Sprintf("decision must be %s or %s", models.StatusApprove, models.StatusDecline))
	}

	current, err := e.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, readError("transaction", transactionID, err)
	}
	if !current.IsTopUp {
		return nil, ledger.Validation("transaction_id", fmt.Sprintf("transaction %s is not a top-up", transactionID))
	}
	if err := ledger.CheckTransition(current.Status, decision); err != nil {
		return nil, err
	}

	result := &Posting{}
	err = e.runUnit(ctx, "resolve_top_up", func(ctx context.Context, tx storage.Tx) error {
		resolved, err := ledger.TransitionTransaction(ctx, tx, transactionID, decision)
		if err != nil {
			return err
		}
		result.Transaction = resolved
		result.Accounts = nil
		if decision != models.StatusApprove {
			return nil
		}
		accounts, err := e.ledger.Commit(ctx, tx,
			ledger.Source{Kind: models.SourceTransaction, ID: transactionID},
			[]models.Delta{{AccountID: resolved.SenderID, Amount: resolved.Amount}},
		)
		if err != nil {
			return err
		}
		result.Accounts = accounts
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Top-up resolved", "transaction_id", transactionID, "decision", decision)
	e.publish(ctx, notify.SubjectTopUpResolved, notify.NewTransactionPosted(result.Transaction))
	return result, nil
}

func checkAmount(amount models.Amount) error {
	if amount <= 0 {
		return ledger.Validation("amount", "amount must be positive")
	}
	if amount > models.MaxAmount {
		return ledger.Validation("amount", fmt.Sprintf("amount must not exceed %s", models.MaxAmount))
	}
	return nil
}

// post commits deltas and records draft as one unit of work.
func (e *Engine) post(ctx context.Context, op string, draft *models.Transaction, deltas []models.Delta) (*Posting, error) {
	result := &Posting{}
	err := e.runUnit(ctx, op, func(ctx context.Context, tx storage.Tx) error {
		accounts, err := e.ledger.Commit(ctx, tx, ledger.Source{Kind: models.SourceTransaction, ID: draft.ID}, deltas)
		if err != nil {
			return err
		}
		recorded, err := e.recorder.Record(ctx, tx, []*models.Transaction{draft})
		if err != nil {
			return err
		}
		result.Transaction, result.Accounts = recorded[0], accounts
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
