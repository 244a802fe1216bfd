package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CheckTransition reports whether current may move to `to`.
// Only WAITING → APPROVE and WAITING → DECLINE are allowed.
func CheckTransition(current, to models.Status) error {
	if to != models.StatusApprove && to != models.StatusDecline {
		return InvalidState(fmt.Sprintf("cannot transition to %q", to))
	}
	if current != models.StatusWaiting {
		return InvalidState(fmt.Sprintf("status is %s, expected %s", current, models.StatusWaiting))
	}
	return nil
}

// TransitionEvent flips an event out of WAITING inside the unit of work.
// Losing the race to another writer yields a conflict.
func TransitionEvent(ctx context.Context, tx storage.Tx, eventID string, to models.Status) (*models.Event, error) {
	if err := CheckTransition(models.StatusWaiting, to); err != nil {
		return nil, err
	}
	event, err := tx.TransitionEventStatus(ctx, eventID, models.StatusWaiting, to)
	if err != nil {
		return nil, transitionError("event", eventID, err)
	}
	return event, nil
}

// TransitionTransaction is TransitionEvent for top-up transactions.
func TransitionTransaction(ctx context.Context, tx storage.Tx, transactionID string, to models.Status) (*models.Transaction, error) {
	if err := CheckTransition(models.StatusWaiting, to); err != nil {
		return nil, err
	}
	transaction, err := tx.TransitionTransactionStatus(ctx, transactionID, models.StatusWaiting, to)
	if err != nil {
		return nil, transitionError("transaction", transactionID, err)
	}
	return transaction, nil
}

func transitionError(entity, id string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return NotFound(entity, id)
	case errors.Is(err, storage.ErrConflict):
		return Conflict(fmt.Sprintf("%s %s was resolved concurrently", entity, id), err)
	}
	return err
}
