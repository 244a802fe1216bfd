package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/storage"
)

// MaxContentLength bounds an event's description, in characters.
const MaxContentLength = 500

// EventInput is the editable part of an event.
type EventInput struct {
	Content  string
	Amount   models.Amount
	Date     time.Time
	Members  []string
	PrePaids []models.Contribution
	Sponsors []models.Contribution
}

// EventQuery narrows ListEvents.
type EventQuery struct {
	OwnerID string
	Page    storage.Page
}

// Settlement is the committed outcome of approving or declining an event.
type Settlement struct {
	Event *models.Event

	// Accounts are the accounts whose balance changed, sorted by id.
	Accounts []*models.Account

	// Transactions are the records written for the event.
	Transactions []*models.Transaction
}

// CreateEvent validates and stores a new WAITING event owned by the actor.
func (e *Engine) CreateEvent(ctx context.Context, actor Actor, in EventInput) (*models.Event, error) {
	if _, err := e.store.GetAccount(ctx, actor.AccountID); err != nil {
		return nil, readError("account", actor.AccountID, err)
	}

	event := in.toEvent()
	event.OwnerID = actor.AccountID
	if err := e.validateEvent(ctx, event); err != nil {
		return nil, err
	}

	if err := e.store.CreateEvent(ctx, event); err != nil {
		return nil, ledger.Persistence("failed to create event", err)
	}

	slog.Info("Event created", "event_id", event.ID, "owner_id", event.OwnerID, "amount", event.Amount)
	return event, nil
}

// UpdateEvent replaces the editable fields of a WAITING event. Only the owner or an
// admin may edit it.
func (e *Engine) UpdateEvent(ctx context.Context, actor Actor, eventID string, in EventInput) (*models.Event, error) {
	current, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, readError("event", eventID, err)
	}
	if current.OwnerID != actor.AccountID && !actor.IsAdmin {
		return nil, ledger.Forbidden("only the owner or an admin can edit an event")
	}
	if current.Status != models.StatusWaiting {
		return nil, ledger.InvalidState(fmt.Sprintf("event %s is %s and can no longer be edited", eventID, current.Status))
	}

	event := in.toEvent()
	event.ID = current.ID
	event.OwnerID = current.OwnerID
	event.CreatedAt = current.CreatedAt
	if err := e.validateEvent(ctx, event); err != nil {
		return nil, err
	}

	if err := e.store.UpdateWaitingEvent(ctx, event); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ledger.Conflict(fmt.Sprintf("event %s was resolved concurrently", eventID), err)
		}
		return nil, readError("event", eventID, err)
	}

	slog.Info("Event updated", "event_id", event.ID, "actor_id", actor.AccountID)
	return event, nil
}

// GetEvent returns one event.
func (e *Engine) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, readError("event", eventID, err)
	}
	return event, nil
}

// ListEvents returns events newest first. Declined events are hidden.
func (e *Engine) ListEvents(ctx context.Context, q EventQuery) ([]*models.Event, error) {
	events, err := e.store.ListEvents(ctx, storage.EventFilter{
		OwnerID:       q.OwnerID,
		ExcludeStatus: models.StatusDecline,
		Page:          q.Page,
	})
	if err != nil {
		return nil, ledger.Persistence("failed to list events", err)
	}
	return events, nil
}

// ApproveEvent settles a WAITING event. The status flip, every balance delta, the
// journal entries and the transaction records commit together or not at all.
func (e *Engine) ApproveEvent(ctx context.Context, eventID string) (*Settlement, error) {
	event, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, readError("event", eventID, err)
	}
	if err := ledger.CheckTransition(event.Status, models.StatusApprove); err != nil {
		return nil, err
	}

	plan, err := calculator.Settle(event)
	if err != nil {
		return nil, err
	}
	if err := e.requireAccounts(ctx, event.AccountIDs(), false); err != nil {
		return nil, err
	}

	result := &Settlement{}
	err = e.runUnit(ctx, "approve_event", func(ctx context.Context, tx storage.Tx) error {
		approved, err := ledger.TransitionEvent(ctx, tx, eventID, models.StatusApprove)
		if err != nil {
			return err
		}
		accounts, err := e.ledger.Commit(ctx, tx, ledger.Source{Kind: models.SourceEvent, ID: eventID}, plan.Deltas)
		if err != nil {
			return err
		}
		transactions, err := e.recorder.Record(ctx, tx, plan.Transactions)
		if err != nil {
			return err
		}
		result.Event, result.Accounts, result.Transactions = approved, accounts, transactions
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Event approved",
		"event_id", eventID,
		"amount", event.Amount,
		"members", len(plan.Shares),
		"transactions", len(result.Transactions),
	)
	e.publish(ctx, notify.SubjectEventApproved, settledPayload(result))
	return result, nil
}

// DeclineEvent closes a WAITING event without moving any money.
func (e *Engine) DeclineEvent(ctx context.Context, eventID string) (*Settlement, error) {
	event, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, readError("event", eventID, err)
	}
	if err := ledger.CheckTransition(event.Status, models.StatusDecline); err != nil {
		return nil, err
	}

	result := &Settlement{}
	err = e.runUnit(ctx, "decline_event", func(ctx context.Context, tx storage.Tx) error {
		declined, err := ledger.TransitionEvent(ctx, tx, eventID, models.StatusDecline)
		if err != nil {
			return err
		}
		result.Event = declined
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Event declined", "event_id", eventID)
	e.publish(ctx, notify.SubjectEventDeclined, settledPayload(result))
	return result, nil
}

func settledPayload(s *Settlement) notify.EventSettled {
	payload := notify.EventSettled{
		EventID: s.Event.ID,
		OwnerID: s.Event.OwnerID,
		Status:  s.Event.Status,
		Amount:  s.Event.Amount,
	}
	for _, t := range s.Transactions {
		payload.Transactions = append(payload.Transactions, t.ID)
	}
	if len(s.Accounts) > 0 {
		payload.Balances = make(map[string]models.Amount, len(s.Accounts))
		for _, a := range s.Accounts {
			payload.Balances[a.ID] = a.Balance
		}
	}
	return payload
}

func (in EventInput) toEvent() *models.Event {
	return &models.Event{
		Content:  strings.TrimSpace(in.Content),
		Amount:   in.Amount,
		Date:     in.Date,
		Members:  in.Members,
		PrePaids: in.PrePaids,
		Sponsors: in.Sponsors,
		Status:   models.StatusWaiting,
	}
}

// validateEvent checks the event's fields, its arithmetic and that everyone it
// references is an existing, approved account.
func (e *Engine) validateEvent(ctx context.Context, event *models.Event) error {
	if event.Content == "" {
		return ledger.Validation("content", "content is required")
	}
	if utf8.RuneCountInString(event.Content) > MaxContentLength {
		return ledger.Validation("content", fmt.Sprintf("content must be at most %d characters", MaxContentLength))
	}
	if event.Date.IsZero() {
		return ledger.Validation("date", "date is required")
	}
	for i, m := range event.Members {
		if m == "" {
			return ledger.Validation(fmt.Sprintf("members[%d]", i), "account id is required")
		}
	}
	for _, group := range []struct {
		field         string
		contributions []models.Contribution
	}{{"sponsors", event.Sponsors}, {"pre_paids", event.PrePaids}} {
		for i, c := range group.contributions {
			if c.AccountID == "" {
				return ledger.Validation(fmt.Sprintf("%s[%d].account_id", group.field, i), "account id is required")
			}
		}
	}

	if _, err := calculator.Settle(event); err != nil {
		return err
	}
	return e.requireAccounts(ctx, event.AccountIDs(), true)
}

// requireAccounts fails with a validation error if any id is not an account, or,
// when approved is set, not an approved one.
func (e *Engine) requireAccounts(ctx context.Context, ids []string, approved bool) error {
	accounts, err := e.store.GetAccountsByIDs(ctx, ids)
	if err != nil {
		return ledger.Persistence("failed to load accounts", err)
	}
	for _, id := range ids {
		account, ok := accounts[id]
		if !ok {
			return ledger.Validation("account_id", fmt.Sprintf("account %s does not exist", id))
		}
		if approved && !account.Approved {
			return ledger.Validation("account_id", fmt.Sprintf("account %s is not approved", id))
		}
	}
	return nil
}
