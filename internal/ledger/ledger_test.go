package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// fakeTx is an in-memory storage.Tx that records the order of writes.
type fakeTx struct {
	balances     map[string]models.Amount
	events       map[string]models.Status
	transactions map[string]*models.Transaction
	adjusted     []string
	entries      []models.LedgerEntry
	inserted     []*models.Transaction
	insertErr    error
}

func newFakeTx(accounts ...string) *fakeTx {
	tx := &fakeTx{
		balances:     make(map[string]models.Amount),
		events:       make(map[string]models.Status),
		transactions: make(map[string]*models.Transaction),
	}
	for _, id := range accounts {
		tx.balances[id] = 0
	}
	return tx
}

func (f *fakeTx) GetAccount(_ context.Context, id string) (*models.Account, error) {
	balance, ok := f.balances[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &models.Account{ID: id, Balance: balance}, nil
}

func (f *fakeTx) TransitionEventStatus(_ context.Context, id string, from, to models.Status) (*models.Event, error) {
	status, ok := f.events[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if status != from {
		return nil, fmt.Errorf("event %s is %s: %w", id, status, storage.ErrConflict)
	}
	f.events[id] = to
	return &models.Event{ID: id, Status: to}, nil
}

func (f *fakeTx) TransitionTransactionStatus(_ context.Context, id string, from, to models.Status) (*models.Transaction, error) {
	transaction, ok := f.transactions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if transaction.Status != from {
		return nil, storage.ErrConflict
	}
	transaction.Status = to
	return transaction, nil
}

func (f *fakeTx) AdjustBalance(_ context.Context, id string, delta models.Amount) (*models.Account, error) {
	if _, ok := f.balances[id]; !ok {
		return nil, storage.ErrNotFound
	}
	f.balances[id] += delta
	f.adjusted = append(f.adjusted, id)
	return &models.Account{ID: id, Balance: f.balances[id]}, nil
}

func (f *fakeTx) InsertEntries(_ context.Context, entries []models.LedgerEntry) error {
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeTx) InsertTransactions(_ context.Context, transactions []*models.Transaction) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, transactions...)
	return nil
}

func TestNet(t *testing.T) {
	net := Net([]models.Delta{
		{AccountID: "c", Amount: 5},
		{AccountID: "a", Amount: -3},
		{AccountID: "b", Amount: 7},
		{AccountID: "a", Amount: 3},
		{AccountID: "c", Amount: 1},
	})
	assert.Equal(t, []models.Delta{
		{AccountID: "b", Amount: 7},
		{AccountID: "c", Amount: 6},
	}, net)
}

func TestLedgerCommit(t *testing.T) {
	ctx := context.Background()
	source := Source{Kind: models.SourceEvent, ID: "e1"}

	t.Run("applies net deltas in sorted order and journals them", func(t *testing.T) {
		tx := newFakeTx("alice", "bob", "carol")
		accounts, err := New().Commit(ctx, tx, source, []models.Delta{
			{AccountID: "carol", Amount: -100},
			{AccountID: "alice", Amount: 250},
			{AccountID: "bob", Amount: -150},
			{AccountID: "alice", Amount: -250},
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"bob", "carol"}, tx.adjusted)
		require.Len(t, accounts, 2)
		assert.Equal(t, models.Amount(-150), accounts[0].Balance)
		assert.Equal(t, models.Amount(0), tx.balances["alice"])

		require.Len(t, tx.entries, 2)
		for _, entry := range tx.entries {
			assert.Equal(t, models.SourceEvent, entry.SourceKind)
			assert.Equal(t, "e1", entry.SourceID)
		}
	})

	t.Run("missing account is a validation error", func(t *testing.T) {
		tx := newFakeTx("alice")
		_, err := New().Commit(ctx, tx, source, []models.Delta{
			{AccountID: "alice", Amount: 10},
			{AccountID: "zed", Amount: -10},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, tx.entries)
	})

	t.Run("empty deltas are a no-op", func(t *testing.T) {
		tx := newFakeTx()
		accounts, err := New().Commit(ctx, tx, source, nil)
		require.NoError(t, err)
		assert.Nil(t, accounts)
		assert.Empty(t, tx.entries)
	})
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns ids and timestamps", func(t *testing.T) {
		tx := newFakeTx()
		recorded, err := NewRecorder().Record(ctx, tx, []*models.Transaction{
			{SenderID: "a", ReceiverID: "b", Amount: 10, Status: models.StatusApprove},
			{SenderID: "b", ReceiverID: "a", Amount: 0, Status: models.StatusApprove},
		})
		require.NoError(t, err)
		require.Len(t, recorded, 2)
		for _, transaction := range recorded {
			assert.NotEmpty(t, transaction.ID)
			assert.NotZero(t, transaction.CreatedAt)
		}
		assert.NotEqual(t, recorded[0].ID, recorded[1].ID)
		assert.Len(t, tx.inserted, 2)
	})

	t.Run("rejects negative amounts before writing", func(t *testing.T) {
		tx := newFakeTx()
		_, err := NewRecorder().Record(ctx, tx, []*models.Transaction{
			{SenderID: "a", ReceiverID: "b", Amount: 10, Status: models.StatusApprove},
			{SenderID: "a", ReceiverID: "b", Amount: -1, Status: models.StatusApprove},
		})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, tx.inserted)
	})

	t.Run("propagates storage failures", func(t *testing.T) {
		tx := newFakeTx()
		tx.insertErr = errors.New("disk full")
		_, err := NewRecorder().Record(ctx, tx, []*models.Transaction{
			{Amount: 1, Status: models.StatusWaiting},
		})
		assert.ErrorContains(t, err, "disk full")
	})
}
