package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Source identifies what a ledger commit settles.
type Source struct {
	Kind models.SourceKind
	ID   string
}

// Ledger applies balance deltas and journals them.
type Ledger struct{}

// New creates a Ledger.
func New() *Ledger {
	return &Ledger{}
}

// Net sums deltas per account and drops zero nets. The result is sorted by account id.
func Net(deltas []models.Delta) []models.Delta {
	sums := make(map[string]models.Amount, len(deltas))
	for _, d := range deltas {
		sums[d.AccountID] += d.Amount
	}

	net := make([]models.Delta, 0, len(sums))
	for id, amount := range sums {
		if amount != 0 {
			net = append(net, models.Delta{AccountID: id, Amount: amount})
		}
	}
	sort.Slice(net, func(i, j int) bool { return net[i].AccountID < net[j].AccountID })
	return net
}

// Commit applies the net deltas inside tx and appends one ledger entry per account.
// Accounts are locked in sorted id order. A missing account fails the whole unit
// with a validation error; the caller's unit of work rolls back what was applied.
func (l *Ledger) Commit(ctx context.Context, tx storage.Tx, source Source, deltas []models.Delta) ([]*models.Account, error) {
	net := Net(deltas)
	if len(net) == 0 {
		return nil, nil
	}

	accounts := make([]*models.Account, 0, len(net))
	entries := make([]models.LedgerEntry, 0, len(net))
	for _, d := range net {
		account, err := tx.AdjustBalance(ctx, d.AccountID, d.Amount)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, Validation("account_id", fmt.Sprintf("account %s does not exist", d.AccountID))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to adjust balance of %s: %w", d.AccountID, err)
		}
		accounts = append(accounts, account)
		entries = append(entries, models.LedgerEntry{
			AccountID:  d.AccountID,
			Delta:      d.Amount,
			SourceKind: source.Kind,
			SourceID:   source.ID,
		})
	}

	if err := tx.InsertEntries(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to journal %s %s: %w", source.Kind, source.ID, err)
	}
	return accounts, nil
}
