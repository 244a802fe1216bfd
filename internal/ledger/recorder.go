package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Recorder persists transaction records. It only ever inserts.
type Recorder struct {
	now func() time.Time
}

// NewRecorder creates a Recorder stamping records with the wall clock.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Record assigns ids and timestamps to drafts and inserts them inside tx.
func (r *Recorder) Record(ctx context.Context, tx storage.Tx, drafts []*models.Transaction) ([]*models.Transaction, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	now := r.now().Unix()
	for i, draft := range drafts {
		if draft.Amount < 0 {
			return nil, Validation(fmt.Sprintf("transactions[%d].amount", i), "amount must not be negative")
		}
		if !draft.Status.Valid() {
			return nil, Validation(fmt.Sprintf("transactions[%d].status", i), fmt.Sprintf("unknown status %q", draft.Status))
		}
		if draft.ID == "" {
			draft.ID = uuid.New().String()
		}
		draft.CreatedAt = now
	}

	if err := tx.InsertTransactions(ctx, drafts); err != nil {
		return nil, fmt.Errorf("failed to record transactions: %w", err)
	}
	return drafts, nil
}
