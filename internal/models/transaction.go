package models

// Transaction records value moving from Sender to Receiver.
// Records are immutable once persisted; only a top-up's Status changes, once.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// SenderID is the paying account. Empty for admin top-ups.
	SenderID string

	// ReceiverID is the receiving account. Empty for user top-up requests.
	ReceiverID string

	// Amount is the magnitude moved from sender to receiver.
	Amount Amount

	// Message is a free-form note shown to both parties.
	Message string

	// IsTopUp marks value added from outside the ledger.
	IsTopUp bool

	// Status is only meaningful for top-ups. Transfers and settlement legs are
	// created already APPROVE.
	Status Status

	// EventID links settlement legs back to the event that produced them.
	EventID string

	// CreatedAt is the Unix timestamp when the transaction was recorded.
	CreatedAt int64
}

// SourceKind names what produced a ledger entry.
type SourceKind string

const (
	SourceEvent       SourceKind = "event"
	SourceTransaction SourceKind = "transaction"
)

// LedgerEntry is one net balance change applied to one account by one commit.
type LedgerEntry struct {
	ID         string
	AccountID  string
	Delta      Amount
	SourceKind SourceKind
	SourceID   string
	CreatedAt  int64
}

// Delta is a signed balance change requested for one account.
type Delta struct {
	AccountID string
	Amount    Amount
}
