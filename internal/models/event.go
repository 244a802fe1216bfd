package models

import "time"

// Event represents a shared bill posted by its owner and settled on admin approval.
type Event struct {
	// ID is the unique identifier for the event (UUID format).
	ID string

	// Content describes what the bill was for.
	Content string

	// OwnerID is the account that posted the event. Sponsor and member legs are paid to it.
	OwnerID string

	// Amount is the full cost of the bill.
	Amount Amount

	// Date is when the shared expense happened.
	Date time.Time

	// Members are the accounts charged an equal share of the cost left after sponsors.
	// Order carries no meaning; stores return them sorted.
	Members []string

	// PrePaids fronted money before approval and are credited back at settlement.
	PrePaids []Contribution

	// Sponsors pay part of the cost on behalf of the group.
	Sponsors []Contribution

	// Status moves from WAITING to APPROVE or DECLINE exactly once.
	Status Status

	// CreatedAt is the Unix timestamp when the event was submitted.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last write.
	UpdatedAt int64
}

// Contribution is a sponsor or pre-paid entry on an event.
type Contribution struct {
	AccountID string
	Amount    Amount
	Message   string
}

// ContributionKind distinguishes sponsors from pre-paid contributors in storage.
type ContributionKind string

const (
	ContributionSponsor ContributionKind = "SPONSOR"
	ContributionPrePaid ContributionKind = "PREPAID"
)

// AccountIDs returns every account referenced by the event, owner excluded, without duplicates.
func (e *Event) AccountIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, m := range e.Members {
		add(m)
	}
	for _, p := range e.PrePaids {
		add(p.AccountID)
	}
	for _, s := range e.Sponsors {
		add(s.AccountID)
	}
	return ids
}
