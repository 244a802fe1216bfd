// Package calculator holds the pure arithmetic of the ledger: splitting an event's
// cost into balance deltas and comparing the journal against stored balances.
package calculator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

var (
	ErrNoMembers            = errors.New("event must have at least one member")
	ErrNonPositiveAmount    = errors.New("event amount must be positive")
	ErrNegativeContribution = errors.New("contribution amount must not be negative")
	ErrSponsorsExceedAmount = errors.New("sponsor total exceeds event amount")
)

// Plan is the full effect of approving an event.
type Plan struct {
	// Deltas are the signed balance changes, one per contribution or member.
	Deltas []models.Delta

	// Transactions are the records to persist, all APPROVE and tagged with the event.
	Transactions []*models.Transaction

	// Shares maps each member to the amount they are charged.
	Shares map[string]models.Amount
}

// Settle computes the balance deltas and transaction records for an approved event.
//
// Algorithm:
//   - Sponsors pay their amount to the owner: delta -amount each.
//   - Pre-paid contributors are refunded by the owner: delta +amount each.
//   - What sponsors did not cover is split equally between the distinct members,
//     in integer minor units. The last member in id order absorbs the remainder so
//     member charges plus sponsor total equal the event amount exactly.
func Settle(event *models.Event) (*Plan, error) {
	if event.Amount <= 0 {
		return nil, ledger.Invalid("amount", ErrNonPositiveAmount)
	}
	if event.Amount > models.MaxAmount {
		return nil, ledger.Invalid("amount", models.ErrAmountOverflow)
	}

	members := uniqueSorted(event.Members)
	if len(members) == 0 {
		return nil, ledger.Invalid("members", ErrNoMembers)
	}

	// sponsorTotal never exceeds event.Amount, so the sum cannot overflow.
	var sponsorTotal models.Amount
	for i, s := range event.Sponsors {
		if s.Amount < 0 {
			return nil, ledger.Invalid(fmt.Sprintf("sponsors[%d].amount", i), ErrNegativeContribution)
		}
		if s.Amount > event.Amount-sponsorTotal {
			return nil, ledger.Invalid("sponsors", ErrSponsorsExceedAmount)
		}
		sponsorTotal += s.Amount
	}
	for i, p := range event.PrePaids {
		if p.Amount < 0 {
			return nil, ledger.Invalid(fmt.Sprintf("pre_paids[%d].amount", i), ErrNegativeContribution)
		}
		if p.Amount > models.MaxAmount {
			return nil, ledger.Invalid(fmt.Sprintf("pre_paids[%d].amount", i), models.ErrAmountOverflow)
		}
	}

	plan := &Plan{Shares: make(map[string]models.Amount, len(members))}
	record := func(sender, receiver string, amount models.Amount, message string) {
		plan.Transactions = append(plan.Transactions, &models.Transaction{
			SenderID:   sender,
			ReceiverID: receiver,
			Amount:     amount,
			Message:    message,
			Status:     models.StatusApprove,
			EventID:    event.ID,
		})
	}

	for _, s := range event.Sponsors {
		plan.Deltas = append(plan.Deltas, models.Delta{AccountID: s.AccountID, Amount: -s.Amount})
		record(s.AccountID, event.OwnerID, s.Amount, s.Message)
	}

	for _, p := range event.PrePaids {
		plan.Deltas = append(plan.Deltas, models.Delta{AccountID: p.AccountID, Amount: p.Amount})
		record(event.OwnerID, p.AccountID, p.Amount, p.Message)
	}

	remaining := event.Amount - sponsorTotal
	k := models.Amount(len(members))
	share := remaining / k
	for i, member := range members {
		charge := share
		if i == len(members)-1 {
			charge = remaining - share*(k-1)
		}
		plan.Shares[member] = charge
		plan.Deltas = append(plan.Deltas, models.Delta{AccountID: member, Amount: -charge})
		record(member, event.OwnerID, charge, fmt.Sprintf("Pay for event %s", event.ID))
	}

	return plan, nil
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
