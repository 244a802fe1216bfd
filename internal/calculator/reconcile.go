package calculator

import (
	"sort"

	"github.com/mmynk/splitledger/internal/models"
)

// AccountBalance is the minimal account information needed for reconciliation.
type AccountBalance struct {
	AccountID string
	Balance   models.Amount
}

// Discrepancy is an account whose stored balance disagrees with its journal.
type Discrepancy struct {
	AccountID string
	Stored    models.Amount // balance column
	Journaled models.Amount // sum of ledger entry deltas
}

// Difference is Stored - Journaled.
func (d Discrepancy) Difference() models.Amount {
	return d.Stored - d.Journaled
}

// Reconcile compares stored balances against the per-account sums of ledger entries.
// Accounts with entries but no stored row are reported with a zero stored balance.
// The result is sorted by account id.
func Reconcile(accounts []AccountBalance, journal map[string]models.Amount) []Discrepancy {
	var out []Discrepancy
	seen := make(map[string]bool, len(accounts))

	for _, a := range accounts {
		seen[a.AccountID] = true
		if journaled := journal[a.AccountID]; journaled != a.Balance {
			out = append(out, Discrepancy{AccountID: a.AccountID, Stored: a.Balance, Journaled: journaled})
		}
	}

	for id, journaled := range journal {
		if !seen[id] && journaled != 0 {
			out = append(out, Discrepancy{AccountID: id, Journaled: journaled})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}
