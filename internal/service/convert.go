package service

import (
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/workflow"
	"github.com/mmynk/splitledger/pkg/api"
)

func accountToAPI(a *models.Account) api.Account {
	balance := a.Balance
	return api.Account{
		ID:          a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		IsAdmin:     a.IsAdmin,
		Approved:    a.Approved,
		Balance:     &balance,
		CreatedAt:   a.CreatedAt,
	}
}

// publicAccountToAPI is what a non-admin sees of other accounts.
func publicAccountToAPI(a *models.Account) api.Account {
	balance := a.Balance
	return api.Account{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		Approved:    a.Approved,
		Balance:     &balance,
	}
}

// accountFor renders a for actor: in full for admins and the account itself.
func accountFor(actor workflow.Actor, a *models.Account) api.Account {
	if actor.IsAdmin || a.ID == actor.AccountID {
		return accountToAPI(a)
	}
	return publicAccountToAPI(a)
}

func accountsToAPI(accounts []*models.Account) []api.Account {
	out := make([]api.Account, len(accounts))
	for i, a := range accounts {
		out[i] = accountToAPI(a)
	}
	return out
}

func contributionsToAPI(cs []models.Contribution) []api.Contribution {
	if len(cs) == 0 {
		return nil
	}
	out := make([]api.Contribution, len(cs))
	for i, c := range cs {
		out[i] = api.Contribution{AccountID: c.AccountID, Amount: c.Amount, Message: c.Message}
	}
	return out
}

func contributionsFromAPI(cs []api.Contribution) []models.Contribution {
	if len(cs) == 0 {
		return nil
	}
	out := make([]models.Contribution, len(cs))
	for i, c := range cs {
		out[i] = models.Contribution{AccountID: c.AccountID, Amount: c.Amount, Message: c.Message}
	}
	return out
}

func eventToAPI(e *models.Event) api.Event {
	members := e.Members
	if members == nil {
		members = []string{}
	}
	return api.Event{
		ID:        e.ID,
		Content:   e.Content,
		OwnerID:   e.OwnerID,
		Amount:    e.Amount,
		Date:      e.Date,
		Members:   members,
		PrePaids:  contributionsToAPI(e.PrePaids),
		Sponsors:  contributionsToAPI(e.Sponsors),
		Status:    e.Status,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func transactionToAPI(t *models.Transaction) api.Transaction {
	return api.Transaction{
		ID:         t.ID,
		SenderID:   t.SenderID,
		ReceiverID: t.ReceiverID,
		Amount:     t.Amount,
		Message:    t.Message,
		IsTopUp:    t.IsTopUp,
		Status:     t.Status,
		EventID:    t.EventID,
		CreatedAt:  t.CreatedAt,
	}
}

func transactionsToAPI(ts []*models.Transaction) []api.Transaction {
	out := make([]api.Transaction, len(ts))
	for i, t := range ts {
		out[i] = transactionToAPI(t)
	}
	return out
}

func settlementToAPI(s *workflow.Settlement) *api.SettlementResponse {
	return &api.SettlementResponse{
		Event:        eventToAPI(s.Event),
		Accounts:     accountsToAPI(s.Accounts),
		Transactions: transactionsToAPI(s.Transactions),
	}
}

func postingToAPI(p *workflow.Posting) *api.PostingResponse {
	return &api.PostingResponse{
		Transaction: transactionToAPI(p.Transaction),
		Accounts:    accountsToAPI(p.Accounts),
	}
}

func discrepanciesToAPI(ds []calculator.Discrepancy) []api.Discrepancy {
	out := make([]api.Discrepancy, len(ds))
	for i, d := range ds {
		out[i] = api.Discrepancy{
			AccountID:  d.AccountID,
			Stored:     d.Stored,
			Journaled:  d.Journaled,
			Difference: d.Difference(),
		}
	}
	return out
}
