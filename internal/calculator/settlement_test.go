package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

func TestSettle(t *testing.T) {
	tests := []struct {
		name         string
		event        *models.Event
		wantErr      error
		validateFunc func(t *testing.T, plan *Plan)
	}{
		{
			name: "sponsors then even split with remainder on last member",
			event: &models.Event{
				ID:      "e1",
				OwnerID: "owner",
				Amount:  12000,
				Members: []string{"m3", "m1", "m2"},
				Sponsors: []models.Contribution{
					{AccountID: "s1", Amount: 1000, Message: "first round"},
					{AccountID: "s2", Amount: 1000, Message: "second round"},
				},
			},
			validateFunc: func(t *testing.T, plan *Plan) {
				// 120.00 - 20.00 = 100.00 over 3 members: 33.33, 33.33, 33.34
				assert.Equal(t, models.Amount(3333), plan.Shares["m1"])
				assert.Equal(t, models.Amount(3333), plan.Shares["m2"])
				assert.Equal(t, models.Amount(3334), plan.Shares["m3"])
				require.Len(t, plan.Transactions, 5)

				assert.Equal(t, "s1", plan.Transactions[0].SenderID)
				assert.Equal(t, "owner", plan.Transactions[0].ReceiverID)
				assert.Equal(t, "first round", plan.Transactions[0].Message)

				last := plan.Transactions[4]
				assert.Equal(t, "m3", last.SenderID)
				assert.Equal(t, "Pay for event e1", last.Message)
			},
		},
		{
			name: "pre-paid contributor is credited by the owner",
			event: &models.Event{
				ID:       "e2",
				OwnerID:  "owner",
				Amount:   3000,
				Members:  []string{"a", "b"},
				PrePaids: []models.Contribution{{AccountID: "a", Amount: 3000, Message: "paid the cab"}},
			},
			validateFunc: func(t *testing.T, plan *Plan) {
				net := ledger.Net(plan.Deltas)
				assert.Equal(t, []models.Delta{
					{AccountID: "a", Amount: 1500},
					{AccountID: "b", Amount: -1500},
				}, net)

				refund := plan.Transactions[0]
				assert.Equal(t, "owner", refund.SenderID)
				assert.Equal(t, "a", refund.ReceiverID)
				assert.Equal(t, "paid the cab", refund.Message)
			},
		},
		{
			name: "duplicate members collapse",
			event: &models.Event{
				ID: "e3", OwnerID: "owner", Amount: 1000,
				Members: []string{"a", "a", "b"},
			},
			validateFunc: func(t *testing.T, plan *Plan) {
				assert.Len(t, plan.Shares, 2)
				assert.Equal(t, models.Amount(500), plan.Shares["a"])
			},
		},
		{
			name: "sponsors covering everything leave zero charges",
			event: &models.Event{
				ID: "e4", OwnerID: "owner", Amount: 1000,
				Members:  []string{"a", "b"},
				Sponsors: []models.Contribution{{AccountID: "s", Amount: 1000}},
			},
			validateFunc: func(t *testing.T, plan *Plan) {
				assert.Equal(t, models.Amount(0), plan.Shares["a"])
				assert.Equal(t, models.Amount(0), plan.Shares["b"])
				assert.Len(t, plan.Transactions, 3)
			},
		},
		{
			name:    "no members",
			event:   &models.Event{ID: "e5", OwnerID: "owner", Amount: 1000},
			wantErr: ErrNoMembers,
		},
		{
			name:    "zero amount",
			event:   &models.Event{ID: "e6", OwnerID: "owner", Members: []string{"a"}},
			wantErr: ErrNonPositiveAmount,
		},
		{
			name: "negative sponsor",
			event: &models.Event{
				ID: "e7", OwnerID: "owner", Amount: 1000, Members: []string{"a"},
				Sponsors: []models.Contribution{{AccountID: "s", Amount: -1}},
			},
			wantErr: ErrNegativeContribution,
		},
		{
			name: "negative pre-paid",
			event: &models.Event{
				ID: "e8", OwnerID: "owner", Amount: 1000, Members: []string{"a"},
				PrePaids: []models.Contribution{{AccountID: "p", Amount: -5}},
			},
			wantErr: ErrNegativeContribution,
		},
		{
			name: "sponsors exceed amount",
			event: &models.Event{
				ID: "e9", OwnerID: "owner", Amount: 1000, Members: []string{"a"},
				Sponsors: []models.Contribution{{AccountID: "s", Amount: 600}, {AccountID: "t", Amount: 600}},
			},
			wantErr: ErrSponsorsExceedAmount,
		},
		{
			name: "sponsor sum that would wrap int64",
			event: &models.Event{
				ID: "e10", OwnerID: "owner", Amount: 100, Members: []string{"m1", "m2"},
				Sponsors: []models.Contribution{
					{AccountID: "s1", Amount: math.MaxInt64},
					{AccountID: "s2", Amount: 2},
				},
			},
			wantErr: ErrSponsorsExceedAmount,
		},
		{
			name: "single sponsor above the event amount",
			event: &models.Event{
				ID: "e11", OwnerID: "owner", Amount: 100, Members: []string{"a"},
				Sponsors: []models.Contribution{{AccountID: "s", Amount: 101}},
			},
			wantErr: ErrSponsorsExceedAmount,
		},
		{
			name: "event amount above the maximum",
			event: &models.Event{
				ID: "e12", OwnerID: "owner", Amount: models.MaxAmount + 1, Members: []string{"a"},
			},
			wantErr: models.ErrAmountOverflow,
		},
		{
			name: "pre-paid above the maximum",
			event: &models.Event{
				ID: "e13", OwnerID: "owner", Amount: 1000, Members: []string{"a"},
				PrePaids: []models.Contribution{{AccountID: "p", Amount: math.MaxInt64}},
			},
			wantErr: models.ErrAmountOverflow,
		},
		{
			name: "sponsors exactly at the maximum",
			event: &models.Event{
				ID: "e14", OwnerID: "owner", Amount: models.MaxAmount, Members: []string{"a", "b"},
				Sponsors: []models.Contribution{
					{AccountID: "s1", Amount: models.MaxAmount - 1},
					{AccountID: "s2", Amount: 1},
				},
			},
			validateFunc: func(t *testing.T, plan *Plan) {
				assert.Equal(t, models.Amount(0), plan.Shares["a"])
				assert.Equal(t, models.Amount(0), plan.Shares["b"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Settle(tt.event)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ledger.ErrValidation)
				assert.Nil(t, plan)
				return
			}
			require.NoError(t, err)
			assertConserved(t, tt.event, plan)
			if tt.validateFunc != nil {
				tt.validateFunc(t, plan)
			}
		})
	}
}

// assertConserved checks the properties every plan must have.
func assertConserved(t *testing.T, event *models.Event, plan *Plan) {
	t.Helper()

	var charged, sponsored models.Amount
	for _, share := range plan.Shares {
		charged += share
	}
	for _, s := range event.Sponsors {
		sponsored += s.Amount
	}
	assert.Equal(t, event.Amount, charged+sponsored, "member charges plus sponsors must equal the event amount")

	assert.Len(t, plan.Transactions, len(event.Sponsors)+len(event.PrePaids)+len(plan.Shares))
	for _, transaction := range plan.Transactions {
		assert.Equal(t, event.ID, transaction.EventID)
		assert.Equal(t, models.StatusApprove, transaction.Status)
		assert.GreaterOrEqual(t, transaction.Amount, models.Amount(0))
	}
}

func TestSettleManyMembers(t *testing.T) {
	members := make([]string, 7)
	for i := range members {
		members[i] = string(rune('a' + i))
	}
	event := &models.Event{ID: "big", OwnerID: "owner", Amount: 100, Members: members}

	plan, err := Settle(event)
	require.NoError(t, err)
	assertConserved(t, event, plan)

	// 1.00 over 7: six pay 0.14, the last pays 0.16
	for _, m := range members[:6] {
		assert.Equal(t, models.Amount(14), plan.Shares[m])
	}
	assert.Equal(t, models.Amount(16), plan.Shares["g"])
}
