package api

import (
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

// Account is an account as seen over the wire. Email, IsAdmin and CreatedAt are
// left out when a non-admin looks at other accounts.
type Account struct {
	ID          string         `json:"id"`
	Email       string         `json:"email,omitempty"`
	DisplayName string         `json:"display_name"`
	IsAdmin     bool           `json:"is_admin,omitempty"`
	Approved    bool           `json:"approved"`
	Balance     *models.Amount `json:"balance,omitempty"`
	CreatedAt   int64          `json:"created_at,omitempty"`
}

// Contribution is a sponsor or pre-paid entry on an event.
type Contribution struct {
	AccountID string        `json:"account_id" validate:"required"`
	Amount    models.Amount `json:"amount" validate:"nonnegative_amount,max_amount"`
	Message   string        `json:"message,omitempty" validate:"max=500"`
}

type Event struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	OwnerID   string         `json:"owner_id"`
	Amount    models.Amount  `json:"amount"`
	Date      time.Time      `json:"date"`
	Members   []string       `json:"members"`
	PrePaids  []Contribution `json:"pre_paids,omitempty"`
	Sponsors  []Contribution `json:"sponsors,omitempty"`
	Status    models.Status  `json:"status"`
	CreatedAt int64          `json:"created_at"`
	UpdatedAt int64          `json:"updated_at"`
}

type Transaction struct {
	ID         string        `json:"id"`
	SenderID   string        `json:"sender_id,omitempty"`
	ReceiverID string        `json:"receiver_id,omitempty"`
	Amount     models.Amount `json:"amount"`
	Message    string        `json:"message"`
	IsTopUp    bool          `json:"is_top_up"`
	Status     models.Status `json:"status"`
	EventID    string        `json:"event_id,omitempty"`
	CreatedAt  int64         `json:"created_at"`
}

// Discrepancy is an account whose stored balance differs from its journal.
type Discrepancy struct {
	AccountID  string        `json:"account_id"`
	Stored     models.Amount `json:"stored"`
	Journaled  models.Amount `json:"journaled"`
	Difference models.Amount `json:"difference"`
}

// AccountService messages.

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
	Password    string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by Register and Login.
type AuthResponse struct {
	Account Account `json:"account"`
	Token   string  `json:"token"`
}

type GetCurrentAccountRequest struct{}

type GetAccountRequest struct {
	AccountID string `json:"account_id" validate:"required"`
}

type AccountResponse struct {
	Account Account `json:"account"`
}

type ListAccountsRequest struct {
	// Approved filters by approval state when set.
	Approved *bool `json:"approved,omitempty"`
	Limit    int   `json:"limit,omitempty" validate:"min=0,max=500"`
	Offset   int   `json:"offset,omitempty" validate:"min=0"`
}

type ListAccountsResponse struct {
	Accounts []Account `json:"accounts"`
}

type ApproveAccountRequest struct {
	AccountID string `json:"account_id" validate:"required"`
}

// LedgerService messages.

type CreateEventRequest struct {
	Content  string         `json:"content" validate:"required,max=500"`
	Amount   models.Amount  `json:"amount" validate:"positive_amount,max_amount"`
	Date     time.Time      `json:"date" validate:"required"`
	Members  []string       `json:"members" validate:"required,min=1,dive,required"`
	PrePaids []Contribution `json:"pre_paids,omitempty" validate:"dive"`
	Sponsors []Contribution `json:"sponsors,omitempty" validate:"dive"`
}

type UpdateEventRequest struct {
	EventID  string         `json:"event_id" validate:"required"`
	Content  string         `json:"content" validate:"required,max=500"`
	Amount   models.Amount  `json:"amount" validate:"positive_amount,max_amount"`
	Date     time.Time      `json:"date" validate:"required"`
	Members  []string       `json:"members" validate:"required,min=1,dive,required"`
	PrePaids []Contribution `json:"pre_paids,omitempty" validate:"dive"`
	Sponsors []Contribution `json:"sponsors,omitempty" validate:"dive"`
}

type GetEventRequest struct {
	EventID string `json:"event_id" validate:"required"`
}

type EventResponse struct {
	Event Event `json:"event"`
}

type ListEventsRequest struct {
	OwnerID string `json:"owner_id,omitempty"`
	Limit   int    `json:"limit,omitempty" validate:"min=0,max=500"`
	Offset  int    `json:"offset,omitempty" validate:"min=0"`
}

type ListEventsResponse struct {
	Events []Event `json:"events"`
}

type ApproveEventRequest struct {
	EventID string `json:"event_id" validate:"required"`
}

type DeclineEventRequest struct {
	EventID string `json:"event_id" validate:"required"`
}

// SettlementResponse carries the event in its final status, the balances of
// every account touched and the transactions recorded.
type SettlementResponse struct {
	Event        Event         `json:"event"`
	Accounts     []Account     `json:"accounts"`
	Transactions []Transaction `json:"transactions"`
}

type TransferRequest struct {
	ReceiverID string        `json:"receiver_id" validate:"required"`
	Amount     models.Amount `json:"amount" validate:"positive_amount,max_amount"`
	Message    string        `json:"message,omitempty" validate:"max=500"`
}

type RequestTopUpRequest struct {
	Amount models.Amount `json:"amount" validate:"positive_amount,max_amount"`
}

type TopUpByAdminRequest struct {
	ReceiverID string        `json:"receiver_id" validate:"required"`
	Amount     models.Amount `json:"amount" validate:"positive_amount,max_amount"`
}

type ResolveTopUpRequest struct {
	TransactionID string        `json:"transaction_id" validate:"required"`
	Decision      models.Status `json:"decision" validate:"required,oneof=APPROVE DECLINE"`
}

// PostingResponse is returned by every transfer and top-up operation.
type PostingResponse struct {
	Transaction Transaction `json:"transaction"`
	Accounts    []Account   `json:"accounts"`
}

type GetTransactionRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
}

type TransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

type ListTransactionsRequest struct {
	AccountID string `json:"account_id,omitempty"`
	EventID   string `json:"event_id,omitempty"`
	Ascending bool   `json:"ascending,omitempty"`
	Limit     int    `json:"limit,omitempty" validate:"min=0,max=500"`
	Offset    int    `json:"offset,omitempty" validate:"min=0"`
}

type ListTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

type ReconcileRequest struct{}

type ReconcileResponse struct {
	Discrepancies []Discrepancy `json:"discrepancies"`
}
