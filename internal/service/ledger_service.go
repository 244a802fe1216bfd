package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/workflow"
	"github.com/mmynk/splitledger/pkg/api"
)

// LedgerService implements the LedgerService RPC interface on top of the
// workflow engine. Access rules and request validation run in the policy
// pipeline before any method here is reached.
type LedgerService struct {
	engine *workflow.Engine
}

var _ api.LedgerServiceHandler = (*LedgerService)(nil)

// NewLedgerService creates a new LedgerService backed by the given engine.
func NewLedgerService(engine *workflow.Engine) *LedgerService {
	return &LedgerService{engine: engine}
}

// CreateEvent stores a new WAITING event owned by the caller.
func (s *LedgerService) CreateEvent(ctx context.Context, req *connect.Request[api.CreateEventRequest]) (*connect.Response[api.EventResponse], error) {
	slog.Info("CreateEvent request received",
		"amount", req.Msg.Amount,
		"members_count", len(req.Msg.Members),
	)

	event, err := s.engine.CreateEvent(ctx, actorFrom(ctx), workflow.EventInput{
		Content:  req.Msg.Content,
		Amount:   req.Msg.Amount,
		Date:     req.Msg.Date,
		Members:  req.Msg.Members,
		PrePaids: contributionsFromAPI(req.Msg.PrePaids),
		Sponsors: contributionsFromAPI(req.Msg.Sponsors),
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.EventResponse{Event: eventToAPI(event)}), nil
}

// UpdateEvent edits a WAITING event.
func (s *LedgerService) UpdateEvent(ctx context.Context, req *connect.Request[api.UpdateEventRequest]) (*connect.Response[api.EventResponse], error) {
	slog.Info("UpdateEvent request received", "event_id", req.Msg.EventID)

	event, err := s.engine.UpdateEvent(ctx, actorFrom(ctx), req.Msg.EventID, workflow.EventInput{
		Content:  req.Msg.Content,
		Amount:   req.Msg.Amount,
		Date:     req.Msg.Date,
		Members:  req.Msg.Members,
		PrePaids: contributionsFromAPI(req.Msg.PrePaids),
		Sponsors: contributionsFromAPI(req.Msg.Sponsors),
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.EventResponse{Event: eventToAPI(event)}), nil
}

// GetEvent retrieves an event by ID.
func (s *LedgerService) GetEvent(ctx context.Context, req *connect.Request[api.GetEventRequest]) (*connect.Response[api.EventResponse], error) {
	event, err := s.engine.GetEvent(ctx, req.Msg.EventID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.EventResponse{Event: eventToAPI(event)}), nil
}

// ListEvents lists events newest first, declined ones hidden.
func (s *LedgerService) ListEvents(ctx context.Context, req *connect.Request[api.ListEventsRequest]) (*connect.Response[api.ListEventsResponse], error) {
	events, err := s.engine.ListEvents(ctx, workflow.EventQuery{
		OwnerID: req.Msg.OwnerID,
		Page:    storage.Page{Limit: req.Msg.Limit, Offset: req.Msg.Offset},
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]api.Event, len(events))
	for i, e := range events {
		out[i] = eventToAPI(e)
	}
	return connect.NewResponse(&api.ListEventsResponse{Events: out}), nil
}

// ApproveEvent settles an event.
func (s *LedgerService) ApproveEvent(ctx context.Context, req *connect.Request[api.ApproveEventRequest]) (*connect.Response[api.SettlementResponse], error) {
	slog.Info("ApproveEvent request received", "event_id", req.Msg.EventID, "admin_id", actorFrom(ctx).AccountID)

	settlement, err := s.engine.ApproveEvent(ctx, req.Msg.EventID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(settlementToAPI(settlement)), nil
}

// DeclineEvent closes an event without moving any money.
func (s *LedgerService) DeclineEvent(ctx context.Context, req *connect.Request[api.DeclineEventRequest]) (*connect.Response[api.SettlementResponse], error) {
	slog.Info("DeclineEvent request received", "event_id", req.Msg.EventID, "admin_id", actorFrom(ctx).AccountID)

	settlement, err := s.engine.DeclineEvent(ctx, req.Msg.EventID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(settlementToAPI(settlement)), nil
}

// Transfer moves money from the caller to another approved account.
func (s *LedgerService) Transfer(ctx context.Context, req *connect.Request[api.TransferRequest]) (*connect.Response[api.PostingResponse], error) {
	posting, err := s.engine.Transfer(ctx, actorFrom(ctx), req.Msg.ReceiverID, req.Msg.Amount, req.Msg.Message)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(postingToAPI(posting)), nil
}

// RequestTopUp asks an admin to credit the caller.
func (s *LedgerService) RequestTopUp(ctx context.Context, req *connect.Request[api.RequestTopUpRequest]) (*connect.Response[api.PostingResponse], error) {
	posting, err := s.engine.RequestTopUp(ctx, actorFrom(ctx), req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(postingToAPI(posting)), nil
}

// TopUpByAdmin credits an account directly.
func (s *LedgerService) TopUpByAdmin(ctx context.Context, req *connect.Request[api.TopUpByAdminRequest]) (*connect.Response[api.PostingResponse], error) {
	slog.Info("TopUpByAdmin request received", "receiver_id", req.Msg.ReceiverID, "admin_id", actorFrom(ctx).AccountID)

	posting, err := s.engine.TopUpByAdmin(ctx, req.Msg.ReceiverID, req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(postingToAPI(posting)), nil
}

// ResolveTopUp approves or declines a pending top-up request.
func (s *LedgerService) ResolveTopUp(ctx context.Context, req *connect.Request[api.ResolveTopUpRequest]) (*connect.Response[api.PostingResponse], error) {
	slog.Info("ResolveTopUp request received",
		"transaction_id", req.Msg.TransactionID,
		"decision", req.Msg.Decision,
		"admin_id", actorFrom(ctx).AccountID,
	)

	posting, err := s.engine.ResolveTopUp(ctx, req.Msg.TransactionID, req.Msg.Decision)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(postingToAPI(posting)), nil
}

// GetTransaction returns a transaction the caller is party to.
func (s *LedgerService) GetTransaction(ctx context.Context, req *connect.Request[api.GetTransactionRequest]) (*connect.Response[api.TransactionResponse], error) {
	transaction, err := s.engine.GetTransaction(ctx, actorFrom(ctx), req.Msg.TransactionID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.TransactionResponse{Transaction: transactionToAPI(transaction)}), nil
}

// ListTransactions lists the caller's transactions, or any account's for admins.
func (s *LedgerService) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	transactions, err := s.engine.ListTransactions(ctx, actorFrom(ctx), workflow.TransactionQuery{
		AccountID: req.Msg.AccountID,
		EventID:   req.Msg.EventID,
		Ascending: req.Msg.Ascending,
		Page:      storage.Page{Limit: req.Msg.Limit, Offset: req.Msg.Offset},
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ListTransactionsResponse{Transactions: transactionsToAPI(transactions)}), nil
}

// Reconcile reports accounts whose balance disagrees with the ledger journal.
func (s *LedgerService) Reconcile(ctx context.Context, _ *connect.Request[api.ReconcileRequest]) (*connect.Response[api.ReconcileResponse], error) {
	discrepancies, err := s.engine.Reconcile(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ReconcileResponse{Discrepancies: discrepanciesToAPI(discrepancies)}), nil
}
