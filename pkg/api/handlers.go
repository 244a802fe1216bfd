package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

const (
	// AccountServiceName is the fully-qualified name of the AccountService service.
	AccountServiceName = "splitledger.v1.AccountService"
	// LedgerServiceName is the fully-qualified name of the LedgerService service.
	LedgerServiceName = "splitledger.v1.LedgerService"
)

// Procedure names, in the form "/<service>/<method>".
const (
	AccountServiceRegisterProcedure          = "/" + AccountServiceName + "/Register"
	AccountServiceLoginProcedure             = "/" + AccountServiceName + "/Login"
	AccountServiceGetCurrentAccountProcedure = "/" + AccountServiceName + "/GetCurrentAccount"
	AccountServiceGetAccountProcedure        = "/" + AccountServiceName + "/GetAccount"
	AccountServiceListAccountsProcedure      = "/" + AccountServiceName + "/ListAccounts"
	AccountServiceApproveAccountProcedure    = "/" + AccountServiceName + "/ApproveAccount"

	LedgerServiceCreateEventProcedure      = "/" + LedgerServiceName + "/CreateEvent"
	LedgerServiceUpdateEventProcedure      = "/" + LedgerServiceName + "/UpdateEvent"
	LedgerServiceGetEventProcedure         = "/" + LedgerServiceName + "/GetEvent"
	LedgerServiceListEventsProcedure       = "/" + LedgerServiceName + "/ListEvents"
	LedgerServiceApproveEventProcedure     = "/" + LedgerServiceName + "/ApproveEvent"
	LedgerServiceDeclineEventProcedure     = "/" + LedgerServiceName + "/DeclineEvent"
	LedgerServiceTransferProcedure         = "/" + LedgerServiceName + "/Transfer"
	LedgerServiceRequestTopUpProcedure     = "/" + LedgerServiceName + "/RequestTopUp"
	LedgerServiceTopUpByAdminProcedure     = "/" + LedgerServiceName + "/TopUpByAdmin"
	LedgerServiceResolveTopUpProcedure     = "/" + LedgerServiceName + "/ResolveTopUp"
	LedgerServiceGetTransactionProcedure   = "/" + LedgerServiceName + "/GetTransaction"
	LedgerServiceListTransactionsProcedure = "/" + LedgerServiceName + "/ListTransactions"
	LedgerServiceReconcileProcedure        = "/" + LedgerServiceName + "/Reconcile"
)

// AccountServiceHandler is implemented by the account service.
type AccountServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error)
	GetCurrentAccount(context.Context, *connect.Request[GetCurrentAccountRequest]) (*connect.Response[AccountResponse], error)
	GetAccount(context.Context, *connect.Request[GetAccountRequest]) (*connect.Response[AccountResponse], error)
	ListAccounts(context.Context, *connect.Request[ListAccountsRequest]) (*connect.Response[ListAccountsResponse], error)
	ApproveAccount(context.Context, *connect.Request[ApproveAccountRequest]) (*connect.Response[AccountResponse], error)
}

// LedgerServiceHandler is implemented by the ledger service.
type LedgerServiceHandler interface {
	CreateEvent(context.Context, *connect.Request[CreateEventRequest]) (*connect.Response[EventResponse], error)
	UpdateEvent(context.Context, *connect.Request[UpdateEventRequest]) (*connect.Response[EventResponse], error)
	GetEvent(context.Context, *connect.Request[GetEventRequest]) (*connect.Response[EventResponse], error)
	ListEvents(context.Context, *connect.Request[ListEventsRequest]) (*connect.Response[ListEventsResponse], error)
	ApproveEvent(context.Context, *connect.Request[ApproveEventRequest]) (*connect.Response[SettlementResponse], error)
	DeclineEvent(context.Context, *connect.Request[DeclineEventRequest]) (*connect.Response[SettlementResponse], error)
	Transfer(context.Context, *connect.Request[TransferRequest]) (*connect.Response[PostingResponse], error)
	RequestTopUp(context.Context, *connect.Request[RequestTopUpRequest]) (*connect.Response[PostingResponse], error)
	TopUpByAdmin(context.Context, *connect.Request[TopUpByAdminRequest]) (*connect.Response[PostingResponse], error)
	ResolveTopUp(context.Context, *connect.Request[ResolveTopUpRequest]) (*connect.Response[PostingResponse], error)
	GetTransaction(context.Context, *connect.Request[GetTransactionRequest]) (*connect.Response[TransactionResponse], error)
	ListTransactions(context.Context, *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error)
	Reconcile(context.Context, *connect.Request[ReconcileRequest]) (*connect.Response[ReconcileResponse], error)
}

// routes is a static procedure table served under one service path.
type routes map[string]http.Handler

func (r routes) serve(w http.ResponseWriter, req *http.Request) {
	if h, ok := r[req.URL.Path]; ok {
		h.ServeHTTP(w, req)
		return
	}
	http.NotFound(w, req)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{WithCodec()}, opts...)
}

// NewAccountServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewAccountServiceHandler(svc AccountServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	table := routes{
		AccountServiceRegisterProcedure:          connect.NewUnaryHandler(AccountServiceRegisterProcedure, svc.Register, opts...),
		AccountServiceLoginProcedure:             connect.NewUnaryHandler(AccountServiceLoginProcedure, svc.Login, opts...),
		AccountServiceGetCurrentAccountProcedure: connect.NewUnaryHandler(AccountServiceGetCurrentAccountProcedure, svc.GetCurrentAccount, opts...),
		AccountServiceGetAccountProcedure:        connect.NewUnaryHandler(AccountServiceGetAccountProcedure, svc.GetAccount, opts...),
		AccountServiceListAccountsProcedure:      connect.NewUnaryHandler(AccountServiceListAccountsProcedure, svc.ListAccounts, opts...),
		AccountServiceApproveAccountProcedure:    connect.NewUnaryHandler(AccountServiceApproveAccountProcedure, svc.ApproveAccount, opts...),
	}
	return "/" + AccountServiceName + "/", http.HandlerFunc(table.serve)
}

// NewLedgerServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	table := routes{
		LedgerServiceCreateEventProcedure:      connect.NewUnaryHandler(LedgerServiceCreateEventProcedure, svc.CreateEvent, opts...),
		LedgerServiceUpdateEventProcedure:      connect.NewUnaryHandler(LedgerServiceUpdateEventProcedure, svc.UpdateEvent, opts...),
		LedgerServiceGetEventProcedure:         connect.NewUnaryHandler(LedgerServiceGetEventProcedure, svc.GetEvent, opts...),
		LedgerServiceListEventsProcedure:       connect.NewUnaryHandler(LedgerServiceListEventsProcedure, svc.ListEvents, opts...),
		LedgerServiceApproveEventProcedure:     connect.NewUnaryHandler(LedgerServiceApproveEventProcedure, svc.ApproveEvent, opts...),
		LedgerServiceDeclineEventProcedure:     connect.NewUnaryHandler(LedgerServiceDeclineEventProcedure, svc.DeclineEvent, opts...),
		LedgerServiceTransferProcedure:         connect.NewUnaryHandler(LedgerServiceTransferProcedure, svc.Transfer, opts...),
		LedgerServiceRequestTopUpProcedure:     connect.NewUnaryHandler(LedgerServiceRequestTopUpProcedure, svc.RequestTopUp, opts...),
		LedgerServiceTopUpByAdminProcedure:     connect.NewUnaryHandler(LedgerServiceTopUpByAdminProcedure, svc.TopUpByAdmin, opts...),
		LedgerServiceResolveTopUpProcedure:     connect.NewUnaryHandler(LedgerServiceResolveTopUpProcedure, svc.ResolveTopUp, opts...),
		LedgerServiceGetTransactionProcedure:   connect.NewUnaryHandler(LedgerServiceGetTransactionProcedure, svc.GetTransaction, opts...),
		LedgerServiceListTransactionsProcedure: connect.NewUnaryHandler(LedgerServiceListTransactionsProcedure, svc.ListTransactions, opts...),
		LedgerServiceReconcileProcedure:        connect.NewUnaryHandler(LedgerServiceReconcileProcedure, svc.Reconcile, opts...),
	}
	return "/" + LedgerServiceName + "/", http.HandlerFunc(table.serve)
}
