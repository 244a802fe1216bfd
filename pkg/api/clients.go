package api

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{WithCodec()}, opts...)
}

// AccountServiceClient calls the account service.
type AccountServiceClient struct {
	register          *connect.Client[RegisterRequest, AuthResponse]
	login             *connect.Client[LoginRequest, AuthResponse]
	getCurrentAccount *connect.Client[GetCurrentAccountRequest, AccountResponse]
	getAccount        *connect.Client[GetAccountRequest, AccountResponse]
	listAccounts      *connect.Client[ListAccountsRequest, ListAccountsResponse]
	approveAccount    *connect.Client[ApproveAccountRequest, AccountResponse]
}

// NewAccountServiceClient constructs a client for the service at baseURL
// (e.g. http://localhost:8080).
func NewAccountServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AccountServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &AccountServiceClient{
		register:          connect.NewClient[RegisterRequest, AuthResponse](httpClient, baseURL+AccountServiceRegisterProcedure, opts...),
		login:             connect.NewClient[LoginRequest, AuthResponse](httpClient, baseURL+AccountServiceLoginProcedure, opts...),
		getCurrentAccount: connect.NewClient[GetCurrentAccountRequest, AccountResponse](httpClient, baseURL+AccountServiceGetCurrentAccountProcedure, opts...),
		getAccount:        connect.NewClient[GetAccountRequest, AccountResponse](httpClient, baseURL+AccountServiceGetAccountProcedure, opts...),
		listAccounts:      connect.NewClient[ListAccountsRequest, ListAccountsResponse](httpClient, baseURL+AccountServiceListAccountsProcedure, opts...),
		approveAccount:    connect.NewClient[ApproveAccountRequest, AccountResponse](httpClient, baseURL+AccountServiceApproveAccountProcedure, opts...),
	}
}

func (c *AccountServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[AuthResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AccountServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[AuthResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AccountServiceClient) GetCurrentAccount(ctx context.Context, req *connect.Request[GetCurrentAccountRequest]) (*connect.Response[AccountResponse], error) {
	return c.getCurrentAccount.CallUnary(ctx, req)
}

func (c *AccountServiceClient) GetAccount(ctx context.Context, req *connect.Request[GetAccountRequest]) (*connect.Response[AccountResponse], error) {
	return c.getAccount.CallUnary(ctx, req)
}

func (c *AccountServiceClient) ListAccounts(ctx context.Context, req *connect.Request[ListAccountsRequest]) (*connect.Response[ListAccountsResponse], error) {
	return c.listAccounts.CallUnary(ctx, req)
}

func (c *AccountServiceClient) ApproveAccount(ctx context.Context, req *connect.Request[ApproveAccountRequest]) (*connect.Response[AccountResponse], error) {
	return c.approveAccount.CallUnary(ctx, req)
}

// LedgerServiceClient calls the ledger service.
type LedgerServiceClient struct {
	createEvent      *connect.Client[CreateEventRequest, EventResponse]
	updateEvent      *connect.Client[UpdateEventRequest, EventResponse]
	getEvent         *connect.Client[GetEventRequest, EventResponse]
	listEvents       *connect.Client[ListEventsRequest, ListEventsResponse]
	approveEvent     *connect.Client[ApproveEventRequest, SettlementResponse]
	declineEvent     *connect.Client[DeclineEventRequest, SettlementResponse]
	transfer         *connect.Client[TransferRequest, PostingResponse]
	requestTopUp     *connect.Client[RequestTopUpRequest, PostingResponse]
	topUpByAdmin     *connect.Client[TopUpByAdminRequest, PostingResponse]
	resolveTopUp     *connect.Client[ResolveTopUpRequest, PostingResponse]
	getTransaction   *connect.Client[GetTransactionRequest, TransactionResponse]
	listTransactions *connect.Client[ListTransactionsRequest, ListTransactionsResponse]
	reconcile        *connect.Client[ReconcileRequest, ReconcileResponse]
}

// NewLedgerServiceClient constructs a client for the service at baseURL.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &LedgerServiceClient{
		createEvent:      connect.NewClient[CreateEventRequest, EventResponse](httpClient, baseURL+LedgerServiceCreateEventProcedure, opts...),
		updateEvent:      connect.NewClient[UpdateEventRequest, EventResponse](httpClient, baseURL+LedgerServiceUpdateEventProcedure, opts...),
		getEvent:         connect.NewClient[GetEventRequest, EventResponse](httpClient, baseURL+LedgerServiceGetEventProcedure, opts...),
		listEvents:       connect.NewClient[ListEventsRequest, ListEventsResponse](httpClient, baseURL+LedgerServiceListEventsProcedure, opts...),
		approveEvent:     connect.NewClient[ApproveEventRequest, SettlementResponse](httpClient, baseURL+LedgerServiceApproveEventProcedure, opts...),
		declineEvent:     connect.NewClient[DeclineEventRequest, SettlementResponse](httpClient, baseURL+LedgerServiceDeclineEventProcedure, opts...),
		transfer:         connect.NewClient[TransferRequest, PostingResponse](httpClient, baseURL+LedgerServiceTransferProcedure, opts...),
		requestTopUp:     connect.NewClient[RequestTopUpRequest, PostingResponse](httpClient, baseURL+LedgerServiceRequestTopUpProcedure, opts...),
		topUpByAdmin:     connect.NewClient[TopUpByAdminRequest, PostingResponse](httpClient, baseURL+LedgerServiceTopUpByAdminProcedure, opts...),
		resolveTopUp:     connect.NewClient[ResolveTopUpRequest, PostingResponse](httpClient, baseURL+LedgerServiceResolveTopUpProcedure, opts...),
		getTransaction:   connect.NewClient[GetTransactionRequest, TransactionResponse](httpClient, baseURL+LedgerServiceGetTransactionProcedure, opts...),
		listTransactions: connect.NewClient[ListTransactionsRequest, ListTransactionsResponse](httpClient, baseURL+LedgerServiceListTransactionsProcedure, opts...),
		reconcile:        connect.NewClient[ReconcileRequest, ReconcileResponse](httpClient, baseURL+LedgerServiceReconcileProcedure, opts...),
	}
}

func (c *LedgerServiceClient) CreateEvent(ctx context.Context, req *connect.Request[CreateEventRequest]) (*connect.Response[EventResponse], error) {
	return c.createEvent.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) UpdateEvent(ctx context.Context, req *connect.Request[UpdateEventRequest]) (*connect.Response[EventResponse], error) {
	return c.updateEvent.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetEvent(ctx context.Context, req *connect.Request[GetEventRequest]) (*connect.Response[EventResponse], error) {
	return c.getEvent.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ListEvents(ctx context.Context, req *connect.Request[ListEventsRequest]) (*connect.Response[ListEventsResponse], error) {
	return c.listEvents.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ApproveEvent(ctx context.Context, req *connect.Request[ApproveEventRequest]) (*connect.Response[SettlementResponse], error) {
	return c.approveEvent.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) DeclineEvent(ctx context.Context, req *connect.Request[DeclineEventRequest]) (*connect.Response[SettlementResponse], error) {
	return c.declineEvent.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) Transfer(ctx context.Context, req *connect.Request[TransferRequest]) (*connect.Response[PostingResponse], error) {
	return c.transfer.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) RequestTopUp(ctx context.Context, req *connect.Request[RequestTopUpRequest]) (*connect.Response[PostingResponse], error) {
	return c.requestTopUp.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) TopUpByAdmin(ctx context.Context, req *connect.Request[TopUpByAdminRequest]) (*connect.Response[PostingResponse], error) {
	return c.topUpByAdmin.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ResolveTopUp(ctx context.Context, req *connect.Request[ResolveTopUpRequest]) (*connect.Response[PostingResponse], error) {
	return c.resolveTopUp.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) GetTransaction(ctx context.Context, req *connect.Request[GetTransactionRequest]) (*connect.Response[TransactionResponse], error) {
	return c.getTransaction.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) ListTransactions(ctx context.Context, req *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error) {
	return c.listTransactions.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) Reconcile(ctx context.Context, req *connect.Request[ReconcileRequest]) (*connect.Response[ReconcileResponse], error) {
	return c.reconcile.CallUnary(ctx, req)
}
