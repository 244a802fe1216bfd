package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/retry"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
	"github.com/mmynk/splitledger/internal/workflow"
	"github.com/mmynk/splitledger/pkg/api"
)

type testServer struct {
	store     *sqlstore.SQLStore
	jwt       *auth.JWTManager
	accounts  *api.AccountServiceClient
	ledger    *api.LedgerServiceClient
	published *notify.Memory
	metrics   *metrics.Metrics
}

// setupTestServer serves both services over httptest with the production
// interceptor chain and a temp-file SQLite store.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	published := &notify.Memory{}
	m := metrics.New()
	engine := workflow.New(store,
		workflow.WithPublisher(published),
		workflow.WithMetrics(m),
		workflow.WithRetryPolicy(retry.Policy{Attempts: 2, Base: time.Microsecond, Cap: time.Millisecond}),
	)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	opts := HandlerOptions(jwtManager, m)

	mux := http.NewServeMux()
	mux.Handle(api.NewAccountServiceHandler(
		NewAccountService(auth.NewPasswordAuthenticator(store), jwtManager, engine, slog.Default()),
		opts...,
	))
	mux.Handle(api.NewLedgerServiceHandler(NewLedgerService(engine), opts...))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testServer{
		store:     store,
		jwt:       jwtManager,
		accounts:  api.NewAccountServiceClient(http.DefaultClient, server.URL),
		ledger:    api.NewLedgerServiceClient(http.DefaultClient, server.URL),
		published: published,
		metrics:   m,
	}
}

// account stores an account with id == name and returns it with a signed token.
func (s *testServer) account(t *testing.T, name string, approved, admin bool) (*models.Account, string) {
	t.Helper()
	account := models.NewAccount(name+"@example.com", name, "unused")
	account.ID = name
	account.Approved = approved
	account.IsAdmin = admin
	require.NoError(t, s.store.CreateAccount(context.Background(), account))

	token, err := s.jwt.Generate(account)
	require.NoError(t, err)
	return account, token
}

func (s *testServer) balance(t *testing.T, id string) models.Amount {
	t.Helper()
	account, err := s.store.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return account.Balance
}

func withToken[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return req
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, connect.CodeOf(err), "error: %v", err)
}

func TestRegisterLoginAndCurrentAccount(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()

	reg, err := s.accounts.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:       "Alice@Example.com",
		DisplayName: "Alice",
		Password:    "correct horse",
	}))
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Msg.Token)
	assert.Equal(t, "alice@example.com", reg.Msg.Account.Email)
	assert.False(t, reg.Msg.Account.Approved)

	_, err = s.accounts.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:       "alice@example.com",
		DisplayName: "Alice again",
		Password:    "correct horse",
	}))
	assertCode(t, err, connect.CodeAlreadyExists)

	_, err = s.accounts.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:       "not-an-email",
		DisplayName: "Bob",
		Password:    "correct horse",
	}))
	assertCode(t, err, connect.CodeInvalidArgument)

	login, err := s.accounts.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct horse",
	}))
	require.NoError(t, err)
	assert.Equal(t, reg.Msg.Account.ID, login.Msg.Account.ID)

	_, err = s.accounts.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong password",
	}))
	assertCode(t, err, connect.CodeUnauthenticated)

	me, err := s.accounts.GetCurrentAccount(ctx, withToken(login.Msg.Token, &api.GetCurrentAccountRequest{}))
	require.NoError(t, err)
	assert.Equal(t, reg.Msg.Account.ID, me.Msg.Account.ID)
	require.NotNil(t, me.Msg.Account.Balance)
	assert.Equal(t, models.Amount(0), *me.Msg.Account.Balance)
}

func TestPolicyPipeline(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	_, memberToken := s.account(t, "alice", true, false)
	s.account(t, "bob", true, false)

	t.Run("missing token", func(t *testing.T) {
		_, err := s.ledger.ListEvents(ctx, withToken("", &api.ListEventsRequest{}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})

	t.Run("bad token", func(t *testing.T) {
		_, err := s.ledger.ListEvents(ctx, withToken("garbage", &api.ListEventsRequest{}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})

	t.Run("admin only", func(t *testing.T) {
		_, err := s.ledger.Reconcile(ctx, withToken(memberToken, &api.ReconcileRequest{}))
		assertCode(t, err, connect.CodePermissionDenied)

		_, err = s.accounts.ApproveAccount(ctx, withToken(memberToken, &api.ApproveAccountRequest{AccountID: "bob"}))
		assertCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("validation runs after access checks", func(t *testing.T) {
		_, err := s.ledger.Transfer(ctx, withToken(memberToken, &api.TransferRequest{ReceiverID: "bob"}))
		assertCode(t, err, connect.CodeInvalidArgument)

		_, err = s.ledger.ApproveEvent(ctx, withToken(memberToken, &api.ApproveEventRequest{}))
		assertCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("rpc metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Contains(t, rec.Body.String(), `code="permission_denied"`)
	})
}

func TestEventSettlementOverRPC(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	_, adminToken := s.account(t, "admin", true, true)
	_, ownerToken := s.account(t, "owner", true, false)
	for _, name := range []string{"alice", "bob", "carol", "dave", "erin"} {
		s.account(t, name, true, false)
	}

	created, err := s.ledger.CreateEvent(ctx, withToken(ownerToken, &api.CreateEventRequest{
		Content: "Team dinner",
		Amount:  12000,
		Date:    time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC),
		Members: []string{"carol", "alice", "bob"},
		Sponsors: []api.Contribution{
			{AccountID: "dave", Amount: 1000, Message: "drinks on me"},
			{AccountID: "erin", Amount: 1000},
		},
	}))
	require.NoError(t, err)
	event := created.Msg.Event
	assert.Equal(t, models.StatusWaiting, event.Status)
	assert.Equal(t, "owner", event.OwnerID)
	assert.Equal(t, []string{"alice", "bob", "carol"}, event.Members)

	_, err = s.ledger.ApproveEvent(ctx, withToken(ownerToken, &api.ApproveEventRequest{EventID: event.ID}))
	assertCode(t, err, connect.CodePermissionDenied)

	settled, err := s.ledger.ApproveEvent(ctx, withToken(adminToken, &api.ApproveEventRequest{EventID: event.ID}))
	require.NoError(t, err)
	assert.Equal(t, models.StatusApprove, settled.Msg.Event.Status)
	assert.Len(t, settled.Msg.Transactions, 5)

	assert.Equal(t, models.Amount(-3333), s.balance(t, "alice"))
	assert.Equal(t, models.Amount(-3333), s.balance(t, "bob"))
	assert.Equal(t, models.Amount(-3334), s.balance(t, "carol"))
	assert.Equal(t, models.Amount(-1000), s.balance(t, "dave"))
	assert.Equal(t, models.Amount(-1000), s.balance(t, "erin"))
	assert.Equal(t, models.Amount(0), s.balance(t, "owner"))

	_, err = s.ledger.ApproveEvent(ctx, withToken(adminToken, &api.ApproveEventRequest{EventID: event.ID}))
	assertCode(t, err, connect.CodeFailedPrecondition)
	assert.Equal(t, models.Amount(-3333), s.balance(t, "alice"))

	_, err = s.ledger.UpdateEvent(ctx, withToken(ownerToken, &api.UpdateEventRequest{
		EventID: event.ID,
		Content: "Too late",
		Amount:  100,
		Date:    time.Now(),
		Members: []string{"alice"},
	}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	_, err = s.ledger.ApproveEvent(ctx, withToken(adminToken, &api.ApproveEventRequest{EventID: "missing"}))
	assertCode(t, err, connect.CodeNotFound)

	legs, err := s.ledger.ListTransactions(ctx, withToken(adminToken, &api.ListTransactionsRequest{EventID: event.ID}))
	require.NoError(t, err)
	assert.Len(t, legs.Msg.Transactions, 5)

	report, err := s.ledger.Reconcile(ctx, withToken(adminToken, &api.ReconcileRequest{}))
	require.NoError(t, err)
	assert.Empty(t, report.Msg.Discrepancies)

	assert.Len(t, s.published.Messages(notify.SubjectEventApproved), 1)
}

func TestDeclineEventOverRPC(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	_, adminToken := s.account(t, "admin", true, true)
	_, ownerToken := s.account(t, "owner", true, false)
	s.account(t, "alice", true, false)

	created, err := s.ledger.CreateEvent(ctx, withToken(ownerToken, &api.CreateEventRequest{
		Content: "Cinema",
		Amount:  2400,
		Date:    time.Date(2026, 4, 2, 20, 0, 0, 0, time.UTC),
		Members: []string{"alice"},
	}))
	require.NoError(t, err)

	declined, err := s.ledger.DeclineEvent(ctx, withToken(adminToken, &api.DeclineEventRequest{EventID: created.Msg.Event.ID}))
	require.NoError(t, err)
	assert.Equal(t, models.StatusDecline, declined.Msg.Event.Status)
	assert.Equal(t, models.Amount(0), s.balance(t, "alice"))

	list, err := s.ledger.ListEvents(ctx, withToken(ownerToken, &api.ListEventsRequest{}))
	require.NoError(t, err)
	assert.Empty(t, list.Msg.Events)
}

func TestTransfersAndTopUpsOverRPC(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	_, adminToken := s.account(t, "admin", true, true)
	_, aliceToken := s.account(t, "alice", true, false)
	_, bobToken := s.account(t, "bob", true, false)
	s.account(t, "pending", false, false)

	_, err := s.ledger.Transfer(ctx, withToken(aliceToken, &api.TransferRequest{ReceiverID: "alice", Amount: 100}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = s.ledger.Transfer(ctx, withToken(aliceToken, &api.TransferRequest{ReceiverID: "pending", Amount: 100}))
	assertCode(t, err, connect.CodeInvalidArgument)

	sent, err := s.ledger.Transfer(ctx, withToken(aliceToken, &api.TransferRequest{ReceiverID: "bob", Amount: 2550, Message: "rent"}))
	require.NoError(t, err)
	assert.Equal(t, models.Amount(-2550), s.balance(t, "alice"))
	assert.Equal(t, models.Amount(2550), s.balance(t, "bob"))
	assert.Len(t, sent.Msg.Accounts, 2)

	requested, err := s.ledger.RequestTopUp(ctx, withToken(aliceToken, &api.RequestTopUpRequest{Amount: 5000}))
	require.NoError(t, err)
	topUp := requested.Msg.Transaction
	assert.Equal(t, models.StatusWaiting, topUp.Status)
	assert.Equal(t, "Top up by alice", topUp.Message)

	_, err = s.ledger.GetTransaction(ctx, withToken(bobToken, &api.GetTransactionRequest{TransactionID: topUp.ID}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = s.ledger.ListTransactions(ctx, withToken(bobToken, &api.ListTransactionsRequest{AccountID: "alice"}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = s.ledger.ResolveTopUp(ctx, withToken(aliceToken, &api.ResolveTopUpRequest{TransactionID: topUp.ID, Decision: models.StatusApprove}))
	assertCode(t, err, connect.CodePermissionDenied)

	resolved, err := s.ledger.ResolveTopUp(ctx, withToken(adminToken, &api.ResolveTopUpRequest{TransactionID: topUp.ID, Decision: models.StatusApprove}))
	require.NoError(t, err)
	assert.Equal(t, models.StatusApprove, resolved.Msg.Transaction.Status)
	assert.Equal(t, models.Amount(2450), s.balance(t, "alice"))

	_, err = s.ledger.ResolveTopUp(ctx, withToken(adminToken, &api.ResolveTopUpRequest{TransactionID: topUp.ID, Decision: models.StatusDecline}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	_, err = s.ledger.TopUpByAdmin(ctx, withToken(adminToken, &api.TopUpByAdminRequest{ReceiverID: "bob", Amount: 1000}))
	require.NoError(t, err)
	assert.Equal(t, models.Amount(3550), s.balance(t, "bob"))

	mine, err := s.ledger.ListTransactions(ctx, withToken(aliceToken, &api.ListTransactionsRequest{Ascending: true}))
	require.NoError(t, err)
	var ids []string
	for _, tr := range mine.Msg.Transactions {
		ids = append(ids, tr.ID)
	}
	assert.ElementsMatch(t, []string{sent.Msg.Transaction.ID, topUp.ID}, ids)

	report, err := s.ledger.Reconcile(ctx, withToken(adminToken, &api.ReconcileRequest{}))
	require.NoError(t, err)
	assert.Empty(t, report.Msg.Discrepancies)
}

func TestAccountListingAndApproval(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()
	_, adminToken := s.account(t, "admin", true, true)
	_, aliceToken := s.account(t, "alice", true, false)
	s.account(t, "pending", false, false)

	unapproved := false
	waiting, err := s.accounts.ListAccounts(ctx, withToken(adminToken, &api.ListAccountsRequest{Approved: &unapproved}))
	require.NoError(t, err)
	require.Len(t, waiting.Msg.Accounts, 1)
	assert.Equal(t, "pending", waiting.Msg.Accounts[0].ID)
	assert.NotEmpty(t, waiting.Msg.Accounts[0].Email)

	approved, err := s.accounts.ApproveAccount(ctx, withToken(adminToken, &api.ApproveAccountRequest{AccountID: "pending"}))
	require.NoError(t, err)
	assert.True(t, approved.Msg.Account.Approved)

	_, err = s.accounts.ApproveAccount(ctx, withToken(adminToken, &api.ApproveAccountRequest{AccountID: "ghost"}))
	assertCode(t, err, connect.CodeNotFound)

	all, err := s.accounts.ListAccounts(ctx, withToken(aliceToken, &api.ListAccountsRequest{}))
	require.NoError(t, err)
	require.Len(t, all.Msg.Accounts, 3)
	for _, a := range all.Msg.Accounts {
		assert.NotNil(t, a.Balance, "account %s", a.ID)
		if a.ID == "alice" {
			assert.Equal(t, "alice@example.com", a.Email)
			continue
		}
		assert.Empty(t, a.Email, "account %s", a.ID)
		assert.False(t, a.IsAdmin, "account %s", a.ID)
	}

	other, err := s.accounts.GetAccount(ctx, withToken(aliceToken, &api.GetAccountRequest{AccountID: "admin"}))
	require.NoError(t, err)
	assert.Equal(t, "admin", other.Msg.Account.DisplayName)
	assert.Empty(t, other.Msg.Account.Email)

	full, err := s.accounts.GetAccount(ctx, withToken(adminToken, &api.GetAccountRequest{AccountID: "alice"}))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", full.Msg.Account.Email)

	_, err = s.accounts.GetAccount(ctx, withToken(aliceToken, &api.GetAccountRequest{AccountID: "ghost"}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestToConnectError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want connect.Code
	}{
		{"not found", ledger.NotFound("event", "e1"), connect.CodeNotFound},
		{"validation", ledger.Validation("amount", "must be positive"), connect.CodeInvalidArgument},
		{"invalid state", ledger.InvalidState("event e1 is APPROVE"), connect.CodeFailedPrecondition},
		{"conflict", ledger.Conflict("lost race", nil), connect.CodeAborted},
		{"persistence", ledger.Persistence("settlement failed", errors.New("database is locked")), connect.CodeUnavailable},
		{"forbidden", ledger.Forbidden("not yours"), connect.CodePermissionDenied},
		{"field error", &api.FieldError{Field: "amount", Rule: "positive_amount"}, connect.CodeInvalidArgument},
		{"bad credentials", auth.ErrInvalidCredentials, connect.CodeUnauthenticated},
		{"email taken", auth.ErrEmailExists, connect.CodeAlreadyExists},
		{"canceled", context.Canceled, connect.CodeCanceled},
		{"unknown", errors.New("boom"), connect.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, connect.CodeOf(toConnectError(tt.err)))
		})
	}

	assert.NoError(t, toConnectError(nil))
}
