package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/workflow"
	"github.com/mmynk/splitledger/pkg/api"
)

// AccountService implements the AccountService RPC interface.
type AccountService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	engine        *workflow.Engine
	logger        *slog.Logger
}

var _ api.AccountServiceHandler = (*AccountService)(nil)

// NewAccountService creates a new account service.
func NewAccountService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, engine *workflow.Engine, logger *slog.Logger) *AccountService {
	return &AccountService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		engine:        engine,
		logger:        logger,
	}
}

// Register creates a new, unapproved account and signs the caller in.
func (s *AccountService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.AuthResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	account, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", req.Msg.Email, "error", err)
		return nil, toConnectError(err)
	}

	resp, err := s.signIn(account)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Account registered", "account_id", account.ID, "email", account.Email)
	return resp, nil
}

// Login authenticates an account and returns a JWT token.
func (s *AccountService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.AuthResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	account, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	resp, err := s.signIn(account)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Account logged in", "account_id", account.ID)
	return resp, nil
}

func (s *AccountService) signIn(account *models.Account) (*connect.Response[api.AuthResponse], error) {
	token, err := s.jwtManager.Generate(account)
	if err != nil {
		s.logger.Error("Failed to generate token", "account_id", account.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&api.AuthResponse{
		Account: accountToAPI(account),
		Token:   token,
	}), nil
}

// GetCurrentAccount returns the caller's own account, balance included.
func (s *AccountService) GetCurrentAccount(ctx context.Context, _ *connect.Request[api.GetCurrentAccountRequest]) (*connect.Response[api.AccountResponse], error) {
	account, err := s.engine.GetAccount(ctx, actorFrom(ctx).AccountID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.AccountResponse{Account: accountToAPI(account)}), nil
}

// GetAccount returns any account, trimmed to its public fields for non-admins.
func (s *AccountService) GetAccount(ctx context.Context, req *connect.Request[api.GetAccountRequest]) (*connect.Response[api.AccountResponse], error) {
	account, err := s.engine.GetAccount(ctx, req.Msg.AccountID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.AccountResponse{Account: accountFor(actorFrom(ctx), account)}), nil
}

// ListAccounts lists accounts. Admins see every field; members see the public
// fields of everyone but themselves.
func (s *AccountService) ListAccounts(ctx context.Context, req *connect.Request[api.ListAccountsRequest]) (*connect.Response[api.ListAccountsResponse], error) {
	actor := actorFrom(ctx)
	accounts, err := s.engine.ListAccounts(ctx, req.Msg.Approved, storage.Page{Limit: req.Msg.Limit, Offset: req.Msg.Offset})
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]api.Account, len(accounts))
	for i, a := range accounts {
		out[i] = accountFor(actor, a)
	}
	return connect.NewResponse(&api.ListAccountsResponse{Accounts: out}), nil
}

// ApproveAccount lets an account take part in events and receive transfers.
func (s *AccountService) ApproveAccount(ctx context.Context, req *connect.Request[api.ApproveAccountRequest]) (*connect.Response[api.AccountResponse], error) {
	s.logger.Info("ApproveAccount request", "account_id", req.Msg.AccountID, "admin_id", actorFrom(ctx).AccountID)

	account, err := s.engine.ApproveAccount(ctx, req.Msg.AccountID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.AccountResponse{Account: accountToAPI(account)}), nil
}
