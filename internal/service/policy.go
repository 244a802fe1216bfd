package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/workflow"
	"github.com/mmynk/splitledger/pkg/api"
)

// access is who may call a procedure.
type access int

const (
	accessPublic access = iota
	accessMember
	accessAdmin
)

// procedureAccess is the static access table. Procedures missing from it are refused.
var procedureAccess = map[string]access{
	api.AccountServiceRegisterProcedure:          accessPublic,
	api.AccountServiceLoginProcedure:             accessPublic,
	api.AccountServiceGetCurrentAccountProcedure: accessMember,
	api.AccountServiceGetAccountProcedure:        accessMember,
	api.AccountServiceListAccountsProcedure:      accessMember,
	api.AccountServiceApproveAccountProcedure:    accessAdmin,

	api.LedgerServiceCreateEventProcedure:      accessMember,
	api.LedgerServiceUpdateEventProcedure:      accessMember,
	api.LedgerServiceGetEventProcedure:         accessMember,
	api.LedgerServiceListEventsProcedure:       accessMember,
	api.LedgerServiceApproveEventProcedure:     accessAdmin,
	api.LedgerServiceDeclineEventProcedure:     accessAdmin,
	api.LedgerServiceTransferProcedure:         accessMember,
	api.LedgerServiceRequestTopUpProcedure:     accessMember,
	api.LedgerServiceTopUpByAdminProcedure:     accessAdmin,
	api.LedgerServiceResolveTopUpProcedure:     accessAdmin,
	api.LedgerServiceGetTransactionProcedure:   accessMember,
	api.LedgerServiceListTransactionsProcedure: accessMember,
	api.LedgerServiceReconcileProcedure:        accessAdmin,
}

var (
	errUnknownProcedure = errors.New("procedure is not routable")
	errAdminOnly        = errors.New("admin only")
)

// policy is one step of the pipeline run before every handler.
type policy func(ctx context.Context, procedure string, msg any) error

// pipeline is the ordered list of checks. The first failure wins.
var pipeline = []policy{
	routable,
	authenticated,
	adminOnly,
	validated,
}

func routable(_ context.Context, procedure string, _ any) error {
	if _, ok := procedureAccess[procedure]; !ok {
		return connect.NewError(connect.CodeUnimplemented, fmt.Errorf("%w: %s", errUnknownProcedure, procedure))
	}
	return nil
}

func authenticated(ctx context.Context, procedure string, _ any) error {
	if procedureAccess[procedure] == accessPublic {
		return nil
	}
	if middleware.GetAccountID(ctx) == "" {
		return connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return nil
}

func adminOnly(ctx context.Context, procedure string, _ any) error {
	if procedureAccess[procedure] == accessAdmin && !middleware.IsAdmin(ctx) {
		return connect.NewError(connect.CodePermissionDenied, errAdminOnly)
	}
	return nil
}

func validated(_ context.Context, _ string, msg any) error {
	if err := api.Validate(msg); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return nil
}

// PolicyInterceptor runs the pipeline before the handler.
func PolicyInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure
			for _, check := range pipeline {
				if err := check(ctx, procedure, req.Any()); err != nil {
					return nil, err
				}
			}
			return next(ctx, req)
		}
	}
}

// PublicProcedures lists the procedures callable without a token.
func PublicProcedures() []string {
	var public []string
	for procedure, a := range procedureAccess {
		if a == accessPublic {
			public = append(public, procedure)
		}
	}
	return public
}

// HandlerOptions returns the interceptor chain shared by both services, outermost
// first: logging, metrics, token verification, then the policy pipeline.
func HandlerOptions(jwtManager *auth.JWTManager, m *metrics.Metrics) []connect.HandlerOption {
	return []connect.HandlerOption{
		connect.WithInterceptors(
			middleware.LoggingInterceptor(),
			middleware.MetricsInterceptor(m),
			middleware.RequireAuth(jwtManager, PublicProcedures()...),
			PolicyInterceptor(),
		),
	}
}

// actorFrom builds the workflow actor from the verified identity in ctx.
func actorFrom(ctx context.Context) workflow.Actor {
	return workflow.Actor{
		AccountID: middleware.GetAccountID(ctx),
		IsAdmin:   middleware.IsAdmin(ctx),
	}
}
