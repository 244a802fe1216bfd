package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/pkg/api"
)

// toConnectError maps domain errors onto Connect codes.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}

	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	var fieldErr *api.FieldError
	if errors.As(err, &fieldErr) {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}

	switch {
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, auth.ErrWeakPassword):
		return connect.NewError(connect.CodeInvalidArgument, err)
	}

	switch ledger.KindOf(err) {
	case ledger.KindNotFound:
		return connect.NewError(connect.CodeNotFound, err)
	case ledger.KindInvalidState:
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case ledger.KindValidation:
		return connect.NewError(connect.CodeInvalidArgument, err)
	case ledger.KindConflict:
		return connect.NewError(connect.CodeAborted, err)
	case ledger.KindPersistence:
		return connect.NewError(connect.CodeUnavailable, err)
	case ledger.KindForbidden:
		return connect.NewError(connect.CodePermissionDenied, err)
	}

	slog.Error("Unclassified error", "error", err)
	return connect.NewError(connect.CodeInternal, err)
}
