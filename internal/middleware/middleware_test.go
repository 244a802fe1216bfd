package middleware

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
)

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetAccountID(ctx))
	assert.False(t, IsAdmin(ctx))

	ctx = WithIdentity(ctx, "acct-1", true)
	assert.Equal(t, "acct-1", GetAccountID(ctx))
	assert.True(t, IsAdmin(ctx))
}

func TestRPCLevel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want slog.Level
	}{
		{"ok", nil, slog.LevelInfo},
		{"caller mistake", connect.NewError(connect.CodeInvalidArgument, errors.New("bad")), slog.LevelWarn},
		{"denied", connect.NewError(connect.CodePermissionDenied, errors.New("no")), slog.LevelWarn},
		{"unavailable", connect.NewError(connect.CodeUnavailable, errors.New("locked")), slog.LevelError},
		{"plain error", errors.New("boom"), slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rpcLevel(tt.err))
		})
	}
}
