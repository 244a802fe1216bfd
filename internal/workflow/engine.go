// Package workflow implements the ledger operations: event settlement, direct
// transfers, top-ups and the queries around them. Every mutation runs as one
// storage unit of work, retried on transient failures, and is announced only
// after it commits.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/retry"
	"github.com/mmynk/splitledger/internal/storage"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	AccountID string
	IsAdmin   bool
}

// Engine runs ledger workflows against a store.
type Engine struct {
	store     storage.Store
	ledger    *ledger.Ledger
	recorder  *ledger.Recorder
	publisher notify.Publisher
	metrics   *metrics.Metrics
	retry     retry.Policy
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher sets where committed outcomes are announced.
func WithPublisher(p notify.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics records commit outcomes and retries.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithRetryPolicy overrides retry.DefaultPolicy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(e *Engine) { e.retry = p }
}

// New creates an Engine.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		ledger:    ledger.New(),
		recorder:  ledger.NewRecorder(),
		publisher: notify.Nop{},
		retry:     retry.DefaultPolicy,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.retry.OnRetry = func(op string, _ error) { e.metrics.ObserveRetry(op) }
	return e
}

// runUnit executes fn as one unit of work, retrying the whole unit on transient
// storage failures. fn must only use tx.
func (e *Engine) runUnit(ctx context.Context, op string, fn func(ctx context.Context, tx storage.Tx) error) error {
	start := time.Now()
	err := retry.Do(ctx, e.retry, op, func(ctx context.Context) error {
		return e.store.WithinTx(ctx, fn)
	})
	err = unitError(op, err)

	outcome := "ok"
	if err != nil {
		outcome = string(ledger.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	e.metrics.ObserveCommit(op, outcome, start)
	return err
}

// unitError maps a failed unit of work onto the ledger taxonomy. Ledger errors
// raised inside the unit pass through untouched.
func unitError(op string, err error) error {
	if err == nil || ledger.KindOf(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, storage.ErrConflict):
		return ledger.Conflict(op+" lost a concurrent update", err)
	}
	return ledger.Persistence(op+" was not applied", err)
}

// readError maps a failed read outside a unit of work.
func readError(entity, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return ledger.NotFound(entity, id)
	case ledger.KindOf(err) != "":
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return ledger.Persistence(fmt.Sprintf("failed to read %s %s", entity, id), err)
}

// publish announces a committed outcome. Failures are logged and never undo the commit.
func (e *Engine) publish(ctx context.Context, subject string, payload any) {
	if err := e.publisher.Publish(ctx, subject, payload); err != nil {
		slog.Warn("Failed to publish notification", "subject", subject, "error", err)
	}
}
