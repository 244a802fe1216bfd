// Package retry re-runs units of work that failed on transient storage errors.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mmynk/splitledger/internal/storage"
)

// Jitter is the randomization factor applied to every backoff interval.
const Jitter = 0.5

// Policy bounds how often and how slowly a unit of work is retried.
type Policy struct {
	// Attempts is the total number of tries, first one included.
	Attempts int

	// Base is the backoff before the second try; it doubles each time.
	Base time.Duration

	// Cap limits a single backoff before jitter.
	Cap time.Duration

	// OnRetry, if set, is called before each retry with the failure that caused it.
	OnRetry func(op string, err error)
}

// DefaultPolicy is used when a zero Policy is given.
var DefaultPolicy = Policy{Attempts: 4, Base: 25 * time.Millisecond, Cap: time.Second}

// ErrExhausted is returned, wrapping the last failure, when every attempt failed transiently.
var ErrExhausted = errors.New("retries exhausted")

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, storage.ErrTransient)
}

// BackOff returns the schedule for p: exponential from Base, capped at Cap,
// jittered, stopping after Attempts-1 retries or when ctx is done.
func (p Policy) BackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Base
	b.Multiplier = 2
	b.RandomizationFactor = Jitter
	b.MaxInterval = p.Cap
	b.MaxElapsedTime = 0
	b.Reset()

	retries := uint64(max(p.Attempts-1, 0))
	return backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
}

// Do runs fn until it succeeds, fails with a non-transient error, or the policy
// runs out. Waits between attempts honour ctx.
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	if p.Attempts <= 0 {
		p.Attempts, p.Base, p.Cap = DefaultPolicy.Attempts, DefaultPolicy.Base, DefaultPolicy.Cap
	}

	attempts := 0
	operation := func() error {
		attempts++
		err := fn(ctx)
		if err != nil && !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		slog.Debug("Retrying after transient failure", "op", op, "attempt", attempts+1, "delay", delay, "error", err)
		if p.OnRetry != nil {
			p.OnRetry(op, err)
		}
	}

	err := backoff.RetryNotify(operation, p.BackOff(ctx), notify)
	if err == nil || !IsTransient(err) {
		return err
	}

	slog.Warn("Giving up after transient failures", "op", op, "attempts", attempts, "error", err)
	return fmt.Errorf("%s: %w: %w", op, ErrExhausted, err)
}
