// Package retry provides the bounded retry-then-fallback combinator shared
// by the market data lookups.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy bounds the live attempts and the pause between them.
type Policy struct {
	MaxAttempts uint
	Pause       time.Duration
}

// DefaultPolicy mirrors the upstream retrieval envelope: three attempts with
// a one second pause.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Pause: time.Second}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = 3
	}
	if p.Pause <= 0 {
		p.Pause = time.Second
	}
	return p
}

// Abandon marks an attempt error as final. Do stops the envelope without
// further pauses and moves straight to the fallback producer. Used when an
// attempt learns that retrying cannot change the answer.
func Abandon(err error) error {
	return backoff.Permanent(err)
}

// Outcome reports the produced value and which tier produced it. Callers of
// the gateway never see this distinction; it exists for logs and metrics.
type Outcome[T any] struct {
	Value    T
	Fallback bool
	Attempts uint
	Err      error
}

// Do runs attempt up to the policy bound, pausing between failures, and
// falls back to the producer when every attempt errors. The returned value
// is always usable: fallback must not fail.
func Do[T any](ctx context.Context, policy Policy, attempt func(context.Context) (T, error), fallback func() T) Outcome[T] {
	policy = policy.normalized()

	var attempts uint
	operation := func() (T, error) {
		attempts++
		return attempt(ctx)
	}

	value, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(policy.Pause)),
		backoff.WithMaxTries(policy.MaxAttempts),
	)
	if err == nil {
		return Outcome[T]{Value: value, Fallback: false, Attempts: attempts, Err: nil}
	}
	return Outcome[T]{Value: fallback(), Fallback: true, Attempts: attempts, Err: err}
}
