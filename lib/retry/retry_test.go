package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoResolvesOnFirstAttempt(t *testing.T) {
	out := Do(context.Background(), Policy{MaxAttempts: 3, Pause: time.Millisecond},
		func(context.Context) (int, error) { return 42, nil },
		func() int { return -1 },
	)
	if out.Fallback {
		t.Fatalf("expected resolved outcome")
	}
	if out.Value != 42 {
		t.Fatalf("expected 42, got %d", out.Value)
	}
	if out.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", out.Attempts)
	}
}

func TestDoRetriesThenResolves(t *testing.T) {
	calls := 0
	out := Do(context.Background(), Policy{MaxAttempts: 3, Pause: time.Millisecond},
		func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("transient")
			}
			return "ok", nil
		},
		func() string { return "synthetic" },
	)
	if out.Fallback || out.Value != "ok" {
		t.Fatalf("expected resolution on third attempt, got fallback=%v value=%q", out.Fallback, out.Value)
	}
	if out.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", out.Attempts)
	}
}

func TestDoFallsBackAfterExhaustion(t *testing.T) {
	out := Do(context.Background(), Policy{MaxAttempts: 3, Pause: time.Millisecond},
		func(context.Context) (int, error) { return 0, errors.New("down") },
		func() int { return 7 },
	)
	if !out.Fallback {
		t.Fatalf("expected fallback outcome")
	}
	if out.Value != 7 {
		t.Fatalf("expected synthetic value 7, got %d", out.Value)
	}
	if out.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", out.Attempts)
	}
	if out.Err == nil {
		t.Fatalf("expected exhaustion error recorded")
	}
}

func TestDoAbandonSkipsRemainingAttempts(t *testing.T) {
	calls := 0
	start := time.Now()
	out := Do(context.Background(), Policy{MaxAttempts: 3, Pause: 200 * time.Millisecond},
		func(context.Context) (int, error) {
			calls++
			return 0, Abandon(errors.New("retrying cannot help"))
		},
		func() int { return 9 },
	)
	if !out.Fallback || out.Value != 9 {
		t.Fatalf("expected fallback value 9, got fallback=%v value=%d", out.Fallback, out.Value)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
	if elapsed := time.Since(start); elapsed >= 200*time.Millisecond {
		t.Fatalf("expected no pause before fallback, took %v", elapsed)
	}
}

func TestDoZeroPolicyNormalized(t *testing.T) {
	attempts := 0
	out := Do(context.Background(), Policy{},
		func(context.Context) (int, error) { attempts++; return 0, errors.New("down") },
		func() int { return 1 },
	)
	if !out.Fallback {
		t.Fatalf("expected fallback")
	}
	if attempts != 3 {
		t.Fatalf("expected default of 3 attempts, got %d", attempts)
	}
}
