package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorFormattingIncludesAllParts(t *testing.T) {
	err := New(
		"bybit",
		CodeNetwork,
		WithHTTP(502),
		WithMessage("ticker request failed"),
		WithRemediation("retry with the alternate request shape"),
		WithCause(errors.New("dial tcp: connection refused")),
	)

	out := err.Error()
	if !strings.Contains(out, "exchange=bybit") {
		t.Fatalf("expected exchange marker in error string: %s", out)
	}
	if !strings.Contains(out, "code=network") {
		t.Fatalf("expected code in error string: %s", out)
	}
	if !strings.Contains(out, "http=502") {
		t.Fatalf("expected http status in error string: %s", out)
	}
	if !strings.Contains(out, "message=\"ticker request failed\"") {
		t.Fatalf("expected message in error string: %s", out)
	}
	if !strings.Contains(out, "remediation=\"retry with the alternate request shape\"") {
		t.Fatalf("expected remediation guidance in error string: %s", out)
	}
	if !strings.Contains(out, "cause=\"dial tcp: connection refused\"") {
		t.Fatalf("expected wrapped cause in error string: %s", out)
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("boom")
	err := New("okx", CodeParse, WithCause(cause))
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to match the wrapped cause")
	}
}

func TestEmptyExchangeAndCodeFallBackToUnknown(t *testing.T) {
	err := New("   ", Code(""))
	out := err.Error()
	if !strings.Contains(out, "exchange=unknown") {
		t.Fatalf("expected unknown exchange marker: %s", out)
	}
	if !strings.Contains(out, "code=unknown") {
		t.Fatalf("expected unknown code marker: %s", out)
	}
}

func TestUnsupportedExchangeHelper(t *testing.T) {
	err := UnsupportedExchange("kraken")
	if err.Code != CodeNotFound {
		t.Fatalf("expected not_found code, got %q", err.Code)
	}
	if err.Exchange != "kraken" {
		t.Fatalf("expected exchange preserved, got %q", err.Exchange)
	}
}

func TestNilErrorString(t *testing.T) {
	var err *E
	if got := err.Error(); got != "<nil>" {
		t.Fatalf("expected <nil>, got %q", got)
	}
}
