package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voxdesk.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.Server.Addr)
	}
	if cfg.Sessions.Backend != SessionBackendMemory {
		t.Fatalf("expected memory backend, got %q", cfg.Sessions.Backend)
	}
	if cfg.Gateway.RetryAttempts != 3 {
		t.Fatalf("expected 3 retry attempts, got %d", cfg.Gateway.RetryAttempts)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
environment: prod
server:
  addr: ":9090"
  rateLimit: 10
  rateBurst: 20
gateway:
  priceTimeout: 2s
  retryAttempts: 5
  retryPause: 250ms
nlu:
  quantityPriceThreshold: "500"
sessions:
  backend: redis
  redisAddr: localhost:6379
  ttl: 15m
telemetry:
  enabled: true
  otlpEndpoint: collector:4318
  serviceName: voxdesk
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != EnvProd {
		t.Fatalf("expected prod, got %q", cfg.Environment)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("expected :9090, got %q", cfg.Server.Addr)
	}
	if got := cfg.Gateway.PriceTimeout.Or(10 * time.Second); got != 2*time.Second {
		t.Fatalf("expected 2s price timeout, got %v", got)
	}
	if cfg.Gateway.RetryAttempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", cfg.Gateway.RetryAttempts)
	}
	if got := cfg.Sessions.TTL.Or(time.Hour); got != 15*time.Minute {
		t.Fatalf("expected 15m ttl, got %v", got)
	}
	if cfg.NLU.QuantityPriceThreshold != "500" {
		t.Fatalf("expected threshold 500, got %q", cfg.NLU.QuantityPriceThreshold)
	}
}

func TestValidateRejectsRedisWithoutAddr(t *testing.T) {
	path := writeConfig(t, `
sessions:
  backend: redis
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for redis backend without addr")
	}
}

func TestValidateRejectsUnknownEnvironment(t *testing.T) {
	path := writeConfig(t, `
environment: weird
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for unknown environment")
	}
}

func TestDurationOrFallback(t *testing.T) {
	var d Duration
	if got := d.Or(7 * time.Second); got != 7*time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}
}
