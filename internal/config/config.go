// Package config manages application configuration loading and validation.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment identifies the runtime environment.
type Environment string

const (
	// EnvDev marks the development environment.
	EnvDev Environment = "dev"
	// EnvStaging marks the staging environment.
	EnvStaging Environment = "staging"
	// EnvProd marks the production environment.
	EnvProd Environment = "prod"
)

// SessionBackend selects where conversation state lives.
type SessionBackend string

const (
	// SessionBackendMemory keeps sessions in process memory.
	SessionBackendMemory SessionBackend = "memory"
	// SessionBackendRedis shares sessions through Redis.
	SessionBackendRedis SessionBackend = "redis"
)

// Duration wraps time.Duration to accept "10s"-style YAML scalars.
type Duration struct {
	value time.Duration
}

// UnmarshalYAML parses a Go duration string or bare integer seconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		d.value = 0
		return nil
	}
	text := strings.TrimSpace(node.Value)
	if text == "" {
		d.value = 0
		return nil
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return fmt.Errorf("duration: invalid value %q", node.Value)
	}
	d.value = parsed
	return nil
}

// Or returns the wrapped duration, or fallback when unset or non-positive.
func (d Duration) Or(fallback time.Duration) time.Duration {
	if d.value <= 0 {
		return fallback
	}
	return d.value
}

// ServerConfig configures the HTTP control surface.
type ServerConfig struct {
	Addr      string  `yaml:"addr"`
	RateLimit float64 `yaml:"rateLimit"`
	RateBurst int     `yaml:"rateBurst"`
}

// GatewayConfig tunes the market-data gateway.
type GatewayConfig struct {
	PriceTimeout  Duration `yaml:"priceTimeout"`
	SymbolTimeout Duration `yaml:"symbolTimeout"`
	RetryAttempts uint     `yaml:"retryAttempts"`
	RetryPause    Duration `yaml:"retryPause"`
}

// NLUConfig tunes utterance extraction.
type NLUConfig struct {
	QuantityPriceThreshold string `yaml:"quantityPriceThreshold"`
}

// SessionsConfig selects and tunes the session store.
type SessionsConfig struct {
	Backend       SessionBackend `yaml:"backend"`
	TTL           Duration       `yaml:"ttl"`
	RedisAddr     string         `yaml:"redisAddr"`
	RedisPassword string         `yaml:"redisPassword"`
	RedisDB       int            `yaml:"redisDB"`
}

// TelemetryConfig configures OTLP exporters (metrics only).
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlpEndpoint"`
	OTLPInsecure bool   `yaml:"otlpInsecure"`
	ServiceName  string `yaml:"serviceName"`
}

// AppConfig is the unified application configuration sourced from YAML.
type AppConfig struct {
	Environment Environment     `yaml:"environment"`
	Server      ServerConfig    `yaml:"server"`
	Gateway     GatewayConfig   `yaml:"gateway"`
	NLU         NLUConfig       `yaml:"nlu"`
	Sessions    SessionsConfig  `yaml:"sessions"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
}

// Default returns the configuration used when no file is supplied.
func Default() AppConfig {
	return AppConfig{
		Environment: EnvDev,
		Server: ServerConfig{
			Addr:      ":8080",
			RateLimit: 50,
			RateBurst: 100,
		},
		Gateway: GatewayConfig{
			RetryAttempts: 3,
		},
		Sessions: SessionsConfig{
			Backend: SessionBackendMemory,
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			OTLPEndpoint: "localhost:4318",
			OTLPInsecure: true,
			ServiceName:  "voxdesk",
		},
	}
}

// Load reads and validates an AppConfig from the provided YAML file. An
// empty path yields the defaults with environment overrides applied.
func Load(configPath string) (AppConfig, error) {
	cfg := Default()

	if strings.TrimSpace(configPath) != "" {
		reader, closer, err := openConfigFile(configPath)
		if err != nil {
			return AppConfig{}, err
		}
		defer closer()

		raw, err := io.ReadAll(reader)
		if err != nil {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.normalise()

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("VOXDESK_ENV")); v != "" {
		c.Environment = Environment(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv("VOXDESK_ADDR")); v != "" {
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("VOXDESK_SESSION_BACKEND")); v != "" {
		c.Sessions.Backend = SessionBackend(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv("VOXDESK_REDIS_ADDR")); v != "" {
		c.Sessions.RedisAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("VOXDESK_REDIS_PASSWORD")); v != "" {
		c.Sessions.RedisPassword = v
	}
	if v := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")); v != "" {
		c.Telemetry.OTLPEndpoint = v
		c.Telemetry.Enabled = true
	}
}

func (c *AppConfig) normalise() {
	c.Environment = Environment(strings.ToLower(strings.TrimSpace(string(c.Environment))))
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	c.Sessions.Backend = SessionBackend(strings.ToLower(strings.TrimSpace(string(c.Sessions.Backend))))
	c.Sessions.RedisAddr = strings.TrimSpace(c.Sessions.RedisAddr)
	c.Telemetry.OTLPEndpoint = strings.TrimSpace(c.Telemetry.OTLPEndpoint)
	c.Telemetry.ServiceName = strings.TrimSpace(c.Telemetry.ServiceName)
	c.NLU.QuantityPriceThreshold = strings.TrimSpace(c.NLU.QuantityPriceThreshold)

	if c.Sessions.Backend == "" {
		c.Sessions.Backend = SessionBackendMemory
	}
	if c.Server.RateLimit <= 0 {
		c.Server.RateLimit = 50
	}
	if c.Server.RateBurst <= 0 {
		c.Server.RateBurst = 100
	}
	if c.Gateway.RetryAttempts == 0 {
		c.Gateway.RetryAttempts = 3
	}
}

// Validate performs semantic validation on the configuration.
func (c AppConfig) Validate() error {
	switch c.Environment {
	case EnvDev, EnvStaging, EnvProd:
	default:
		return fmt.Errorf("environment must be one of dev, staging, prod")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server addr required")
	}

	switch c.Sessions.Backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.Sessions.RedisAddr == "" {
			return fmt.Errorf("sessions redisAddr required for the redis backend")
		}
	default:
		return fmt.Errorf("sessions backend must be one of memory, redis")
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.OTLPEndpoint == "" {
			return fmt.Errorf("telemetry otlpEndpoint required when enabled")
		}
		if c.Telemetry.ServiceName == "" {
			return fmt.Errorf("telemetry serviceName required when enabled")
		}
	}
	return nil
}

func openConfigFile(path string) (io.Reader, func(), error) {
	candidate := filepath.Clean(strings.TrimSpace(path))

	file, err := os.Open(candidate) // #nosec G304 -- path is operator controlled.
	if err != nil {
		return nil, nil, fmt.Errorf("open app config: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}
