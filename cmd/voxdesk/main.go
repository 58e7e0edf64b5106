// Command voxdesk launches the voice order-capture service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"
	"golang.org/x/time/rate"

	"github.com/voxdesk/voxdesk/internal/catalog"
	"github.com/voxdesk/voxdesk/internal/config"
	"github.com/voxdesk/voxdesk/internal/dialogue"
	"github.com/voxdesk/voxdesk/internal/marketdata"
	"github.com/voxdesk/voxdesk/internal/nlu"
	"github.com/voxdesk/voxdesk/internal/observability"
	httpserver "github.com/voxdesk/voxdesk/internal/server/http"
	"github.com/voxdesk/voxdesk/internal/session"
	"github.com/voxdesk/voxdesk/internal/telemetry"
	"github.com/voxdesk/voxdesk/lib/async"
	"github.com/voxdesk/voxdesk/lib/retry"
)

const (
	loggerPrefix = "voxdesk "

	defaultPriceTimeout  = 10 * time.Second
	defaultSymbolTimeout = 5 * time.Second
	defaultRetryPause    = time.Second
	defaultSessionTTL    = 30 * time.Minute

	provisionWorkers = 4
	provisionQueue   = 64

	shutdownTimeout          = 30 * time.Second
	serverShutdownTimeout    = 5 * time.Second
	tasksShutdownTimeout     = 5 * time.Second
	telemetryShutdownTimeout = 5 * time.Second
	readHeaderTimeout        = 5 * time.Second
)

func main() {
	cfgPath := parseFlags()
	ctx, cancel := newSignalContext()
	defer cancel()

	stdLogger := log.New(os.Stdout, loggerPrefix, log.LstdFlags|log.Lmicroseconds)
	logger := observability.NewStdLogger(stdLogger)
	observability.SetLogger(logger)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stdLogger.Fatalf("load config: %v", err)
	}
	stdLogger.Printf("configuration initialised: env=%s, sessions=%s", cfg.Environment, cfg.Sessions.Backend)

	telemetryProvider, metrics, err := initTelemetry(ctx, stdLogger, cfg)
	if err != nil {
		stdLogger.Fatalf("initialize telemetry: %v", err)
	}

	store, redisClient, err := buildSessionStore(ctx, cfg.Sessions)
	if err != nil {
		stdLogger.Fatalf("initialise session store: %v", err)
	}
	if redisClient != nil {
		stdLogger.Printf("session store: redis at %s", cfg.Sessions.RedisAddr)
	}

	gateway := buildGateway(cfg.Gateway, logger, metrics)
	machine := buildMachine(cfg.NLU, gateway, logger, metrics)
	engine := dialogue.NewEngine(machine, store, logger)

	tasks, err := async.NewPool(provisionWorkers, provisionQueue)
	if err != nil {
		stdLogger.Fatalf("initialise task pool: %v", err)
	}

	apiServer := buildAPIServer(cfg.Server, engine, logger, tasks)

	var lifecycle conc.WaitGroup
	lifecycle.Go(func() {
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			stdLogger.Printf("api server: %v", err)
		}
	})
	stdLogger.Printf("listening on %s", apiServer.Addr)

	<-ctx.Done()
	stdLogger.Print("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	shutdownStart := time.Now()
	performGracefulShutdown(shutdownCtx, stdLogger, gracefulShutdownConfig{
		server:     apiServer,
		mainCancel: cancel,
		lifecycle:  &lifecycle,
		tasks:      tasks,
		redis:      redisClient,
		telemetry:  telemetryProvider,
	})
	stdLogger.Printf("shutdown completed in %v", time.Since(shutdownStart))
}

func parseFlags() string {
	cfgPath := flag.String("config", "", "Path to application configuration file")
	flag.Parse()
	return *cfgPath
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func initTelemetry(ctx context.Context, logger *log.Logger, cfg config.AppConfig) (*telemetry.Provider, *telemetry.Metrics, error) {
	telemetryCfg := telemetry.DefaultConfig()
	telemetryCfg.Enabled = cfg.Telemetry.Enabled
	telemetryCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	telemetryCfg.Environment = string(cfg.Environment)
	if cfg.Telemetry.OTLPEndpoint != "" {
		telemetryCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	}
	if cfg.Telemetry.ServiceName != "" {
		telemetryCfg.ServiceName = cfg.Telemetry.ServiceName
	}

	provider, err := telemetry.NewProvider(ctx, telemetryCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize telemetry provider: %w", err)
	}
	metrics, err := telemetry.NewMetrics(provider)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize metrics: %w", err)
	}

	if telemetryCfg.Enabled {
		logger.Printf("telemetry initialized: endpoint=%s, service=%s", telemetryCfg.OTLPEndpoint, telemetryCfg.ServiceName)
	} else {
		logger.Printf("telemetry disabled")
	}
	return provider, metrics, nil
}

func buildSessionStore(ctx context.Context, cfg config.SessionsConfig) (session.Store, *redis.Client, error) {
	if cfg.Backend != config.SessionBackendRedis {
		return session.NewMemoryStore(), nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return session.NewRedisStore(client, cfg.TTL.Or(defaultSessionTTL)), client, nil
}

func buildGateway(cfg config.GatewayConfig, logger observability.Logger, metrics *telemetry.Metrics) *marketdata.Gateway {
	return marketdata.NewGateway(catalog.Default(), marketdata.Options{
		Policy: retry.Policy{
			MaxAttempts: cfg.RetryAttempts,
			Pause:       cfg.RetryPause.Or(defaultRetryPause),
		},
		PriceTimeout:  cfg.PriceTimeout.Or(defaultPriceTimeout),
		SymbolTimeout: cfg.SymbolTimeout.Or(defaultSymbolTimeout),
		Logger:        logger,
		Recorder:      metrics,
	})
}

func buildMachine(cfg config.NLUConfig, gateway *marketdata.Gateway, logger observability.Logger, metrics *telemetry.Metrics) *dialogue.Machine {
	var extractorOpts nlu.Options
	if cfg.QuantityPriceThreshold != "" {
		if threshold, err := decimal.NewFromString(cfg.QuantityPriceThreshold); err == nil {
			extractorOpts.QuantityPriceThreshold = threshold
		}
	}
	return dialogue.NewMachine(dialogue.Options{
		Extractor: nlu.NewExtractor(nlu.DefaultVocabulary(), extractorOpts),
		Market:    gateway,
		Logger:    logger,
		Recorder:  metrics,
	})
}

func buildAPIServer(cfg config.ServerConfig, engine *dialogue.Engine, logger observability.Logger, tasks *async.Pool) *http.Server {
	handler := httpserver.NewHandler(httpserver.Options{
		Engine:  engine,
		Logger:  logger,
		Limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		Tasks:   tasks,
	})
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

type gracefulShutdownConfig struct {
	server     *http.Server
	mainCancel context.CancelFunc
	lifecycle  *conc.WaitGroup
	tasks      *async.Pool
	redis      *redis.Client
	telemetry  *telemetry.Provider
}

func performGracefulShutdown(ctx context.Context, logger *log.Logger, cfg gracefulShutdownConfig) {
	shutdownStep := func(name string, timeout time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		logger.Printf("shutdown: %s...", name)
		if err := fn(stepCtx); err != nil {
			logger.Printf("shutdown: %s failed: %v", name, err)
		} else {
			logger.Printf("shutdown: %s completed", name)
		}
	}

	if cfg.server != nil {
		shutdownStep("stopping api server", serverShutdownTimeout, func(stepCtx context.Context) error {
			return cfg.server.Shutdown(stepCtx)
		})
	}

	logger.Print("shutdown: cancelling main context")
	if cfg.mainCancel != nil {
		cfg.mainCancel()
	}

	if cfg.lifecycle != nil {
		shutdownStep("waiting for lifecycle goroutines", serverShutdownTimeout, func(stepCtx context.Context) error {
			done := make(chan struct{})
			go func() {
				cfg.lifecycle.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-stepCtx.Done():
				return fmt.Errorf("timeout waiting for goroutines: %w", stepCtx.Err())
			}
		})
	}

	if cfg.tasks != nil {
		shutdownStep("draining task pool", tasksShutdownTimeout, func(stepCtx context.Context) error {
			return cfg.tasks.Shutdown(stepCtx)
		})
	}

	if cfg.redis != nil {
		shutdownStep("closing redis client", time.Second, func(context.Context) error {
			return cfg.redis.Close()
		})
	}

	if cfg.telemetry != nil {
		shutdownStep("shutting down telemetry", telemetryShutdownTimeout, func(stepCtx context.Context) error {
			return cfg.telemetry.Shutdown(stepCtx)
		})
	}
}
