// Package marketdata retrieves prices and symbol listings from upstream
// exchanges with a bounded retry-then-fallback policy. The gateway never
// fails outward: price lookups always return a positive value and symbol
// discovery always returns a non-empty list, synthesizing data when every
// live attempt is exhausted.
package marketdata

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voxdesk/voxdesk/errs"
	"github.com/voxdesk/voxdesk/internal/catalog"
	"github.com/voxdesk/voxdesk/internal/observability"
	"github.com/voxdesk/voxdesk/lib/retry"
)

const (
	defaultPriceTimeout  = 10 * time.Second
	defaultSymbolTimeout = 5 * time.Second
	symbolLimit          = 10
	maxBodyBytes         = 1 << 20
)

// Recorder receives lookup outcomes for observability. The fallback flag is
// the only place the producing tier is visible; dialogue callers cannot
// distinguish synthetic values.
type Recorder interface {
	RecordLookup(op string, fallback bool, attempts uint, elapsed time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordLookup(string, bool, uint, time.Duration) {}

// Options configures the gateway.
type Options struct {
	Client        *http.Client
	Policy        retry.Policy
	PriceTimeout  time.Duration
	SymbolTimeout time.Duration
	// Rand supplies the noise source for synthetic data. Inject a seeded
	// source for deterministic fallback values in tests.
	Rand     *rand.Rand
	Logger   observability.Logger
	Recorder Recorder
}

// Gateway performs resilient market data retrieval against the catalog's
// exchanges.
type Gateway struct {
	catalog       *catalog.Catalog
	client        *http.Client
	policy        retry.Policy
	priceTimeout  time.Duration
	symbolTimeout time.Duration
	log           observability.Logger
	recorder      Recorder

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewGateway builds a gateway over the given exchange catalog.
func NewGateway(cat *catalog.Catalog, opts Options) *Gateway {
	if cat == nil {
		cat = catalog.Default()
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	policy := opts.Policy
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy()
	}
	priceTimeout := opts.PriceTimeout
	if priceTimeout <= 0 {
		priceTimeout = defaultPriceTimeout
	}
	symbolTimeout := opts.SymbolTimeout
	if symbolTimeout <= 0 {
		symbolTimeout = defaultSymbolTimeout
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.Log()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Gateway{
		catalog:       cat,
		client:        client,
		policy:        policy,
		priceTimeout:  priceTimeout,
		symbolTimeout: symbolTimeout,
		log:           logger,
		recorder:      recorder,
		rng:           rng,
	}
}

// FetchPrice returns the current price for symbol on the given exchange.
// The result is always strictly positive; upstream failures degrade to a
// synthetic price after the retry envelope is exhausted.
func (g *Gateway) FetchPrice(ctx context.Context, exchangeID, symbol string) decimal.Decimal {
	profile, ok := g.catalog.Lookup(exchangeID)
	if !ok {
		g.log.Error("price lookup for unsupported exchange",
			observability.F("error", errs.UnsupportedExchange(exchangeID)))
		return g.syntheticPrice(symbol)
	}

	start := time.Now()
	out := retry.Do(ctx, g.policy, func(ctx context.Context) (decimal.Decimal, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, g.priceTimeout)
		defer cancel()

		price, primaryErr := g.requestPrice(attemptCtx, profile, primaryPriceURL(profile, symbol), symbol)
		if primaryErr == nil && price.Sign() > 0 {
			return price, nil
		}
		if primaryErr != nil {
			g.log.Debug("primary price shape failed",
				observability.F("exchange", profile.ID),
				observability.F("symbol", symbol),
				observability.F("error", primaryErr))
		}

		alt := stripSeparators(symbol)
		price, altErr := g.requestPrice(attemptCtx, profile, alternatePriceURL(profile, alt), alt)
		if altErr == nil && price.Sign() > 0 {
			return price, nil
		}
		if altErr != nil {
			g.log.Debug("alternate price shape failed",
				observability.F("exchange", profile.ID),
				observability.F("symbol", alt),
				observability.F("error", altErr))
			return decimal.Zero, fmt.Errorf("alternate price shape: %w", altErr)
		}
		if primaryErr != nil {
			return decimal.Zero, fmt.Errorf("primary price shape: %w", primaryErr)
		}

		// Both shapes answered and neither carried a usable price. The
		// responses will not change on a retry; synthesize now.
		return decimal.Zero, retry.Abandon(errs.New(profile.ID, errs.CodeParse,
			errs.WithMessage("no usable price in either response shape")))
	}, func() decimal.Decimal {
		return g.syntheticPrice(symbol)
	})

	g.recorder.RecordLookup("price", out.Fallback, out.Attempts, time.Since(start))
	if out.Fallback {
		g.log.Info("serving synthetic price",
			observability.F("exchange", profile.ID),
			observability.F("symbol", symbol),
			observability.F("price", out.Value),
			observability.F("attempts", out.Attempts))
	}
	return out.Value
}

// FetchSymbols returns up to ten tradable symbols for the exchange, in
// upstream order. The result is never empty: discovery failures fall back to
// the profile's static default list.
func (g *Gateway) FetchSymbols(ctx context.Context, exchangeID string) []string {
	profile, ok := g.catalog.Lookup(exchangeID)
	if !ok {
		g.log.Error("symbol discovery for unsupported exchange",
			observability.F("error", errs.UnsupportedExchange(exchangeID)))
		return append([]string(nil), catalog.GenericDefaultSymbols...)
	}

	start := time.Now()
	out := retry.Do(ctx, g.policy, func(ctx context.Context) ([]string, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, g.symbolTimeout)
		defer cancel()

		body, err := g.get(attemptCtx, profile.BaseURL+profile.SymbolsEndpoint)
		if err != nil {
			return nil, fmt.Errorf("list symbols: %w", err)
		}
		symbols := parseSymbols(body, profile.ID, symbolLimit)
		if len(symbols) == 0 {
			return nil, errs.New(profile.ID, errs.CodeParse,
				errs.WithMessage("no symbols in listing response"))
		}
		return symbols, nil
	}, func() []string {
		return append([]string(nil), profile.DefaultSymbols...)
	})

	g.recorder.RecordLookup("symbols", out.Fallback, out.Attempts, time.Since(start))
	if out.Fallback {
		g.log.Info("serving default symbol list",
			observability.F("exchange", profile.ID),
			observability.F("attempts", out.Attempts))
	}
	return out.Value
}

func (g *Gateway) requestPrice(ctx context.Context, profile catalog.Profile, endpoint, symbol string) (decimal.Decimal, error) {
	body, err := g.get(ctx, endpoint)
	if err != nil {
		return decimal.Zero, err
	}
	return parsePrice(body, profile.ID, symbol), nil
}

func (g *Gateway) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// primaryPriceURL builds the exchange-specific ticker request.
func primaryPriceURL(profile catalog.Profile, symbol string) string {
	escaped := url.QueryEscape(symbol)
	switch profile.ID {
	case "bybit":
		return profile.BaseURL + profile.PriceEndpoint + "?category=spot&symbol=" + escaped
	case "okx":
		return profile.BaseURL + profile.PriceEndpoint + "?instId=" + escaped
	default:
		return profile.BaseURL + profile.PriceEndpoint + "?symbol=" + escaped
	}
}

// alternatePriceURL targets the generic ticker path with a separator-stripped
// symbol, the escalation shape tried when the primary yields nothing.
func alternatePriceURL(profile catalog.Profile, symbol string) string {
	return profile.BaseURL + "/api/v1/ticker?symbol=" + url.QueryEscape(symbol)
}

func stripSeparators(symbol string) string {
	symbol = strings.ReplaceAll(symbol, "-", "")
	return strings.ReplaceAll(symbol, "_", "")
}
