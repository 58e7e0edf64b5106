package nlu

import (
	"testing"

	"github.com/shopspring/decimal"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	return NewExtractor(DefaultVocabulary(), Options{})
}

func requireDecimal(t *testing.T, got *decimal.Decimal, want string) {
	t.Helper()
	if got == nil {
		t.Fatalf("expected %s, got nil", want)
	}
	expected, err := decimal.NewFromString(want)
	if err != nil {
		t.Fatalf("bad expectation %q: %v", want, err)
	}
	if !got.Equal(expected) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestQuantityPriceBothPresent(t *testing.T) {
	res := newTestExtractor(t).QuantityPrice("0.1 BTC at 50000")
	requireDecimal(t, res.Quantity, "0.1")
	requireDecimal(t, res.Price, "50000")
}

func TestQuantityPricePriceOnly(t *testing.T) {
	res := newTestExtractor(t).QuantityPrice("at 50000")
	if res.Quantity != nil {
		t.Fatalf("expected nil quantity, got %s", res.Quantity)
	}
	requireDecimal(t, res.Price, "50000")
}

func TestQuantityPriceQuantityOnly(t *testing.T) {
	res := newTestExtractor(t).QuantityPrice("0.1 BTC")
	requireDecimal(t, res.Quantity, "0.1")
	if res.Price != nil {
		t.Fatalf("expected nil price, got %s", res.Price)
	}
}

func TestQuantityPriceThresholdBoundary(t *testing.T) {
	e := newTestExtractor(t)

	// A bare number strictly below 1000 is a quantity.
	res := e.QuantityPrice("999")
	requireDecimal(t, res.Quantity, "999")
	if res.Price != nil {
		t.Fatalf("expected 999 classified as quantity, got price %s", res.Price)
	}

	// At the boundary and above it is a price.
	res = e.QuantityPrice("1000")
	if res.Quantity != nil {
		t.Fatalf("expected 1000 classified as price, got quantity %s", res.Quantity)
	}
	requireDecimal(t, res.Price, "1000")
}

func TestQuantityPriceConfigurableThreshold(t *testing.T) {
	e := NewExtractor(DefaultVocabulary(), Options{
		QuantityPriceThreshold: decimal.NewFromInt(50),
	})
	res := e.QuantityPrice("60")
	if res.Price == nil {
		t.Fatalf("expected 60 classified as price under threshold 50")
	}
}

func TestQuantityPriceCurrencyNoiseStripped(t *testing.T) {
	res := newTestExtractor(t).QuantityPrice("100 usdt at 50000")
	requireDecimal(t, res.Quantity, "100")
	requireDecimal(t, res.Price, "50000")
}

func TestQuantityPriceNoNumbers(t *testing.T) {
	res := newTestExtractor(t).QuantityPrice("i would like to trade")
	if res.Quantity != nil || res.Price != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", res.Quantity, res.Price)
	}
}

func TestQuantityPriceIdempotent(t *testing.T) {
	e := newTestExtractor(t)
	first := e.QuantityPrice("0.5 at 2000")
	second := e.QuantityPrice("0.5 at 2000")
	if !first.Quantity.Equal(*second.Quantity) || !first.Price.Equal(*second.Price) {
		t.Fatalf("expected identical results on repeated extraction")
	}
}

func TestExchangeExtractionVariants(t *testing.T) {
	e := newTestExtractor(t)
	cases := map[string]string{
		"i want binance":       "binance",
		"finance please":       "binance",
		"use by bit":           "bybit",
		"OKAY X":               "okx",
		"derive it":            "deribit",
		"let's go with Bybit!": "bybit",
	}
	for text, want := range cases {
		res := e.Exchange(text)
		if res.Kind != KindExchange || res.Exchange != want {
			t.Fatalf("Exchange(%q) = (%v, %q), want %q", text, res.Kind, res.Exchange, want)
		}
	}
	if res := e.Exchange("kraken"); res.Kind != KindNone {
		t.Fatalf("expected no match for unknown exchange, got %q", res.Exchange)
	}
}

func TestCryptoExtractionTranscriptionNoise(t *testing.T) {
	e := newTestExtractor(t)
	cases := map[string]string{
		"you theory": "ethereum",
		"ether":      "ethereum",
		"rip":        "ripple",
		"lite coin":  "litecoin",
		"doge":       "dogecoin",
	}
	for text, want := range cases {
		res := e.Crypto(text)
		if res.Kind != KindCrypto || res.Crypto != want {
			t.Fatalf("Crypto(%q) = (%v, %q), want %q", text, res.Kind, res.Crypto, want)
		}
	}
}

func TestCryptoRegistrationOrderBreaksTies(t *testing.T) {
	// "btc" (bitcoin) registers before "eth" (ethereum); a text containing
	// both resolves to the earlier entry.
	res := newTestExtractor(t).Crypto("btc eth")
	if res.Crypto != "bitcoin" {
		t.Fatalf("expected bitcoin via registration order, got %q", res.Crypto)
	}
}

func TestFilterRequestDetection(t *testing.T) {
	e := newTestExtractor(t)
	for _, text := range []string{
		"show only bitcoin symbols",
		"just the ethereum ones",
		"filter",
		"symbols",
	} {
		if !e.IsFilterRequest(text) {
			t.Fatalf("expected filter request for %q", text)
		}
	}
	// Ticker variants alone must not trigger filtering, otherwise symbol
	// selections like "eth btc" would be swallowed.
	if e.IsFilterRequest("eth btc") {
		t.Fatalf("expected %q to not be a filter request", "eth btc")
	}
}

func TestCorrectionMarkerGateIsBroad(t *testing.T) {
	e := newTestExtractor(t)
	if !e.IsCorrection("not ethereum, i meant bitcoin") {
		t.Fatalf("expected correction marker hit")
	}
	// Known misfire: "another" contains "not". The gate is a heuristic.
	if !e.IsCorrection("another") {
		t.Fatalf("expected broad gate to flag %q", "another")
	}
	if e.IsCorrection("0.5 at 2000") {
		t.Fatalf("expected no correction marker in %q", "0.5 at 2000")
	}
}
