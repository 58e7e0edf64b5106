// Package catalog holds the static registry of supported exchange profiles.
package catalog

import "strings"

// Profile describes a supported trading venue: its REST endpoints and the
// symbol list used when live discovery fails.
type Profile struct {
	ID              string
	Name            string
	BaseURL         string
	PriceEndpoint   string
	SymbolsEndpoint string
	DefaultSymbols  []string
}

// Catalog is an ordered, immutable set of exchange profiles. Registration
// order is the tie-break contract for extraction: the first registered
// exchange whose vocabulary matches an utterance wins.
type Catalog struct {
	order    []string
	profiles map[string]Profile
}

// New builds a catalog preserving the registration order of the given
// profiles. Later duplicates of an identifier are ignored.
func New(profiles ...Profile) *Catalog {
	c := &Catalog{
		order:    make([]string, 0, len(profiles)),
		profiles: make(map[string]Profile, len(profiles)),
	}
	for _, p := range profiles {
		id := normalizeID(p.ID)
		if id == "" {
			continue
		}
		if _, exists := c.profiles[id]; exists {
			continue
		}
		p.ID = id
		c.order = append(c.order, id)
		c.profiles[id] = p
	}
	return c
}

// Lookup returns the profile for the given identifier, case-insensitively.
func (c *Catalog) Lookup(id string) (Profile, bool) {
	p, ok := c.profiles[normalizeID(id)]
	return p, ok
}

// IDs returns the exchange identifiers in registration order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Names returns the display names in registration order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.profiles[id].Name)
	}
	return out
}

// Len reports the number of registered profiles.
func (c *Catalog) Len() int { return len(c.order) }

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// GenericDefaultSymbols is the candidate list used when a session reaches
// symbol selection without a populated list.
var GenericDefaultSymbols = []string{
	"BTC-USDT", "ETH-USDT", "XRP-USDT", "LTC-USDT", "ADA-USDT",
}

// Default returns the built-in exchange registry. Order matters: extraction
// resolves ties by registration order.
func Default() *Catalog {
	return New(
		Profile{
			ID:              "okx",
			Name:            "OKX",
			BaseURL:         "https://www.okx.com",
			PriceEndpoint:   "/api/v5/market/ticker",
			SymbolsEndpoint: "/api/v5/public/instruments",
			DefaultSymbols: []string{
				"BTC-USDT", "ETH-USDT", "XRP-USDT", "LTC-USDT", "ADA-USDT",
				"DOT-USDT", "LINK-USDT", "BCH-USDT", "EOS-USDT", "TRX-USDT",
			},
		},
		Profile{
			ID:              "bybit",
			Name:            "Bybit",
			BaseURL:         "https://api.bybit.com",
			PriceEndpoint:   "/v5/market/tickers",
			SymbolsEndpoint: "/v5/market/instruments-info",
			DefaultSymbols: []string{
				"BTC-USDT", "ETH-USDT", "XRP-USDT", "ETH-BTC", "XRP-BTC",
				"DOT-USDT", "XLM-USDT", "LTC-USDT", "DOGE-USDT", "CHZ-USDT",
			},
		},
		Profile{
			ID:              "deribit",
			Name:            "Deribit",
			BaseURL:         "https://www.deribit.com",
			PriceEndpoint:   "/api/v2/public/ticker",
			SymbolsEndpoint: "/api/v2/public/get_instruments",
			DefaultSymbols: []string{
				"BTC-PERPETUAL", "ETH-PERPETUAL", "BTC-30JUN23", "ETH-30JUN23",
				"BTC-29SEP23", "ETH-29SEP23",
			},
		},
		Profile{
			ID:              "binance",
			Name:            "Binance",
			BaseURL:         "https://api.binance.com",
			PriceEndpoint:   "/api/v3/ticker/price",
			SymbolsEndpoint: "/api/v3/exchangeInfo",
			DefaultSymbols: []string{
				"ETH-BTC", "LTC-BTC", "BNB-BTC", "NEO-BTC", "QTUM-ETH",
				"EOS-ETH", "SNT-ETH", "BNT-ETH", "BCC-BTC", "GAS-BTC",
			},
		},
	)
}

// WithBaseURL returns a copy of the catalog with every profile pointed at the
// given base URL. Used by tests and single-upstream deployments.
func (c *Catalog) WithBaseURL(baseURL string) *Catalog {
	profiles := make([]Profile, 0, len(c.order))
	for _, id := range c.order {
		p := c.profiles[id]
		p.BaseURL = strings.TrimRight(baseURL, "/")
		profiles = append(profiles, p)
	}
	return New(profiles...)
}
