package marketdata

import (
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Response shapes are exchange-specific; anything unrecognized goes through
// the generic price/last/close probe. A parse miss is "no usable value" for
// that tier, never a hard error.

type bybitTickerResponse struct {
	Result struct {
		List []struct {
			Symbol    string          `json:"symbol"`
			LastPrice decimal.Decimal `json:"lastPrice"`
		} `json:"list"`
	} `json:"result"`
}

type binanceTickerResponse struct {
	Price decimal.Decimal `json:"price"`
}

type okxTickerResponse struct {
	Data []struct {
		Last decimal.Decimal `json:"last"`
	} `json:"data"`
}

type genericTickerResponse struct {
	Price decimal.Decimal `json:"price"`
	Last  decimal.Decimal `json:"last"`
	Close decimal.Decimal `json:"close"`
}

// parsePrice extracts a price from an exchange response body. A zero result
// means the shape did not yield a usable value.
func parsePrice(body []byte, exchangeID, symbol string) decimal.Decimal {
	switch exchangeID {
	case "bybit":
		var payload bybitTickerResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return decimal.Zero
		}
		for _, item := range payload.Result.List {
			if strings.EqualFold(item.Symbol, symbol) {
				return item.LastPrice
			}
		}
		return decimal.Zero
	case "binance":
		var payload binanceTickerResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return decimal.Zero
		}
		return payload.Price
	case "okx":
		var payload okxTickerResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return decimal.Zero
		}
		if len(payload.Data) == 0 {
			return decimal.Zero
		}
		return payload.Data[0].Last
	default:
		var payload genericTickerResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return decimal.Zero
		}
		for _, candidate := range []decimal.Decimal{payload.Price, payload.Last, payload.Close} {
			if candidate.Sign() > 0 {
				return candidate
			}
		}
		return decimal.Zero
	}
}

type bybitInstrumentsResponse struct {
	Result struct {
		List []struct {
			Symbol string `json:"symbol"`
		} `json:"list"`
	} `json:"result"`
}

type binanceExchangeInfoResponse struct {
	Symbols []struct {
		Symbol string `json:"symbol"`
	} `json:"symbols"`
}

type okxInstrumentsResponse struct {
	Data []struct {
		InstID string `json:"instId"`
	} `json:"data"`
}

// parseSymbols extracts up to limit symbols from an exchange listing
// response. An empty result means the shape yielded nothing usable.
func parseSymbols(body []byte, exchangeID string, limit int) []string {
	var symbols []string
	switch exchangeID {
	case "bybit":
		var payload bybitInstrumentsResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil
		}
		for _, item := range payload.Result.List {
			symbols = append(symbols, item.Symbol)
		}
	case "binance":
		var payload binanceExchangeInfoResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil
		}
		for _, item := range payload.Symbols {
			symbols = append(symbols, item.Symbol)
		}
	case "okx":
		var payload okxInstrumentsResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil
		}
		for _, item := range payload.Data {
			symbols = append(symbols, item.InstID)
		}
	}

	cleaned := symbols[:0]
	for _, s := range symbols {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	return cleaned
}
