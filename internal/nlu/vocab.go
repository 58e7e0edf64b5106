package nlu

import "strings"

// entry maps a canonical identifier to its accepted spoken-form variants.
// Variants must list every accepted transcription explicitly, including
// tickers and common mis-hearings; matching is substring based, never
// tokenized.
type entry struct {
	id       string
	variants []string
}

// Vocabulary holds the ordered spoken-form tables driving extraction. Order
// is the tie-break contract: the first entry with a matching variant wins.
type Vocabulary struct {
	exchanges []entry
	cryptos   []entry
}

// DefaultVocabulary returns the built-in exchange and crypto tables.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		exchanges: []entry{
			{id: "binance", variants: []string{"binance", "bynance", "bynants", "finance"}},
			{id: "bybit", variants: []string{"bybit", "by bit", "by bits", "by weight"}},
			{id: "okx", variants: []string{"okx", "ok x", "okay x", "ok"}},
			{id: "deribit", variants: []string{"deribit", "deri bit", "derive it", "derivate"}},
		},
		cryptos: []entry{
			{id: "bitcoin", variants: []string{"bitcoin", "btc", "bit coin", "bit"}},
			{id: "ethereum", variants: []string{"ethereum", "eth", "ether", "eutherium", "uthirium", "you theory", "you turium"}},
			{id: "ripple", variants: []string{"ripple", "xrp", "rip"}},
			{id: "litecoin", variants: []string{"litecoin", "ltc", "lite coin"}},
			{id: "cardano", variants: []string{"cardano", "ada"}},
			{id: "polkadot", variants: []string{"polkadot", "dot"}},
			{id: "chainlink", variants: []string{"chainlink", "link"}},
			{id: "stellar", variants: []string{"stellar", "xlm"}},
			{id: "dogecoin", variants: []string{"dogecoin", "doge"}},
			{id: "chiliz", variants: []string{"chiliz", "chz"}},
		},
	}
}

// ExchangeFor returns the first exchange whose variants appear in the text.
func (v *Vocabulary) ExchangeFor(text string) (string, bool) {
	return matchEntries(v.exchanges, text)
}

// CryptoFor returns the first crypto asset whose variants appear in the text.
func (v *Vocabulary) CryptoFor(text string) (string, bool) {
	return matchEntries(v.cryptos, text)
}

// IsExchange reports whether id names a known exchange.
func (v *Vocabulary) IsExchange(id string) bool {
	return hasEntry(v.exchanges, id)
}

// IsCrypto reports whether id names a known crypto asset.
func (v *Vocabulary) IsCrypto(id string) bool {
	return hasEntry(v.cryptos, id)
}

// CryptoVariants returns the variant list for a canonical crypto id.
func (v *Vocabulary) CryptoVariants(id string) []string {
	for _, e := range v.cryptos {
		if e.id == id {
			out := make([]string, len(e.variants))
			copy(out, e.variants)
			return out
		}
	}
	return nil
}

// CryptoNames returns the canonical crypto names in registration order.
func (v *Vocabulary) CryptoNames() []string {
	out := make([]string, 0, len(v.cryptos))
	for _, e := range v.cryptos {
		out = append(out, e.id)
	}
	return out
}

func matchEntries(entries []entry, text string) (string, bool) {
	for _, e := range entries {
		for _, variant := range e.variants {
			if strings.Contains(text, variant) {
				return e.id, true
			}
		}
	}
	return "", false
}

func hasEntry(entries []entry, id string) bool {
	for _, e := range entries {
		if e.id == id {
			return true
		}
	}
	return false
}
