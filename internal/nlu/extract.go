// Package nlu turns normalized utterances into candidate entities and
// intents. All matching is case-insensitive substring containment over
// explicit spoken-form vocabularies; extraction is pure and never touches
// session state.
package nlu

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var numberPattern = regexp.MustCompile(`\d+\.?\d*`)

// currencyNoise lists words stripped before numeric extraction so "100 usdt"
// yields a single number.
var currencyNoise = []string{"usdt", "usd", "dollars", "dollar"}

var priceIndicators = []string{
	"at", "price", "cost", "per", "for", "dollars", "dollar", "usd", "usdt", "us dollars",
}

var quantityIndicators = []string{
	"quantity", "amount", "btc", "eth", "coins", "tokens",
}

// filterTriggers gate filter-request detection together with the canonical
// crypto names. Deliberately broad; documented as a heuristic, not a grammar.
var filterTriggers = []string{"show", "only", "filter", "just", "symbols"}

// correctionMarkers flag an utterance as a correction attempt. The set is
// intentionally broad and can misfire on unrelated phrases containing "no"
// or "not"; callers treat it as a first-pass gate only.
var correctionMarkers = []string{
	"not", "no", "change", "correction", "actually", "i meant", "i mean",
	"instead", "rather", "switch", "different", "wrong", "mistake",
}

// DefaultQuantityPriceThreshold separates bare numbers into quantities
// (below) and prices (at or above) when no indicator words are present.
var DefaultQuantityPriceThreshold = decimal.NewFromInt(1000)

// Options tune extractor behaviour.
type Options struct {
	// QuantityPriceThreshold overrides the bare-number disambiguation
	// boundary. Zero or negative keeps the default.
	QuantityPriceThreshold decimal.Decimal
}

// Extractor evaluates utterances against a vocabulary. Safe for concurrent
// use; it holds no mutable state.
type Extractor struct {
	vocab     *Vocabulary
	threshold decimal.Decimal
}

// NewExtractor builds an extractor over the given vocabulary.
func NewExtractor(vocab *Vocabulary, opts Options) *Extractor {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	threshold := opts.QuantityPriceThreshold
	if threshold.Sign() <= 0 {
		threshold = DefaultQuantityPriceThreshold
	}
	return &Extractor{vocab: vocab, threshold: threshold}
}

// Vocabulary exposes the underlying tables.
func (e *Extractor) Vocabulary() *Vocabulary { return e.vocab }

// Normalize lowercases and trims an utterance. Every extraction entry point
// applies it again, so callers may pass raw transcription output.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Exchange resolves the first exchange whose spoken-form variants appear in
// the utterance.
func (e *Extractor) Exchange(text string) Result {
	id, ok := e.vocab.ExchangeFor(Normalize(text))
	if !ok {
		return Result{Kind: KindNone}
	}
	return Result{Kind: KindExchange, Exchange: id}
}

// Crypto resolves the first crypto asset whose variants appear in the
// utterance.
func (e *Extractor) Crypto(text string) Result {
	id, ok := e.vocab.CryptoFor(Normalize(text))
	if !ok {
		return Result{Kind: KindNone}
	}
	return Result{Kind: KindCrypto, Crypto: id}
}

// QuantityPrice extracts quantity and price from the utterance. Two or more
// numbers map to (first, second); a single number is classified by indicator
// words, then by the threshold tie-break; zero numbers yield (nil, nil).
func (e *Extractor) QuantityPrice(text string) Result {
	normalized := Normalize(text)

	cleaned := normalized
	for _, word := range currencyNoise {
		cleaned = strings.ReplaceAll(cleaned, word, "")
	}

	raw := numberPattern.FindAllString(cleaned, -1)
	numbers := make([]decimal.Decimal, 0, len(raw))
	for _, s := range raw {
		n, err := decimal.NewFromString(s)
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}

	res := Result{Kind: KindQuantityPrice}
	switch {
	case len(numbers) >= 2:
		res.Quantity = &numbers[0]
		res.Price = &numbers[1]
	case len(numbers) == 1:
		n := numbers[0]
		switch {
		case containsAny(normalized, priceIndicators):
			res.Price = &n
		case containsAny(normalized, quantityIndicators):
			res.Quantity = &n
		case n.LessThan(e.threshold):
			res.Quantity = &n
		default:
			res.Price = &n
		}
	}
	return res
}

// IsFilterRequest reports whether the utterance asks to narrow or list the
// candidate symbols. Triggers on a fixed word set plus canonical crypto
// names; ticker variants deliberately do not trigger so "eth btc" still
// selects a symbol.
func (e *Extractor) IsFilterRequest(text string) bool {
	normalized := Normalize(text)
	if containsAny(normalized, filterTriggers) {
		return true
	}
	return containsAny(normalized, e.vocab.CryptoNames())
}

// FilterCrypto extracts the crypto asset a filter request refers to, if any.
func (e *Extractor) FilterCrypto(text string) (string, bool) {
	return e.vocab.CryptoFor(Normalize(text))
}

// IsCorrection reports whether the utterance contains a correction marker.
func (e *Extractor) IsCorrection(text string) bool {
	return containsAny(Normalize(text), correctionMarkers)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
