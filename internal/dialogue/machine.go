// Package dialogue drives the per-session order-capture conversation: a
// five-state machine whose transitions are gated by extraction results, with
// corrections resolved before any state-specific logic.
package dialogue

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/voxdesk/voxdesk/internal/catalog"
	"github.com/voxdesk/voxdesk/internal/nlu"
	"github.com/voxdesk/voxdesk/internal/observability"
	"github.com/voxdesk/voxdesk/internal/session"
)

// MarketData is the resilient lookup surface the machine depends on. Both
// operations always return usable values; see the marketdata package.
type MarketData interface {
	FetchPrice(ctx context.Context, exchangeID, symbol string) decimal.Decimal
	FetchSymbols(ctx context.Context, exchangeID string) []string
}

// Recorder counts dialogue activity for observability.
type Recorder interface {
	RecordUtterance(state session.State)
	RecordOrder()
}

type noopRecorder struct{}

func (noopRecorder) RecordUtterance(session.State) {}
func (noopRecorder) RecordOrder()                  {}

var confirmAffirmations = []string{"yes", "confirm", "okay", "sure", "go ahead"}
var confirmNegations = []string{"no", "cancel", "stop", "end"}
var continueAffirmations = []string{"yes", "continue", "another", "more"}
var continueNegations = []string{"no", "stop", "end", "done"}

// Options configures a Machine.
type Options struct {
	Extractor *nlu.Extractor
	Market    MarketData
	Catalog   *catalog.Catalog
	Sink      OrderSink
	Logger    observability.Logger
	Recorder  Recorder
}

// Machine advances sessions through the order-capture dialogue. It holds no
// per-session state of its own; callers must deliver utterances serialized
// per session.
type Machine struct {
	extractor *nlu.Extractor
	market    MarketData
	catalog   *catalog.Catalog
	sink      OrderSink
	log       observability.Logger
	recorder  Recorder
}

// NewMachine builds a dialogue machine.
func NewMachine(opts Options) *Machine {
	extractor := opts.Extractor
	if extractor == nil {
		extractor = nlu.NewExtractor(nlu.DefaultVocabulary(), nlu.Options{})
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.Log()
	}
	sink := opts.Sink
	if sink == nil {
		sink = LogSink{Logger: logger}
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Machine{
		extractor: extractor,
		market:    opts.Market,
		catalog:   cat,
		sink:      sink,
		log:       logger,
		recorder:  recorder,
	}
}

// Greeting returns the opening line for a new call.
func (m *Machine) Greeting() string {
	return promptGreeting(m.catalog.Names())
}

// Process consumes one utterance and returns the next prompt. It never
// fails outward: any internal fault is logged and converted to a generic
// apology while the session stays in its current state.
func (m *Machine) Process(ctx context.Context, sess *session.Session, utterance string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("utterance processing fault",
				observability.F("session", sess.ID),
				observability.F("state", sess.State),
				observability.F("panic", r))
			reply = promptApology
		}
	}()

	text := nlu.Normalize(utterance)
	m.recorder.RecordUtterance(sess.State)

	// Corrections take precedence over state-specific logic in every
	// non-terminal state.
	if !sess.Ended() && m.extractor.IsCorrection(text) {
		return m.handleCorrection(ctx, sess, text)
	}

	switch sess.State {
	case session.StateAwaitExchange:
		return m.handleAwaitExchange(ctx, sess, text)
	case session.StateAwaitSymbol:
		return m.handleAwaitSymbol(ctx, sess, text)
	case session.StateAwaitQuantityPrice:
		return m.handleAwaitQuantityPrice(sess, text)
	case session.StateConfirmOrder:
		return m.handleConfirmOrder(ctx, sess, text)
	case session.StateAwaitContinue:
		return m.handleAwaitContinue(sess, text)
	case session.StateEndCall:
		return promptCallOver
	default:
		return promptApology
	}
}

func (m *Machine) handleAwaitExchange(ctx context.Context, sess *session.Session, text string) string {
	res := m.extractor.Exchange(text)
	if res.Kind != nlu.KindExchange {
		return promptChooseExchange(m.catalog.Names())
	}
	profile, ok := m.catalog.Lookup(res.Exchange)
	if !ok {
		// Vocabulary knows it but the catalog does not serve it.
		return promptChooseExchange(m.catalog.Names())
	}

	sess.SelectExchange(profile.ID)
	sess.State = session.StateAwaitSymbol

	symbols := m.safeSymbols(ctx, profile.ID)
	sess.Candidates = symbols
	return promptExchangeSelected(profile.Name, symbols)
}

func (m *Machine) handleAwaitSymbol(ctx context.Context, sess *session.Session, text string) string {
	if m.extractor.IsFilterRequest(text) {
		return m.handleFilter(sess, text)
	}

	if len(sess.Candidates) == 0 {
		sess.Candidates = append([]string(nil), catalog.GenericDefaultSymbols...)
	}

	symbol, ok := matchSymbol(sess.Candidates, text)
	if !ok {
		return promptChooseSymbol(sess.Candidates)
	}

	sess.SelectSymbol(symbol)
	sess.State = session.StateAwaitQuantityPrice

	price := m.safePrice(ctx, sess.Exchange, symbol)
	sess.MarketPrice = price
	return promptSymbolSelected(symbol, price)
}

func (m *Machine) handleFilter(sess *session.Session, text string) string {
	crypto, ok := m.extractor.FilterCrypto(text)
	if !ok {
		return promptAllSymbols(sess.Candidates)
	}

	variants := m.extractor.Vocabulary().CryptoVariants(crypto)
	var filtered []string
	for _, candidate := range sess.Candidates {
		if symbolMentionsCrypto(candidate, crypto, variants) {
			filtered = append(filtered, candidate)
		}
	}
	if len(filtered) == 0 {
		// Preserve the prior list so the caller can retry.
		return promptNoFilteredSymbols(crypto, sess.Exchange)
	}
	sess.Candidates = filtered
	return promptFilteredSymbols(crypto, filtered)
}

func (m *Machine) handleAwaitQuantityPrice(sess *session.Session, text string) string {
	res := m.extractor.QuantityPrice(text)
	if res.Quantity != nil {
		sess.Quantity = res.Quantity
	}
	if res.Price != nil {
		sess.Price = res.Price
	}

	switch {
	case sess.Quantity != nil && sess.Price != nil:
		sess.State = session.StateConfirmOrder
		return promptConfirmOrder(sess.Exchange, *sess.Quantity, sess.Symbol, *sess.Price)
	case sess.Quantity != nil:
		return promptGotQuantity(*sess.Quantity)
	case sess.Price != nil:
		return promptGotPrice(*sess.Price)
	default:
		return promptQuantityPriceRetry
	}
}

func (m *Machine) handleConfirmOrder(ctx context.Context, sess *session.Session, text string) string {
	switch {
	case containsAnyWord(text, confirmAffirmations):
		order := Order{
			Exchange: sess.Exchange,
			Symbol:   sess.Symbol,
			Quantity: *sess.Quantity,
			Price:    *sess.Price,
		}
		if err := m.sink.PlaceOrder(ctx, order); err != nil {
			m.log.Error("order sink failed",
				observability.F("session", sess.ID),
				observability.F("error", err))
		}
		m.recorder.RecordOrder()
		sess.State = session.StateAwaitContinue
		return promptOrderPlaced(order.Quantity, order.Symbol, order.Price, order.Exchange)
	case containsAnyWord(text, confirmNegations):
		sess.State = session.StateEndCall
		return promptOrderCancelled
	default:
		return promptConfirmRetry
	}
}

func (m *Machine) handleAwaitContinue(sess *session.Session, text string) string {
	switch {
	case containsAnyWord(text, continueAffirmations):
		sess.ResetOrder()
		sess.State = session.StateAwaitExchange
		return promptAnotherOrder(m.catalog.Names())
	case containsAnyWord(text, continueNegations):
		sess.State = session.StateEndCall
		return promptGoodbye
	default:
		return promptContinueRetry
	}
}

func (m *Machine) handleCorrection(ctx context.Context, sess *session.Session, text string) string {
	correction, ok := m.extractor.ParseCorrection(text)
	if !ok {
		return promptUnclearCorrection
	}

	if correction.NewKind == nlu.EntityExchange {
		profile, ok := m.catalog.Lookup(correction.New)
		if !ok {
			return promptUnclearCorrection
		}
		sess.SelectExchange(profile.ID)
		sess.State = session.StateAwaitSymbol
		symbols := m.safeSymbols(ctx, profile.ID)
		sess.Candidates = symbols
		return promptExchangeChanged(profile.Name, symbols)
	}

	if correction.OldKind == nlu.EntityCrypto && correction.NewKind == nlu.EntityCrypto &&
		sess.State == session.StateAwaitSymbol {
		variants := m.extractor.Vocabulary().CryptoVariants(correction.New)
		for _, candidate := range sess.Candidates {
			if symbolMentionsCrypto(candidate, correction.New, variants) {
				sess.SelectSymbol(candidate)
				sess.State = session.StateAwaitQuantityPrice
				price := m.safePrice(ctx, sess.Exchange, candidate)
				sess.MarketPrice = price
				return promptSymbolChanged(candidate, price)
			}
		}
		return promptCryptoNotOnExchange(correction.New, sess.Exchange)
	}

	return promptCorrectionAcknowledged(correction.Old, correction.New)
}

// safeSymbols shields the dialogue from any gateway fault; a failed lookup
// degrades to an empty list and a shorter prompt, never a stuck session.
func (m *Machine) safeSymbols(ctx context.Context, exchangeID string) (symbols []string) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("symbol discovery fault",
				observability.F("exchange", exchangeID),
				observability.F("panic", r))
			symbols = nil
		}
	}()
	if m.market == nil {
		return nil
	}
	return m.market.FetchSymbols(ctx, exchangeID)
}

// safePrice shields the dialogue from any gateway fault; a failed lookup
// yields zero and the prompt simply omits the price.
func (m *Machine) safePrice(ctx context.Context, exchangeID, symbol string) (price decimal.Decimal) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("price lookup fault",
				observability.F("exchange", exchangeID),
				observability.F("symbol", symbol),
				observability.F("panic", r))
			price = decimal.Zero
		}
	}()
	if m.market == nil {
		return decimal.Zero
	}
	return m.market.FetchPrice(ctx, exchangeID, symbol)
}

// matchSymbol resolves an utterance against the candidate list by
// case-insensitive, separator-stripped substring containment in either
// direction. Candidate order is authoritative: the first match wins.
func matchSymbol(candidates []string, text string) (string, bool) {
	textClean := strings.ToLower(strings.ReplaceAll(text, " ", ""))
	if textClean == "" {
		return "", false
	}
	for _, candidate := range candidates {
		candidateClean := strings.ToLower(candidate)
		candidateClean = strings.ReplaceAll(candidateClean, "-", "")
		candidateClean = strings.ReplaceAll(candidateClean, "_", "")
		if strings.Contains(candidateClean, textClean) || strings.Contains(textClean, candidateClean) {
			return candidate, true
		}
	}
	return "", false
}

// symbolMentionsCrypto reports whether a candidate symbol refers to the
// crypto asset, by canonical name or any spoken-form variant.
func symbolMentionsCrypto(candidate, crypto string, variants []string) bool {
	lower := strings.ToLower(candidate)
	if strings.Contains(lower, crypto) {
		return true
	}
	for _, variant := range variants {
		if strings.Contains(lower, variant) {
			return true
		}
	}
	return false
}

func containsAnyWord(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
