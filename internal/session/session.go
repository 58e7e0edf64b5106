// Package session defines the per-conversation state record and the store
// abstraction hosting it.
package session

import (
	"time"

	"github.com/shopspring/decimal"
)

// State names a dialogue position. The transition graph is owned by the
// dialogue package; sessions only carry the current position.
type State string

const (
	// StateAwaitExchange waits for the caller to pick a trading venue.
	StateAwaitExchange State = "await_exchange"
	// StateAwaitSymbol waits for a symbol selection or a filter request.
	StateAwaitSymbol State = "await_symbol"
	// StateAwaitQuantityPrice collects quantity and limit price.
	StateAwaitQuantityPrice State = "await_quantity_and_price"
	// StateConfirmOrder waits for an explicit yes/no on the echoed order.
	StateConfirmOrder State = "confirm_order"
	// StateAwaitContinue asks whether to start another order.
	StateAwaitContinue State = "await_continue"
	// StateEndCall is terminal; the transport tears the session down.
	StateEndCall State = "end_call"
)

// Session tracks one conversation's dialogue progress and the partially
// built order. Mutated only by the dialogue machine; the transport must
// deliver utterances serialized per session.
type Session struct {
	ID          string           `json:"id"`
	UserName    string           `json:"userName,omitempty"`
	State       State            `json:"state"`
	Exchange    string           `json:"exchange,omitempty"`
	Symbol      string           `json:"symbol,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Candidates  []string         `json:"candidates,omitempty"`
	MarketPrice decimal.Decimal  `json:"marketPrice"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// New returns a fresh session positioned at exchange selection.
func New(id string) *Session {
	return &Session{
		ID:        id,
		State:     StateAwaitExchange,
		CreatedAt: time.Now().UTC(),
	}
}

// SelectExchange commits an exchange choice. Symbol, quantity, price and the
// candidate list are invalidated: they were scoped to the previous venue.
func (s *Session) SelectExchange(exchangeID string) {
	s.Exchange = exchangeID
	s.Symbol = ""
	s.Quantity = nil
	s.Price = nil
	s.Candidates = nil
	s.MarketPrice = decimal.Zero
}

// SelectSymbol commits a symbol choice and resets quantity and price, which
// were scoped to the previous symbol.
func (s *Session) SelectSymbol(symbol string) {
	s.Symbol = symbol
	s.Quantity = nil
	s.Price = nil
}

// ResetOrder clears all order fields for another round.
func (s *Session) ResetOrder() {
	s.Exchange = ""
	s.Symbol = ""
	s.Quantity = nil
	s.Price = nil
	s.Candidates = nil
	s.MarketPrice = decimal.Zero
}

// Ended reports whether the session reached the terminal state.
func (s *Session) Ended() bool {
	return s.State == StateEndCall
}
