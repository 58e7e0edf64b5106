package dialogue

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/voxdesk/voxdesk/internal/session"
)

type fakeMarket struct {
	symbols map[string][]string
	prices  map[string]decimal.Decimal
}

func (f *fakeMarket) FetchPrice(_ context.Context, _, symbol string) decimal.Decimal {
	if p, ok := f.prices[symbol]; ok {
		return p
	}
	return decimal.NewFromInt(100)
}

func (f *fakeMarket) FetchSymbols(_ context.Context, exchangeID string) []string {
	return f.symbols[exchangeID]
}

type panicMarket struct{}

func (panicMarket) FetchPrice(context.Context, string, string) decimal.Decimal {
	panic("gateway down")
}

func (panicMarket) FetchSymbols(context.Context, string) []string {
	panic("gateway down")
}

type captureSink struct {
	orders []Order
}

func (s *captureSink) PlaceOrder(_ context.Context, order Order) error {
	s.orders = append(s.orders, order)
	return nil
}

type panicSink struct{}

func (panicSink) PlaceOrder(context.Context, Order) error { panic("broker offline") }

func testMachine(t *testing.T, market MarketData, sink OrderSink) *Machine {
	t.Helper()
	return NewMachine(Options{Market: market, Sink: sink})
}

func TestFullOrderConversation(t *testing.T) {
	market := &fakeMarket{
		symbols: map[string][]string{
			"binance": {"BTC-USDT", "ETH-USDT", "ETH-BTC"},
		},
		prices: map[string]decimal.Decimal{
			"ETH-BTC": decimal.RequireFromString("0.05"),
		},
	}
	sink := &captureSink{}
	m := testMachine(t, market, sink)
	sess := session.New("call-1")
	ctx := context.Background()

	reply := m.Process(ctx, sess, "binance")
	if sess.State != session.StateAwaitSymbol {
		t.Fatalf("expected await_symbol after exchange, got %q", sess.State)
	}
	if sess.Exchange != "binance" {
		t.Fatalf("expected exchange binance, got %q", sess.Exchange)
	}
	if !strings.Contains(reply, "Binance") {
		t.Fatalf("expected exchange name in reply: %q", reply)
	}

	reply = m.Process(ctx, sess, "eth btc")
	if sess.State != session.StateAwaitQuantityPrice {
		t.Fatalf("expected await_quantity_and_price, got %q", sess.State)
	}
	if sess.Symbol != "ETH-BTC" {
		t.Fatalf("expected symbol ETH-BTC, got %q", sess.Symbol)
	}
	if !strings.Contains(reply, "ETH-BTC") {
		t.Fatalf("expected symbol in reply: %q", reply)
	}

	m.Process(ctx, sess, "0.5 at 2000")
	if sess.State != session.StateConfirmOrder {
		t.Fatalf("expected confirm_order, got %q", sess.State)
	}
	if sess.Quantity == nil || !sess.Quantity.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected quantity 0.5, got %v", sess.Quantity)
	}
	if sess.Price == nil || !sess.Price.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("expected price 2000, got %v", sess.Price)
	}

	reply = m.Process(ctx, sess, "yes")
	if sess.State != session.StateAwaitContinue {
		t.Fatalf("expected await_continue after confirmation, got %q", sess.State)
	}
	if !strings.Contains(reply, "Order placed successfully") {
		t.Fatalf("expected placement confirmation: %q", reply)
	}
	if len(sink.orders) != 1 {
		t.Fatalf("expected one placed order, got %d", len(sink.orders))
	}
	order := sink.orders[0]
	if order.Exchange != "binance" || order.Symbol != "ETH-BTC" {
		t.Fatalf("unexpected order: %+v", order)
	}
	if !order.Quantity.Equal(decimal.RequireFromString("0.5")) || !order.Price.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("unexpected order amounts: %+v", order)
	}
}

func TestFilterNarrowsCandidates(t *testing.T) {
	market := &fakeMarket{
		symbols: map[string][]string{
			"binance": {"BTC-USDT", "ETH-USDT", "XRP-USDT"},
		},
	}
	m := testMachine(t, market, &captureSink{})
	sess := session.New("call-2")
	ctx := context.Background()

	m.Process(ctx, sess, "binance")
	reply := m.Process(ctx, sess, "show only bitcoin symbols")
	if len(sess.Candidates) != 1 || sess.Candidates[0] != "BTC-USDT" {
		t.Fatalf("expected candidates narrowed to BTC-USDT, got %v", sess.Candidates)
	}
	if sess.State != session.StateAwaitSymbol {
		t.Fatalf("filter must not advance state, got %q", sess.State)
	}
	if !strings.Contains(reply, "BTC-USDT") {
		t.Fatalf("expected filtered list in reply: %q", reply)
	}
}

func TestFilterWithNoMatchesKeepsCandidates(t *testing.T) {
	market := &fakeMarket{
		symbols: map[string][]string{
			"binance": {"BTC-USDT", "ETH-USDT"},
		},
	}
	m := testMachine(t, market, &captureSink{})
	sess := session.New("call-3")
	ctx := context.Background()

	m.Process(ctx, sess, "binance")
	before := append([]string(nil), sess.Candidates...)
	reply := m.Process(ctx, sess, "show only dogecoin symbols")
	if len(sess.Candidates) != len(before) {
		t.Fatalf("zero-match filter must leave candidates intact, got %v", sess.Candidates)
	}
	if !strings.Contains(reply, "No Dogecoin symbols found") {
		t.Fatalf("expected no-match reply: %q", reply)
	}
}

func TestCryptoCorrectionWhileAwaitingSymbol(t *testing.T) {
	market := &fakeMarket{
		symbols: map[string][]string{
			"okx": {"BTC-USDT", "ETH-USDT"},
		},
		prices: map[string]decimal.Decimal{
			"BTC-USDT": decimal.NewFromInt(45000),
		},
	}
	m := testMachine(t, market, &captureSink{})
	sess := session.New("call-4")
	ctx := context.Background()

	m.Process(ctx, sess, "okx")
	reply := m.Process(ctx, sess, "not ethereum, i meant bitcoin")
	if sess.State != session.StateAwaitQuantityPrice {
		t.Fatalf("expected correction to select the symbol, got state %q", sess.State)
	}
	if sess.Symbol != "BTC-USDT" {
		t.Fatalf("expected BTC-USDT after correction, got %q", sess.Symbol)
	}
	if !strings.Contains(reply, "changed the symbol to BTC-USDT") {
		t.Fatalf("unexpected correction reply: %q", reply)
	}
}

func TestExchangeCorrectionRestartsSymbolSelection(t *testing.T) {
	market := &fakeMarket{
		symbols: map[string][]string{
			"bybit":   {"BTCUSDT"},
			"binance": {"BTC-USDT", "ETH-USDT"},
		},
	}
	m := testMachine(t, market, &captureSink{})
	sess := session.New("call-5")
	ctx := context.Background()

	m.Process(ctx, sess, "bybit")
	m.Process(ctx, sess, "change bybit to binance")
	if sess.Exchange != "binance" {
		t.Fatalf("expected exchange binance after correction, got %q", sess.Exchange)
	}
	if sess.State != session.StateAwaitSymbol {
		t.Fatalf("expected await_symbol after exchange correction, got %q", sess.State)
	}
	if len(sess.Candidates) != 2 {
		t.Fatalf("expected fresh candidate list, got %v", sess.Candidates)
	}
}

func TestUnintelligibleInputKeepsState(t *testing.T) {
	m := testMachine(t, &fakeMarket{}, &captureSink{})
	sess := session.New("call-6")
	ctx := context.Background()

	reply := m.Process(ctx, sess, "mumble mumble")
	if sess.State != session.StateAwaitExchange {
		t.Fatalf("unrecognized input must not advance state, got %q", sess.State)
	}
	if !strings.Contains(reply, "Available exchanges") {
		t.Fatalf("expected exchange reprompt: %q", reply)
	}
}

func TestCancelAtConfirmationEndsCall(t *testing.T) {
	market := &fakeMarket{
		symbols: map[string][]string{"binance": {"BTC-USDT"}},
	}
	m := testMachine(t, market, &captureSink{})
	sess := session.New("call-7")
	ctx := context.Background()

	m.Process(ctx, sess, "binance")
	m.Process(ctx, sess, "btc usdt")
	m.Process(ctx, sess, "0.1 at 50000")
	reply := m.Process(ctx, sess, "cancel")
	if sess.State != session.StateEndCall {
		t.Fatalf("expected end_call after cancel, got %q", sess.State)
	}
	if !strings.Contains(reply, "Order cancelled") {
		t.Fatalf("expected cancellation reply: %q", reply)
	}

	reply = m.Process(ctx, sess, "hello?")
	if !strings.Contains(reply, "This call has ended") {
		t.Fatalf("expected terminal reply: %q", reply)
	}
}

func TestContinueResetsOrderFields(t *testing.T) {
	market := &fakeMarket{
		symbols: map[string][]string{"binance": {"BTC-USDT"}},
	}
	m := testMachine(t, market, &captureSink{})
	sess := session.New("call-8")
	ctx := context.Background()

	m.Process(ctx, sess, "binance")
	m.Process(ctx, sess, "btc usdt")
	m.Process(ctx, sess, "0.1 at 50000")
	m.Process(ctx, sess, "confirm")
	m.Process(ctx, sess, "yes please")
	if sess.State != session.StateAwaitExchange {
		t.Fatalf("expected await_exchange for the next order, got %q", sess.State)
	}
	if sess.Exchange != "" || sess.Symbol != "" || sess.Quantity != nil || sess.Price != nil {
		t.Fatalf("expected order fields cleared: %+v", sess)
	}
}

func TestQuantityThenPriceAcrossTurns(t *testing.T) {
	market := &fakeMarket{
		symbols: map[string][]string{"binance": {"BTC-USDT"}},
	}
	m := testMachine(t, market, &captureSink{})
	sess := session.New("call-9")
	ctx := context.Background()

	m.Process(ctx, sess, "binance")
	m.Process(ctx, sess, "btc usdt")

	reply := m.Process(ctx, sess, "0.1 btc")
	if sess.State != session.StateAwaitQuantityPrice {
		t.Fatalf("partial input must not advance state, got %q", sess.State)
	}
	if !strings.Contains(reply, "Got the quantity") {
		t.Fatalf("expected quantity acknowledgement: %q", reply)
	}

	m.Process(ctx, sess, "at 50000")
	if sess.State != session.StateConfirmOrder {
		t.Fatalf("expected confirm_order after both halves, got %q", sess.State)
	}
	if sess.Quantity == nil || !sess.Quantity.Equal(decimal.RequireFromString("0.1")) {
		t.Fatalf("quantity from the earlier turn must survive: %v", sess.Quantity)
	}
}

func TestGatewayFaultDoesNotStickSession(t *testing.T) {
	m := testMachine(t, panicMarket{}, &captureSink{})
	sess := session.New("call-10")
	ctx := context.Background()

	reply := m.Process(ctx, sess, "binance")
	if sess.State != session.StateAwaitSymbol {
		t.Fatalf("symbol discovery fault must not block the transition, got %q", sess.State)
	}
	if !strings.Contains(reply, "selected Binance") {
		t.Fatalf("expected exchange acknowledgement despite fault: %q", reply)
	}
}

func TestSinkFaultYieldsApologyAndKeepsState(t *testing.T) {
	market := &fakeMarket{
		symbols: map[string][]string{"binance": {"BTC-USDT"}},
	}
	m := testMachine(t, market, panicSink{})
	sess := session.New("call-11")
	ctx := context.Background()

	m.Process(ctx, sess, "binance")
	m.Process(ctx, sess, "btc usdt")
	m.Process(ctx, sess, "0.1 at 50000")
	reply := m.Process(ctx, sess, "yes")
	if reply != promptApology {
		t.Fatalf("expected apology on internal fault, got %q", reply)
	}
	if sess.State != session.StateConfirmOrder {
		t.Fatalf("fault must leave state unchanged, got %q", sess.State)
	}
}
