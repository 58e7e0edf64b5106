package session

import (
	"context"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

func TestMemoryStoreCreateOnFirstUse(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sess.State != StateAwaitExchange {
		t.Fatalf("expected initial state await_exchange, got %q", sess.State)
	}

	again, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again != sess {
		t.Fatalf("expected same session instance on repeated Get")
	}

	n, _ := store.Count(ctx)
	if n != 1 {
		t.Fatalf("expected 1 session, got %d", n)
	}

	if err := store.Delete(ctx, "abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	n, _ = store.Count(ctx)
	if n != 0 {
		t.Fatalf("expected 0 sessions after delete, got %d", n)
	}
}

func TestSelectExchangeResetsDependentFields(t *testing.T) {
	sess := New("s1")
	qty := decimal.NewFromFloat(0.5)
	price := decimal.NewFromInt(2000)
	sess.Exchange = "binance"
	sess.Symbol = "ETH-BTC"
	sess.Quantity = &qty
	sess.Price = &price
	sess.Candidates = []string{"ETH-BTC"}

	sess.SelectExchange("bybit")
	if sess.Exchange != "bybit" {
		t.Fatalf("expected exchange bybit, got %q", sess.Exchange)
	}
	if sess.Symbol != "" || sess.Quantity != nil || sess.Price != nil || sess.Candidates != nil {
		t.Fatalf("expected dependent fields reset on exchange change")
	}
}

func TestSelectSymbolResetsQuantityAndPrice(t *testing.T) {
	sess := New("s1")
	qty := decimal.NewFromFloat(0.5)
	sess.Quantity = &qty
	sess.SelectSymbol("BTC-USDT")
	if sess.Symbol != "BTC-USDT" {
		t.Fatalf("expected symbol selected")
	}
	if sess.Quantity != nil || sess.Price != nil {
		t.Fatalf("expected quantity/price reset on symbol change")
	}
}

func TestSessionJSONRoundTrip(t *testing.T) {
	sess := New("round")
	qty := decimal.NewFromFloat(0.25)
	sess.State = StateConfirmOrder
	sess.Exchange = "okx"
	sess.Symbol = "BTC-USDT"
	sess.Quantity = &qty
	sess.Candidates = []string{"BTC-USDT", "ETH-USDT"}
	sess.MarketPrice = decimal.RequireFromString("64250.5")

	raw, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Session
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.State != StateConfirmOrder || decoded.Symbol != "BTC-USDT" {
		t.Fatalf("round trip lost fields: %+v", decoded)
	}
	if decoded.Quantity == nil || !decoded.Quantity.Equal(qty) {
		t.Fatalf("round trip lost quantity")
	}
	if !decoded.MarketPrice.Equal(sess.MarketPrice) {
		t.Fatalf("round trip lost market price")
	}
}

func TestEnded(t *testing.T) {
	sess := New("s")
	if sess.Ended() {
		t.Fatalf("fresh session must not be ended")
	}
	sess.State = StateEndCall
	if !sess.Ended() {
		t.Fatalf("expected ended state")
	}
}
