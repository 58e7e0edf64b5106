package catalog

import "testing"

func TestLookupIsCaseInsensitive(t *testing.T) {
	c := Default()
	for _, id := range []string{"binance", "BINANCE", " Binance "} {
		p, ok := c.Lookup(id)
		if !ok {
			t.Fatalf("expected lookup hit for %q", id)
		}
		if p.ID != "binance" {
			t.Fatalf("expected normalized id binance, got %q", p.ID)
		}
	}
	if _, ok := c.Lookup("kraken"); ok {
		t.Fatalf("expected miss for unregistered exchange")
	}
}

func TestRegistrationOrderPreserved(t *testing.T) {
	c := Default()
	want := []string{"okx", "bybit", "deribit", "binance"}
	got := c.IDs()
	if len(got) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected id %q at position %d, got %q", want[i], i, got[i])
		}
	}
}

func TestDuplicateRegistrationIgnored(t *testing.T) {
	c := New(
		Profile{ID: "okx", Name: "OKX"},
		Profile{ID: "OKX", Name: "shadow"},
	)
	if c.Len() != 1 {
		t.Fatalf("expected 1 profile, got %d", c.Len())
	}
	p, _ := c.Lookup("okx")
	if p.Name != "OKX" {
		t.Fatalf("expected first registration to win, got %q", p.Name)
	}
}

func TestWithBaseURLRewritesEveryProfile(t *testing.T) {
	c := Default().WithBaseURL("http://127.0.0.1:9999/")
	for _, id := range c.IDs() {
		p, _ := c.Lookup(id)
		if p.BaseURL != "http://127.0.0.1:9999" {
			t.Fatalf("expected rewritten base url for %s, got %q", id, p.BaseURL)
		}
	}
	// The original catalog is untouched.
	orig, _ := Default().Lookup("binance")
	if orig.BaseURL != "https://api.binance.com" {
		t.Fatalf("expected default catalog unchanged, got %q", orig.BaseURL)
	}
}

func TestDefaultSymbolListsNonEmpty(t *testing.T) {
	c := Default()
	for _, id := range c.IDs() {
		p, _ := c.Lookup(id)
		if len(p.DefaultSymbols) == 0 {
			t.Fatalf("expected default symbols for %s", id)
		}
	}
}
