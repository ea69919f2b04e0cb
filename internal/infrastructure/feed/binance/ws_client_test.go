package binance

import "testing"

func TestParseTicker(t *testing.T) {
	u, ok := ParseTicker("BTCUSDT", []byte(`{"c":"65000.5","P":"2.3"}`))
	if !ok {
		t.Fatal("expected parse success")
	}
	if u.Symbol != "BTCUSDT" {
		t.Fatalf("symbol = %q", u.Symbol)
	}
	if u.Price == nil || *u.Price != 65000.5 {
		t.Fatalf("price = %v", u.Price)
	}
	if u.ChangePercent == nil || *u.ChangePercent != 2.3 {
		t.Fatalf("change = %v", u.ChangePercent)
	}
}

func TestParseTickerRejectsGarbage(t *testing.T) {
	if _, ok := ParseTicker("BTCUSDT", []byte(`not json`)); ok {
		t.Fatal("garbage accepted")
	}
	if _, ok := ParseTicker("BTCUSDT", []byte(`{"P":"2.3"}`)); ok {
		t.Fatal("missing price accepted")
	}
	if _, ok := ParseTicker("BTCUSDT", []byte(`{"c":"abc","P":"2.3"}`)); ok {
		t.Fatal("unparsable price accepted")
	}
}

func TestParseTickerMissingChangeDefaultsZero(t *testing.T) {
	u, ok := ParseTicker("BTCUSDT", []byte(`{"c":"100"}`))
	if !ok {
		t.Fatal("expected parse success")
	}
	if u.ChangePercent == nil || *u.ChangePercent != 0 {
		t.Fatalf("change = %v, want 0", u.ChangePercent)
	}
}
