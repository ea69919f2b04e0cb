package okx

import (
	"math"
	"testing"

	"tickboard/internal/domain"
)

var group = []domain.Entry{
	{Symbol: "OKX_ETHUSDT", Source: "okx", TradingPair: "ETH-USDT"},
	{Symbol: "OKX_SOLUSDT", Source: "okx", TradingPair: "SOL-USDT"},
}

func TestParseTickersDerivesChangeFromBaseline(t *testing.T) {
	b := []byte(`{"data":[{"instId":"ETH-USDT","last":"3500","sodUtc8":"3400"}]}`)
	updates := ParseTickers(group, b)
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	u := updates[0]
	if u.Symbol != "OKX_ETHUSDT" {
		t.Fatalf("symbol = %q", u.Symbol)
	}
	if *u.Price != 3500 {
		t.Fatalf("price = %v", *u.Price)
	}
	want := (3500.0 - 3400.0) / 3400.0 * 100
	if math.Abs(*u.ChangePercent-want) > 1e-9 {
		t.Fatalf("change = %v, want %v", *u.ChangePercent, want)
	}
	if math.Abs(*u.ChangePercent-2.941) > 0.001 {
		t.Fatalf("change = %v, want ≈2.941", *u.ChangePercent)
	}
}

func TestParseTickersMissingBaselineIsZero(t *testing.T) {
	b := []byte(`{"data":[{"instId":"SOL-USDT","last":"200"}]}`)
	updates := ParseTickers(group, b)
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if *updates[0].ChangePercent != 0 {
		t.Fatalf("missing baseline should yield 0, got %v", *updates[0].ChangePercent)
	}
}

func TestParseTickersUnknownInstrumentSkipped(t *testing.T) {
	b := []byte(`{"data":[{"instId":"DOGE-USDT","last":"0.1","sodUtc8":"0.09"}]}`)
	if updates := ParseTickers(group, b); len(updates) != 0 {
		t.Fatalf("unknown instId should be skipped, got %+v", updates)
	}
}

func TestParseTickersEventFramesIgnored(t *testing.T) {
	b := []byte(`{"event":"subscribe","arg":{"channel":"tickers","instId":"ETH-USDT"}}`)
	if updates := ParseTickers(group, b); len(updates) != 0 {
		t.Fatalf("ack frame should be ignored, got %+v", updates)
	}
}
