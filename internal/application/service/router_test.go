package service

import (
	"context"
	"testing"

	"tickboard/internal/domain"
)

type captureMirror struct {
	symbols []string
	last    domain.Record
}

func (m *captureMirror) UpsertLatest(ctx context.Context, symbol string, r domain.Record) error {
	m.symbols = append(m.symbols, symbol)
	m.last = r
	return nil
}

func TestRouterApplyNotifies(t *testing.T) {
	var notified []string
	r := NewRouter(context.Background(), func(s string) { notified = append(notified, s) }, nil)

	r.Apply(domain.Update{Symbol: "BTCUSDT", Price: domain.F64(65000.5), ChangePercent: domain.F64(2.3)})

	rec, ok := r.Record("BTCUSDT")
	if !ok {
		t.Fatal("record missing after apply")
	}
	if rec.Price != 65000.5 || rec.ChangePercent != 2.3 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if len(notified) != 1 || notified[0] != "BTCUSDT" {
		t.Fatalf("notify not invoked correctly: %v", notified)
	}
}

func TestRouterApplyMergesAcrossWriters(t *testing.T) {
	r := NewRouter(context.Background(), nil, nil)

	r.Apply(domain.Update{Symbol: "XAUUSD", Price: domain.F64(100)})
	r.Apply(domain.Update{Symbol: "XAUUSD", ChangePercent: domain.F64(5)})

	rec, _ := r.Record("XAUUSD")
	if !rec.HasPrice || !rec.HasChange {
		t.Fatalf("merge lost a field: %+v", rec)
	}
	if rec.Price != 100 || rec.ChangePercent != 5 {
		t.Fatalf("unexpected merged record %+v", rec)
	}
}

func TestRouterIgnoresEmptySymbol(t *testing.T) {
	called := false
	r := NewRouter(context.Background(), func(string) { called = true }, nil)
	r.Apply(domain.Update{Price: domain.F64(1)})
	if called || len(r.Snapshot()) != 0 {
		t.Fatal("empty-symbol update should be dropped")
	}
}

func TestRouterMirrorsMergedRecord(t *testing.T) {
	m := &captureMirror{}
	r := NewRouter(context.Background(), nil, m)

	r.Apply(domain.Update{Symbol: "XAUUSD", Price: domain.F64(4300)})
	r.Apply(domain.Update{Symbol: "XAUUSD", Converted: domain.F64(981)})

	if len(m.symbols) != 2 {
		t.Fatalf("expected 2 mirror writes, got %d", len(m.symbols))
	}
	if !m.last.HasPrice || !m.last.HasConverted {
		t.Fatalf("mirror should see merged record, got %+v", m.last)
	}
}
