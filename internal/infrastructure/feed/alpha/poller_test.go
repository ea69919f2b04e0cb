package alpha

import (
	"testing"

	"tickboard/internal/domain"
)

var tokens = []Token{
	{ID: "tok-123", Symbol: "ZKJ", Price: "1.95", PriceChange24h: "4.2"},
	{ID: "tok-456", Symbol: "koge", Price: "60.1", PriceChange24h: "-0.8"},
}

func TestMatchUpdatesByTokenID(t *testing.T) {
	entries := []domain.Entry{
		{Symbol: "ALPHA_ZKJ_1", Name: "something-else", TokenID: "tok-123", Source: "alpha"},
	}
	updates := MatchUpdates(entries, tokens)
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if updates[0].Symbol != "ALPHA_ZKJ_1" || *updates[0].Price != 1.95 {
		t.Fatalf("unexpected update %+v", updates[0])
	}
}

func TestMatchUpdatesByNameCaseInsensitive(t *testing.T) {
	entries := []domain.Entry{
		{Symbol: "ALPHA_KOGE_1", Name: "KOGE", Source: "alpha"},
	}
	updates := MatchUpdates(entries, tokens)
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if *updates[0].Price != 60.1 || *updates[0].ChangePercent != -0.8 {
		t.Fatalf("unexpected update %+v", updates[0])
	}
}

func TestMatchUpdatesNotFoundIsNotAnError(t *testing.T) {
	entries := []domain.Entry{
		{Symbol: "ALPHA_NOPE_1", Name: "NOPE", Source: "alpha"},
	}
	if updates := MatchUpdates(entries, tokens); len(updates) != 0 {
		t.Fatalf("unmatched entry should simply yield nothing, got %+v", updates)
	}
}

func TestMatchUpdatesBadPriceSkipped(t *testing.T) {
	entries := []domain.Entry{{Symbol: "A", Name: "BROKE", Source: "alpha"}}
	broke := []Token{{Symbol: "BROKE", Price: "n/a", PriceChange24h: "1"}}
	if updates := MatchUpdates(entries, broke); len(updates) != 0 {
		t.Fatalf("unparsable price should be skipped, got %+v", updates)
	}
}
