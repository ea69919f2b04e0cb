package metals

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"tickboard/internal/domain"
)

func TestGramCny(t *testing.T) {
	got := GramCny(3110.35)
	want := 3110.35 / 31.1035 * 7.1
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("GramCny = %v, want %v", got, want)
	}
}

func TestFetchCycleWithoutKeyOnlyGold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != goldPair {
			t.Errorf("unexpected symbol %q", r.URL.Query().Get("symbol"))
		}
		fmt.Fprint(w, `{"lastPrice":"2488.8","priceChangePercent":"0.9"}`)
	}))
	defer srv.Close()

	p := NewPoller(srv.URL, "", "")
	out := make(chan domain.Update, 8)
	p.fetchCycle(context.Background(), out)
	close(out)

	var got []domain.Update
	for u := range out {
		got = append(got, u)
	}
	if len(got) != 1 {
		t.Fatalf("no credential should yield gold only, got %+v", got)
	}
	u := got[0]
	if u.Symbol != "XAUUSD" || *u.Price != 2488.8 || *u.ChangePercent != 0.9 {
		t.Fatalf("unexpected gold update %+v", u)
	}
	if math.Abs(*u.Converted-2488.8/31.1035*7.1) > 1e-9 {
		t.Fatalf("converted price off: %v", *u.Converted)
	}
}

func TestFetchCycleWithKeyAddsSilverAndCnyGold(t *testing.T) {
	ticker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"lastPrice":"2500","priceChangePercent":"1.1"}`)
	}))
	defer ticker.Close()

	spot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-access-token") != "goldapi-test" {
			t.Errorf("missing access token header")
		}
		switch r.URL.Path {
		case "/XAG/USD":
			fmt.Fprint(w, `{"price":28.5,"chp":-0.4}`)
		case "/XAU/CNY":
			fmt.Fprint(w, `{"price":18100.0,"chp":0.2}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer spot.Close()

	p := NewPoller(ticker.URL, spot.URL, "goldapi-test")
	out := make(chan domain.Update, 8)
	p.fetchCycle(context.Background(), out)
	close(out)

	var got []domain.Update
	for u := range out {
		got = append(got, u)
	}
	if len(got) != 3 {
		t.Fatalf("expected gold + silver + cny gold, got %+v", got)
	}

	silver := got[1]
	if silver.Symbol != "XAGUSD" || *silver.Price != 28.5 || *silver.ChangePercent != -0.4 {
		t.Fatalf("unexpected silver update %+v", silver)
	}

	cny := got[2]
	if cny.Symbol != "XAUUSD" || cny.Price != nil || cny.ChangePercent != nil {
		t.Fatalf("cny gold should only carry the converted field: %+v", cny)
	}
	if math.Abs(*cny.Converted-18100.0/31.1035) > 1e-9 {
		t.Fatalf("per-gram price off: %v", *cny.Converted)
	}
}

func TestFetchCycleSilverFailureKeepsCnyGold(t *testing.T) {
	ticker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"lastPrice":"2500","priceChangePercent":"1.1"}`)
	}))
	defer ticker.Close()

	spot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/XAG/USD" {
			http.Error(w, "quota exceeded", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{"price":18100.0,"chp":0.2}`)
	}))
	defer spot.Close()

	p := NewPoller(ticker.URL, spot.URL, "goldapi-test")
	out := make(chan domain.Update, 8)
	p.fetchCycle(context.Background(), out)
	close(out)

	var symbols []string
	for u := range out {
		symbols = append(symbols, u.Symbol)
	}
	if len(symbols) != 2 || symbols[0] != "XAUUSD" || symbols[1] != "XAUUSD" {
		t.Fatalf("silver failure should not block the cny gold call, got %v", symbols)
	}
}
