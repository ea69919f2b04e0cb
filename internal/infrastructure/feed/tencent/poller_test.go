package tencent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"

	"tickboard/internal/domain"
)

// quoteLine 拼一条指定字段数的行情，现价与两个涨跌幅位可指定
func quoteLine(t *testing.T, name string, fields int, price, chgUS, chgLocal string) []byte {
	t.Helper()
	parts := make([]string, fields)
	for i := range parts {
		parts[i] = "0"
	}
	parts[1] = name
	if priceIdx < fields {
		parts[priceIdx] = price
	}
	if changeIdxUS < fields {
		parts[changeIdxUS] = chgUS
	}
	if changeIdxLocal < fields {
		parts[changeIdxLocal] = chgLocal
	}

	raw, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(`v_x="` + strings.Join(parts, "~") + `"`))
	if err != nil {
		t.Fatalf("gbk encode: %v", err)
	}
	return raw
}

func TestParseQuoteDomesticUsesLocalOffset(t *testing.T) {
	raw := quoteLine(t, "上证指数", 50, "3250.12", "9.99", "1.25")
	e := domain.Entry{Symbol: "sh000001", Source: "cn", TradingPair: "sh000001"}

	u, err := ParseQuote(e, raw)
	if err != nil {
		t.Fatalf("ParseQuote failed: %v", err)
	}
	if *u.Price != 3250.12 || *u.ChangePercent != 1.25 {
		t.Fatalf("unexpected update %+v", u)
	}
	if !u.Equity || u.Foreign {
		t.Fatalf("domestic quote should be equity and not foreign: %+v", u)
	}
}

func TestParseQuoteUSUsesForeignOffset(t *testing.T) {
	raw := quoteLine(t, "纳斯达克", 50, "17800.5", "-0.75", "9.99")
	e := domain.Entry{Symbol: "usIXIC", Source: "us", TradingPair: "usIXIC"}

	u, err := ParseQuote(e, raw)
	if err != nil {
		t.Fatalf("ParseQuote failed: %v", err)
	}
	if *u.Price != 17800.5 || *u.ChangePercent != -0.75 {
		t.Fatalf("unexpected update %+v", u)
	}
	if !u.Equity || !u.Foreign {
		t.Fatalf("US quote should be equity and foreign: %+v", u)
	}
}

func TestParseQuoteTooFewFields(t *testing.T) {
	raw := quoteLine(t, "港股", 20, "1", "1", "1")
	if _, err := ParseQuote(domain.Entry{TradingPair: "hk00700"}, raw); err == nil {
		t.Fatal("expected error on short quote")
	}
}

func TestFetchOneQueriesTradingPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.String(), "/q=hk00700") {
			t.Errorf("unexpected url %q", r.URL.String())
		}
		w.Write(quoteLine(t, "腾讯控股", 50, "512.0", "9.99", "2.1"))
	}))
	defer srv.Close()

	p := NewPoller(srv.URL)
	e := domain.Entry{Symbol: "hk00700", Source: "hk", TradingPair: "hk00700"}
	u, err := p.fetchOne(context.Background(), e)
	if err != nil {
		t.Fatalf("fetchOne failed: %v", err)
	}
	if *u.Price != 512.0 || *u.ChangePercent != 2.1 {
		t.Fatalf("unexpected update %+v", u)
	}
}
