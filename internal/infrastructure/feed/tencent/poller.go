package tencent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/simplifiedchinese"

	"tickboard/internal/domain"
)

const pollInterval = 10 * time.Second

// 腾讯行情应答按 "~" 分隔，现价在第 3 格；
// 涨跌幅美股在第 31 格，沪深港在第 32 格
const (
	minFields      = 33
	priceIdx       = 3
	changeIdxUS    = 31
	changeIdxLocal = 32
)

// Poller 沪深/港/美股行情轮询，应答是 GBK 编码的波浪线分隔文本
type Poller struct {
	baseURL string
	client  *http.Client
}

func NewPoller(baseURL string) *Poller {
	return &Poller{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *Poller) Name() string { return domain.GroupStock }

func (p *Poller) Subscribe(ctx context.Context, entries []domain.Entry) (<-chan domain.Update, error) {
	if p.baseURL == "" {
		return nil, errors.New("stock baseURL empty")
	}
	if len(entries) == 0 {
		return nil, errors.New("entries empty")
	}

	out := make(chan domain.Update, 1024)
	go p.run(ctx, entries, out)
	return out, nil
}

func (p *Poller) run(ctx context.Context, entries []domain.Entry, out chan<- domain.Update) {
	defer close(out)

	p.fetchCycle(ctx, entries, out)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchCycle(ctx, entries, out)
		}
	}
}

func (p *Poller) fetchCycle(ctx context.Context, entries []domain.Entry, out chan<- domain.Update) {
	for _, e := range entries {
		u, err := p.fetchOne(ctx, e)
		if err != nil {
			log.Debug().Str("feed", p.Name()).Str("symbol", e.Symbol).Err(err).Msg("quote fetch failed")
			continue
		}
		select {
		case out <- u:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) fetchOne(ctx context.Context, e domain.Entry) (domain.Update, error) {
	url := fmt.Sprintf("%s/q=%s", p.baseURL, e.TradingPair)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Update{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return domain.Update{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Update{}, fmt.Errorf("quote http %d for %s", resp.StatusCode, e.TradingPair)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Update{}, err
	}
	return ParseQuote(e, raw)
}

// ParseQuote 解码 GBK 应答并按固定字段位取数
func ParseQuote(e domain.Entry, raw []byte) (domain.Update, error) {
	text, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw)
	if err != nil {
		return domain.Update{}, fmt.Errorf("gbk decode: %w", err)
	}

	parts := strings.Split(string(text), "~")
	if len(parts) < minFields {
		return domain.Update{}, fmt.Errorf("quote for %s has %d fields", e.TradingPair, len(parts))
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(parts[priceIdx]), 64)
	if err != nil {
		return domain.Update{}, fmt.Errorf("bad price for %s: %w", e.TradingPair, err)
	}

	isUS := strings.HasPrefix(e.TradingPair, "us")
	idx := changeIdxLocal
	if isUS {
		idx = changeIdxUS
	}
	change, _ := strconv.ParseFloat(strings.TrimSpace(parts[idx]), 64)

	return domain.Update{
		Symbol:        e.Symbol,
		Price:         domain.F64(price),
		ChangePercent: domain.F64(change),
		Equity:        true,
		Foreign:       isUS,
		Ts:            time.Now().UnixMilli(),
	}, nil
}
