package mexc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tickboard/internal/domain"
)

const pollInterval = 5 * time.Second

// Poller MEXC 24h ticker REST 轮询，每项每周期各发一次请求
// 单项失败只影响该项本周期，下个周期独立重试
type Poller struct {
	baseURL string // e.g. https://api.mexc.com
	client  *http.Client
}

func NewPoller(baseURL string) *Poller {
	return &Poller{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *Poller) Name() string { return domain.SourceMEXC }

type tickerResp struct {
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
}

func (p *Poller) Subscribe(ctx context.Context, entries []domain.Entry) (<-chan domain.Update, error) {
	if p.baseURL == "" {
		return nil, errors.New("mexc baseURL empty")
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

	// 注册即刻先拉一轮，再按固定间隔循环
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
			log.Debug().Str("feed", p.Name()).Str("symbol", e.Symbol).Err(err).Msg("fetch failed")
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
	url := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", p.baseURL, e.TradingPair)
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
		return domain.Update{}, fmt.Errorf("ticker http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Update{}, err
	}

	var tr tickerResp
	if err := json.Unmarshal(body, &tr); err != nil {
		return domain.Update{}, err
	}
	px, err := strconv.ParseFloat(strings.TrimSpace(tr.LastPrice), 64)
	if err != nil {
		return domain.Update{}, fmt.Errorf("bad lastPrice %q", tr.LastPrice)
	}
	pct, _ := strconv.ParseFloat(strings.TrimSpace(tr.PriceChangePercent), 64)

	return domain.Update{
		Symbol:        e.Symbol,
		Price:         domain.F64(px),
		ChangePercent: domain.F64(pct),
		Ts:            time.Now().UnixMilli(),
	}, nil
}
