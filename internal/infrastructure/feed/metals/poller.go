package metals

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

const pollInterval = 60 * time.Second

const (
	goldPair      = "PAXGUSDT"
	gramsPerOunce = 31.1035
	usdToCny      = 7.1 // 没有外部汇率源时的固定折算
)

// Poller 贵金属行情：金价始终取 PAXG 美元盘口，
// 配置了付费接口凭证后再补银价和境内克价，三路请求互不牵连
type Poller struct {
	restURL string
	apiBase string
	apiKey  string
	client  *http.Client
}

func NewPoller(restURL, apiBase, apiKey string) *Poller {
	return &Poller{
		restURL: strings.TrimRight(strings.TrimSpace(restURL), "/"),
		apiBase: strings.TrimRight(strings.TrimSpace(apiBase), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *Poller) Name() string { return domain.SourceMetal }

func (p *Poller) Subscribe(ctx context.Context, entries []domain.Entry) (<-chan domain.Update, error) {
	if p.restURL == "" {
		return nil, errors.New("metals restURL empty")
	}
	if len(entries) == 0 {
		return nil, errors.New("entries empty")
	}

	out := make(chan domain.Update, 64)
	go p.run(ctx, out)
	return out, nil
}

func (p *Poller) run(ctx context.Context, out chan<- domain.Update) {
	defer close(out)

	p.fetchCycle(ctx, out)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchCycle(ctx, out)
		}
	}
}

func (p *Poller) fetchCycle(ctx context.Context, out chan<- domain.Update) {
	if u, err := p.fetchGold(ctx); err != nil {
		log.Debug().Str("feed", p.Name()).Err(err).Msg("gold fetch failed")
	} else if !emit(ctx, out, u) {
		return
	}

	if p.apiKey == "" || p.apiBase == "" {
		// 没配凭证就只有金价，银价由展示层提示补配置
		return
	}

	if u, err := p.fetchSilver(ctx); err != nil {
		log.Debug().Str("feed", p.Name()).Err(err).Msg("silver fetch failed")
	} else if !emit(ctx, out, u) {
		return
	}

	if u, err := p.fetchGoldCny(ctx); err != nil {
		log.Debug().Str("feed", p.Name()).Err(err).Msg("cny gold fetch failed")
	} else if !emit(ctx, out, u) {
		return
	}
}

func emit(ctx context.Context, out chan<- domain.Update, u domain.Update) bool {
	select {
	case out <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

type tickerResp struct {
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
}

func (p *Poller) fetchGold(ctx context.Context) (domain.Update, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", p.restURL, goldPair)
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
		return domain.Update{}, fmt.Errorf("gold ticker http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Update{}, err
	}

	var tr tickerResp
	if err := json.Unmarshal(body, &tr); err != nil {
		return domain.Update{}, err
	}
	usd, err := strconv.ParseFloat(tr.LastPrice, 64)
	if err != nil {
		return domain.Update{}, fmt.Errorf("bad gold price %q: %w", tr.LastPrice, err)
	}
	pct, _ := strconv.ParseFloat(tr.PriceChangePercent, 64)

	return domain.Update{
		Symbol:        domain.SymbolGold,
		Price:         domain.F64(usd),
		ChangePercent: domain.F64(pct),
		Converted:     domain.F64(GramCny(usd)),
		Ts:            time.Now().UnixMilli(),
	}, nil
}

// GramCny 盎司美元价折算成每克人民币价
func GramCny(ouncesUsd float64) float64 {
	return ouncesUsd / gramsPerOunce * usdToCny
}

type spotResp struct {
	Price float64 `json:"price"`
	Chp   float64 `json:"chp"`
}

func (p *Poller) fetchSpot(ctx context.Context, pair string) (spotResp, error) {
	url := fmt.Sprintf("%s/%s", p.apiBase, pair)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return spotResp{}, err
	}
	req.Header.Set("x-access-token", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return spotResp{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return spotResp{}, fmt.Errorf("spot %s http %d", pair, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return spotResp{}, err
	}

	var sr spotResp
	if err := json.Unmarshal(body, &sr); err != nil {
		return spotResp{}, err
	}
	return sr, nil
}

func (p *Poller) fetchSilver(ctx context.Context) (domain.Update, error) {
	sr, err := p.fetchSpot(ctx, "XAG/USD")
	if err != nil {
		return domain.Update{}, err
	}
	return domain.Update{
		Symbol:        domain.SymbolSilver,
		Price:         domain.F64(sr.Price),
		ChangePercent: domain.F64(sr.Chp),
		Ts:            time.Now().UnixMilli(),
	}, nil
}

// fetchGoldCny 境内金价只改折算字段，美元价另有来源
func (p *Poller) fetchGoldCny(ctx context.Context) (domain.Update, error) {
	sr, err := p.fetchSpot(ctx, "XAU/CNY")
	if err != nil {
		return domain.Update{}, err
	}
	return domain.Update{
		Symbol:    domain.SymbolGold,
		Converted: domain.F64(sr.Price / gramsPerOunce),
		Ts:        time.Now().UnixMilli(),
	}, nil
}
