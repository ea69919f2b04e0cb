package gecko

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

const pollInterval = 15 * time.Second

// 条目里的链名到 GeckoTerminal 网络标识的映射，未知链按 bsc 处理
var networkAlias = map[string]string{
	"bsc":  "bsc",
	"eth":  "eth",
	"sol":  "solana",
	"base": "base",
}

// Poller 按合约地址轮询 GeckoTerminal 的 meme 代币行情
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

func (p *Poller) Name() string { return domain.SourceMeme }

func (p *Poller) Subscribe(ctx context.Context, entries []domain.Entry) (<-chan domain.Update, error) {
	if p.baseURL == "" {
		return nil, errors.New("gecko baseURL empty")
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
		if e.ContractAddress == "" {
			// 没有合约地址没法查，直接略过
			continue
		}
		u, err := p.fetchOne(ctx, e)
		if err != nil {
			log.Debug().Str("feed", p.Name()).Str("symbol", e.Symbol).Err(err).Msg("token fetch failed")
			continue
		}
		select {
		case out <- u:
		case <-ctx.Done():
			return
		}
	}
}

// NetworkOf 把条目上的链名翻译为 GeckoTerminal 的网络标识
func NetworkOf(e domain.Entry) string {
	if net, ok := networkAlias[strings.ToLower(e.Network)]; ok {
		return net
	}
	return "bsc"
}

type tokenResp struct {
	Data struct {
		Attributes struct {
			PriceUSD              string            `json:"price_usd"`
			PriceChangePercentage map[string]string `json:"price_change_percentage"`
		} `json:"attributes"`
	} `json:"data"`
}

func (p *Poller) fetchOne(ctx context.Context, e domain.Entry) (domain.Update, error) {
	url := fmt.Sprintf("%s/api/v2/networks/%s/tokens/%s", p.baseURL, NetworkOf(e), e.ContractAddress)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Update{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.Update{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Update{}, fmt.Errorf("gecko http %d for %s", resp.StatusCode, e.Symbol)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Update{}, err
	}
	return ParseToken(e.Symbol, body)
}

// ParseToken 解析单个代币应答，价格或涨跌缺失时按 0 处理
func ParseToken(symbol string, b []byte) (domain.Update, error) {
	var tr tokenResp
	if err := json.Unmarshal(b, &tr); err != nil {
		return domain.Update{}, err
	}

	px, _ := strconv.ParseFloat(strings.TrimSpace(tr.Data.Attributes.PriceUSD), 64)
	pct, _ := strconv.ParseFloat(strings.TrimSpace(tr.Data.Attributes.PriceChangePercentage["h24"]), 64)

	return domain.Update{
		Symbol:        symbol,
		Price:         domain.F64(px),
		ChangePercent: domain.F64(pct),
		Ts:            time.Now().UnixMilli(),
	}, nil
}
