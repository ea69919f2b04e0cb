package alpha

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

const pollInterval = 10 * time.Second

// Poller 币安 Alpha 代币榜单轮询：每周期拉一次全量列表再逐项匹配
// 条目优先按 tokenId 精确匹配，否则按展示名不区分大小写匹配；
// 没匹配上不算错误，本周期跳过即可
type Poller struct {
	listURL string
	client  *http.Client
}

func NewPoller(listURL string) *Poller {
	return &Poller{
		listURL: strings.TrimSpace(listURL),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *Poller) Name() string { return domain.SourceAlpha }

// Token 榜单里的一个代币
type Token struct {
	ID             string `json:"id"`
	Symbol         string `json:"symbol"`
	Price          string `json:"price"`
	PriceChange24h string `json:"priceChange24h"`
}

type listResp struct {
	Data []Token `json:"data"`
}

func (p *Poller) Subscribe(ctx context.Context, entries []domain.Entry) (<-chan domain.Update, error) {
	if p.listURL == "" {
		return nil, errors.New("alpha listURL empty")
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
	tokens, err := p.fetchList(ctx)
	if err != nil {
		log.Debug().Str("feed", p.Name()).Err(err).Msg("token list fetch failed")
		return
	}
	for _, u := range MatchUpdates(entries, tokens) {
		select {
		case out <- u:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) fetchList(ctx context.Context) ([]Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.listURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token list http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var lr listResp
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, err
	}
	return lr.Data, nil
}

// MatchUpdates 把条目与榜单配对并产出更新
func MatchUpdates(entries []domain.Entry, tokens []Token) []domain.Update {
	var updates []domain.Update
	for _, e := range entries {
		token := match(e, tokens)
		if token == nil {
			continue
		}
		px, err := strconv.ParseFloat(strings.TrimSpace(token.Price), 64)
		if err != nil {
			continue
		}
		pct, _ := strconv.ParseFloat(strings.TrimSpace(token.PriceChange24h), 64)

		updates = append(updates, domain.Update{
			Symbol:        e.Symbol,
			Price:         domain.F64(px),
			ChangePercent: domain.F64(pct),
			Ts:            time.Now().UnixMilli(),
		})
	}
	return updates
}

func match(e domain.Entry, tokens []Token) *Token {
	for i := range tokens {
		if e.TokenID != "" && tokens[i].ID == e.TokenID {
			return &tokens[i]
		}
		if strings.EqualFold(tokens[i].Symbol, e.Name) {
			return &tokens[i]
		}
	}
	return nil
}
