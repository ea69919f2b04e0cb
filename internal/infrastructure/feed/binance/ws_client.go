package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tickboard/internal/domain"
	"tickboard/internal/infrastructure/feed/stream"
)

// 连接断开后固定延迟重连，不做指数退避
const reconnectDelay = 5 * time.Second

// TickerFeed 币安 24h ticker 流，每个符号一条独立长连接
type TickerFeed struct {
	wsURL string // e.g. wss://stream.binance.com:9443
}

func NewTickerFeed(wsURL string) *TickerFeed {
	return &TickerFeed{wsURL: strings.TrimSpace(wsURL)}
}

func (f *TickerFeed) Name() string { return domain.SourceBinance }

// tickerMsg 单符号 ticker 推送，只取最新价和 24h 涨跌幅
type tickerMsg struct {
	Close      string `json:"c"`
	ChangePerc string `json:"P"`
}

func (f *TickerFeed) Subscribe(ctx context.Context, entries []domain.Entry) (<-chan domain.Update, error) {
	if f.wsURL == "" {
		return nil, errors.New("binance wsURL empty")
	}
	if len(entries) == 0 {
		return nil, errors.New("entries empty")
	}

	out := make(chan domain.Update, 1024)
	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func(e domain.Entry) {
			defer wg.Done()
			f.run(ctx, e, out)
		}(e)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}

func (f *TickerFeed) run(ctx context.Context, e domain.Entry, out chan<- domain.Update) {
	wsURL := fmt.Sprintf("%s/ws/%s@ticker", strings.TrimRight(f.wsURL, "/"), strings.ToLower(e.TradingPair))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := stream.Dial(ctx, wsURL)
		if err != nil {
			log.Error().Str("feed", f.Name()).Str("symbol", e.Symbol).Err(err).Msg("ws dial failed")
			if !stream.Sleep(ctx, reconnectDelay) {
				return
			}
			continue
		}

		log.Info().Str("feed", f.Name()).Str("symbol", e.Symbol).Msg("ws connected")

		err = stream.ReadLoop(ctx, conn, func(b []byte) {
			if u, ok := ParseTicker(e.Symbol, b); ok {
				stream.Send(ctx, out, u)
			}
		})

		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}

		log.Warn().Str("feed", f.Name()).Str("symbol", e.Symbol).Err(err).Msg("ws disconnected, reconnecting")
		if !stream.Sleep(ctx, reconnectDelay) {
			return
		}
	}
}

// ParseTicker 把 ticker 推送归一化为一次更新
// 格式不符时返回 false，调用方静默跳过
func ParseTicker(symbol string, b []byte) (domain.Update, bool) {
	var msg tickerMsg
	if err := json.Unmarshal(b, &msg); err != nil {
		log.Debug().Str("feed", domain.SourceBinance).Err(err).Msg("json unmarshal failed")
		return domain.Update{}, false
	}
	pxs := strings.TrimSpace(msg.Close)
	if pxs == "" {
		return domain.Update{}, false
	}
	px, err := strconv.ParseFloat(pxs, 64)
	if err != nil {
		return domain.Update{}, false
	}
	pct, _ := strconv.ParseFloat(strings.TrimSpace(msg.ChangePerc), 64)

	return domain.Update{
		Symbol:        symbol,
		Price:         domain.F64(px),
		ChangePercent: domain.F64(pct),
		Ts:            time.Now().UnixMilli(),
	}, true
}
