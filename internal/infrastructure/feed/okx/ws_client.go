package okx

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"tickboard/internal/domain"
	"tickboard/internal/infrastructure/feed/stream"
)

const reconnectDelay = 5 * time.Second

// TickerFeed OKX 公共 ticker 频道，整组共享一条连接
type TickerFeed struct {
	wsURL string // e.g. wss://ws.okx.com:8443/ws/v5/public
}

func NewTickerFeed(wsURL string) *TickerFeed {
	return &TickerFeed{wsURL: strings.TrimSpace(wsURL)}
}

func (f *TickerFeed) Name() string { return domain.SourceOKX }

// 订阅报文字段名由交易所规定，必须逐字一致
type subReq struct {
	Op   string   `json:"op"`
	Args []subArg `json:"args"`
}

type subArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type tickerMsg struct {
	Data []tickerData `json:"data,omitempty"`
}

type tickerData struct {
	InstID  string `json:"instId"`
	Last    string `json:"last"`
	SodUtc8 string `json:"sodUtc8"`
	Ts      string `json:"ts"`
}

func (f *TickerFeed) Subscribe(ctx context.Context, entries []domain.Entry) (<-chan domain.Update, error) {
	if f.wsURL == "" {
		return nil, errors.New("okx wsURL empty")
	}
	if len(entries) == 0 {
		return nil, errors.New("entries empty")
	}

	out := make(chan domain.Update, 1024)
	go f.run(ctx, entries, out)
	return out, nil
}

func (f *TickerFeed) run(ctx context.Context, entries []domain.Entry, out chan<- domain.Update) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := stream.Dial(ctx, f.wsURL)
		if err != nil {
			log.Error().Str("feed", f.Name()).Err(err).Msg("ws dial failed")
			if !stream.Sleep(ctx, reconnectDelay) {
				return
			}
			continue
		}

		log.Info().Str("feed", f.Name()).Int("entries", len(entries)).Msg("ws connected")

		// 重连后整组重新订阅
		args := make([]subArg, 0, len(entries))
		for _, e := range entries {
			pair := strings.TrimSpace(e.TradingPair)
			if pair == "" {
				continue
			}
			args = append(args, subArg{Channel: "tickers", InstID: pair})
		}
		if len(args) > 0 {
			if b, err := json.Marshal(subReq{Op: "subscribe", Args: args}); err == nil {
				_ = conn.WriteMessage(websocket.TextMessage, b)
			}
		}

		err = stream.ReadLoop(ctx, conn, func(b []byte) {
			for _, u := range ParseTickers(entries, b) {
				if !stream.Send(ctx, out, u) {
					return
				}
			}
		})

		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}

		log.Warn().Str("feed", f.Name()).Err(err).Msg("ws disconnected, reconnecting")
		if !stream.Sleep(ctx, reconnectDelay) {
			return
		}
	}
}

// ParseTickers 解析一条推送，按 instId 回查条目（组很小，线性扫描即可）
// 涨跌幅由 UTC+8 开盘基准价推导；缺基准价按 0 处理
func ParseTickers(entries []domain.Entry, b []byte) []domain.Update {
	var msg tickerMsg
	if err := json.Unmarshal(b, &msg); err != nil {
		log.Debug().Str("feed", domain.SourceOKX).Err(err).Msg("json unmarshal failed")
		return nil
	}
	if len(msg.Data) == 0 {
		return nil
	}

	var updates []domain.Update
	for _, d := range msg.Data {
		var entry *domain.Entry
		for i := range entries {
			if entries[i].TradingPair == d.InstID {
				entry = &entries[i]
				break
			}
		}
		if entry == nil {
			continue
		}

		last, err := strconv.ParseFloat(strings.TrimSpace(d.Last), 64)
		if err != nil {
			continue
		}

		change := 0.0
		if sod, err := strconv.ParseFloat(strings.TrimSpace(d.SodUtc8), 64); err == nil && sod != 0 {
			change = (last - sod) / sod * 100
		}

		ts := time.Now().UnixMilli()
		if n, err := strconv.ParseInt(d.Ts, 10, 64); err == nil {
			ts = n
		}

		updates = append(updates, domain.Update{
			Symbol:        entry.Symbol,
			Price:         domain.F64(last),
			ChangePercent: domain.F64(change),
			Ts:            ts,
		})
	}
	return updates
}
