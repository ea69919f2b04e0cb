package bitget

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

// TickerFeed Bitget 现货 ticker 频道，整组共享一条连接
type TickerFeed struct {
	wsURL string // e.g. wss://ws.bitget.com/v2/ws/public
}

func NewTickerFeed(wsURL string) *TickerFeed {
	return &TickerFeed{wsURL: strings.TrimSpace(wsURL)}
}

func (f *TickerFeed) Name() string { return domain.SourceBitget }

type subReq struct {
	Op   string   `json:"op"`
	Args []subArg `json:"args"`
}

type subArg struct {
	InstType string `json:"instType"`
	Channel  string `json:"channel"`
	InstID   string `json:"instId"`
}

type tickerMsg struct {
	Action string       `json:"action"`
	Data   []tickerData `json:"data,omitempty"`
}

type tickerData struct {
	InstID       string `json:"instId"`
	LastPr       string `json:"lastPr"`
	ChangeUtc24h string `json:"changeUtc24h"`
	Ts           string `json:"ts"`
}

func (f *TickerFeed) Subscribe(ctx context.Context, entries []domain.Entry) (<-chan domain.Update, error) {
	if f.wsURL == "" {
		return nil, errors.New("bitget wsURL empty")
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

		args := make([]subArg, 0, len(entries))
		for _, e := range entries {
			pair := strings.TrimSpace(e.TradingPair)
			if pair == "" {
				continue
			}
			args = append(args, subArg{InstType: "SPOT", Channel: "ticker", InstID: pair})
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

// ParseTickers 解析一条推送
// changeUtc24h 是小数比例，乘 100 换算成百分比；缺失按 0
func ParseTickers(entries []domain.Entry, b []byte) []domain.Update {
	var msg tickerMsg
	if err := json.Unmarshal(b, &msg); err != nil {
		log.Debug().Str("feed", domain.SourceBitget).Err(err).Msg("json unmarshal failed")
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

		last, err := strconv.ParseFloat(strings.TrimSpace(d.LastPr), 64)
		if err != nil {
			continue
		}

		change := 0.0
		if frac, err := strconv.ParseFloat(strings.TrimSpace(d.ChangeUtc24h), 64); err == nil {
			change = frac * 100
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
