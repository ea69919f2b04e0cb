package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"tickboard/internal/application/port"
	"tickboard/internal/domain"
)

type Repo struct {
	rdb       *redis.Client
	prefix    string
	ttl       time.Duration
	keyLatest string // prefix + ":latest"
	pubChan   string
}

type latestRecord struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price,omitempty"`
	ChangePercent float64 `json:"changePercent,omitempty"`
	Converted     float64 `json:"converted,omitempty"`
	Ts            int64   `json:"ts"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration, pubChan string) *Repo {
	if strings.TrimSpace(pubChan) == "" {
		pubChan = prefix + ":updates:pub"
	}
	return &Repo{
		rdb:       rdb,
		prefix:    prefix,
		ttl:       ttl,
		keyLatest: prefix + ":latest",
		pubChan:   pubChan,
	}
}

// UpsertLatest 镜像合并后的最新价到 Hash，并广播给订阅者
func (r *Repo) UpsertLatest(ctx context.Context, symbol string, rec domain.Record) error {
	if !rec.HasPrice && !rec.HasChange && !rec.HasConverted {
		return nil
	}
	lr := latestRecord{Symbol: symbol, Ts: rec.Ts}
	if rec.HasPrice {
		lr.Price = rec.Price
	}
	if rec.HasChange {
		lr.ChangePercent = rec.ChangePercent
	}
	if rec.HasConverted {
		lr.Converted = rec.Converted
	}
	b, _ := json.Marshal(lr)

	// Hash: field = "BTCUSDT" -> json
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyLatest, symbol, string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	pipe.Publish(ctx, r.pubChan, string(b))
	_, err := pipe.Exec(ctx)
	return err
}

var _ port.PriceMirror = (*Repo)(nil)
