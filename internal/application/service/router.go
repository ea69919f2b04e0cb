package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"tickboard/internal/application/port"
	"tickboard/internal/domain"
)

// Notifier 渲染回调：某个符号的价格表刚被成功写入
type Notifier func(symbol string)

// Router 共享价格表的唯一持有者
// 所有适配器的更新经由 Apply 合并写入，写入后触发渲染回调，
// 并（可选）镜像到外部最新价存储
type Router struct {
	mu    sync.RWMutex
	table map[string]domain.Record

	notify Notifier
	mirror port.PriceMirror
	ctx    context.Context
}

func NewRouter(ctx context.Context, notify Notifier, mirror port.PriceMirror) *Router {
	if notify == nil {
		notify = func(string) {}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &Router{
		table:  make(map[string]domain.Record),
		notify: notify,
		mirror: mirror,
		ctx:    ctx,
	}
}

// Apply 合并一次部分更新（首次写入时创建记录），然后通知渲染层
// 数值不做有限性校验，按来源原样写入
func (r *Router) Apply(u domain.Update) {
	if u.Symbol == "" {
		return
	}

	r.mu.Lock()
	rec := r.table[u.Symbol]
	rec.Apply(u)
	r.table[u.Symbol] = rec
	r.mu.Unlock()

	r.notify(u.Symbol)

	if r.mirror != nil {
		if err := r.mirror.UpsertLatest(r.ctx, u.Symbol, rec); err != nil {
			log.Debug().Err(err).Str("symbol", u.Symbol).Msg("price mirror write failed")
		}
	}
}

// Record 读取某个符号的最新记录
func (r *Router) Record(symbol string) (domain.Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.table[symbol]
	return rec, ok
}

// Snapshot 价格表的一份拷贝
func (r *Router) Snapshot() map[string]domain.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]domain.Record, len(r.table))
	for k, v := range r.table {
		out[k] = v
	}
	return out
}

var _ port.UpdateSink = (*Router)(nil)
