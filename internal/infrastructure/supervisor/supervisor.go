package supervisor

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"tickboard/internal/application/port"
	"tickboard/internal/domain"
)

// handle 一条存活的连接资源：单符号流、整组流或轮询循环
// epoch 单调递增；关停后迟到的更新凭 epoch 被拒绝
type handle struct {
	key     string
	group   string
	kind    domain.FeedKind
	epoch   uint64
	entries []domain.Entry
	cancel  context.CancelFunc
}

// Supervisor "当前有哪些连接存活"的唯一事实源
// 键规则：单符号流用 symbol，其余用来源分组标签；
// 任一时刻每个键至多一条存活 handle，重建前必先关停旧的
type Supervisor struct {
	mu      sync.Mutex
	feeds   map[string]port.Feed
	sink    port.UpdateSink
	handles map[string]*handle
	epoch   uint64
}

func New(feeds map[string]port.Feed, sink port.UpdateSink) *Supervisor {
	return &Supervisor{
		feeds:   feeds,
		sink:    sink,
		handles: make(map[string]*handle),
	}
}

// StartAll 按来源分组建立全部连接，未知来源静默丢弃
func (s *Supervisor) StartAll(ctx context.Context, lists map[string][]domain.Entry) {
	type groupState struct {
		source  string
		entries []domain.Entry
	}
	groups := make(map[string]*groupState)
	var singles []domain.Entry

	for _, category := range domain.Categories {
		for _, e := range lists[category] {
			switch domain.KindOf(e.Source) {
			case domain.KindUnknown:
				log.Debug().Str("symbol", e.Symbol).Str("source", e.Source).Msg("unrecognized source, dropped")
			case domain.KindStreamSingle:
				singles = append(singles, e)
			default:
				g := domain.GroupOf(e.Source)
				gs := groups[g]
				if gs == nil {
					gs = &groupState{source: e.Source}
					groups[g] = gs
				}
				gs.entries = append(gs.entries, e)
			}
		}
	}

	for _, e := range singles {
		s.start(ctx, e.Symbol, domain.GroupOf(e.Source), domain.KindOf(e.Source), []domain.Entry{e})
	}
	for g, gs := range groups {
		s.start(ctx, g, g, domain.KindOf(gs.source), gs.entries)
	}
}

// StartGroup 为单一来源建立（或重建）整组连接
func (s *Supervisor) StartGroup(ctx context.Context, source string, entries []domain.Entry) {
	kind := domain.KindOf(source)
	if kind == domain.KindUnknown {
		log.Debug().Str("source", source).Msg("unrecognized source, dropped")
		return
	}
	if kind == domain.KindStreamSingle {
		for _, e := range entries {
			s.start(ctx, e.Symbol, domain.GroupOf(source), kind, []domain.Entry{e})
		}
		return
	}
	s.start(ctx, domain.GroupOf(source), domain.GroupOf(source), kind, entries)
}

// ReplaceOne 替换一个条目的连接：先关停同键旧 handle 再新建
// 组内条目则携带新条目重建整组
func (s *Supervisor) ReplaceOne(ctx context.Context, e domain.Entry) {
	kind := domain.KindOf(e.Source)
	switch kind {
	case domain.KindUnknown:
		log.Debug().Str("symbol", e.Symbol).Str("source", e.Source).Msg("unrecognized source, dropped")
		return
	case domain.KindStreamSingle:
		s.start(ctx, e.Symbol, domain.GroupOf(e.Source), kind, []domain.Entry{e})
		return
	}

	key := domain.GroupOf(e.Source)
	entries := s.groupEntries(key)
	replaced := false
	for i := range entries {
		if entries[i].Symbol == e.Symbol {
			entries[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, e)
	}
	s.start(ctx, key, key, kind, entries)
}

// Remove 摘除一个条目：单符号流直接关停，组内条目重建去掉它的组
func (s *Supervisor) Remove(ctx context.Context, e domain.Entry) {
	kind := domain.KindOf(e.Source)
	switch kind {
	case domain.KindUnknown:
		return
	case domain.KindStreamSingle:
		s.stop(e.Symbol)
		return
	}

	key := domain.GroupOf(e.Source)
	entries := s.groupEntries(key)
	kept := entries[:0]
	for _, cur := range entries {
		if cur.Symbol != e.Symbol {
			kept = append(kept, cur)
		}
	}
	if len(kept) == 0 {
		s.stop(key)
		return
	}
	s.start(ctx, key, key, kind, kept)
}

// StopAll 关停所有连接并清空 handle 表，可重复调用
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.handles {
		h.cancel()
	}
	s.handles = make(map[string]*handle)
}

// LiveKeys 当前存活 handle 的键
func (s *Supervisor) LiveKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.handles))
	for k := range s.handles {
		keys = append(keys, k)
	}
	return keys
}

func (s *Supervisor) start(ctx context.Context, key, group string, kind domain.FeedKind, entries []domain.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	feed := s.feeds[group]
	if feed == nil {
		log.Debug().Str("group", group).Msg("no feed registered for group, dropped")
		return
	}

	if old := s.handles[key]; old != nil {
		old.cancel()
		delete(s.handles, key)
	}

	s.epoch++
	cctx, cancel := context.WithCancel(ctx)
	h := &handle{
		key:     key,
		group:   group,
		kind:    kind,
		epoch:   s.epoch,
		entries: entries,
		cancel:  cancel,
	}

	ch, err := feed.Subscribe(cctx, entries)
	if err != nil {
		log.Error().Err(err).Str("feed", feed.Name()).Str("key", key).Msg("subscribe failed")
		cancel()
		return
	}

	s.handles[key] = h
	go s.consume(cctx, key, h.epoch, ch)
}

func (s *Supervisor) stop(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h := s.handles[key]; h != nil {
		h.cancel()
		delete(s.handles, key)
	}
}

func (s *Supervisor) groupEntries(key string) []domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.handles[key]
	if h == nil {
		return nil
	}
	out := make([]domain.Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (s *Supervisor) isCurrent(key string, epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.handles[key]
	return h != nil && h.epoch == epoch
}

// consume 将 feed 的更新转发给 router
// 每次转发前校验代数：被替换的 handle 在途的更新到此为止
func (s *Supervisor) consume(ctx context.Context, key string, epoch uint64, ch <-chan domain.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-ch:
			if !ok {
				return
			}
			if !s.isCurrent(key, epoch) {
				return
			}
			u.Epoch = epoch
			s.sink.Apply(u)
		}
	}
}
