package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tickboard/internal/application/port"
	"tickboard/internal/domain"
)

// FeedSupervisor watchlist 变更要驱动的连接管理面
type FeedSupervisor interface {
	StartAll(ctx context.Context, lists map[string][]domain.Entry)
	StopAll()
	StartGroup(ctx context.Context, source string, entries []domain.Entry)
	ReplaceOne(ctx context.Context, e domain.Entry)
	Remove(ctx context.Context, e domain.Entry)
}

var (
	ErrEmptySymbol     = errors.New("symbol empty")
	ErrMissingContract = errors.New("contract address required")
	ErrUnknownCategory = errors.New("unknown category")
)

// Watchlist 把"加了一项 / 删了一项 / 刷新"翻译成 supervisor 调用
// 存储校验失败（如重复）返回给调用方；feed 侧从不报错回来
type Watchlist struct {
	store port.WatchlistStore
	sup   FeedSupervisor
}

func NewWatchlist(store port.WatchlistStore, sup FeedSupervisor) *Watchlist {
	return &Watchlist{store: store, sup: sup}
}

// StartAll 从存储读出全部分类并建立连接
func (w *Watchlist) StartAll(ctx context.Context) error {
	lists, err := w.listAll(ctx)
	if err != nil {
		return err
	}
	w.sup.StartAll(ctx, lists)
	return nil
}

// Add 校验并持久化新条目，然后只为它建立连接（组内条目重建该组）
func (w *Watchlist) Add(ctx context.Context, category string, e domain.Entry) error {
	if !validCategory(category) {
		return ErrUnknownCategory
	}
	e.Symbol = strings.TrimSpace(e.Symbol)
	if e.Symbol == "" {
		return ErrEmptySymbol
	}
	if domain.KindOf(e.Source) == domain.KindPollContract && strings.TrimSpace(e.ContractAddress) == "" {
		return ErrMissingContract
	}

	if err := w.store.AddEntry(ctx, category, e); err != nil {
		return fmt.Errorf("add entry: %w", err)
	}
	w.sup.ReplaceOne(ctx, e)
	return nil
}

// Remove 删除条目并摘掉它的连接，其余条目不受影响
func (w *Watchlist) Remove(ctx context.Context, category, symbol string) error {
	entries, err := w.store.ListEntries(ctx, category)
	if err != nil {
		return err
	}
	var target *domain.Entry
	for i := range entries {
		if entries[i].Symbol == symbol {
			target = &entries[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("entry %s/%s not found", category, symbol)
	}

	if err := w.store.RemoveEntry(ctx, category, symbol); err != nil {
		return err
	}
	w.sup.Remove(ctx, *target)
	return nil
}

// Refresh 推倒重来：关停全部连接后按存储现状重建
func (w *Watchlist) Refresh(ctx context.Context) error {
	w.sup.StopAll()
	return w.StartAll(ctx)
}

func (w *Watchlist) listAll(ctx context.Context) (map[string][]domain.Entry, error) {
	lists := make(map[string][]domain.Entry, len(domain.Categories))
	for _, c := range domain.Categories {
		entries, err := w.store.ListEntries(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", c, err)
		}
		lists[c] = entries
	}
	return lists, nil
}

func validCategory(category string) bool {
	for _, c := range domain.Categories {
		if c == category {
			return true
		}
	}
	return false
}
