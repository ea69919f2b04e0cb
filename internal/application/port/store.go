package port

import (
	"context"

	"tickboard/internal/domain"
)

// WatchlistStore watchlist 的持久化存储
// 核心只在启动/刷新时读取，增删由 watchlist service 触发
type WatchlistStore interface {
	ListEntries(ctx context.Context, category string) ([]domain.Entry, error)
	AddEntry(ctx context.Context, category string, e domain.Entry) error
	RemoveEntry(ctx context.Context, category, symbol string) error

	// SeedDefaults 首次启动写入内置默认项，已存在则跳过
	SeedDefaults(ctx context.Context) error

	// 配置同步用的整体导出/导入
	ExportJSON(ctx context.Context) ([]byte, error)
	ImportJSON(ctx context.Context, blob []byte) error

	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error

	Close() error
}
