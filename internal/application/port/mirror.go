package port

import (
	"context"

	"tickboard/internal/domain"
)

// PriceMirror 最新价的外部镜像（可选，如 Redis）
// 镜像失败不影响内存价格表
type PriceMirror interface {
	UpsertLatest(ctx context.Context, symbol string, r domain.Record) error
}
