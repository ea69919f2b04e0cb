package port

import (
	"context"

	"tickboard/internal/domain"
)

// Feed 一个外部行情源
// Subscribe 为给定条目建立连接/轮询，归一化后的更新写入返回的通道；
// 通道在 ctx 取消或连接永久退出后关闭
// 流式源在连接断开后自行按固定延迟重连，轮询源每周期独立重试
type Feed interface {
	Name() string
	Subscribe(ctx context.Context, entries []domain.Entry) (<-chan domain.Update, error)
}

// UpdateSink 更新的去向（update router）
type UpdateSink interface {
	Apply(u domain.Update)
}
