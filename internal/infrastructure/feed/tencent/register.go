package tencent

import (
	"tickboard/internal/application/port"
	"tickboard/internal/domain"
	"tickboard/internal/infrastructure/feed"
)

func init() {
	feed.Register(domain.GroupStock, func(opts feed.Options) port.Feed {
		return NewPoller(opts.RESTURL)
	})
}
