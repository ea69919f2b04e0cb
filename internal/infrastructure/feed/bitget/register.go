package bitget

import (
	"tickboard/internal/application/port"
	"tickboard/internal/domain"
	"tickboard/internal/infrastructure/feed"
)

func init() {
	feed.Register(domain.SourceBitget, func(opts feed.Options) port.Feed {
		return NewTickerFeed(opts.WSURL)
	})
}
