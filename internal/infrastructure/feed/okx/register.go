package okx

import (
	"tickboard/internal/application/port"
	"tickboard/internal/domain"
	"tickboard/internal/infrastructure/feed"
)

func init() {
	feed.Register(domain.SourceOKX, func(opts feed.Options) port.Feed {
		return NewTickerFeed(opts.WSURL)
	})
}
