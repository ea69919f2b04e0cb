package feed

import (
	"github.com/rs/zerolog/log"

	"tickboard/internal/application/port"
)

// Options 构造 feed 所需的外部地址与凭证
type Options struct {
	WSURL   string // 流式源的 WebSocket 地址
	RESTURL string // 轮询源的 REST 基地址
	APIBase string // 金属源的付费接口基地址
	APIKey  string // 金属源的可选凭证
}

// Factory 按来源标签构造 feed
type Factory func(opts Options) port.Feed

// registry maps source tags to their feed factories
var registry = make(map[string]Factory)

// Register 注册来源标签对应的 factory，由各 feed 包的 init() 自注册
func Register(source string, factory Factory) {
	if factory == nil {
		log.Warn().Str("source", source).Msg("invalid feed factory")
		return
	}
	if _, exists := registry[source]; exists {
		log.Warn().Str("source", source).Msg("feed factory already registered, overwriting")
	}
	registry[source] = factory
	log.Debug().Str("source", source).Msg("feed factory registered")
}

// Get 取已注册的 factory
func Get(source string) (Factory, bool) {
	factory, ok := registry[source]
	return factory, ok
}
