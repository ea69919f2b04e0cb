package domain

import "strings"

// 分类（watchlist 的 tab）
const (
	CategoryCrypto = "crypto"
	CategoryAlpha  = "alpha"
	CategoryMeme   = "meme"
	CategoryStock  = "stock"
	CategoryMetal  = "metal"
)

// Categories 全部分类，按展示顺序
var Categories = []string{CategoryCrypto, CategoryAlpha, CategoryMeme, CategoryStock, CategoryMetal}

// 数据源标签
const (
	SourceBinance = "binance"
	SourceOKX     = "okx"
	SourceBitget  = "bitget"
	SourceMEXC    = "mexc"
	SourceAlpha   = "alpha"
	SourceMeme    = "meme"
	SourceCN      = "cn"
	SourceHK      = "hk"
	SourceUS      = "us"
	SourceMetal   = "metal"

	// GroupStock cn/hk/us 三个市场共用的分组键
	GroupStock = "stock"
)

// 金属面板的固定符号；白银依赖付费接口凭证
const (
	SymbolGold   = "XAUUSD"
	SymbolSilver = "XAGUSD"
)

// Entry 一条用户配置的观察项
// symbol 在分类内唯一；分类+symbol 全局唯一
// 不做原地修改：编辑 = 删除 + 新增
type Entry struct {
	Symbol          string `json:"symbol"`
	Name            string `json:"name"`
	Icon            string `json:"icon,omitempty"`
	Source          string `json:"source"`
	TradingPair     string `json:"tradingPair,omitempty"`
	Network         string `json:"network,omitempty"`
	ContractAddress string `json:"contractAddress,omitempty"`
	Note            string `json:"note,omitempty"`
	TokenID         string `json:"tokenId,omitempty"`
}

// FeedKind 数据源接入方式，封闭集合
// 调度处全部用穷举 switch，未知来源静默丢弃
type FeedKind int

const (
	KindUnknown        FeedKind = iota
	KindStreamSingle            // 每个符号一条长连接 (binance)
	KindStreamGroup             // 整组共享一条长连接 (okx, bitget)
	KindPollExchange            // 交易所 REST，每项每周期一次 (mexc)
	KindPollAggregator          // 聚合榜单，每周期拉一次全量再匹配 (alpha)
	KindPollContract            // 按合约地址轮询 (meme)
	KindPollSnapshot            // 行情快照文本协议 (cn/hk/us 股票)
	KindMetals                  // 金属双源轮询
)

// KindOf 返回来源标签对应的接入方式
func KindOf(source string) FeedKind {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case SourceBinance:
		return KindStreamSingle
	case SourceOKX, SourceBitget:
		return KindStreamGroup
	case SourceMEXC:
		return KindPollExchange
	case SourceAlpha:
		return KindPollAggregator
	case SourceMeme:
		return KindPollContract
	case SourceCN, SourceHK, SourceUS:
		return KindPollSnapshot
	case SourceMetal:
		return KindMetals
	default:
		return KindUnknown
	}
}

// GroupOf 返回 supervisor 分组键对应的 feed 标签
// 股票三个市场共用一个快照 feed，其余来源各自成组
func GroupOf(source string) string {
	switch KindOf(source) {
	case KindPollSnapshot:
		return GroupStock
	case KindUnknown:
		return ""
	default:
		return strings.ToLower(strings.TrimSpace(source))
	}
}

// 内置默认项，首次启动时写入 watchlist 存储
var (
	DefaultCrypto = []Entry{
		{Symbol: "BTCUSDT", Name: "BTC", Icon: "₿", Source: SourceBinance, TradingPair: "BTCUSDT"},
		{Symbol: "ETHUSDT", Name: "ETH", Icon: "Ξ", Source: SourceBinance, TradingPair: "ETHUSDT"},
		{Symbol: "SOLUSDT", Name: "SOL", Icon: "◎", Source: SourceBinance, TradingPair: "SOLUSDT"},
		{Symbol: "BNBUSDT", Name: "BNB", Icon: "🔶", Source: SourceBinance, TradingPair: "BNBUSDT"},
		{Symbol: "XRPUSDT", Name: "XRP", Icon: "✕", Source: SourceBinance, TradingPair: "XRPUSDT"},
		{Symbol: "ADAUSDT", Name: "ADA", Icon: "₳", Source: SourceBinance, TradingPair: "ADAUSDT"},
	}

	DefaultStocks = []Entry{
		{Symbol: "sh000001", Name: "上证指数", Icon: "📊", Source: SourceCN, TradingPair: "sh000001"},
		{Symbol: "usIXIC", Name: "纳斯达克", Icon: "📈", Source: SourceUS, TradingPair: "usIXIC"},
	}

	DefaultMetals = []Entry{
		{Symbol: SymbolGold, Name: "黄金", Icon: "🥇", Source: SourceMetal, TradingPair: SymbolGold},
		{Symbol: SymbolSilver, Name: "白银", Icon: "🥈", Source: SourceMetal, TradingPair: SymbolSilver},
	}
)

// DefaultsFor 返回分类的内置默认项
func DefaultsFor(category string) []Entry {
	switch category {
	case CategoryCrypto:
		return DefaultCrypto
	case CategoryStock:
		return DefaultStocks
	case CategoryMetal:
		return DefaultMetals
	default:
		return nil
	}
}
