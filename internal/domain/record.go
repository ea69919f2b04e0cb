package domain

// Record 某个符号最近一次已知的市场状态
// 在首次成功更新前不存在；之后只通过 Apply 合并写入
type Record struct {
	Price         float64
	ChangePercent float64
	Converted     float64 // 换算价（如黄金的人民币克价）

	HasPrice     bool
	HasChange    bool
	HasConverted bool

	// 仅影响展示格式
	Equity  bool // 股票 vs 加密
	Foreign bool // 境外市场（美股等）

	Ts int64 // unix ms，最后一次写入时间
}

// Update 一次部分写入：适配器只携带自己算出的字段
// nil 字段在合并时保持原值不变（金属双源场景依赖这一点）
type Update struct {
	Symbol        string
	Price         *float64
	ChangePercent *float64
	Converted     *float64

	Equity  bool
	Foreign bool

	Epoch uint64 // 产生该更新的连接代数，由 supervisor 填充与校验
	Ts    int64  // unix ms
}

// Apply 将部分更新合并进记录，只覆盖更新携带的字段
func (r *Record) Apply(u Update) {
	if u.Price != nil {
		r.Price = *u.Price
		r.HasPrice = true
	}
	if u.ChangePercent != nil {
		r.ChangePercent = *u.ChangePercent
		r.HasChange = true
	}
	if u.Converted != nil {
		r.Converted = *u.Converted
		r.HasConverted = true
	}
	if u.Equity {
		r.Equity = true
		r.Foreign = u.Foreign
	}
	if u.Ts != 0 {
		r.Ts = u.Ts
	}
}

// F64 便捷构造 Update 的指针字段
func F64(v float64) *float64 { return &v }
