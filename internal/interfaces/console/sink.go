package console

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"tickboard/internal/domain"
)

// RecordSource 取某个符号合并后的最新记录，由 router 实现
type RecordSource interface {
	Record(symbol string) (domain.Record, bool)
}

// Sink 终端渲染：每次价格变化打印该符号的一行
type Sink struct {
	src RecordSource
	w   io.Writer
}

func NewSink(src RecordSource) *Sink {
	return &Sink{src: src, w: os.Stdout}
}

// Notify 符号变化回调，接 router 的通知钩子
// 还没有记录也照样渲染：白银未配凭证时靠这条路径给出提示
func (s *Sink) Notify(symbol string) {
	rec, _ := s.src.Record(symbol)
	fmt.Fprintln(s.w, RenderLine(symbol, rec))
}

// RenderLine 拼一个符号的展示行
// 无价记录：白银提示补配置（它的价只来自付费接口），其余符号给占位符，
// 已有的折算/涨跌字段照常带上
func RenderLine(symbol string, rec domain.Record) string {
	var b strings.Builder
	b.WriteString(symbol)
	b.WriteString("  ")

	if !rec.HasPrice {
		if symbol == domain.SymbolSilver {
			b.WriteString("-- (configure API)")
			return b.String()
		}
		b.WriteString("--")
		writeExtras(&b, rec)
		return b.String()
	}

	prefix := "$"
	if rec.Equity && !rec.Foreign {
		prefix = "¥"
	}
	b.WriteString(prefix)
	b.WriteString(FormatPrice(rec.Price))
	writeExtras(&b, rec)
	return b.String()
}

func writeExtras(b *strings.Builder, rec domain.Record) {
	if rec.HasConverted {
		b.WriteString("  ¥")
		b.WriteString(FormatPrice(rec.Converted))
		b.WriteString("/克")
	}
	if rec.HasChange {
		b.WriteString("  ")
		if rec.ChangePercent >= 0 {
			b.WriteString("+")
		}
		b.WriteString(strconv.FormatFloat(rec.ChangePercent, 'f', 2, 64))
		b.WriteString("%")
	}
}

// FormatPrice 按量级分档的小数位，大价带千分位
func FormatPrice(p float64) string {
	switch {
	case p >= 1000:
		return group(strconv.FormatFloat(p, 'f', 2, 64))
	case p >= 1:
		return strconv.FormatFloat(p, 'f', 2, 64)
	case p >= 0.01:
		return strconv.FormatFloat(p, 'f', 4, 64)
	case p >= 0.0001:
		return strconv.FormatFloat(p, 'f', 6, 64)
	default:
		return strconv.FormatFloat(p, 'f', 8, 64)
	}
}

// group 整数部分插千分位逗号
func group(s string) string {
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(intPart[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(intPart[i : i+3])
	}
	if frac != "" {
		b.WriteString(".")
		b.WriteString(frac)
	}
	return b.String()
}
