package currency

import (
	"strings"

	"HackathonSync/internal/model"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// 每种符号按其常用地区分组（₹ 用印度分组 1,00,000）
var symbolLocales = map[string]language.Tag{
	"₹": language.MustParse("en-IN"),
	"£": language.BritishEnglish,
	"€": language.German,
	"¥": language.Japanese,
	"$": language.AmericanEnglish,
}

// Format 奖金展示文本：货币符号始终取自来源，绝不替换；数字按该符号的地区分组，无符号时原样返回展示文本。
// 非现金奖励原样返回展示文本，未知返回空串（由展示层显示占位文案）。
func Format(p model.PrizePool) string {
	switch p.Kind {
	case model.PrizeMonetary:
		if p.NumericValue <= 0 {
			return p.DisplayText
		}
		// 币种写成代码或 "Rs." 时没有符号，原文是唯一保留币种的地方
		if p.CurrencySymbol == "" && p.DisplayText != "" {
			return p.DisplayText
		}
		return FormatAmount(p.CurrencySymbol, p.NumericValue)
	case model.PrizeZero:
		if p.CurrencySymbol != "" {
			return p.CurrencySymbol + "0"
		}
		return p.DisplayText
	case model.PrizeNonCash:
		return p.DisplayText
	}
	return ""
}

// FormatAmount 带符号的分组金额；symbol 为空时按 en-US 分组且不加符号
func FormatAmount(symbol string, value float64) string {
	tag, ok := symbolLocales[symbol]
	if !ok {
		tag = language.AmericanEnglish
	}
	printer := message.NewPrinter(tag)
	digits := printer.Sprint(number.Decimal(value, number.MaxFractionDigits(2)))
	return symbol + strings.TrimSpace(digits)
}

// SortKey 排序用数值：未换算的原币金额，非现金/未知为 0。
// 不同币种之间的排序只是近似。
func SortKey(p model.PrizePool) float64 {
	if p.Kind != model.PrizeMonetary {
		return 0
	}
	return p.NumericValue
}

// HasPrize 是否有可比较的现金奖金
func HasPrize(p model.PrizePool) bool {
	return p.Kind == model.PrizeMonetary && p.NumericValue > 0
}
