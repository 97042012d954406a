package normalizer

import (
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"

	"HackathonSync/internal/model"
)

// CurrencySymbols 可识别的货币符号
var CurrencySymbols = []string{"$", "€", "£", "¥", "₹"}

var (
	htmlTag = regexp.MustCompile(`<[^>]*>`)
	// <符号><数字（可带分组）><可选量级后缀>
	symbolAmount = regexp.MustCompile(`([$€£¥₹])\s*(\d[\d,.]*\d|\d)\s*(k|m|mn|lakhs?|lacs?|crores?|cr)?\b`)
	// ISO 代码/卢比写法：USD 5,000 / 5,000 INR / Rs. 50,000
	codeAmount = regexp.MustCompile(`(?i)(?:\b(usd|inr|eur|gbp|jpy|rs\.?)\s*(\d[\d,.]*\d|\d)\s*(k|m|lakhs?|lacs?|crores?|cr)?\b|(\d[\d,.]*\d|\d)\s*(k|m|lakhs?|lacs?|crores?|cr)?\s*(usd|inr|eur|gbp|jpy)\b)`)
	plainAmount = regexp.MustCompile(`^\d[\d,.]*$`)
)

var magnitudeSuffix = map[string]float64{
	"k": 1e3, "m": 1e6, "mn": 1e6,
	"lakh": 1e5, "lakhs": 1e5, "lac": 1e5, "lacs": 1e5,
	"crore": 1e7, "crores": 1e7, "cr": 1e7,
}

// NormalizePrize 奖金规范化：展示文本保留来源原文与符号，从不替换或补全货币。
// 分类：monetary（符号或币种代码+数字，以及纯数字）、zero（数值为 0）、non-cash（无金额的非空文本）、unknown（空）。
// 币种代码与纯数字不推断符号，CurrencySymbol 留空，展示时用原文。
func NormalizePrize(v Value) model.PrizePool {
	switch v.Kind() {
	case KindNumber:
		f, _ := v.Num()
		return prizeFromNumber(f, strconv.FormatFloat(f, 'f', -1, 64))
	case KindString:
		s, _ := v.Str()
		return prizeFromText(s)
	case KindObject:
		// {"amount": 5000, "currency": "$"} 之类的结构
		amount := v.First("amount", "value", "cash", "total")
		symbol := currencyFromHint(v.First("currency", "currency_symbol", "symbol").Text())
		if f, ok := amount.Num(); ok && symbol != "" {
			return prizeFromText(symbol + strconv.FormatFloat(f, 'f', -1, 64))
		}
		if !amount.IsAbsent() {
			return NormalizePrize(amount)
		}
		return NormalizePrize(v.First("display", "text", "title", "name"))
	case KindList:
		for _, item := range v.Items() {
			if p := NormalizePrize(item); p.Kind != model.PrizeUnknown {
				return p
			}
		}
	}
	return model.PrizePool{Kind: model.PrizeUnknown}
}

func prizeFromNumber(f float64, display string) model.PrizePool {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return model.PrizePool{Kind: model.PrizeUnknown}
	}
	if f == 0 {
		return model.PrizePool{DisplayText: display, Kind: model.PrizeZero}
	}
	return model.PrizePool{DisplayText: display, NumericValue: f, Kind: model.PrizeMonetary}
}

func prizeFromText(raw string) model.PrizePool {
	text := cleanText(raw)
	if isBlank(text) {
		return model.PrizePool{Kind: model.PrizeUnknown}
	}
	if m := symbolAmount.FindStringSubmatch(strings.ToLower(text)); m != nil {
		value := parseAmount(m[2], m[3])
		p := model.PrizePool{DisplayText: text, CurrencySymbol: m[1], NumericValue: value, Kind: model.PrizeMonetary}
		if value == 0 {
			p.Kind = model.PrizeZero
			p.NumericValue = 0
		}
		return p
	}
	if m := codeAmount.FindStringSubmatch(text); m != nil {
		digits, suffix := m[2], m[3]
		if digits == "" {
			digits, suffix = m[4], m[5]
		}
		value := parseAmount(digits, strings.ToLower(suffix))
		if value == 0 {
			return model.PrizePool{DisplayText: text, Kind: model.PrizeZero}
		}
		return model.PrizePool{DisplayText: text, NumericValue: value, Kind: model.PrizeMonetary}
	}
	if plainAmount.MatchString(text) {
		return prizeFromNumber(parseAmount(text, ""), text)
	}
	return model.PrizePool{DisplayText: text, Kind: model.PrizeNonCash}
}

// parseAmount 去掉分组符后解析；单个点号后恰好三位数字时视为千分位（如 €10.000）
func parseAmount(digits, suffix string) float64 {
	s := strings.ReplaceAll(strings.TrimSpace(digits), " ", "")
	s = strings.ReplaceAll(s, ",", "")
	if strings.Count(s, ".") > 1 {
		s = strings.ReplaceAll(s, ".", "")
	} else if i := strings.Index(s, "."); i >= 0 && len(s)-i-1 == 3 && suffix == "" {
		s = s[:i] + s[i+1:]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if mult, ok := magnitudeSuffix[suffix]; ok {
		f *= mult
	}
	return f
}

func currencyFromHint(hint string) string {
	h := strings.ToLower(strings.TrimSpace(hint))
	for _, sym := range CurrencySymbols {
		if strings.Contains(h, sym) {
			return sym
		}
	}
	switch {
	case strings.Contains(h, "rupee"), h == "inr":
		return "₹"
	case strings.Contains(h, "dollar"), h == "usd":
		return "$"
	case strings.Contains(h, "euro"), h == "eur":
		return "€"
	case strings.Contains(h, "pound"), h == "gbp":
		return "£"
	case strings.Contains(h, "yen"), h == "jpy":
		return "¥"
	}
	return ""
}

// cleanText 去 HTML 标签与实体、压缩空白
func cleanText(s string) string {
	s = htmlTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
