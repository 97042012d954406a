package normalizer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date 日期规范化结果，Known=false 即 "unknown"
type Date struct {
	Time     time.Time
	Known    bool
	Strategy string // 命中的解析策略：iso/epoch/text/range/month-day
}

// Ptr 未知时返回 nil
func (d Date) Ptr() *time.Time {
	if !d.Known {
		return nil
	}
	t := d.Time
	return &t
}

const epochMillisThreshold = 1e11

var dateFloor = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// ISO-8601 严格格式，无时区的按 UTC
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"20060102",
}

// 常见自然语言格式，顺序即优先级（月/日/年优先于日/月/年）
var textLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2 Jan, 2006",
	"Monday, January 2, 2006",
	"Mon, Jan 2, 2006",
	"Mon, 02 Jan 2006",
	time.RFC1123,
	time.RFC1123Z,
	"January 2, 2006 3:04 PM",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006, 3:04 PM",
	"2 Jan 2006 15:04",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"02.01.2006",
	"02-01-2006",
}

// 无年份格式，年份取自参考时间
var monthDayLayouts = []string{
	"January 2",
	"Jan 2",
	"2 January",
	"2 Jan",
}

var (
	ordinalSuffix = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)
	spaces        = regexp.MustCompile(`\s+`)
	epochDigits   = regexp.MustCompile(`^\d{6,}(\.\d+)?$`)
	// "Feb 15 - Feb 17, 2026" / "Feb 15 - 17, 2026" / "Dec 28, 2025 - Jan 3, 2026"
	monthFirstRange = regexp.MustCompile(`(?i)^([a-z]{3,9})\.?\s+(\d{1,2})(?:,?\s+(\d{4}))?\s*(?:-|–|—|to)\s*(?:([a-z]{3,9})\.?\s+)?(\d{1,2}),?\s+(\d{4})$`)
	// "15 - 17 Feb 2026" / "28 Dec - 3 Jan 2026"
	dayFirstRange = regexp.MustCompile(`(?i)^(\d{1,2})(?:\s+([a-z]{3,9})\.?)?\s*(?:-|–|—|to)\s*(\d{1,2})\s+([a-z]{3,9})\.?,?\s+(\d{4})$`)
)

var monthPrefixes = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// NormalizeDate 日期规范化：ISO 严格 → 时间戳（按量级区分秒/毫秒）→ 常见文本格式 → 日期区间取起点 → 无年份月日。
// 结果超出 [2000-01-01, now+10y] 视为误解析，返回 unknown。
func NormalizeDate(v Value, now time.Time) Date {
	switch v.Kind() {
	case KindNumber:
		f, _ := v.Num()
		return checkRange(fromEpoch(f), now)
	case KindString:
		s, _ := v.Str()
		return normalizeDateString(s, now)
	case KindObject:
		// {"$date": ...} / {"start": ...} 之类的包装
		if inner := v.First("$date", "date", "start", "starts_at", "value"); !inner.IsAbsent() && inner.Kind() != KindObject {
			return NormalizeDate(inner, now)
		}
	}
	return Date{}
}

// NormalizeDateRange 解析 "Feb 15 - Feb 17, 2026" 类区间文本，非区间输入时 end 为 unknown
func NormalizeDateRange(v Value, now time.Time) (start, end Date) {
	s, ok := v.Str()
	if !ok {
		return NormalizeDate(v, now), Date{}
	}
	if st, en, ok := parseRange(cleanDateText(s)); ok {
		return checkRange(st, now), checkRange(en, now)
	}
	return NormalizeDate(v, now), Date{}
}

func normalizeDateString(raw string, now time.Time) Date {
	s := strings.TrimSpace(raw)
	if isBlank(s) {
		return Date{}
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return checkRange(Date{Time: t.UTC(), Known: true, Strategy: "iso"}, now)
		}
	}
	if epochDigits.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err == nil {
			return checkRange(fromEpoch(f), now)
		}
	}
	cleaned := cleanDateText(s)
	for _, layout := range textLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return checkRange(Date{Time: t.UTC(), Known: true, Strategy: "text"}, now)
		}
	}
	if st, _, ok := parseRange(cleaned); ok {
		return checkRange(st, now)
	}
	for _, layout := range monthDayLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			d := time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return checkRange(Date{Time: d, Known: true, Strategy: "month-day"}, now)
		}
	}
	return Date{}
}

func fromEpoch(f float64) Date {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return Date{}
	}
	var t time.Time
	if f < epochMillisThreshold {
		sec, frac := math.Modf(f)
		t = time.Unix(int64(sec), int64(frac*1e9))
	} else {
		t = time.UnixMilli(int64(f))
	}
	return Date{Time: t.UTC(), Known: true, Strategy: "epoch"}
}

func checkRange(d Date, now time.Time) Date {
	if !d.Known {
		return d
	}
	if d.Time.Before(dateFloor) || d.Time.After(now.AddDate(10, 0, 0)) {
		return Date{}
	}
	return d
}

func cleanDateText(s string) string {
	s = strings.TrimSpace(s)
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, "Sept ", "Sep ")
	s = strings.ReplaceAll(s, "sept ", "sep ")
	return spaces.ReplaceAllString(s, " ")
}

func parseRange(s string) (start, end Date, ok bool) {
	if m := monthFirstRange.FindStringSubmatch(s); m != nil {
		startMonth, ok1 := parseMonth(m[1])
		endMonth := startMonth
		if m[4] != "" {
			var ok2 bool
			if endMonth, ok2 = parseMonth(m[4]); !ok2 {
				return Date{}, Date{}, false
			}
		}
		if !ok1 {
			return Date{}, Date{}, false
		}
		startDay, _ := strconv.Atoi(m[2])
		endDay, _ := strconv.Atoi(m[5])
		endYear, _ := strconv.Atoi(m[6])
		startYear := endYear
		if m[3] != "" {
			startYear, _ = strconv.Atoi(m[3])
		} else if startMonth > endMonth {
			startYear = endYear - 1
		}
		return buildRange(startYear, startMonth, startDay, endYear, endMonth, endDay)
	}
	if m := dayFirstRange.FindStringSubmatch(s); m != nil {
		endMonth, ok1 := parseMonth(m[4])
		if !ok1 {
			return Date{}, Date{}, false
		}
		startMonth := endMonth
		if m[2] != "" {
			var ok2 bool
			if startMonth, ok2 = parseMonth(m[2]); !ok2 {
				return Date{}, Date{}, false
			}
		}
		startDay, _ := strconv.Atoi(m[1])
		endDay, _ := strconv.Atoi(m[3])
		endYear, _ := strconv.Atoi(m[5])
		startYear := endYear
		if startMonth > endMonth {
			startYear = endYear - 1
		}
		return buildRange(startYear, startMonth, startDay, endYear, endMonth, endDay)
	}
	return Date{}, Date{}, false
}

func buildRange(sy int, sm time.Month, sd int, ey int, em time.Month, ed int) (Date, Date, bool) {
	if !validDay(sy, sm, sd) || !validDay(ey, em, ed) {
		return Date{}, Date{}, false
	}
	start := Date{Time: time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC), Known: true, Strategy: "range"}
	end := Date{Time: time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC), Known: true, Strategy: "range"}
	return start, end, true
}

func validDay(y int, m time.Month, d int) bool {
	if d < 1 || d > 31 {
		return false
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Day() == d
}

func parseMonth(name string) (time.Month, bool) {
	name = strings.ToLower(strings.TrimSuffix(name, "."))
	if len(name) < 3 {
		return 0, false
	}
	m, ok := monthPrefixes[name[:3]]
	return m, ok
}
