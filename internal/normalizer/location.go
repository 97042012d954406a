package normalizer

import (
	"regexp"
	"strings"

	"HackathonSync/internal/model"
)

var (
	// 形如 "{'icon': 'globe', 'location': 'Online'}" 的序列化字典（单引号，非 JSON）
	dictKeyPattern = regexp.MustCompile(`['"](location|name|city|address|venue|state|country)['"]\s*:`)
	dictPairs      = regexp.MustCompile(`['"]([A-Za-z_@][\w@]*)['"]\s*:\s*(?:'((?:[^'\\]|\\.)*)'|"((?:[^"\\]|\\.)*)"|(None|null|True|False|true|false|-?\d+(?:\.\d+)?))`)
)

// 不参与地点兜底提取的字段
var locationSkipKeys = map[string]struct{}{
	"icon": {}, "type": {}, "@type": {}, "id": {}, "url": {}, "image": {}, "logo": {},
	"slug": {}, "lat": {}, "lng": {}, "latitude": {}, "longitude": {}, "postalcode": {},
	"zip": {}, "pincode": {}, "timezone": {},
}

var countryAliases = map[string]string{
	"usa":                      "United States",
	"us":                       "United States",
	"u.s.a.":                   "United States",
	"united states of america": "United States",
	"uk":                       "United Kingdom",
	"u.k.":                     "United Kingdom",
	"great britain":            "United Kingdom",
	"uae":                      "United Arab Emirates",
}

type locationParts struct {
	text    string
	city    string
	state   string
	country string
}

// NormalizeLocation 地点规范化。
// 提取优先级：location > name > city(+state+country) > 其余字段中第一个像地点的字符串。
// 地点文本含 online/virtual/remote 时 mode 一律为 online，覆盖来源给出的 explicit 标签。
func NormalizeLocation(v Value, explicit model.Mode) model.Location {
	parts := extractLocation(v)
	text := strings.TrimSpace(parts.text)
	lower := strings.ToLower(text)

	loc := model.Location{RawText: text, Mode: model.ModeUnknown}
	switch {
	case hasOnlineEvidence(lower):
		loc.Mode = model.ModeOnline
	case strings.Contains(lower, "hybrid"):
		loc.Mode = model.ModeHybrid
	case explicit != "" && explicit != model.ModeUnknown:
		loc.Mode = explicit
	case text != "":
		loc.Mode = model.ModeInPerson
	}
	if loc.Mode == model.ModeOnline {
		return loc
	}

	loc.City = strings.TrimSpace(parts.city)
	loc.Country = canonicalCountry(parts.country)
	if loc.City == "" && loc.Country == "" && text != "" {
		segments := splitLocation(text)
		if len(segments) >= 2 {
			loc.City = segments[0]
			loc.Country = canonicalCountry(segments[len(segments)-1])
		}
	}
	return loc
}

func hasOnlineEvidence(lower string) bool {
	return strings.Contains(lower, "online") || strings.Contains(lower, "virtual") || strings.Contains(lower, "remote")
}

func extractLocation(v Value) locationParts {
	switch v.Kind() {
	case KindString:
		s, _ := v.Str()
		s = strings.TrimSpace(s)
		if isBlank(s) {
			return locationParts{}
		}
		if looksLikeDict(s) {
			// 序列化字典解析不出可用值时宁可为空，也不把原始文本当地点
			return extractLocationObject(parseLooseDict(s))
		}
		return locationParts{text: spaces.ReplaceAllString(s, " ")}
	case KindObject:
		return extractLocationObject(v)
	case KindList:
		for _, item := range v.Items() {
			if p := extractLocation(item); p.text != "" {
				return p
			}
		}
	}
	return locationParts{}
}

func extractLocationObject(v Value) locationParts {
	if v.Kind() != KindObject {
		return locationParts{}
	}
	city := firstText(v, "city", "addressLocality", "locality")
	state := firstText(v, "state", "addressRegion", "region_name")
	country := countryText(v.First("country", "addressCountry", "country_name"))
	if addr := v.Field("address"); addr.Kind() == KindObject {
		// JSON-LD: {"name": "MIT", "address": {"addressLocality": "Cambridge", ...}}
		p := extractLocationObject(addr)
		city, state, country = orElse(city, p.city), orElse(state, p.state), orElse(country, p.country)
	}

	if inner := v.Field("location"); !inner.IsAbsent() {
		if p := extractLocation(inner); p.text != "" {
			return fillParts(p, city, state, country)
		}
	}
	if name := v.Field("name").Text(); name != "" {
		return fillParts(locationParts{text: name}, city, state, country)
	}
	if joined := joinNonEmpty(city, state, country); joined != "" {
		return locationParts{text: joined, city: city, state: state, country: country}
	}
	if addr := v.First("address", "venue"); !addr.IsAbsent() {
		if p := extractLocation(addr); p.text != "" {
			return p
		}
	}
	for _, key := range v.Keys() {
		if _, skip := locationSkipKeys[strings.ToLower(key)]; skip {
			continue
		}
		s, ok := v.Field(key).Str()
		if ok && plausibleLocation(s) {
			return locationParts{text: strings.TrimSpace(s)}
		}
	}
	return locationParts{}
}

func fillParts(p locationParts, city, state, country string) locationParts {
	if p.city == "" {
		p.city = city
	}
	if p.state == "" {
		p.state = state
	}
	if p.country == "" {
		p.country = country
	}
	return p
}

func orElse(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func countryText(v Value) string {
	if v.Kind() == KindObject {
		return v.First("name", "code").Text()
	}
	return v.Text()
}

func firstText(v Value, keys ...string) string {
	for _, k := range keys {
		if s := v.Field(k).Text(); s != "" {
			return s
		}
	}
	return ""
}

func plausibleLocation(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 || isBlank(s) {
		return false
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http") || strings.HasPrefix(lower, "//") {
		return false
	}
	return strings.IndexFunc(s, isLetter) >= 0
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127
}

func looksLikeDict(s string) bool {
	return strings.HasPrefix(s, "{") && dictKeyPattern.MatchString(s)
}

// parseLooseDict 宽松解析单引号字典，只取标量字段，嵌套结构忽略
func parseLooseDict(s string) Value {
	obj := make(map[string]any)
	for _, m := range dictPairs.FindAllStringSubmatch(s, -1) {
		key := m[1]
		if _, exists := obj[key]; exists {
			continue
		}
		switch {
		case m[2] != "":
			obj[key] = strings.ReplaceAll(m[2], `\'`, `'`)
		case m[3] != "":
			obj[key] = strings.ReplaceAll(m[3], `\"`, `"`)
		}
	}
	return FromAny(obj)
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func splitLocation(text string) []string {
	var out []string
	for _, seg := range strings.Split(text, ",") {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func canonicalCountry(country string) string {
	country = strings.TrimSpace(country)
	if alias, ok := countryAliases[strings.ToLower(country)]; ok {
		return alias
	}
	return country
}
