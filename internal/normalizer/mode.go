package normalizer

import (
	"regexp"
	"strings"

	"HackathonSync/internal/model"
)

var (
	onlineWords  = []string{"online", "virtual", "remote", "digital"}
	offlineWords = []string{"offline", "in person", "in-person", "inperson", "onsite", "on-site", "on site", "physical", "venue"}
	hybridWords  = []string{"hybrid", "mixed", "blended"}
	irlWord      = regexp.MustCompile(`(?i)\birl\b`)
)

// NormalizeMode 举办形式规范化；地点文本的 online 判定优先于此结果（见 NormalizeLocation）。
// 布尔值按 is_online 语义解释。
func NormalizeMode(v Value) model.Mode {
	if b, ok := v.BoolVal(); ok {
		if b {
			return model.ModeOnline
		}
		return model.ModeInPerson
	}
	if v.Kind() == KindList {
		for _, item := range v.Items() {
			if m := NormalizeMode(item); m != model.ModeUnknown {
				return m
			}
		}
		return model.ModeUnknown
	}
	return ParseMode(v.Text())
}

// ParseMode 文本形式的举办形式
func ParseMode(text string) model.Mode {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return model.ModeUnknown
	}
	if containsAny(lower, hybridWords) {
		return model.ModeHybrid
	}
	online := containsAny(lower, onlineWords)
	offline := containsAny(lower, offlineWords) || irlWord.MatchString(lower)
	switch {
	case online && offline:
		return model.ModeHybrid
	case online:
		return model.ModeOnline
	case offline:
		return model.ModeInPerson
	}
	return model.ModeUnknown
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
