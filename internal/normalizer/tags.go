package normalizer

import (
	"regexp"
	"strings"
)

var tagSeparators = regexp.MustCompile(`[,;|/]`)

// 常见同义标签归一
var tagSynonyms = map[string]string{
	"ai":                      "AI",
	"artificial intelligence": "AI",
	"ml":                      "ML",
	"machine learning":        "ML",
	"ai/ml":                   "AI/ML",
	"blockchain":              "Web3",
	"cryptocurrency":          "Web3",
	"crypto":                  "Web3",
	"smart contracts":         "Web3",
	"defi":                    "Web3",
	"nft":                     "Web3",
	"web3":                    "Web3",
	"healthcare":              "Health",
	"health tech":             "Health",
	"healthtech":              "Health",
	"financial technology":    "FinTech",
	"fintech":                 "FinTech",
	"internet of things":      "IoT",
	"iot":                     "IoT",
	"augmented reality":       "AR/VR",
	"virtual reality":         "AR/VR",
	"ar/vr":                   "AR/VR",
	"open source":             "Open Source",
	"opensource":              "Open Source",
}

// NormalizeTags 标签规范化：保序，忽略大小写去重，常见同义词归一
func NormalizeTags(values ...Value) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(tag string) {
		tag = strings.TrimSpace(cleanText(tag))
		tag = strings.Trim(tag, "#")
		if isBlank(tag) {
			return
		}
		if canonical, ok := tagSynonyms[strings.ToLower(tag)]; ok {
			tag = canonical
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	for _, v := range values {
		collectTags(v, add)
	}
	return out
}

func collectTags(v Value, add func(string)) {
	switch v.Kind() {
	case KindString:
		s, _ := v.Str()
		// "ai/ml"、"ar/vr" 这类整体同义词先按整体匹配
		if _, ok := tagSynonyms[strings.ToLower(strings.TrimSpace(s))]; ok {
			add(s)
			return
		}
		for _, part := range tagSeparators.Split(s, -1) {
			add(part)
		}
	case KindList:
		for _, item := range v.Items() {
			collectTags(item, add)
		}
	case KindObject:
		if name := v.First("name", "title", "label", "tag").Text(); name != "" {
			add(name)
		}
	}
}
