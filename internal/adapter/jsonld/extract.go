package jsonld

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"
)

var ldScript = regexp.MustCompile(`(?is)<script[^>]*type\s*=\s*["']?application/ld\+json["']?[^>]*>(.*?)</script>`)

// ExtractEvents 提取页面中所有 schema.org Event（含 @graph、ItemList 包裹的）。
// 单个脚本块 JSON 损坏时跳过该块。
func ExtractEvents(page string) []map[string]any {
	var events []map[string]any
	for _, m := range ldScript.FindAllStringSubmatch(page, -1) {
		body := strings.TrimSpace(m[1])
		body = strings.TrimPrefix(body, "<!--")
		body = strings.TrimSuffix(body, "-->")
		var doc any
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			// 部分站点会对脚本内容做 HTML 转义
			if err := json.Unmarshal([]byte(html.UnescapeString(body)), &doc); err != nil {
				continue
			}
		}
		collect(doc, &events)
	}
	return events
}

func collect(node any, out *[]map[string]any) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			collect(item, out)
		}
	case map[string]any:
		if isEvent(v["@type"]) {
			*out = append(*out, v)
			return
		}
		if graph, ok := v["@graph"]; ok {
			collect(graph, out)
		}
		if list, ok := v["itemListElement"]; ok {
			collect(list, out)
		}
		// ListItem: {"@type": "ListItem", "item": {...}}
		if item, ok := v["item"]; ok {
			collect(item, out)
		}
	}
}

// isEvent Event 及其子类型（Hackathon、EducationEvent 等）
func isEvent(t any) bool {
	switch v := t.(type) {
	case string:
		v = strings.TrimPrefix(strings.TrimPrefix(v, "https://schema.org/"), "http://schema.org/")
		return strings.HasSuffix(v, "Event") || strings.EqualFold(v, "Hackathon")
	case []any:
		for _, item := range v {
			if isEvent(item) {
				return true
			}
		}
	}
	return false
}
