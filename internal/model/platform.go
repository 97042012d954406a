package model

import "strings"

// Source 来源平台标识（由抓取适配器给出，不从数据中推断）
type Source string

const (
	SourceDevpost       Source = "devpost"
	SourceDevfolio      Source = "devfolio"
	SourceUnstop        Source = "unstop"
	SourceGeeksforGeeks Source = "geeksforgeeks"
	SourceMLH           Source = "mlh"
	SourceHackerEarth   Source = "hackerearth"
	SourceUnknown       Source = "unknown"
)

// KnownSources 已支持的平台
var KnownSources = []Source{
	SourceDevpost,
	SourceDevfolio,
	SourceUnstop,
	SourceGeeksforGeeks,
	SourceMLH,
	SourceHackerEarth,
}

// ParseSource 不区分大小写解析平台名，兼容展示名（如 "Unstop"、"GeeksForGeeks"）
func ParseSource(s string) (Source, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "", "-", "", "_", "", ".", "").Replace(key)
	switch key {
	case "gfg":
		return SourceGeeksforGeeks, true
	case "majorleaguehacking":
		return SourceMLH, true
	}
	for _, src := range KnownSources {
		if string(src) == key {
			return src, true
		}
	}
	return SourceUnknown, false
}

// RawEvent 单条来源原始记录，Payload 结构随平台不同
type RawEvent struct {
	Source   Source         // 来源平台
	NativeID string         // 平台原生ID（可为空）
	Payload  map[string]any // 平台原生数据（JSON 解码结果）
}
