package normalizer

import (
	"regexp"
	"strings"
	"time"

	"HackathonSync/internal/model"

	"github.com/google/uuid"
)

var (
	eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("hackathon-sync/event"))
	nonAlphaNum    = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// TitleKey 标题比较键：小写、去标点、压缩空白
func TitleKey(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = nonAlphaNum.ReplaceAllString(s, " ")
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// EventID 确定性ID：(source, 原生ID | URL | 标题+开始日期) 的 UUIDv5，同一来源数据重跑得到同一ID
func EventID(source model.Source, nativeID, canonicalURL, title string, start *time.Time) string {
	var key string
	switch {
	case strings.TrimSpace(nativeID) != "":
		key = "native:" + strings.TrimSpace(nativeID)
	case canonicalURL != "":
		key = "url:" + canonicalURL
	default:
		day := "unknown"
		if start != nil {
			day = start.UTC().Format("2006-01-02")
		}
		key = "title:" + TitleKey(title) + "|" + day
	}
	return uuid.NewSHA1(eventNamespace, []byte(string(source)+"|"+key)).String()
}
