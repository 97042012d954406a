package adapter

import (
	"context"
	"strconv"

	"HackathonSync/internal/model"

	"github.com/sirupsen/logrus"
)

// PageFunc 抓取第 page 页（从 1 开始），返回本页记录与是否还有下一页
type PageFunc func(ctx context.Context, page int) (items []map[string]any, more bool, err error)

// FetchPages 顺序翻页直到没有下一页或达到 maxPages。
// 第一页失败返回错误；后续页失败只记日志并返回已抓到的部分。
func FetchPages(ctx context.Context, source model.Source, maxPages int, logger *logrus.Logger, fetch PageFunc) ([]map[string]any, error) {
	if maxPages <= 0 {
		maxPages = 1
	}
	var all []map[string]any
	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		items, more, err := fetch(ctx, page)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			logger.WithError(err).WithFields(logrus.Fields{
				"source": source,
				"page":   page,
			}).Warn("翻页抓取失败，返回已获取部分")
			break
		}
		all = append(all, items...)
		if !more || len(items) == 0 {
			break
		}
	}
	return all, nil
}

// ToRawEvents 把 payload 列表包装为 RawEvent；idKey 给出原生 ID 所在字段
func ToRawEvents(source model.Source, items []map[string]any, idKey string) []*model.RawEvent {
	raws := make([]*model.RawEvent, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		raws = append(raws, &model.RawEvent{
			Source:   source,
			NativeID: StringField(item, idKey),
			Payload:  item,
		})
	}
	return raws
}

// StringField 取字段的字符串形式（数字 ID 也转成字符串）
func StringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return formatInt(int64(v))
		}
	case int:
		return formatInt(int64(v))
	case int64:
		return formatInt(v)
	}
	return ""
}

// Objects 把 JSON 解码出的 []any 过滤为对象列表
func Objects(v any) []map[string]any {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
