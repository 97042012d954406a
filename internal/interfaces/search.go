package interfaces

import "context"

// RankedHit 排序结果：事件 ID、得分与可选的命中说明
type RankedHit struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

// SearchDocument 交给排序器索引的规范化文本字段
type SearchDocument struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Location    string   `json:"location,omitempty"`
	Source      string   `json:"source"`
}

// Ranker 外部排序器（词法或语义）：输入查询文本，返回按相关度排序的候选
type Ranker interface {
	Rank(ctx context.Context, query string, limit int) ([]RankedHit, error)
}

// Indexer 维护排序器索引
type Indexer interface {
	IndexEvents(ctx context.Context, docs []SearchDocument) error
}

// ListCache 查询结果缓存（只缓存仓储层结果，状态永远现算）
type ListCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Version(ctx context.Context) (int64, error)
	Bump(ctx context.Context) error
}
