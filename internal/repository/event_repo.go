package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"HackathonSync/internal/model"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrEventNotFound 赛事不存在
var ErrEventNotFound = errors.New("赛事不存在")

// EventFilter 列表筛选条件（均可下推到 SQL；状态只能在查询时计算，不在这里）
type EventFilter struct {
	IDs         []string       // 限定 ID 集合（外部排序器的候选）
	Sources     []model.Source // 来源集合
	Mode        model.Mode     // 举办形式
	Search      string         // 标题/描述/地点/标签全文模糊匹配
	Location    string         // 地点子串
	Tags        []string       // 必须全部包含（不区分大小写）
	ExcludeTags []string       // 包含任一即排除
	HasPrize    *bool          // 是否有现金奖金
	PrizeMin    float64        // 奖金数值下限（原币，未换算）
}

// TagCount 标签计数
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// EventRepository 去重后赛事的存储
type EventRepository interface {
	// ReplaceAll 整体替换去重结果及溯源映射（单事务）
	ReplaceAll(ctx context.Context, events []*model.Event) error
	// List 按条件查询，结果带溯源；分页在状态过滤之后由调用方完成
	List(ctx context.Context, filter EventFilter) ([]*model.Event, error)
	// GetByID 单条查询，带溯源
	GetByID(ctx context.Context, id string) (*model.Event, error)
	// TagCounts 标签出现次数，按次数降序
	TagCounts(ctx context.Context) ([]TagCount, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) ReplaceAll(ctx context.Context, events []*model.Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.EventSourceLink{}).Error; err != nil {
			return fmt.Errorf("清空溯源映射失败: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&model.Event{}).Error; err != nil {
			return fmt.Errorf("清空赛事失败: %w", err)
		}
		if len(events) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(events, 200).Error; err != nil {
			return fmt.Errorf("保存赛事失败: %w", err)
		}

		links := make([]*model.EventSourceLink, 0, len(events))
		for _, e := range events {
			for _, ref := range provenanceOf(e) {
				links = append(links, &model.EventSourceLink{
					EventID:        e.ID,
					SourceRecordID: ref.ID,
					Source:         ref.Source,
				})
			}
		}
		if err := tx.CreateInBatches(links, 500).Error; err != nil {
			return fmt.Errorf("保存溯源映射失败: %w", err)
		}
		return nil
	})
}

func (r *eventRepository) List(ctx context.Context, filter EventFilter) ([]*model.Event, error) {
	db := applyFilter(r.db.WithContext(ctx).Model(&model.Event{}), filter)

	var events []*model.Event
	if err := db.Order("start_date ASC NULLS LAST").Order("id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("查询赛事列表失败: %w", err)
	}
	if err := r.attachProvenance(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// applyFilter 条件下推；ID 集合为非 nil 空切片时结果为空
func applyFilter(db *gorm.DB, f EventFilter) *gorm.DB {
	if f.IDs != nil {
		if len(f.IDs) == 0 {
			return db.Where("1 = 0")
		}
		db = db.Where("id IN ?", f.IDs)
	}
	if len(f.Sources) > 0 {
		// 合并后的赛事按全部来源匹配，与统计口径一致
		linked := db.Session(&gorm.Session{NewDB: true}).
			Model(&model.EventSourceLink{}).
			Select("event_id").
			Where("source IN ?", f.Sources)
		db = db.Where("id IN (?)", linked)
	}
	if f.Mode != "" {
		db = db.Where("location_mode = ?", f.Mode)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := likePattern(s)
		db = db.Where(
			"title ILIKE ? OR description ILIKE ? OR location_raw_text ILIKE ? OR array_to_string(tags, ' ') ILIKE ?",
			like, like, like, like,
		)
	}
	if l := strings.TrimSpace(f.Location); l != "" {
		like := likePattern(l)
		db = db.Where("location_raw_text ILIKE ? OR location_city ILIKE ? OR location_country ILIKE ?", like, like, like)
	}
	for _, tag := range f.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			db = db.Where("EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE lower(t) = ?)", strings.ToLower(tag))
		}
	}
	if excluded := lowerAll(f.ExcludeTags); len(excluded) > 0 {
		db = db.Where("NOT EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE lower(t) = ANY(?))", pq.StringArray(excluded))
	}
	if f.HasPrize != nil {
		if *f.HasPrize {
			db = db.Where("prize_kind = ? AND prize_numeric_value > 0", model.PrizeMonetary)
		} else {
			db = db.Where("NOT (prize_kind = ? AND prize_numeric_value > 0)", model.PrizeMonetary)
		}
	}
	if f.PrizeMin > 0 {
		db = db.Where("prize_kind = ? AND prize_numeric_value >= ?", model.PrizeMonetary, f.PrizeMin)
	}
	return db
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("查询赛事%s失败: %w", id, err)
	}
	events := []*model.Event{&e}
	if err := r.attachProvenance(ctx, events); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepository) TagCounts(ctx context.Context) ([]TagCount, error) {
	var counts []TagCount
	err := r.db.WithContext(ctx).Raw(
		`SELECT t AS tag, COUNT(*) AS count FROM hackathon_events, unnest(tags) AS t GROUP BY t ORDER BY count DESC, tag ASC`,
	).Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("统计标签失败: %w", err)
	}
	return counts, nil
}

// attachProvenance 一次查询补齐所有赛事的来源记录列表
func (r *eventRepository) attachProvenance(ctx context.Context, events []*model.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, 0, len(events))
	byID := make(map[string]*model.Event, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
		byID[e.ID] = e
	}

	var links []*model.EventSourceLink
	if err := r.db.WithContext(ctx).Where("event_id IN ?", ids).Find(&links).Error; err != nil {
		return fmt.Errorf("查询溯源映射失败: %w", err)
	}
	for _, l := range links {
		if e, ok := byID[l.EventID]; ok {
			e.Provenance = append(e.Provenance, model.SourceRef{ID: l.SourceRecordID, Source: l.Source})
		}
	}
	for _, e := range events {
		if len(e.Provenance) == 0 {
			e.Provenance = []model.SourceRef{{ID: e.ID, Source: e.Source}}
			continue
		}
		sort.Slice(e.Provenance, func(i, j int) bool { return e.Provenance[i].ID < e.Provenance[j].ID })
	}
	return nil
}

func provenanceOf(e *model.Event) []model.SourceRef {
	if len(e.Provenance) > 0 {
		return e.Provenance
	}
	return []model.SourceRef{{ID: e.ID, Source: e.Source}}
}

// likePattern 转义 LIKE 通配符后两侧加 %
func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}

func lowerAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToLower(s))
		}
	}
	return out
}
