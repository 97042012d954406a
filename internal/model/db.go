package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// SourceRecord 去重前的单条来源记录：保存规范化结果与原始 payload，便于增量同步后整体重算去重
type SourceRecord struct {
	ID          string         `gorm:"column:id;type:varchar(36);primaryKey;comment:规范化阶段生成的确定性ID"`
	Source      Source         `gorm:"column:source;type:varchar(32);not null;index;comment:来源平台"`
	NativeID    string         `gorm:"column:native_id;type:varchar(128);comment:平台原生ID"`
	Record      datatypes.JSON `gorm:"column:record;type:jsonb;not null;comment:规范化后的赛事"`
	Raw         datatypes.JSON `gorm:"column:raw;type:jsonb;comment:原始payload"`
	FirstSeenAt time.Time      `gorm:"column:first_seen_at;type:timestamptz;not null;comment:首次抓取时间"`
	LastSeenAt  time.Time      `gorm:"column:last_seen_at;type:timestamptz;not null;index;comment:最近一次在来源列表中出现的时间"`
}

// ScrapeRun 每个来源最近一次抓取的元数据
type ScrapeRun struct {
	Source        Source    `gorm:"column:source;type:varchar(32);primaryKey;comment:来源平台"`
	LastScrapedAt time.Time `gorm:"column:last_scraped_at;type:timestamptz;not null;comment:最近抓取时间"`
	EventCount    int       `gorm:"column:event_count;type:int;default:0;comment:抓取条数"`
	Success       bool      `gorm:"column:success;type:boolean;default:false;comment:是否成功"`
	Error         string    `gorm:"column:error;type:text;comment:失败原因"`
	DurationMS    int64     `gorm:"column:duration_ms;type:bigint;default:0;comment:耗时（毫秒）"`
}

func (SourceRecord) TableName() string { return "source_records" }
func (ScrapeRun) TableName() string    { return "scrape_runs" }

// NewSourceRecord 由规范化结果与原始 payload 构造来源记录
func NewSourceRecord(e *Event, raw *RawEvent, seenAt time.Time) (*SourceRecord, error) {
	record, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("序列化赛事失败: %w", err)
	}
	var rawJSON datatypes.JSON
	if raw != nil && raw.Payload != nil {
		b, err := json.Marshal(raw.Payload)
		if err != nil {
			return nil, fmt.Errorf("序列化原始payload失败: %w", err)
		}
		rawJSON = b
	}
	nativeID := ""
	if raw != nil {
		nativeID = raw.NativeID
	}
	return &SourceRecord{
		ID:          e.ID,
		Source:      e.Source,
		NativeID:    nativeID,
		Record:      record,
		Raw:         rawJSON,
		FirstSeenAt: seenAt,
		LastSeenAt:  seenAt,
	}, nil
}

// Event 反序列化规范化结果
func (r *SourceRecord) Event() (*Event, error) {
	var e Event
	if err := json.Unmarshal(r.Record, &e); err != nil {
		return nil, fmt.Errorf("解析来源记录%s失败: %w", r.ID, err)
	}
	if len(e.Provenance) == 0 {
		e.Provenance = []SourceRef{{ID: e.ID, Source: e.Source}}
	}
	return &e, nil
}
