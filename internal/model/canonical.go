package model

import (
	"time"

	"github.com/lib/pq"
)

// Mode 举办形式
type Mode string

const (
	ModeOnline   Mode = "online"
	ModeInPerson Mode = "in-person"
	ModeHybrid   Mode = "hybrid"
	ModeUnknown  Mode = "unknown"
)

// PrizeKind 奖金分类
type PrizeKind string

const (
	PrizeMonetary PrizeKind = "monetary"
	PrizeZero     PrizeKind = "zero"
	PrizeNonCash  PrizeKind = "non-cash"
	PrizeUnknown  PrizeKind = "unknown"
)

// Location 规范化地点，mode 为 online 时 city/country 为空
type Location struct {
	RawText string `gorm:"column:raw_text;type:varchar(512)" json:"raw_text,omitempty"`
	City    string `gorm:"column:city;type:varchar(128)" json:"city,omitempty"`
	Country string `gorm:"column:country;type:varchar(128)" json:"country,omitempty"`
	Mode    Mode   `gorm:"column:mode;type:varchar(16);default:unknown;index" json:"mode"`
}

// PrizePool 奖金：展示文本保留来源原文与货币符号，数值只用于排序/筛选
type PrizePool struct {
	DisplayText    string    `gorm:"column:display_text;type:varchar(512)" json:"display_text,omitempty"`
	NumericValue   float64   `gorm:"column:numeric_value;type:numeric(18,2);default:0" json:"numeric_value"`
	CurrencySymbol string    `gorm:"column:currency_symbol;type:varchar(8)" json:"currency_symbol,omitempty"`
	Kind           PrizeKind `gorm:"column:kind;type:varchar(16);default:unknown" json:"kind"`
}

// TeamSize 队伍人数范围，两端都有值时 min <= max
type TeamSize struct {
	Min *int `gorm:"column:min" json:"min,omitempty"`
	Max *int `gorm:"column:max" json:"max,omitempty"`
}

// IsZero 两端均未知
func (t TeamSize) IsZero() bool { return t.Min == nil && t.Max == nil }

// SourceRef 合并前的单条来源记录
type SourceRef struct {
	ID     string `json:"id"`
	Source Source `json:"source"`
}

// Event 规范化赛事。规范化阶段每条来源记录一条，去重后每个真实赛事一条。
// 状态（upcoming/ongoing/ended）只在查询时计算，不落库。
type Event struct {
	ID                   string         `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Title                string         `gorm:"column:title;type:varchar(512)" json:"title,omitempty"`
	Source               Source         `gorm:"column:source;type:varchar(32);not null;index" json:"source"`
	URL                  string         `gorm:"column:url;type:varchar(1024)" json:"url,omitempty"`
	StartDate            *time.Time     `gorm:"column:start_date;type:timestamptz;index" json:"start_date,omitempty"`
	EndDate              *time.Time     `gorm:"column:end_date;type:timestamptz" json:"end_date,omitempty"`
	RegistrationDeadline *time.Time     `gorm:"column:registration_deadline;type:timestamptz" json:"registration_deadline,omitempty"`
	Location             Location       `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	PrizePool            PrizePool      `gorm:"embedded;embeddedPrefix:prize_" json:"prize_pool"`
	TeamSize             TeamSize       `gorm:"embedded;embeddedPrefix:team_size_" json:"team_size"`
	Tags                 pq.StringArray `gorm:"column:tags;type:text[]" json:"tags,omitempty"`
	ParticipantsCount    *int           `gorm:"column:participants_count" json:"participants_count,omitempty"`
	Description          string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Organizer            string         `gorm:"column:organizer;type:varchar(256)" json:"organizer,omitempty"`
	ImageURL             string         `gorm:"column:image_url;type:varchar(1024)" json:"image_url,omitempty"`
	Provenance           []SourceRef    `gorm:"-" json:"provenance,omitempty"`
	CreatedAt            time.Time      `gorm:"column:created_at;type:timestamptz;default:now()" json:"-"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;type:timestamptz;default:now()" json:"-"`
}

func (Event) TableName() string { return "hackathon_events" }

// EventSourceLink 合并赛事与来源记录的映射（溯源）
type EventSourceLink struct {
	ID             uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	EventID        string `gorm:"column:event_id;type:varchar(36);not null;index;uniqueIndex:uq_event_record"`
	SourceRecordID string `gorm:"column:source_record_id;type:varchar(36);not null;uniqueIndex:uq_event_record"`
	Source         Source `gorm:"column:source;type:varchar(32);not null;index"`
}

func (EventSourceLink) TableName() string { return "event_source_links" }
