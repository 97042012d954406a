package repository

import (
	"context"
	"fmt"
	"time"

	"HackathonSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SourceRecordRepository 去重前的来源记录（每次同步增量 upsert，去重总是基于全量重算）
type SourceRecordRepository interface {
	// Upsert 按 ID 插入或更新，first_seen_at 保留首次值
	Upsert(ctx context.Context, records []*model.SourceRecord) error
	// ListAll 全部来源记录
	ListAll(ctx context.Context) ([]*model.SourceRecord, error)
	// DeleteStale 删除 cutoff 之前未再出现、且结束（无结束取开始）时间也早于 cutoff 的记录
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type sourceRecordRepository struct {
	db *gorm.DB
}

func NewSourceRecordRepository(db *gorm.DB) SourceRecordRepository {
	return &sourceRecordRepository{db: db}
}

func (r *sourceRecordRepository) Upsert(ctx context.Context, records []*model.SourceRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"native_id", "record", "raw", "last_seen_at"}),
	}).CreateInBatches(dedupeByID(records), 200).Error
	if err != nil {
		return fmt.Errorf("保存来源记录失败: %w", err)
	}
	return nil
}

// dedupeByID 同一批次里重复 ID 会让 ON CONFLICT 报错，保留最后一条
func dedupeByID(records []*model.SourceRecord) []*model.SourceRecord {
	seen := make(map[string]int, len(records))
	out := make([]*model.SourceRecord, 0, len(records))
	for _, rec := range records {
		if i, ok := seen[rec.ID]; ok {
			out[i] = rec
			continue
		}
		seen[rec.ID] = len(out)
		out = append(out, rec)
	}
	return out
}

func (r *sourceRecordRepository) ListAll(ctx context.Context) ([]*model.SourceRecord, error) {
	var records []*model.SourceRecord
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("查询来源记录失败: %w", err)
	}
	return records, nil
}

func (r *sourceRecordRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("last_seen_at < ?", cutoff).
		Where("COALESCE((record->>'end_date')::timestamptz, (record->>'start_date')::timestamptz, last_seen_at) < ?", cutoff).
		Delete(&model.SourceRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("清理过期来源记录失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}
