package repository

import (
	"context"
	"fmt"

	"HackathonSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScrapeRunRepository 各来源最近一次抓取的元数据
type ScrapeRunRepository interface {
	Upsert(ctx context.Context, run *model.ScrapeRun) error
	List(ctx context.Context) ([]*model.ScrapeRun, error)
}

type scrapeRunRepository struct {
	db *gorm.DB
}

func NewScrapeRunRepository(db *gorm.DB) ScrapeRunRepository {
	return &scrapeRunRepository{db: db}
}

func (r *scrapeRunRepository) Upsert(ctx context.Context, run *model.ScrapeRun) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_scraped_at", "event_count", "success", "error", "duration_ms"}),
	}).Create(run).Error
	if err != nil {
		return fmt.Errorf("保存抓取记录失败: %w", err)
	}
	return nil
}

func (r *scrapeRunRepository) List(ctx context.Context) ([]*model.ScrapeRun, error) {
	var runs []*model.ScrapeRun
	if err := r.db.WithContext(ctx).Order("source ASC").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("查询抓取记录失败: %w", err)
	}
	return runs, nil
}
