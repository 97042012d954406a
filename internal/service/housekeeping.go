package service

import (
	"context"
	"fmt"
	"time"

	"HackathonSync/internal/repository"

	"github.com/sirupsen/logrus"
)

// Rebuilder 重新去重（SyncService 实现）
type Rebuilder interface {
	Rebuild(ctx context.Context) (int, error)
}

// HousekeepingService 清理长期未出现且早已结束的来源记录，然后重建去重结果
type HousekeepingService struct {
	records   repository.SourceRecordRepository
	rebuilder Rebuilder
	retention time.Duration
	now       func() time.Time
	logger    *logrus.Logger
}

// NewHousekeepingService retentionDays <= 0 时用 90 天
func NewHousekeepingService(records repository.SourceRecordRepository, rebuilder Rebuilder, retentionDays int, logger *logrus.Logger) *HousekeepingService {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &HousekeepingService{
		records:   records,
		rebuilder: rebuilder,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
		logger:    logger,
	}
}

// Prune 返回删除的来源记录数；有删除时重建
func (s *HousekeepingService) Prune(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.retention)
	deleted, err := s.records.DeleteStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.logger.WithFields(logrus.Fields{
		"cutoff":  cutoff.Format(time.RFC3339),
		"deleted": deleted,
	}).Info("过期来源记录清理完成")
	if deleted == 0 {
		return 0, nil
	}
	if _, err := s.rebuilder.Rebuild(ctx); err != nil {
		return deleted, fmt.Errorf("清理后重建失败: %w", err)
	}
	return deleted, nil
}
