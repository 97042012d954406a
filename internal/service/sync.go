package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"HackathonSync/internal/dedup"
	"HackathonSync/internal/interfaces"
	"HackathonSync/internal/model"
	"HackathonSync/internal/normalizer"
	"HackathonSync/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// AdapterRegistry 按来源取适配器（adapter.SourceRegistry 实现）
type AdapterRegistry interface {
	GetAdapter(source model.Source) (interfaces.SourceAdapter, error)
	ListRegisteredSources() []model.Source
}

// SourceReport 单个来源的抓取结果
type SourceReport struct {
	Source     model.Source `json:"source"`
	Fetched    int          `json:"fetched"`
	Success    bool         `json:"success"`
	Error      string       `json:"error,omitempty"`
	DurationMS int64        `json:"duration_ms"`
}

// SyncReport 一次同步的汇总
type SyncReport struct {
	Sources         []SourceReport `json:"sources"`
	SourceRecords   int            `json:"source_records"`
	CanonicalEvents int            `json:"canonical_events"`
}

// SyncService 抓取 → 规范化 → 保存来源记录 → 全量去重重建
type SyncService struct {
	registry    AdapterRegistry
	normalizer  *normalizer.Normalizer
	dedup       *dedup.Deduplicator
	records     repository.SourceRecordRepository
	runs        repository.ScrapeRunRepository
	events      repository.EventRepository
	cache       interfaces.ListCache
	indexer     interfaces.Indexer
	concurrency int
	now         func() time.Time
	logger      *logrus.Logger

	// 同一时刻只允许一次重建
	rebuildMu sync.Mutex
}

// SyncDeps 构造依赖；Cache、Indexer 可为 nil
type SyncDeps struct {
	Registry    AdapterRegistry
	Normalizer  *normalizer.Normalizer
	Dedup       *dedup.Deduplicator
	Records     repository.SourceRecordRepository
	Runs        repository.ScrapeRunRepository
	Events      repository.EventRepository
	Cache       interfaces.ListCache
	Indexer     interfaces.Indexer
	Concurrency int
	Now         func() time.Time
}

func NewSyncService(deps SyncDeps, logger *logrus.Logger) *SyncService {
	if deps.Concurrency <= 0 {
		deps.Concurrency = 3
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &SyncService{
		registry:    deps.Registry,
		normalizer:  deps.Normalizer,
		dedup:       deps.Dedup,
		records:     deps.Records,
		runs:        deps.Runs,
		events:      deps.Events,
		cache:       deps.Cache,
		indexer:     deps.Indexer,
		concurrency: deps.Concurrency,
		now:         deps.Now,
		logger:      logger,
	}
}

// SyncAll 同步所有已启用来源
func (s *SyncService) SyncAll(ctx context.Context) (*SyncReport, error) {
	return s.SyncSources(ctx, s.registry.ListRegisteredSources()...)
}

// SyncSources 并发抓取指定来源；单个来源失败只记入报告与 scrape_runs，不影响其它来源。
// 至少一个来源成功才会重建去重结果；全部失败时返回错误。
func (s *SyncService) SyncSources(ctx context.Context, sources ...model.Source) (*SyncReport, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("没有可同步的来源")
	}

	reports := make([]SourceReport, len(sources))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, source := range sources {
		g.Go(func() error {
			reports[i] = s.syncSource(ctx, source)
			return nil
		})
	}
	_ = g.Wait()

	report := &SyncReport{Sources: reports}
	succeeded := 0
	for _, r := range reports {
		if r.Success {
			succeeded++
			report.SourceRecords += r.Fetched
		}
	}
	if succeeded == 0 {
		return report, fmt.Errorf("所有来源同步失败（共%d个）", len(sources))
	}

	canonical, err := s.Rebuild(ctx)
	if err != nil {
		return report, err
	}
	report.CanonicalEvents = canonical
	return report, nil
}

func (s *SyncService) syncSource(ctx context.Context, source model.Source) SourceReport {
	started := s.now()
	report := SourceReport{Source: source}
	log := s.logger.WithField("source", source)

	fetched, err := s.fetchAndStore(ctx, source)
	report.DurationMS = s.now().Sub(started).Milliseconds()
	if err != nil {
		report.Error = err.Error()
		log.WithError(err).Error("来源同步失败")
	} else {
		report.Success = true
		report.Fetched = fetched
		log.WithFields(logrus.Fields{"count": fetched, "duration_ms": report.DurationMS}).Info("来源同步完成")
	}

	run := &model.ScrapeRun{
		Source:        source,
		LastScrapedAt: started.UTC(),
		EventCount:    report.Fetched,
		Success:       report.Success,
		Error:         report.Error,
		DurationMS:    report.DurationMS,
	}
	if err := s.runs.Upsert(ctx, run); err != nil {
		log.WithError(err).Warn("保存抓取记录失败")
	}
	return report
}

func (s *SyncService) fetchAndStore(ctx context.Context, source model.Source) (int, error) {
	adapterIns, err := s.registry.GetAdapter(source)
	if err != nil {
		return 0, err
	}
	raws, err := adapterIns.FetchEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s抓取失败: %w", source, err)
	}
	if len(raws) == 0 {
		s.logger.WithField("source", source).Warn("未抓取到任何记录")
		return 0, nil
	}

	seenAt := s.now().UTC()
	records := make([]*model.SourceRecord, 0, len(raws))
	for _, raw := range raws {
		// 来源以适配器为准，不信任 payload
		raw.Source = source
		e := s.normalizer.Normalize(raw)
		rec, err := model.NewSourceRecord(e, raw, seenAt)
		if err != nil {
			s.logger.WithError(err).WithField("event_id", e.ID).Warn("构造来源记录失败，跳过")
			continue
		}
		records = append(records, rec)
	}
	if err := s.records.Upsert(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Rebuild 由全部来源记录重新去重并整体替换赛事表，返回去重后的数量
func (s *SyncService) Rebuild(ctx context.Context) (int, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	records, err := s.records.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	events := make([]*model.Event, 0, len(records))
	for _, rec := range records {
		e, err := rec.Event()
		if err != nil {
			s.logger.WithError(err).WithField("record_id", rec.ID).Warn("来源记录损坏，跳过")
			continue
		}
		events = append(events, e)
	}

	merged := s.dedup.Run(events)
	if err := s.events.ReplaceAll(ctx, merged); err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.WithError(err).Warn("缓存版本更新失败")
		}
	}
	if s.indexer != nil {
		if err := s.indexer.IndexEvents(ctx, SearchDocuments(merged)); err != nil {
			s.logger.WithError(err).Warn("搜索索引更新失败")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"source_records":   len(records),
		"canonical_events": len(merged),
	}).Info("去重结果已重建")
	return len(merged), nil
}

// SearchDocuments 排序器需要的规范化文本字段
func SearchDocuments(events []*model.Event) []interfaces.SearchDocument {
	docs := make([]interfaces.SearchDocument, 0, len(events))
	for _, e := range events {
		docs = append(docs, interfaces.SearchDocument{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			Tags:        []string(e.Tags),
			Location:    e.Location.RawText,
			Source:      string(e.Source),
		})
	}
	return docs
}
