package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"HackathonSync/internal/interfaces"
	"HackathonSync/internal/model"
	"HackathonSync/internal/repository"

	"github.com/stretchr/testify/mock"
)

type mockEventRepo struct{ mock.Mock }

func (m *mockEventRepo) ReplaceAll(ctx context.Context, events []*model.Event) error {
	return m.Called(ctx, events).Error(0)
}

func (m *mockEventRepo) List(ctx context.Context, f repository.EventFilter) ([]*model.Event, error) {
	args := m.Called(ctx, f)
	events, _ := args.Get(0).([]*model.Event)
	return events, args.Error(1)
}

func (m *mockEventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*model.Event)
	return e, args.Error(1)
}

func (m *mockEventRepo) TagCounts(ctx context.Context) ([]repository.TagCount, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).([]repository.TagCount)
	return counts, args.Error(1)
}

type mockRunRepo struct{ mock.Mock }

func (m *mockRunRepo) Upsert(ctx context.Context, run *model.ScrapeRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *mockRunRepo) List(ctx context.Context) ([]*model.ScrapeRun, error) {
	args := m.Called(ctx)
	runs, _ := args.Get(0).([]*model.ScrapeRun)
	return runs, args.Error(1)
}

type mockRanker struct{ mock.Mock }

func (m *mockRanker) Rank(ctx context.Context, query string, limit int) ([]interfaces.RankedHit, error) {
	args := m.Called(ctx, query, limit)
	hits, _ := args.Get(0).([]interfaces.RankedHit)
	return hits, args.Error(1)
}

type mockIndexer struct{ mock.Mock }

func (m *mockIndexer) IndexEvents(ctx context.Context, docs []interfaces.SearchDocument) error {
	return m.Called(ctx, docs).Error(0)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value any) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockCache) Version(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCache) Bump(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockRebuilder struct{ mock.Mock }

func (m *mockRebuilder) Rebuild(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// memoryRecords 内存版来源记录仓储，保留 first_seen_at 语义
type memoryRecords struct {
	mu      sync.Mutex
	records map[string]*model.SourceRecord
	cutoffs []time.Time
	deleted int64
}

func newMemoryRecords() *memoryRecords {
	return &memoryRecords{records: make(map[string]*model.SourceRecord)}
}

func (m *memoryRecords) Upsert(_ context.Context, records []*model.SourceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		cp := *r
		if old, ok := m.records[r.ID]; ok {
			cp.FirstSeenAt = old.FirstSeenAt
		}
		m.records[r.ID] = &cp
	}
	return nil
}

func (m *memoryRecords) ListAll(context.Context) ([]*model.SourceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.SourceRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRecords) DeleteStale(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs = append(m.cutoffs, cutoff)
	return m.deleted, nil
}

type stubAdapter struct {
	source model.Source
	raws   []*model.RawEvent
	err    error
}

func (s *stubAdapter) GetSource() model.Source { return s.source }

func (s *stubAdapter) FetchEvents(context.Context) ([]*model.RawEvent, error) {
	return s.raws, s.err
}
