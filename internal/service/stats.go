package service

import (
	"context"
	"time"

	"HackathonSync/internal/model"
	"HackathonSync/internal/repository"
	"HackathonSync/internal/status"
)

// Stats 汇总统计，按状态的计数用当前时间现算
type Stats struct {
	Total     int                   `json:"total"`
	BySource  map[model.Source]int  `json:"by_source"`
	ByMode    map[model.Mode]int    `json:"by_mode"`
	ByStatus  map[status.Status]int `json:"by_status"`
	WithPrize int                   `json:"with_prize"`
}

// SourceFreshness 来源最近一次抓取情况
type SourceFreshness struct {
	Source        model.Source `json:"source"`
	LastScrapedAt time.Time    `json:"last_scraped_at"`
	EventCount    int          `json:"event_count"`
	Success       bool         `json:"success"`
	Error         string       `json:"error,omitempty"`
	DurationMS    int64        `json:"duration_ms"`
	Stale         bool         `json:"stale"`
}

func (s *QueryService) Stats(ctx context.Context) (*Stats, error) {
	events, err := s.load(ctx, repository.EventFilter{})
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	st := &Stats{
		Total:    len(events),
		BySource: make(map[model.Source]int),
		ByMode:   make(map[model.Mode]int),
		ByStatus: make(map[status.Status]int),
	}
	for _, e := range events {
		// 合并后的赛事按其全部来源计数
		seen := make(map[model.Source]bool)
		for _, ref := range e.Provenance {
			if !seen[ref.Source] {
				seen[ref.Source] = true
				st.BySource[ref.Source]++
			}
		}
		if len(seen) == 0 {
			st.BySource[e.Source]++
		}
		mode := e.Location.Mode
		if mode == "" {
			mode = model.ModeUnknown
		}
		st.ByMode[mode]++
		st.ByStatus[status.Derive(e, now, s.policy)]++
		if e.PrizePool.Kind == model.PrizeMonetary && e.PrizePool.NumericValue > 0 {
			st.WithPrize++
		}
	}
	return st, nil
}

// Tags 标签计数
func (s *QueryService) Tags(ctx context.Context) ([]repository.TagCount, error) {
	counts, err := s.repo.TagCounts(ctx)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []repository.TagCount{}
	}
	return counts, nil
}

// Sources 各来源抓取新鲜度；最近抓取早于 staleAfter 或最近一次失败的视为过期
func (s *QueryService) Sources(ctx context.Context) ([]SourceFreshness, error) {
	runs, err := s.runs.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	out := make([]SourceFreshness, 0, len(runs))
	for _, r := range runs {
		out = append(out, SourceFreshness{
			Source:        r.Source,
			LastScrapedAt: r.LastScrapedAt,
			EventCount:    r.EventCount,
			Success:       r.Success,
			Error:         r.Error,
			DurationMS:    r.DurationMS,
			Stale:         !r.Success || now.Sub(r.LastScrapedAt) > s.staleAfter,
		})
	}
	return out, nil
}
