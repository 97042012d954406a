package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"HackathonSync/internal/currency"
	"HackathonSync/internal/interfaces"
	"HackathonSync/internal/model"
	"HackathonSync/internal/repository"
	"HackathonSync/internal/status"

	"github.com/sirupsen/logrus"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	rankLimit       = 500

	titlePlaceholder = "Untitled"
	tbaPlaceholder   = "TBA"
	prizePlaceholder = "Prize TBD"
)

// SortKey 列表排序方式
type SortKey string

const (
	SortStartDate    SortKey = "start_date"
	SortPrize        SortKey = "prize"
	SortTitle        SortKey = "title"
	SortParticipants SortKey = "participants"
	SortDeadline     SortKey = "deadline"
	SortRelevance    SortKey = "relevance"
)

// ParseSortKey 空串返回默认值（有搜索词时按相关度，否则按开始时间）
func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return "", true
	case SortStartDate, SortPrize, SortTitle, SortParticipants, SortDeadline, SortRelevance:
		return k, true
	}
	return "", false
}

// ListFilter 列表查询条件。Status 在查询时由当前时间计算，不读存储。
type ListFilter struct {
	Sources     []model.Source
	Mode        model.Mode
	Search      string
	Location    string
	Status      status.Status
	Tags        []string
	ExcludeTags []string
	HasPrize    *bool
	PrizeMin    float64
	Page        int
	PageSize    int
}

// PrizeView 奖金展示
type PrizeView struct {
	Display string          `json:"display"`
	Amount  float64         `json:"amount"`
	Symbol  string          `json:"symbol,omitempty"`
	Kind    model.PrizeKind `json:"kind"`
}

// EventView 返回给前端的赛事：状态现算，缺失字段用占位文案
type EventView struct {
	ID                   string            `json:"id"`
	Title                string            `json:"title"`
	Source               model.Source      `json:"source"`
	URL                  string            `json:"url,omitempty"`
	Status               status.Status     `json:"status"`
	StartDate            *time.Time        `json:"start_date,omitempty"`
	EndDate              *time.Time        `json:"end_date,omitempty"`
	RegistrationDeadline *time.Time        `json:"registration_deadline,omitempty"`
	DateDisplay          string            `json:"date_display"`
	Location             model.Location    `json:"location"`
	LocationDisplay      string            `json:"location_display"`
	Prize                PrizeView         `json:"prize"`
	TeamSize             model.TeamSize    `json:"team_size"`
	Tags                 []string          `json:"tags"`
	ParticipantsCount    *int              `json:"participants_count,omitempty"`
	Description          string            `json:"description,omitempty"`
	Organizer            string            `json:"organizer,omitempty"`
	ImageURL             string            `json:"image_url,omitempty"`
	Provenance           []model.SourceRef `json:"provenance"`
	Score                float64           `json:"score,omitempty"`
	Reason               string            `json:"reason,omitempty"`
}

// ListResult 分页结果
type ListResult struct {
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int         `json:"total"`
	Ranked   bool        `json:"ranked"`
	Items    []EventView `json:"items"`
}

// QueryService 读取边界：仓储 → 状态计算 → 过滤/排序/分页 → 展示
type QueryService struct {
	repo       repository.EventRepository
	runs       repository.ScrapeRunRepository
	ranker     interfaces.Ranker
	cache      interfaces.ListCache
	policy     status.Policy
	staleAfter time.Duration
	now        func() time.Time
	logger     *logrus.Logger
}

// QueryOption 构造选项
type QueryOption func(*QueryService)

func WithRanker(r interfaces.Ranker) QueryOption { return func(s *QueryService) { s.ranker = r } }
func WithCache(c interfaces.ListCache) QueryOption { return func(s *QueryService) { s.cache = c } }
func WithQueryClock(now func() time.Time) QueryOption { return func(s *QueryService) { s.now = now } }

// WithStaleAfter 超过该时长未成功抓取的来源标记为过期
func WithStaleAfter(d time.Duration) QueryOption {
	return func(s *QueryService) { s.staleAfter = d }
}

func NewQueryService(repo repository.EventRepository, runs repository.ScrapeRunRepository, policy status.Policy, logger *logrus.Logger, opts ...QueryOption) *QueryService {
	s := &QueryService{
		repo:       repo,
		runs:       runs,
		policy:     policy,
		staleAfter: 6 * time.Hour,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List 按条件查询。状态用本次调用时的当前时间计算，只在本次调用内有效。
func (s *QueryService) List(ctx context.Context, filter ListFilter, sortKey SortKey) (*ListResult, error) {
	repoFilter := repository.EventFilter{
		Sources:     filter.Sources,
		Mode:        filter.Mode,
		Search:      filter.Search,
		Location:    filter.Location,
		Tags:        filter.Tags,
		ExcludeTags: filter.ExcludeTags,
		HasPrize:    filter.HasPrize,
		PrizeMin:    filter.PrizeMin,
	}

	hits := s.rank(ctx, filter.Search)
	ranked := len(hits) > 0
	if ranked {
		repoFilter.Search = ""
		repoFilter.IDs = make([]string, 0, len(hits))
		for id := range hits {
			repoFilter.IDs = append(repoFilter.IDs, id)
		}
		sort.Strings(repoFilter.IDs)
	}

	events, err := s.load(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	type row struct {
		event  *model.Event
		status status.Status
	}
	rows := make([]row, 0, len(events))
	for _, e := range events {
		st := status.Derive(e, now, s.policy)
		if filter.Status != "" && st != filter.Status {
			continue
		}
		rows = append(rows, row{event: e, status: st})
	}

	if sortKey == "" {
		sortKey = SortStartDate
		if ranked {
			sortKey = SortRelevance
		}
	}
	if sortKey == SortRelevance && !ranked {
		sortKey = SortStartDate
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return less(rows[i].event, rows[j].event, sortKey, hits)
	})

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	result := &ListResult{Page: page, PageSize: pageSize, Total: len(rows), Ranked: ranked, Items: []EventView{}}
	start := (page - 1) * pageSize
	if start >= len(rows) {
		return result, nil
	}
	end := start + pageSize
	if end > len(rows) {
		end = len(rows)
	}
	for _, r := range rows[start:end] {
		v := NewEventView(r.event, r.status)
		if h, ok := hits[r.event.ID]; ok {
			v.Score, v.Reason = h.Score, h.Reason
		}
		result.Items = append(result.Items, v)
	}
	return result, nil
}

// Get 单条详情（带溯源）
func (s *QueryService) Get(ctx context.Context, id string) (*EventView, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := NewEventView(e, status.Derive(e, s.now().UTC(), s.policy))
	return &v, nil
}

// rank 外部排序器可用且有搜索词时返回 ID→命中；失败或无结果时退回 SQL 模糊匹配
func (s *QueryService) rank(ctx context.Context, search string) map[string]interfaces.RankedHit {
	search = strings.TrimSpace(search)
	if s.ranker == nil || search == "" {
		return nil
	}
	hits, err := s.ranker.Rank(ctx, search, rankLimit)
	if err != nil {
		s.logger.WithError(err).WithField("query", search).Warn("排序器不可用，退回模糊匹配")
		return nil
	}
	if len(hits) == 0 {
		return nil
	}
	out := make(map[string]interfaces.RankedHit, len(hits))
	for _, h := range hits {
		if _, dup := out[h.ID]; !dup {
			out[h.ID] = h
		}
	}
	return out
}

// load 仓储查询，结果按数据版本缓存（缓存内容不含状态）
func (s *QueryService) load(ctx context.Context, f repository.EventFilter) ([]*model.Event, error) {
	if s.cache == nil {
		return s.repo.List(ctx, f)
	}
	key, err := s.cacheKey(ctx, f)
	if err != nil {
		s.logger.WithError(err).Warn("缓存不可用，直接查询")
		return s.repo.List(ctx, f)
	}

	var cached []*model.Event
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.WithError(err).Warn("读取缓存失败")
	} else if hit {
		return cached, nil
	}

	events, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, events); err != nil {
		s.logger.WithError(err).Warn("写入缓存失败")
	}
	return events, nil
}

func (s *QueryService) cacheKey(ctx context.Context, f repository.EventFilter) (string, error) {
	version, err := s.cache.Version(ctx)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(b)
	return fmt.Sprintf("list:v%d:%s", version, hex.EncodeToString(sum[:])), nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// less 缺失值一律排在最后；相等时按 ID 保证顺序稳定
func less(a, b *model.Event, key SortKey, hits map[string]interfaces.RankedHit) bool {
	switch key {
	case SortRelevance:
		sa, sb := hits[a.ID].Score, hits[b.ID].Score
		if sa != sb {
			return sa > sb
		}
	case SortPrize:
		pa, pb := currency.SortKey(a.PrizePool), currency.SortKey(b.PrizePool)
		if pa != pb {
			return pa > pb
		}
	case SortTitle:
		ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title)
		if (ta == "") != (tb == "") {
			return tb == ""
		}
		if ta != tb {
			return ta < tb
		}
	case SortParticipants:
		if c, ok := compareIntDesc(a.ParticipantsCount, b.ParticipantsCount); ok {
			return c
		}
	case SortDeadline:
		if c, ok := compareTimeAsc(a.RegistrationDeadline, b.RegistrationDeadline); ok {
			return c
		}
	default:
		if c, ok := compareTimeAsc(a.StartDate, b.StartDate); ok {
			return c
		}
	}
	return a.ID < b.ID
}

func compareTimeAsc(a, b *time.Time) (less bool, decided bool) {
	switch {
	case a == nil && b == nil:
		return false, false
	case a == nil:
		return false, true
	case b == nil:
		return true, true
	case !a.Equal(*b):
		return a.Before(*b), true
	}
	return false, false
}

func compareIntDesc(a, b *int) (less bool, decided bool) {
	switch {
	case a == nil && b == nil:
		return false, false
	case a == nil:
		return false, true
	case b == nil:
		return true, true
	case *a != *b:
		return *a > *b, true
	}
	return false, false
}

// NewEventView 组装展示结构；占位文案只在这里出现，存储值保持为空
func NewEventView(e *model.Event, st status.Status) EventView {
	v := EventView{
		ID:                   e.ID,
		Title:                e.Title,
		Source:               e.Source,
		URL:                  e.URL,
		Status:               st,
		StartDate:            e.StartDate,
		EndDate:              e.EndDate,
		RegistrationDeadline: e.RegistrationDeadline,
		DateDisplay:          dateDisplay(e.StartDate, e.EndDate),
		Location:             e.Location,
		LocationDisplay:      locationDisplay(e.Location),
		Prize: PrizeView{
			Display: currency.Format(e.PrizePool),
			Amount:  currency.SortKey(e.PrizePool),
			Symbol:  e.PrizePool.CurrencySymbol,
			Kind:    e.PrizePool.Kind,
		},
		TeamSize:          e.TeamSize,
		Tags:              []string(e.Tags),
		ParticipantsCount: e.ParticipantsCount,
		Description:       e.Description,
		Organizer:         e.Organizer,
		ImageURL:          e.ImageURL,
		Provenance:        e.Provenance,
	}
	if v.Title == "" {
		v.Title = titlePlaceholder
	}
	if v.Prize.Display == "" {
		v.Prize.Display = prizePlaceholder
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	if len(v.Provenance) == 0 {
		v.Provenance = []model.SourceRef{{ID: e.ID, Source: e.Source}}
	}
	return v
}

func dateDisplay(start, end *time.Time) string {
	const layout = "Jan 02, 2006"
	switch {
	case start == nil && end == nil:
		return tbaPlaceholder
	case start == nil:
		return tbaPlaceholder + " - " + end.Format(layout)
	case end == nil || end.Equal(*start):
		return start.Format(layout)
	}
	return start.Format(layout) + " - " + end.Format(layout)
}

func locationDisplay(l model.Location) string {
	if l.RawText != "" {
		return l.RawText
	}
	switch l.Mode {
	case model.ModeOnline:
		return "Online"
	case model.ModeHybrid:
		return "Hybrid"
	}
	return tbaPlaceholder
}
