package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"HackathonSync/internal/interfaces"
	"HackathonSync/internal/model"
	"HackathonSync/internal/repository"
	"HackathonSync/internal/status"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var queryNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func intp(n int) *int { return &n }

// fixtureEvents 相对 queryNow：past 已结束，live 进行中，soon 未开始，open 已过结束但报名未截止，blank 无任何字段
func fixtureEvents() []*model.Event {
	return []*model.Event{
		{ID: "past", Title: "Winter Hack", Source: model.SourceDevpost, StartDate: at(2026, 1, 5), EndDate: at(2026, 1, 7),
			PrizePool: model.PrizePool{DisplayText: "$5,000", NumericValue: 5000, CurrencySymbol: "$", Kind: model.PrizeMonetary},
			ParticipantsCount: intp(300)},
		{ID: "live", Title: "ai build week", Source: model.SourceDevfolio, StartDate: at(2026, 2, 28), EndDate: at(2026, 3, 3),
			PrizePool: model.PrizePool{DisplayText: "₹1,00,000", NumericValue: 100000, CurrencySymbol: "₹", Kind: model.PrizeMonetary},
			Location: model.Location{RawText: "Online", Mode: model.ModeOnline}},
		{ID: "soon", Title: "Berlin Hack", Source: model.SourceMLH, StartDate: at(2026, 4, 10),
			RegistrationDeadline: at(2026, 4, 1), ParticipantsCount: intp(900),
			Location: model.Location{RawText: "Berlin, Germany", City: "Berlin", Country: "Germany", Mode: model.ModeInPerson}},
		{ID: "open", Title: "Always Open Jam", Source: model.SourceUnstop, StartDate: at(2026, 2, 1), EndDate: at(2026, 2, 2),
			RegistrationDeadline: at(2026, 3, 15),
			PrizePool:            model.PrizePool{DisplayText: "Swag and mentorship", Kind: model.PrizeNonCash}},
		{ID: "blank", Source: model.SourceUnknown},
	}
}

func newQueryService(repo *mockEventRepo, opts ...QueryOption) *QueryService {
	logger, _ := test.NewNullLogger()
	opts = append([]QueryOption{WithQueryClock(func() time.Time { return queryNow })}, opts...)
	return NewQueryService(repo, &mockRunRepo{}, status.DefaultPolicy(), logger, opts...)
}

func ids(items []EventView) []string {
	out := make([]string, 0, len(items))
	for _, v := range items {
		out = append(out, v.ID)
	}
	return out
}

func TestListComputesStatusAtCallTime(t *testing.T) {
	repo := &mockEventRepo{}
	repo.On("List", mock.Anything, repository.EventFilter{}).Return(fixtureEvents(), nil)
	svc := newQueryService(repo)

	res, err := svc.List(context.Background(), ListFilter{}, "")
	require.NoError(t, err)
	got := map[string]status.Status{}
	for _, v := range res.Items {
		got[v.ID] = v.Status
	}
	assert.Equal(t, map[string]status.Status{
		"past":  status.Ended,
		"live":  status.Ongoing,
		"soon":  status.Upcoming,
		"open":  status.Upcoming,
		"blank": status.Unknown,
	}, got)

	// 同样的数据，时间推进后状态随之变化
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }
	res, err = svc.List(context.Background(), ListFilter{Status: status.Upcoming}, "")
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestListStatusFilterAndDefaultSort(t *testing.T) {
	repo := &mockEventRepo{}
	repo.On("List", mock.Anything, mock.Anything).Return(fixtureEvents(), nil)
	svc := newQueryService(repo)

	res, err := svc.List(context.Background(), ListFilter{Status: status.Upcoming}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"open", "soon"}, ids(res.Items))
	assert.Equal(t, 2, res.Total)

	res, err = svc.List(context.Background(), ListFilter{}, SortStartDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"past", "open", "live", "soon", "blank"}, ids(res.Items))
}

func TestListSortKeys(t *testing.T) {
	repo := &mockEventRepo{}
	repo.On("List", mock.Anything, mock.Anything).Return(fixtureEvents(), nil)
	svc := newQueryService(repo)

	cases := []struct {
		key  SortKey
		want []string
	}{
		{SortPrize, []string{"live", "past", "blank", "open", "soon"}},
		{SortTitle, []string{"live", "open", "soon", "past", "blank"}},
		{SortParticipants, []string{"soon", "past", "blank", "live", "open"}},
		{SortDeadline, []string{"open", "soon", "blank", "live", "past"}},
		{SortRelevance, []string{"past", "open", "live", "soon", "blank"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.key), func(t *testing.T) {
			res, err := svc.List(context.Background(), ListFilter{}, tc.key)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(res.Items))
		})
	}
}

func TestListPagination(t *testing.T) {
	repo := &mockEventRepo{}
	repo.On("List", mock.Anything, mock.Anything).Return(fixtureEvents(), nil)
	svc := newQueryService(repo)

	res, err := svc.List(context.Background(), ListFilter{Page: 2, PageSize: 2}, SortStartDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"live", "soon"}, ids(res.Items))
	assert.Equal(t, 5, res.Total)

	res, err = svc.List(context.Background(), ListFilter{Page: 9, PageSize: 500}, "")
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
	assert.Equal(t, maxPageSize, res.PageSize)

	res, err = svc.List(context.Background(), ListFilter{Page: -1}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, defaultPageSize, res.PageSize)
}

func TestListUsesRankerAndFallsBack(t *testing.T) {
	events := fixtureEvents()
	repo := &mockEventRepo{}
	repo.On("List", mock.Anything, repository.EventFilter{IDs: []string{"live", "soon"}}).
		Return([]*model.Event{events[1], events[2]}, nil).Once()
	repo.On("List", mock.Anything, repository.EventFilter{Search: "hack"}).
		Return([]*model.Event{events[0], events[2]}, nil).Once()

	ranker := &mockRanker{}
	ranker.On("Rank", mock.Anything, "ai", rankLimit).Return([]interfaces.RankedHit{
		{ID: "soon", Score: 9, Reason: "title: Berlin"},
		{ID: "live", Score: 3},
	}, nil).Once()
	ranker.On("Rank", mock.Anything, "hack", rankLimit).Return(nil, errors.New("es down")).Once()
	svc := newQueryService(repo, WithRanker(ranker))

	res, err := svc.List(context.Background(), ListFilter{Search: "ai"}, "")
	require.NoError(t, err)
	assert.True(t, res.Ranked)
	assert.Equal(t, []string{"soon", "live"}, ids(res.Items))
	assert.Equal(t, "title: Berlin", res.Items[0].Reason)
	assert.Equal(t, 9.0, res.Items[0].Score)

	res, err = svc.List(context.Background(), ListFilter{Search: "hack"}, "")
	require.NoError(t, err)
	assert.False(t, res.Ranked)
	assert.Equal(t, []string{"past", "soon"}, ids(res.Items))
	repo.AssertExpectations(t)
}

func TestListUsesVersionedCache(t *testing.T) {
	repo := &mockEventRepo{}
	repo.On("List", mock.Anything, mock.Anything).Return(fixtureEvents(), nil).Once()
	cache := &mockCache{}
	cache.On("Version", mock.Anything).Return(int64(7), nil)
	cache.On("Get", mock.Anything, mock.MatchedBy(func(key string) bool { return len(key) > 8 && key[:8] == "list:v7:" }), mock.Anything).
		Return(false, nil).Once()
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	svc := newQueryService(repo, WithCache(cache))

	_, err := svc.List(context.Background(), ListFilter{}, "")
	require.NoError(t, err)
	cache.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestEventViewPlaceholders(t *testing.T) {
	v := NewEventView(&model.Event{ID: "blank", Source: model.SourceUnknown}, status.Unknown)
	assert.Equal(t, "Untitled", v.Title)
	assert.Equal(t, "TBA", v.DateDisplay)
	assert.Equal(t, "TBA", v.LocationDisplay)
	assert.Equal(t, "Prize TBD", v.Prize.Display)
	assert.Equal(t, []string{}, v.Tags)
	assert.Equal(t, []model.SourceRef{{ID: "blank", Source: model.SourceUnknown}}, v.Provenance)

	e := fixtureEvents()[1]
	v = NewEventView(e, status.Ongoing)
	assert.Equal(t, "₹1,00,000", v.Prize.Display)
	assert.Equal(t, "Feb 28, 2026 - Mar 03, 2026", v.DateDisplay)
	assert.Equal(t, "Online", v.LocationDisplay)
	assert.Empty(t, e.Provenance, "view must not write back into the event")
}

func TestGetNotFound(t *testing.T) {
	repo := &mockEventRepo{}
	repo.On("GetByID", mock.Anything, "nope").Return(nil, repository.ErrEventNotFound)
	svc := newQueryService(repo)

	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
}

func TestStatsAndSources(t *testing.T) {
	events := fixtureEvents()
	events[1].Provenance = []model.SourceRef{{ID: "live", Source: model.SourceDevfolio}, {ID: "x", Source: model.SourceDevpost}}
	repo := &mockEventRepo{}
	repo.On("List", mock.Anything, repository.EventFilter{}).Return(events, nil)
	logger, _ := test.NewNullLogger()
	runs := &mockRunRepo{}
	runs.On("List", mock.Anything).Return([]*model.ScrapeRun{
		{Source: model.SourceDevpost, LastScrapedAt: queryNow.Add(-time.Hour), Success: true, EventCount: 10},
		{Source: model.SourceMLH, LastScrapedAt: queryNow.Add(-30 * time.Hour), Success: true},
		{Source: model.SourceUnstop, LastScrapedAt: queryNow.Add(-time.Minute), Success: false, Error: "403"},
	}, nil)
	svc := NewQueryService(repo, runs, status.DefaultPolicy(), logger,
		WithQueryClock(func() time.Time { return queryNow }), WithStaleAfter(6*time.Hour))

	st, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, st.Total)
	assert.Equal(t, 2, st.BySource[model.SourceDevpost])
	assert.Equal(t, 1, st.BySource[model.SourceDevfolio])
	assert.Equal(t, 2, st.ByStatus[status.Upcoming])
	assert.Equal(t, 3, st.ByMode[model.ModeUnknown])
	assert.Equal(t, 2, st.WithPrize)

	fresh, err := svc.Sources(context.Background())
	require.NoError(t, err)
	require.Len(t, fresh, 3)
	assert.False(t, fresh[0].Stale)
	assert.True(t, fresh[1].Stale)
	assert.True(t, fresh[2].Stale)
}

func TestParseSortKey(t *testing.T) {
	k, ok := ParseSortKey(" Prize ")
	assert.True(t, ok)
	assert.Equal(t, SortPrize, k)
	_, ok = ParseSortKey("popularity")
	assert.False(t, ok)
}
