package normalizer

import (
	"sync"
	"testing"
	"time"

	"HackathonSync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer(opts ...Option) (*Normalizer, *test.Hook) {
	logger, hook := test.NewNullLogger()
	opts = append([]Option{WithClock(func() time.Time { return refNow })}, opts...)
	return New(logger, opts...), hook
}

func TestNormalizeHack2Tech(t *testing.T) {
	n, _ := newTestNormalizer()
	e := n.Normalize(&model.RawEvent{
		Source: model.SourceUnstop,
		Payload: map[string]any{
			"title":      "Hack2Tech",
			"source":     "Unstop",
			"start_date": "2026-01-20",
			"prize":      "₹15,000",
			"team":       "1-4 Members",
			"location":   map[string]any{"location": "Mumbai, India"},
		},
	})

	assert.Equal(t, "Hack2Tech", e.Title)
	assert.Equal(t, model.SourceUnstop, e.Source)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "₹15,000", e.PrizePool.DisplayText)
	assert.Equal(t, "₹", e.PrizePool.CurrencySymbol)
	assert.Equal(t, 15000.0, e.PrizePool.NumericValue)
	require.NotNil(t, e.TeamSize.Min)
	require.NotNil(t, e.TeamSize.Max)
	assert.Equal(t, 1, *e.TeamSize.Min)
	assert.Equal(t, 4, *e.TeamSize.Max)
	assert.Equal(t, "Mumbai, India", e.Location.RawText)
	assert.Equal(t, model.ModeInPerson, e.Location.Mode)
	require.NotNil(t, e.StartDate)
	assert.Equal(t, time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), *e.StartDate)
	assert.Nil(t, e.EndDate)
	assert.Equal(t, []model.SourceRef{{ID: e.ID, Source: model.SourceUnstop}}, e.Provenance)
}

func TestNormalizeModeOverride(t *testing.T) {
	n, _ := newTestNormalizer()
	e := n.Normalize(&model.RawEvent{
		Source:  model.SourceDevfolio,
		Payload: map[string]any{"title": "X", "mode": "in-person", "location": "Online Event"},
	})
	assert.Equal(t, model.ModeOnline, e.Location.Mode)
	assert.Empty(t, e.Location.City)
	assert.Empty(t, e.Location.Country)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	n, _ := newTestNormalizer()
	raw := &model.RawEvent{
		Source: model.SourceDevpost,
		Payload: map[string]any{
			"title":                   "Build Week",
			"url":                     "https://buildweek.devpost.com/?utm_medium=feed",
			"submission_period_dates": "Feb 15 - 17, 2026",
		},
	}
	first := n.Normalize(raw)
	second := n.Normalize(raw)
	assert.Equal(t, first, second)
	assert.Equal(t, "https://buildweek.devpost.com/", first.URL)
	require.NotNil(t, first.EndDate)
	assert.Equal(t, 17, first.EndDate.Day())
}

func TestNormalizeEmptyPayload(t *testing.T) {
	n, _ := newTestNormalizer()
	for _, raw := range []*model.RawEvent{
		{Source: model.SourceMLH},
		{Source: model.SourceMLH, Payload: map[string]any{}},
	} {
		e := n.Normalize(raw)
		assert.Equal(t, model.SourceMLH, e.Source)
		assert.NotEmpty(t, e.ID)
		assert.Empty(t, e.Title)
		assert.Nil(t, e.StartDate)
		assert.Equal(t, model.ModeUnknown, e.Location.Mode)
		assert.Equal(t, model.PrizeUnknown, e.PrizePool.Kind)
		assert.True(t, e.TeamSize.IsZero())
	}

	e := n.Normalize(nil)
	assert.Equal(t, model.SourceUnknown, e.Source)
	assert.NotEmpty(t, e.ID)
}

func TestNormalizeGarbageFieldsKeepRecord(t *testing.T) {
	n, hook := newTestNormalizer()
	e := n.Normalize(&model.RawEvent{
		Source: model.SourceDevfolio,
		Payload: map[string]any{
			"name":       "Robust Hack",
			"url":        "not a link",
			"starts_at":  "whenever",
			"ends_at":    []any{1, 2},
			"team_size":  "7-3",
			"prize":      map[string]any{},
			"location":   "{'icon': 'pin', 'location': None}",
			"tags":       42,
			"registered": "-",
		},
	})
	assert.Equal(t, "Robust Hack", e.Title)
	assert.Empty(t, e.URL)
	assert.Nil(t, e.StartDate)
	assert.Nil(t, e.EndDate)
	assert.Equal(t, 3, *e.TeamSize.Min)
	assert.Equal(t, 7, *e.TeamSize.Max)
	assert.Equal(t, model.PrizeUnknown, e.PrizePool.Kind)
	assert.Empty(t, e.Location.RawText)
	assert.Nil(t, e.ParticipantsCount)

	require.NotEmpty(t, hook.AllEntries())
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Contains(t, entry.Data["issues"], "team_size min > max, swapped")
}

func TestNormalizeSourceQuirks(t *testing.T) {
	n, _ := newTestNormalizer(WithExactTeamSize(model.SourceGeeksforGeeks))

	unstop := n.Normalize(&model.RawEvent{
		Source:   model.SourceUnstop,
		NativeID: "1001",
		Payload: map[string]any{
			"title":         "Code Sprint",
			"region":        "online",
			"end_regn_dt":   "2026-02-01T23:59:00+05:30",
			"registerCount": 1520,
			"min_team_size": 2,
			"max_team_size": 4,
			"filters":       []any{map[string]any{"name": "Fintech"}},
			"organisation":  map[string]any{"name": "Acme Corp"},
			"logoUrl":       "https://d8it4huxumps7.cloudfront.net/logo.png",
		},
	})
	assert.Equal(t, model.ModeOnline, unstop.Location.Mode)
	require.NotNil(t, unstop.RegistrationDeadline)
	assert.Equal(t, time.Date(2026, 2, 1, 18, 29, 0, 0, time.UTC), *unstop.RegistrationDeadline)
	assert.Equal(t, 1520, *unstop.ParticipantsCount)
	assert.Equal(t, 2, *unstop.TeamSize.Min)
	assert.Equal(t, []string{"FinTech"}, []string(unstop.Tags))
	assert.Equal(t, "Acme Corp", unstop.Organizer)
	assert.Equal(t, EventID(model.SourceUnstop, "1001", "", "", nil), unstop.ID)

	gfg := n.Normalize(&model.RawEvent{
		Source:  model.SourceGeeksforGeeks,
		Payload: map[string]any{"title": "GFG Hack", "team_size": 3, "participants": "2.5k registered"},
	})
	assert.Equal(t, 3, *gfg.TeamSize.Min)
	assert.Equal(t, 3, *gfg.TeamSize.Max)
	assert.Equal(t, 2500, *gfg.ParticipantsCount)

	mlh := n.Normalize(&model.RawEvent{
		Source: model.SourceMLH,
		Payload: map[string]any{
			"name":      "HackMIT",
			"startDate": "2026-02-14",
			"endDate":   "2026-02-15",
			"location": map[string]any{
				"@type":   "Place",
				"name":    "MIT",
				"address": map[string]any{"addressLocality": "Cambridge", "addressRegion": "MA", "addressCountry": "US"},
			},
			"eventAttendanceMode": "https://schema.org/OfflineEventAttendanceMode",
			"image":               []any{"https://mlh.io/hackmit.png"},
		},
	})
	assert.Equal(t, "MIT", mlh.Location.RawText)
	assert.Equal(t, "Cambridge", mlh.Location.City)
	assert.Equal(t, "United States", mlh.Location.Country)
	assert.Equal(t, model.ModeInPerson, mlh.Location.Mode)
	assert.Equal(t, "https://mlh.io/hackmit.png", mlh.ImageURL)
}

func TestNormalizeConcurrentCalls(t *testing.T) {
	n, _ := newTestNormalizer()
	raw := &model.RawEvent{Source: model.SourceDevpost, Payload: map[string]any{"title": "Parallel", "prize": "$1,000"}}
	want := n.Normalize(raw)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = n.Normalize(raw).ID
		}(i)
	}
	wg.Wait()
	for _, id := range results {
		assert.Equal(t, want.ID, id)
	}
}
