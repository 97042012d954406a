package status

import (
	"testing"
	"time"

	"HackathonSync/internal/model"

	"github.com/stretchr/testify/assert"
)

func day(d int) *time.Time {
	t := time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func at(d int) time.Time { return *day(d) }

func TestDerive(t *testing.T) {
	p := DefaultPolicy()
	cases := []struct {
		name  string
		event model.Event
		now   time.Time
		want  Status
	}{
		{"no start", model.Event{EndDate: day(20)}, at(1), Unknown},
		{"before start", model.Event{StartDate: day(20)}, at(10), Upcoming},
		{"start day no end", model.Event{StartDate: day(20)}, at(20), Ongoing},
		{"after start no end", model.Event{StartDate: day(20)}, at(21), Ended},
		{"within range", model.Event{StartDate: day(10), EndDate: day(12)}, at(11), Ongoing},
		{"on end", model.Event{StartDate: day(10), EndDate: day(12)}, at(12), Ongoing},
		{"after end", model.Event{StartDate: day(10), EndDate: day(12)}, at(13), Ended},
		{"end before start uses start", model.Event{StartDate: day(10), EndDate: day(5)}, at(11), Ended},
		{"deadline keeps upcoming", model.Event{StartDate: day(10), EndDate: day(12), RegistrationDeadline: day(20)}, at(15), Upcoming},
		{"deadline passed", model.Event{StartDate: day(10), EndDate: day(12), RegistrationDeadline: day(20)}, at(21), Ended},
		{"deadline before start", model.Event{StartDate: day(10), RegistrationDeadline: day(5)}, at(7), Upcoming},
		{"deadline before start then ongoing", model.Event{StartDate: day(10), EndDate: day(12), RegistrationDeadline: day(5)}, at(11), Ongoing},
		{"deadline inside window stays ongoing", model.Event{StartDate: day(1), EndDate: day(31), RegistrationDeadline: day(20)}, at(10), Ongoing},
		{"deadline inside window then ended", model.Event{StartDate: day(1), EndDate: day(25), RegistrationDeadline: day(20)}, at(26), Ended},
		{"deadline after end overrides running event", model.Event{StartDate: day(10), EndDate: day(12), RegistrationDeadline: day(20)}, at(11), Upcoming},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Derive(&tc.event, tc.now, p))
		})
	}
	assert.Equal(t, Unknown, Derive(nil, at(1), p))
}

func TestDeriveGraceCap(t *testing.T) {
	deadline := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	e := &model.Event{StartDate: day(10), EndDate: day(12), RegistrationDeadline: &deadline}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, Ended, Derive(e, now, Policy{MaxRegistrationGrace: 7 * 24 * time.Hour}))
	assert.Equal(t, Upcoming, Derive(e, now, Policy{MaxRegistrationGrace: -1}))
	assert.Equal(t, Ended, Derive(e, now, DefaultPolicy()))
	assert.Equal(t, Upcoming, Derive(e, at(30), DefaultPolicy()))
}

func TestDeriveIsMonotone(t *testing.T) {
	order := map[Status]int{Upcoming: 0, Ongoing: 1, Ended: 2}
	events := []model.Event{
		{StartDate: day(10)},
		{StartDate: day(10), EndDate: day(15)},
		{StartDate: day(10), EndDate: day(15), RegistrationDeadline: day(8)},
		{StartDate: day(10), EndDate: day(15), RegistrationDeadline: day(12)},
		{StartDate: day(10), EndDate: day(15), RegistrationDeadline: day(25)},
		{StartDate: day(10), RegistrationDeadline: day(28)},
		{StartDate: day(10), EndDate: day(3), RegistrationDeadline: day(11)},
		{StartDate: day(1), EndDate: day(31), RegistrationDeadline: day(20)},
	}
	policies := []Policy{DefaultPolicy(), {MaxRegistrationGrace: 0}, {MaxRegistrationGrace: 48 * time.Hour}, {MaxRegistrationGrace: -1}}
	for i := range events {
		for _, p := range policies {
			prev := -1
			for h := 0; h < 24*40; h += 6 {
				now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(h) * time.Hour)
				cur := order[Derive(&events[i], now, p)]
				assert.GreaterOrEqual(t, cur, prev, "event %d policy %v at %s", i, p.MaxRegistrationGrace, now)
				prev = cur
			}
		}
	}
}

func TestHack2TechUpcoming(t *testing.T) {
	e := &model.Event{StartDate: day(20)}
	assert.Equal(t, Upcoming, Derive(e, at(10), DefaultPolicy()))
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("ongoing")
	assert.True(t, ok)
	assert.Equal(t, Ongoing, s)
	_, ok = ParseStatus("live")
	assert.False(t, ok)
}
