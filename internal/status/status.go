package status

import (
	"time"

	"HackathonSync/internal/model"
)

// Status 活动时间状态，只在读取时按当前时间计算，不落库
type Status string

const (
	Upcoming Status = "upcoming"
	Ongoing  Status = "ongoing"
	Ended    Status = "ended"
	Unknown  Status = "unknown"
)

// DefaultMaxRegistrationGrace 报名截止时间最多能把"已结束"延后多久
const DefaultMaxRegistrationGrace = 30 * 24 * time.Hour

// Policy 状态计算参数
type Policy struct {
	// MaxRegistrationGrace 报名仍开放时状态保持 upcoming 的上限（相对 effectiveEnd）；负数表示不设上限
	MaxRegistrationGrace time.Duration
}

// DefaultPolicy 默认参数
func DefaultPolicy() Policy {
	return Policy{MaxRegistrationGrace: DefaultMaxRegistrationGrace}
}

// ParseStatus 解析查询参数
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case Upcoming, Ongoing, Ended, Unknown:
		return Status(s), true
	}
	return "", false
}

// Derive 根据日期与 now 计算状态：now < start 为 upcoming，start <= now <= effectiveEnd 为 ongoing，之后为 ended。
// 报名截止晚于 effectiveEnd 时（长期开放报名，活动日期只是名义值），now <= min(deadline, effectiveEnd+grace)
// 期间一律为 upcoming，之后直接 ended；截止在活动结束前则不影响上面的顺序。两种情况状态都只前进不回退。
func Derive(e *model.Event, now time.Time, p Policy) Status {
	if e == nil || e.StartDate == nil {
		return Unknown
	}
	start := *e.StartDate
	end := EffectiveEnd(e)

	if dl := e.RegistrationDeadline; dl != nil && dl.After(end) && !now.After(registrationOpenUntil(*dl, end, p)) {
		return Upcoming
	}
	switch {
	case now.Before(start):
		return Upcoming
	case !now.After(end):
		return Ongoing
	default:
		return Ended
	}
}

// EffectiveEnd 结束时间；缺失或早于开始时间时取开始时间
func EffectiveEnd(e *model.Event) time.Time {
	start := *e.StartDate
	if e.EndDate == nil || e.EndDate.Before(start) {
		return start
	}
	return *e.EndDate
}

func registrationOpenUntil(deadline, end time.Time, p Policy) time.Time {
	if p.MaxRegistrationGrace < 0 {
		return deadline
	}
	limit := end.Add(p.MaxRegistrationGrace)
	if deadline.After(limit) {
		return limit
	}
	return deadline
}
