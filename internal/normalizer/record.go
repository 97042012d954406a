package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"HackathonSync/internal/model"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// 各字段的候选键，按优先级排列；新来源的字段名差异在这里补一个别名即可
var (
	titleKeys        = []string{"title", "name", "event_name", "hackathon_name"}
	nativeIDKeys     = []string{"id", "_id", "uuid", "slug", "event_id"}
	urlKeys          = []string{"url", "link", "public_url", "website", "registration_url", "event_url"}
	startKeys        = []string{"start_date", "starts_at", "startDate", "start_time", "start", "begins_at", "event_start"}
	endKeys          = []string{"end_date", "ends_at", "endDate", "end_time", "end", "event_end"}
	deadlineKeys     = []string{"registration_deadline", "registration_end", "end_regn_dt", "regn_end", "application_deadline", "submission_deadline", "deadline"}
	rangeKeys        = []string{"dates", "submission_period_dates", "date_range", "event_dates"}
	locationKeys     = []string{"location", "displayed_location", "venue", "address", "address_with_country_logo", "place"}
	modeKeys         = []string{"mode", "event_mode", "is_online", "is_online_event", "online_only", "region", "format", "eventAttendanceMode", "event_type"}
	prizeKeys        = []string{"prize", "prize_pool", "prize_amount", "prize_money", "prizes", "total_prize", "reward"}
	teamKeys         = []string{"team_size", "team", "teamSize", "team_size_range", "team_members"}
	tagKeys          = []string{"tags", "themes", "categories", "skills", "filters", "keywords"}
	participantsKeys = []string{"participants_count", "participants", "registrations_count", "registerCount", "registered", "attendees"}
	descriptionKeys  = []string{"description", "desc", "summary", "tagline", "about"}
	organizerKeys    = []string{"organizer", "organiser", "organization", "organisation", "organization_name", "host"}
	imageKeys        = []string{"image_url", "image", "thumbnail_url", "banner", "cover_image", "logo_url", "logoUrl", "logo"}
)

var countDigits = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*(k)?`)

// Normalizer 记录规范化：一条来源 payload 产出一条 Event，字段解析失败只让该字段为空。
// 无共享可变状态，可并发调用。
type Normalizer struct {
	logger        *logrus.Logger
	now           func() time.Time
	exactTeamSize map[model.Source]bool
}

// Option 构造选项
type Option func(*Normalizer)

// WithClock 指定参考时间（日期合理性校验、无年份日期）
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithExactTeamSize 这些来源给出的单个人数表示固定人数
func WithExactTeamSize(sources ...model.Source) Option {
	return func(n *Normalizer) {
		for _, s := range sources {
			n.exactTeamSize[s] = true
		}
	}
}

func New(logger *logrus.Logger, opts ...Option) *Normalizer {
	n := &Normalizer{
		logger:        logger,
		now:           time.Now,
		exactTeamSize: make(map[model.Source]bool),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize 规范化单条原始记录，永不失败
func (n *Normalizer) Normalize(raw *model.RawEvent) *model.Event {
	source := model.SourceUnknown
	var payload map[string]any
	nativeID := ""
	if raw != nil {
		if raw.Source != "" {
			source = raw.Source
		}
		payload = raw.Payload
		nativeID = raw.NativeID
	}
	rec := FromAny(payload)
	now := n.now().UTC()
	var issues []string

	e := &model.Event{Source: source}
	e.Title = cleanText(rec.First(titleKeys...).Text())

	if nativeID == "" {
		nativeID = rec.First(nativeIDKeys...).Text()
	}
	if u := rec.First(urlKeys...); !u.IsAbsent() {
		if e.URL = NormalizeURL(u); e.URL == "" {
			issues = append(issues, "url malformed")
		}
	}

	start, end := n.dates(rec, now, &issues)
	e.StartDate, e.EndDate = start.Ptr(), end.Ptr()
	if d := rec.First(deadlineKeys...); !d.IsAbsent() {
		deadline := NormalizeDate(d, now)
		if !deadline.Known {
			issues = append(issues, "registration_deadline unparseable")
		}
		e.RegistrationDeadline = deadline.Ptr()
	}

	explicit := NormalizeMode(rec.First(modeKeys...))
	e.Location = NormalizeLocation(locationValue(rec), explicit)

	if p := rec.First(prizeKeys...); !p.IsAbsent() {
		e.PrizePool = NormalizePrize(p)
	} else {
		e.PrizePool = model.PrizePool{Kind: model.PrizeUnknown}
	}

	team := NormalizeTeamSize(teamValue(rec), n.exactTeamSize[source])
	if team.Swapped {
		issues = append(issues, "team_size min > max, swapped")
	}
	e.TeamSize = team.TeamSize

	tags := make([]Value, 0, len(tagKeys))
	for _, k := range tagKeys {
		tags = append(tags, rec.Field(k))
	}
	if t := NormalizeTags(tags...); len(t) > 0 {
		e.Tags = pq.StringArray(t)
	}

	e.ParticipantsCount = participants(rec.First(participantsKeys...))
	e.Description = cleanText(rec.First(descriptionKeys...).Text())
	e.Organizer = organizer(rec.First(organizerKeys...))
	e.ImageURL = NormalizeURL(imageValue(rec.First(imageKeys...)))

	e.ID = EventID(source, nativeID, e.URL, e.Title, e.StartDate)
	e.Provenance = []model.SourceRef{{ID: e.ID, Source: source}}

	if len(issues) > 0 && n.logger != nil {
		n.logger.WithFields(logrus.Fields{
			"source":   source,
			"event_id": e.ID,
			"issues":   issues,
		}).Warn("数据质量问题已自动处理")
	}
	return e
}

// NormalizeAll 批量规范化
func (n *Normalizer) NormalizeAll(raws []*model.RawEvent) []*model.Event {
	events := make([]*model.Event, 0, len(raws))
	for _, raw := range raws {
		events = append(events, n.Normalize(raw))
	}
	return events
}

func (n *Normalizer) dates(rec Value, now time.Time, issues *[]string) (Date, Date) {
	var start, end Date
	if v := rec.First(startKeys...); !v.IsAbsent() {
		if start, end = NormalizeDateRange(v, now); !start.Known {
			*issues = append(*issues, "start_date unparseable")
		}
	}
	if v := rec.First(endKeys...); !v.IsAbsent() {
		if end = NormalizeDate(v, now); !end.Known {
			*issues = append(*issues, "end_date unparseable")
		}
	}
	if !start.Known {
		// Devpost: "submission_period_dates": "Jan 10 - Feb 12, 2026" 或 {"starts_at": ..., "ends_at": ...}
		if v := rec.First(rangeKeys...); !v.IsAbsent() {
			if v.Kind() == KindObject {
				start = NormalizeDate(v.First(startKeys...), now)
				if !end.Known {
					end = NormalizeDate(v.First(endKeys...), now)
				}
			} else {
				var rangeEnd Date
				start, rangeEnd = NormalizeDateRange(v, now)
				if !end.Known {
					end = rangeEnd
				}
			}
		}
	}
	return start, end
}

// locationValue 顶层直接给 city/state/country 时合成一个对象
func locationValue(rec Value) Value {
	if v := rec.First(locationKeys...); !v.IsAbsent() {
		return v
	}
	parts := map[string]any{}
	for _, k := range []string{"city", "state", "country"} {
		if s := rec.Field(k).Text(); s != "" {
			parts[k] = s
		}
	}
	if len(parts) == 0 {
		return Absent()
	}
	return FromAny(parts)
}

// teamValue 兼容 min_team_size/max_team_size 分开给出的情况
func teamValue(rec Value) Value {
	if v := rec.First(teamKeys...); !v.IsAbsent() {
		return v
	}
	lo := rec.First("min_team_size", "team_min", "minTeamSize")
	hi := rec.First("max_team_size", "team_max", "maxTeamSize")
	if lo.IsAbsent() && hi.IsAbsent() {
		return Absent()
	}
	obj := map[string]any{}
	if !lo.IsAbsent() {
		obj["min"] = lo
	}
	if !hi.IsAbsent() {
		obj["max"] = hi
	}
	return FromAny(obj)
}

func participants(v Value) *int {
	if f, ok := v.Num(); ok {
		if f < 0 {
			return nil
		}
		n := int(f)
		return &n
	}
	s := strings.ToLower(v.Text())
	m := countDigits.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || f < 0 {
		return nil
	}
	if m[2] == "k" {
		f *= 1000
	}
	n := int(f)
	return &n
}

func organizer(v Value) string {
	if v.Kind() == KindObject {
		return cleanText(v.First("name", "title").Text())
	}
	if v.Kind() == KindList {
		for _, item := range v.Items() {
			if s := organizer(item); s != "" {
				return s
			}
		}
		return ""
	}
	return cleanText(v.Text())
}

func imageValue(v Value) Value {
	switch v.Kind() {
	case KindObject:
		return v.First("url", "src", "contentUrl")
	case KindList:
		if items := v.Items(); len(items) > 0 {
			return imageValue(items[0])
		}
		return Absent()
	}
	return v
}

// String 便于日志输出
func (d Date) String() string {
	if !d.Known {
		return "unknown"
	}
	return fmt.Sprintf("%s(%s)", d.Time.Format(time.RFC3339), d.Strategy)
}
