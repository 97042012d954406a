package dedup

import (
	"sort"
	"strings"
	"time"

	"HackathonSync/internal/model"

	"github.com/lib/pq"
)

// Merge 合并两条同一赛事的记录。
// 双方都有值时取可信度高的一方（同可信度取 id 较小者，再相同取 a）；只有一方有值时直接取该值。
// 地点、奖金、队伍人数按整体取舍；标签与溯源取并集。幂等：Merge(Merge(a,b),b) == Merge(a,b)。
func (d *Deduplicator) Merge(a, b *model.Event) *model.Event {
	if a == nil {
		return clone(b)
	}
	if b == nil {
		return clone(a)
	}
	w, l := a, b
	if d.prefers(b, a) {
		w, l = b, a
	}

	m := &model.Event{
		ID:                   w.ID,
		Source:               w.Source,
		Title:                pickString(w.Title, l.Title),
		URL:                  pickString(w.URL, l.URL),
		StartDate:            pickTime(w.StartDate, l.StartDate),
		EndDate:              pickTime(w.EndDate, l.EndDate),
		RegistrationDeadline: pickTime(w.RegistrationDeadline, l.RegistrationDeadline),
		Location:             w.Location,
		PrizePool:            w.PrizePool,
		TeamSize:             cloneTeamSize(w.TeamSize),
		Tags:                 unionTags(w.Tags, l.Tags),
		ParticipantsCount:    pickInt(w.ParticipantsCount, l.ParticipantsCount),
		Description:          pickString(w.Description, l.Description),
		Organizer:            pickString(w.Organizer, l.Organizer),
		ImageURL:             pickString(w.ImageURL, l.ImageURL),
		Provenance:           unionProvenance(provenanceOf(w), provenanceOf(l)),
		CreatedAt:            w.CreatedAt,
		UpdatedAt:            w.UpdatedAt,
	}
	if !hasLocation(w.Location) {
		m.Location = l.Location
	}
	if !hasPrize(w.PrizePool) {
		m.PrizePool = l.PrizePool
	}
	if w.TeamSize.IsZero() {
		m.TeamSize = cloneTeamSize(l.TeamSize)
	}
	return m
}

// prefers x 是否优先于 y
func (d *Deduplicator) prefers(x, y *model.Event) bool {
	tx, ty := d.Trust(x.Source), d.Trust(y.Source)
	if tx != ty {
		return tx > ty
	}
	return x.ID < y.ID
}

func hasLocation(l model.Location) bool {
	return strings.TrimSpace(l.RawText) != "" || (l.Mode != "" && l.Mode != model.ModeUnknown)
}

func hasPrize(p model.PrizePool) bool {
	return p.Kind != "" && p.Kind != model.PrizeUnknown
}

func pickString(w, l string) string {
	if strings.TrimSpace(w) != "" {
		return w
	}
	return l
}

func pickTime(w, l *time.Time) *time.Time {
	if w != nil {
		t := *w
		return &t
	}
	if l != nil {
		t := *l
		return &t
	}
	return nil
}

func pickInt(w, l *int) *int {
	if w != nil {
		n := *w
		return &n
	}
	if l != nil {
		n := *l
		return &n
	}
	return nil
}

func cloneTeamSize(t model.TeamSize) model.TeamSize {
	return model.TeamSize{Min: pickInt(t.Min, nil), Max: pickInt(t.Max, nil)}
}

// unionTags 保序并集，优先方标签在前，忽略大小写去重
func unionTags(first, second pq.StringArray) pq.StringArray {
	var out pq.StringArray
	seen := make(map[string]struct{}, len(first)+len(second))
	for _, list := range []pq.StringArray{first, second} {
		for _, tag := range list {
			key := strings.ToLower(strings.TrimSpace(tag))
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

func provenanceOf(e *model.Event) []model.SourceRef {
	if len(e.Provenance) == 0 {
		return []model.SourceRef{{ID: e.ID, Source: e.Source}}
	}
	return e.Provenance
}

// unionProvenance 按 id 去重并排序
func unionProvenance(a, b []model.SourceRef) []model.SourceRef {
	byID := make(map[string]model.SourceRef, len(a)+len(b))
	for _, list := range [][]model.SourceRef{a, b} {
		for _, ref := range list {
			if _, ok := byID[ref.ID]; !ok {
				byID[ref.ID] = ref
			}
		}
	}
	out := make([]model.SourceRef, 0, len(byID))
	for _, ref := range byID {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// clone 深拷贝，并补齐溯源
func clone(e *model.Event) *model.Event {
	if e == nil {
		return nil
	}
	c := *e
	c.StartDate = pickTime(e.StartDate, nil)
	c.EndDate = pickTime(e.EndDate, nil)
	c.RegistrationDeadline = pickTime(e.RegistrationDeadline, nil)
	c.TeamSize = cloneTeamSize(e.TeamSize)
	c.ParticipantsCount = pickInt(e.ParticipantsCount, nil)
	c.Tags = unionTags(e.Tags, nil)
	c.Provenance = unionProvenance(provenanceOf(e), nil)
	return &c
}
