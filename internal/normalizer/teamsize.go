package normalizer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"HackathonSync/internal/model"
)

var (
	teamRange  = regexp.MustCompile(`(\d+)\s*(?:-|–|—|to|~)\s*(\d+)`)
	teamSingle = regexp.MustCompile(`(\d+)`)
	soloWords  = []string{"solo", "individual", "single"}
)

// TeamSizeResult 队伍人数规范化结果；Swapped 表示来源给出的 min > max 已被纠正
type TeamSizeResult struct {
	model.TeamSize
	Swapped bool
}

// NormalizeTeamSize 队伍人数规范化。
// "Solo" ⇒ {1,1}；单个数字 N ⇒ {1,N}（exact 时 {N,N}）；"A-B" ⇒ {A,B}，A>B 时交换；也接受 {min,max} 结构。
func NormalizeTeamSize(v Value, exact bool) TeamSizeResult {
	switch v.Kind() {
	case KindNumber:
		f, _ := v.Num()
		return singleTeamSize(f, exact)
	case KindString:
		s, _ := v.Str()
		return parseTeamText(s, exact)
	case KindObject:
		lo, okLo := teamBound(v.First("min", "minimum", "min_team_size", "minTeamSize", "min_size", "team_min"))
		hi, okHi := teamBound(v.First("max", "maximum", "max_team_size", "maxTeamSize", "max_size", "team_max"))
		switch {
		case okLo && okHi:
			return orderedPair(lo, hi)
		case okHi:
			if exact {
				return orderedPair(hi, hi)
			}
			return TeamSizeResult{TeamSize: model.TeamSize{Max: intPtr(hi)}}
		case okLo:
			return TeamSizeResult{TeamSize: model.TeamSize{Min: intPtr(lo)}}
		}
		return NormalizeTeamSize(v.First("size", "team_size", "text", "display"), exact)
	case KindList:
		items := v.Items()
		if len(items) == 2 {
			lo, okLo := teamBound(items[0])
			hi, okHi := teamBound(items[1])
			if okLo && okHi {
				return orderedPair(lo, hi)
			}
		}
		if len(items) == 1 {
			return NormalizeTeamSize(items[0], exact)
		}
	}
	return TeamSizeResult{}
}

func parseTeamText(raw string, exact bool) TeamSizeResult {
	s := strings.ToLower(strings.TrimSpace(raw))
	if isBlank(s) {
		return TeamSizeResult{}
	}
	if m := teamRange.FindStringSubmatch(s); m != nil {
		lo, err1 := strconv.Atoi(m[1])
		hi, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil {
			return orderedPair(lo, hi)
		}
	}
	if m := teamSingle.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return singleTeamSize(float64(n), exact)
		}
	}
	if containsAny(s, soloWords) {
		return orderedPair(1, 1)
	}
	return TeamSizeResult{}
}

func singleTeamSize(f float64, exact bool) TeamSizeResult {
	if f < 1 || math.IsNaN(f) || f > math.MaxInt32 {
		return TeamSizeResult{}
	}
	n := int(f)
	if exact {
		return orderedPair(n, n)
	}
	return orderedPair(1, n)
}

func orderedPair(lo, hi int) TeamSizeResult {
	if lo < 0 || hi < 0 {
		return TeamSizeResult{}
	}
	res := TeamSizeResult{}
	if lo > hi {
		lo, hi = hi, lo
		res.Swapped = true
	}
	res.Min, res.Max = intPtr(lo), intPtr(hi)
	return res
}

func teamBound(v Value) (int, bool) {
	if f, ok := v.Num(); ok {
		if f < 0 || math.IsNaN(f) || f > math.MaxInt32 {
			return 0, false
		}
		return int(f), true
	}
	if s := v.Text(); s != "" {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err == nil && n >= 0 {
			return n, true
		}
	}
	return 0, false
}

func intPtr(n int) *int { return &n }
