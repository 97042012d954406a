package dedup

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"HackathonSync/internal/model"
	"HackathonSync/internal/normalizer"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/sirupsen/logrus"
)

// DefaultTitleThreshold 标题相似度阈值，低于阈值一律不合并（宁可漏合并，不可错合并）
const DefaultTitleThreshold = 0.92

// ambiguousFloor 低于阈值但不低于此值为模糊区间：URL 相同才合并，否则只打日志
const ambiguousFloor = 0.8

// DefaultTrustRanks 来源可信度，数值越大越可信：官方 API > 搜索 API > 页面抓取
var DefaultTrustRanks = map[model.Source]int{
	model.SourceDevpost:       90,
	model.SourceMLH:           85,
	model.SourceDevfolio:      80,
	model.SourceUnstop:        70,
	model.SourceHackerEarth:   60,
	model.SourceGeeksforGeeks: 50,
	model.SourceUnknown:       0,
}

var yearToken = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

// Options 去重参数
type Options struct {
	TitleThreshold float64
	TrustRanks     map[model.Source]int
}

// Deduplicator 跨来源去重与合并。对一批快照单线程归约，不持有可变状态。
type Deduplicator struct {
	threshold float64
	trust     map[model.Source]int
	metric    *metrics.Levenshtein
	logger    *logrus.Logger
}

func New(opts Options, logger *logrus.Logger) *Deduplicator {
	threshold := opts.TitleThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultTitleThreshold
	}
	trust := make(map[model.Source]int, len(DefaultTrustRanks)+len(opts.TrustRanks))
	for s, r := range DefaultTrustRanks {
		trust[s] = r
	}
	for s, r := range opts.TrustRanks {
		trust[s] = r
	}
	return &Deduplicator{
		threshold: threshold,
		trust:     trust,
		metric:    metrics.NewLevenshtein(),
		logger:    logger,
	}
}

// Trust 来源可信度，未配置的来源为 0
func (d *Deduplicator) Trust(s model.Source) int {
	return d.trust[s]
}

// Run 去重：按开始日期分区，区内按 (可信度降序, id 升序) 排序后聚类，
// 事件只有与簇内每个成员都匹配才能加入（不做传递合并）。输出按 id 排序。
func (d *Deduplicator) Run(events []*model.Event) []*model.Event {
	partitions := make(map[string][]*model.Event)
	for _, e := range events {
		if e == nil {
			continue
		}
		key := dayKey(e.StartDate)
		partitions[key] = append(partitions[key], e)
	}

	out := make([]*model.Event, 0, len(events))
	merged := 0
	for _, members := range partitions {
		d.sortByTrust(members)
		var clusters [][]*model.Event
		for _, e := range members {
			placed := false
			for i, cluster := range clusters {
				if d.matchesAll(cluster, e) {
					clusters[i] = append(cluster, e)
					placed = true
					break
				}
			}
			if !placed {
				clusters = append(clusters, []*model.Event{e})
			}
		}
		for _, cluster := range clusters {
			result := clone(cluster[0])
			for _, e := range cluster[1:] {
				result = d.Merge(result, e)
				merged++
			}
			out = append(out, result)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if d.logger != nil {
		d.logger.WithFields(logrus.Fields{
			"input":  len(events),
			"output": len(out),
			"merged": merged,
		}).Info("去重完成")
	}
	return out
}

// Match 两条记录是否为同一赛事：开始日期同一天（或都未知），且标题相似度达到阈值。
// 规范化 URL 相同只在模糊区间内作为补充依据，单凭 URL 不合并（聚合页 URL 常被多个赛事共用）。
// 结果与参数顺序无关。
func (d *Deduplicator) Match(a, b *model.Event) bool {
	if a == nil || b == nil {
		return false
	}
	if dayKey(a.StartDate) != dayKey(b.StartDate) {
		return false
	}
	score := d.Similarity(a.Title, b.Title)
	if score >= d.threshold {
		return true
	}
	if score < ambiguousFloor {
		return false
	}
	if a.URL != "" && a.URL == b.URL {
		return true
	}
	if d.logger != nil {
		d.logger.WithFields(logrus.Fields{
			"a":     a.ID,
			"b":     b.ID,
			"score": score,
		}).Debug("标题相似度处于模糊区间，不合并")
	}
	return false
}

// Similarity 标题相似度 [0,1]，标题为空时为 0
func (d *Deduplicator) Similarity(a, b string) float64 {
	ka, kb := TitleKey(a), TitleKey(b)
	if ka == "" || kb == "" {
		return 0
	}
	if ka == kb {
		return 1
	}
	if ka > kb {
		ka, kb = kb, ka
	}
	return strutil.Similarity(ka, kb, d.metric)
}

// TitleKey 去重用标题键：在规范化标题基础上去掉独立的年份（"ETHGlobal Delhi 2026" → "ethglobal delhi"）
func TitleKey(title string) string {
	key := yearToken.ReplaceAllString(normalizer.TitleKey(title), " ")
	return strings.Join(strings.Fields(key), " ")
}

func (d *Deduplicator) matchesAll(cluster []*model.Event, e *model.Event) bool {
	for _, member := range cluster {
		if !d.Match(member, e) {
			return false
		}
	}
	return true
}

func (d *Deduplicator) sortByTrust(events []*model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		ti, tj := d.Trust(events[i].Source), d.Trust(events[j].Source)
		if ti != tj {
			return ti > tj
		}
		return events[i].ID < events[j].ID
	})
}

func dayKey(t *time.Time) string {
	if t == nil {
		return "unknown"
	}
	return t.UTC().Format("2006-01-02")
}
