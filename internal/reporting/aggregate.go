package reporting

import (
	"sort"

	"github.com/samber/lo"

	"github.com/FairForge/labelbench/internal/loadtest"
)

// Average is the mean score of one platform at one load level.
type Average struct {
	Platform  string  `json:"platform"`
	LoadLevel int     `json:"load_level"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
	Samples   int     `json:"samples"`
}

// PlatformAverage is the mean of a platform's per-level averages.
type PlatformAverage struct {
	Platform  string  `json:"platform"`
	LoadLevel float64 `json:"load_level"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
}

// Combined joins an accuracy average with the CPU utilisation measured
// for the same platform and load level.
type Combined struct {
	Average
	CPUPercent float64 `json:"cpu_percent"`
}

type groupKey struct {
	platform string
	level    int
}

// Averages groups records by (platform, load level) and averages the
// three scores. Output is sorted by platform, then load level.
func Averages(records []loadtest.Record) []Average {
	groups := lo.GroupBy(records, func(r loadtest.Record) groupKey {
		return groupKey{platform: r.Platform, level: r.LoadLevel}
	})

	out := make([]Average, 0, len(groups))
	for k, rs := range groups {
		n := float64(len(rs))
		out = append(out, Average{
			Platform:  k.platform,
			LoadLevel: k.level,
			Precision: lo.SumBy(rs, func(r loadtest.Record) float64 { return r.Precision }) / n,
			Recall:    lo.SumBy(rs, func(r loadtest.Record) float64 { return r.Recall }) / n,
			F1:        lo.SumBy(rs, func(r loadtest.Record) float64 { return r.F1 }) / n,
			Samples:   len(rs),
		})
	}
	sortAverages(out)
	return out
}

// OverallByPlatform averages each platform's per-level averages, so every
// load level weighs the same regardless of how many records it holds.
func OverallByPlatform(avgs []Average) []PlatformAverage {
	groups := lo.GroupBy(avgs, func(a Average) string { return a.Platform })

	out := make([]PlatformAverage, 0, len(groups))
	for platform, as := range groups {
		n := float64(len(as))
		out = append(out, PlatformAverage{
			Platform:  platform,
			LoadLevel: float64(lo.SumBy(as, func(a Average) int { return a.LoadLevel })) / n,
			Precision: lo.SumBy(as, func(a Average) float64 { return a.Precision }) / n,
			Recall:    lo.SumBy(as, func(a Average) float64 { return a.Recall }) / n,
			F1:        lo.SumBy(as, func(a Average) float64 { return a.F1 }) / n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out
}

// Combine inner-joins averages with CPU rows on (platform, load level).
// Averages without a CPU row, and CPU rows without an average, are dropped.
func Combine(avgs []Average, cpu []CPURow) []Combined {
	index := lo.SliceToMap(cpu, func(c CPURow) (groupKey, float64) {
		return groupKey{platform: c.Platform, level: c.LoadLevel}, c.CPUPercent
	})

	out := lo.FilterMap(avgs, func(a Average, _ int) (Combined, bool) {
		pct, ok := index[groupKey{platform: a.Platform, level: a.LoadLevel}]
		return Combined{Average: a, CPUPercent: pct}, ok
	})
	return out
}

// Platforms lists the distinct platforms of avgs in sorted order.
func Platforms(avgs []Average) []string {
	out := lo.Uniq(lo.Map(avgs, func(a Average, _ int) string { return a.Platform }))
	sort.Strings(out)
	return out
}

func sortAverages(avgs []Average) {
	sort.Slice(avgs, func(i, j int) bool {
		if avgs[i].Platform != avgs[j].Platform {
			return avgs[i].Platform < avgs[j].Platform
		}
		return avgs[i].LoadLevel < avgs[j].LoadLevel
	})
}
