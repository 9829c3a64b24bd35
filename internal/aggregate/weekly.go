package aggregate

import (
	"sort"

	"protocolLens/internal/model"
)

// WeekDays is the length of one comparison window.
const WeekDays = 7

// PercentChange returns the change from prev to cur in percent, 0 when prev
// is 0.
func PercentChange(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

type windowTotals map[string]model.ProtocolMetrics

// Weekly compares the most recent 7 days against the 7 before them for every
// protocol in the universe. Stats come back ordered by current volume,
// largest first.
func Weekly(records []model.DailyRecord, universe []string) []model.WeeklyStat {
	if len(records) == 0 || len(universe) == 0 {
		return []model.WeeklyStat{}
	}

	sorted := sortedCopy(records)
	model.SortDescending(sorted)

	current := sumWindow(sorted, 0, WeekDays, universe)
	previous := sumWindow(sorted, WeekDays, 2*WeekDays, universe)

	var totalVolume, totalUsers float64
	for _, p := range universe {
		totalVolume += float64(current[p].Volume)
		totalUsers += float64(current[p].DailyUsers)
	}

	stats := make([]model.WeeklyStat, 0, len(universe))
	for _, p := range universe {
		cur, prev := current[p], previous[p]
		stats = append(stats, model.WeeklyStat{
			Protocol:          p,
			VolumeChange:      PercentChange(float64(cur.Volume), float64(prev.Volume)),
			UsersChange:       PercentChange(float64(cur.DailyUsers), float64(prev.DailyUsers)),
			TradesChange:      PercentChange(float64(cur.Trades), float64(prev.Trades)),
			FeesChange:        PercentChange(float64(cur.Fees), float64(prev.Fees)),
			Volume:            float64(cur.Volume),
			Users:             float64(cur.DailyUsers),
			NewUsers:          float64(cur.NewUsers),
			Trades:            float64(cur.Trades),
			Fees:              float64(cur.Fees),
			MarketShareVolume: Share(float64(cur.Volume), totalVolume) * 100,
			MarketShareUsers:  Share(float64(cur.DailyUsers), totalUsers) * 100,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Volume != stats[j].Volume {
			return stats[i].Volume > stats[j].Volume
		}
		return stats[i].Protocol < stats[j].Protocol
	})
	return stats
}

// sumWindow sums records[from:to] of a newest-first slice.
func sumWindow(newestFirst []model.DailyRecord, from, to int, universe []string) windowTotals {
	totals := make(windowTotals, len(universe))
	if from >= len(newestFirst) {
		return totals
	}
	if to > len(newestFirst) {
		to = len(newestFirst)
	}
	for _, rec := range newestFirst[from:to] {
		for _, p := range universe {
			totals[p] = totals[p].Add(rec.Protocols[p])
		}
	}
	return totals
}

// CategoryMean is the mean volume change of a category's members.
type CategoryMean struct {
	Category string
	Mean     float64
	Members  int
}

// CategoryMeans averages volume change per category over the protocols that
// have stats. Categories with no such member are omitted.
func CategoryMeans(stats []model.WeeklyStat, tax model.Taxonomy) []CategoryMean {
	byProtocol := make(map[string]model.WeeklyStat, len(stats))
	for _, s := range stats {
		byProtocol[model.NormalizeKey(s.Protocol)] = s
	}

	out := make([]CategoryMean, 0, len(tax.Categories))
	for _, cat := range tax.Categories {
		var sum float64
		var n int
		for _, p := range cat.Protocols {
			s, ok := byProtocol[model.NormalizeKey(p)]
			if !ok {
				continue
			}
			sum += s.VolumeChange
			n++
		}
		if n == 0 {
			continue
		}
		out = append(out, CategoryMean{Category: cat.Name, Mean: sum / float64(n), Members: n})
	}
	return out
}
