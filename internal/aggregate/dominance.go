package aggregate

import (
	"encoding/json"
	"sort"
	"time"

	"protocolLens/internal/model"
)

// DominanceRow is one day of grouped metric values and their shares of the
// day's market total.
type DominanceRow struct {
	Date      time.Time          `json:"-"`
	Total     float64            `json:"total"`
	Values    map[string]float64 `json:"values"`
	Dominance map[string]float64 `json:"dominance"`
}

// MarshalJSON encodes the row with an ISO date.
func (r DominanceRow) MarshalJSON() ([]byte, error) {
	type Alias DominanceRow
	return json.Marshal(struct {
		Date string `json:"date"`
		Alias
	}{Date: model.FormatDate(r.Date), Alias: Alias(r)})
}

// DailyTotal is the market-wide sum of a metric for one day.
type DailyTotal struct {
	Date  time.Time
	Total float64
}

// Share divides part by total, returning 0 for a zero total.
func Share(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total
}

// DailyTotals sums a metric over the protocol universe for each day,
// oldest first.
func DailyTotals(records []model.DailyRecord, metric model.Metric, universe []string) []DailyTotal {
	sorted := sortedCopy(records)
	out := make([]DailyTotal, 0, len(sorted))
	for _, rec := range sorted {
		out = append(out, DailyTotal{Date: rec.Date, Total: dayTotal(rec, metric, universe)})
	}
	return out
}

// Dominance folds records into one row per day. Group values are summed per
// protocol first and then per group; the denominator is the whole universe,
// so groups that leave protocols out do not add up to 1. Group members missing
// from universe are added to the denominator, which keeps every share <= 1.
func Dominance(records []model.DailyRecord, metric model.Metric, grouping Grouping, universe []string) []DominanceRow {
	sorted := sortedCopy(records)
	totals := DailyTotals(sorted, metric, denominator(universe, grouping))
	rows := make([]DominanceRow, 0, len(sorted))
	for i, rec := range sorted {
		row := DominanceRow{
			Date:   rec.Date,
			Total:  totals[i].Total,
			Values: make(map[string]float64, len(grouping.Groups)),
		}
		for _, group := range grouping.Groups {
			var sum float64
			for _, p := range group.Protocols {
				sum += rec.Value(p, metric)
			}
			row.Values[group.Name] = sum
		}
		rows = append(rows, row)
	}
	return Recompute(rows)
}

// denominator is universe plus any grouped protocol it lacks, normalized and
// deduplicated.
func denominator(universe []string, grouping Grouping) []string {
	seen := make(map[string]struct{}, len(universe))
	out := make([]string, 0, len(universe))
	add := func(p string) {
		key := model.NormalizeKey(p)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	for _, p := range universe {
		add(p)
	}
	for _, group := range grouping.Groups {
		for _, p := range group.Protocols {
			add(p)
		}
	}
	return out
}

// Recompute derives every row's dominance from its values and total.
func Recompute(rows []DominanceRow) []DominanceRow {
	for i := range rows {
		dom := make(map[string]float64, len(rows[i].Values))
		for name, value := range rows[i].Values {
			dom[name] = Share(value, rows[i].Total)
		}
		rows[i].Dominance = dom
	}
	return rows
}

// PeriodShare is a group's summed value over a set of rows and its share of
// the summed total.
type PeriodShare struct {
	Group string  `json:"group"`
	Value float64 `json:"value"`
	Share float64 `json:"share"`
}

// PeriodShares computes window-level dominance, largest value first.
func PeriodShares(rows []DominanceRow) []PeriodShare {
	sums := make(map[string]float64)
	var total float64
	for _, row := range rows {
		total += row.Total
		for name, value := range row.Values {
			sums[name] += value
		}
	}

	out := make([]PeriodShare, 0, len(sums))
	for name, value := range sums {
		out = append(out, PeriodShare{Group: name, Value: value, Share: Share(value, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Group < out[j].Group
	})
	return out
}

func dayTotal(rec model.DailyRecord, metric model.Metric, universe []string) float64 {
	var total float64
	for _, p := range universe {
		total += rec.Value(p, metric)
	}
	return total
}

func sortedCopy(records []model.DailyRecord) []model.DailyRecord {
	out := make([]model.DailyRecord, len(records))
	copy(out, records)
	model.SortAscending(out)
	return out
}
