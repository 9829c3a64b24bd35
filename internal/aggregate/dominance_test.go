package aggregate

import (
	"math"
	"reflect"
	"testing"

	"protocolLens/internal/model"
)

const eps = 1e-9

func TestDominanceSumsToOnePerDay(t *testing.T) {
	records := volumeDays(map[string][]float64{
		"axiom":  {100, 0, 50, 30},
		"photon": {300, 0, 25, 70},
		"bull x": {100, 0, 25, 0},
	})
	universe := Universe(records, nil)
	rows := Dominance(records, model.MetricVolume, ByProtocol(universe), universe)

	if len(rows) != len(records) {
		t.Fatalf("expected %d rows, got %d", len(records), len(rows))
	}
	for _, row := range rows {
		var sum float64
		for _, d := range row.Dominance {
			sum += d
		}
		if row.Total > 0 && math.Abs(sum-1) > eps {
			t.Fatalf("dominance on %s sums to %v", model.FormatDate(row.Date), sum)
		}
		if row.Total == 0 {
			for name, d := range row.Dominance {
				if d != 0 {
					t.Fatalf("zero-total day has dominance %v for %s", d, name)
				}
			}
		}
	}
	if got := rows[0].Dominance["photon"]; math.Abs(got-0.6) > eps {
		t.Fatalf("photon dominance mismatch: %v", got)
	}
}

func TestCategoryDominanceExcludesUnlistedProtocols(t *testing.T) {
	records := volumeDays(map[string][]float64{
		"axiom":   {100, 200},
		"photon":  {100, 0},
		"trojan":  {100, 100},
		"maestro": {100, 100},
	})
	tax := model.Taxonomy{Categories: model.NewGroups(map[string][]string{
		"terminals":    {"axiom", "photon"},
		"trading_bots": {"trojan"},
	})}
	universe := Universe(records, nil)
	rows := Dominance(records, model.MetricVolume, ByCategory(tax), universe)
	total := Dominance(records, model.MetricVolume, TotalMarket(universe), universe)

	for i, row := range rows {
		var sum float64
		for name, d := range row.Dominance {
			if d < 0 || d > 1 {
				t.Fatalf("category %s dominance out of range: %v", name, d)
			}
			if d > total[i].Dominance[TotalGroup]+eps {
				t.Fatalf("category %s exceeds total-market dominance", name)
			}
			sum += d
		}
		if sum >= 1 {
			t.Fatalf("categories should not cover the unlisted protocol, sum=%v", sum)
		}
	}
	if got := rows[0].Dominance["terminals"]; math.Abs(got-0.5) > eps {
		t.Fatalf("terminals dominance mismatch: %v", got)
	}
	if got := total[0].Dominance[TotalGroup]; math.Abs(got-1) > eps {
		t.Fatalf("total market dominance should be 1, got %v", got)
	}
}

func TestDominanceSortsNewestFirstInput(t *testing.T) {
	records := volumeDays(map[string][]float64{"a": {1, 2, 3}})
	model.SortDescending(records)

	rows := Dominance(records, model.MetricVolume, ByProtocol([]string{"a"}), []string{"a"})
	for i := 1; i < len(rows); i++ {
		if !rows[i-1].Date.Before(rows[i].Date) {
			t.Fatalf("rows not ascending")
		}
	}
	if !records[0].Date.Equal(dayN(2)) {
		t.Fatalf("input slice was reordered")
	}
}

func TestRecomputeUsesFilteredTotals(t *testing.T) {
	rows := []DominanceRow{{
		Date:      day0,
		Total:     10,
		Values:    map[string]float64{"a": 5, "b": 5},
		Dominance: map[string]float64{"a": 0.1, "b": 0.9},
	}}
	rows = Recompute(rows)
	if !reflect.DeepEqual(rows[0].Dominance, map[string]float64{"a": 0.5, "b": 0.5}) {
		t.Fatalf("dominance not recomputed: %v", rows[0].Dominance)
	}
}

func TestPeriodShares(t *testing.T) {
	records := volumeDays(map[string][]float64{
		"a": {10, 30},
		"b": {30, 30},
	})
	universe := Universe(records, nil)
	shares := PeriodShares(Dominance(records, model.MetricVolume, ByProtocol(universe), universe))

	want := []PeriodShare{
		{Group: "b", Value: 60, Share: 0.6},
		{Group: "a", Value: 40, Share: 0.4},
	}
	if !reflect.DeepEqual(shares, want) {
		t.Fatalf("period shares mismatch: %+v", shares)
	}
}

func TestDominanceEmptyInput(t *testing.T) {
	if rows := Dominance(nil, model.MetricVolume, ByProtocol(nil), nil); len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
	if totals := DailyTotals(nil, model.MetricFees, nil); len(totals) != 0 {
		t.Fatalf("expected no totals, got %d", len(totals))
	}
}

func TestUniverseNormalizesConfiguredList(t *testing.T) {
	got := Universe(nil, []string{"Bull X", "photon", "bull_x", " "})
	if !reflect.DeepEqual(got, []string{"bull_x", "photon"}) {
		t.Fatalf("universe mismatch: %v", got)
	}
}

func TestDominanceCountsGroupMembersMissingFromUniverse(t *testing.T) {
	records := volumeDays(map[string][]float64{
		"axiom":  {100},
		"photon": {300},
	})
	tax := model.Taxonomy{Categories: model.NewGroups(map[string][]string{
		"terminals": {"axiom", "photon"},
	})}

	rows := Dominance(records, model.MetricVolume, ByCategory(tax), []string{"axiom"})
	if rows[0].Total != 400 {
		t.Fatalf("expected grouped protocols in the denominator, total %v", rows[0].Total)
	}
	if got := rows[0].Dominance["terminals"]; math.Abs(got-1) > eps {
		t.Fatalf("category share should be 1, got %v", got)
	}
}
