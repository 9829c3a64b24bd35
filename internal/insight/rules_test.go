package insight

import (
	"reflect"
	"testing"
	"time"

	"protocolLens/internal/aggregate"
	"protocolLens/internal/model"
)

func weeklyFromTotals(prev, cur map[string]float64) []model.WeeklyStat {
	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	records := make([]model.DailyRecord, 0, 14)
	for i := 0; i < 14; i++ {
		protocols := make(map[string]model.ProtocolMetrics)
		src := prev
		if i >= 7 {
			src = cur
		}
		for p, total := range src {
			protocols[p] = model.ProtocolMetrics{Volume: model.Value(total / 7), DailyUsers: 10}
		}
		records = append(records, model.NewDailyRecord(start.AddDate(0, 0, i), protocols))
	}
	return aggregate.Weekly(records, aggregate.Universe(records, nil))
}

func inputFor(weekly []model.WeeklyStat) Input {
	return Input{Stats: weekly, Summary: Summarize(weekly)}
}

func TestMarketRiskScenario(t *testing.T) {
	calm := weeklyFromTotals(
		map[string]float64{"a": 100, "b": 200},
		map[string]float64{"a": 130, "b": 190},
	)
	if _, ok := MarketRisk(inputFor(calm)); ok {
		t.Fatalf("market risk should not fire when nobody drops past -15%%")
	}

	falling := weeklyFromTotals(
		map[string]float64{"a": 100, "b": 200},
		map[string]float64{"a": 80, "b": 190},
	)
	ins, ok := MarketRisk(inputFor(falling))
	if !ok {
		t.Fatalf("market risk should fire for a -20%% drop")
	}
	if !reflect.DeepEqual(ins.Protocols, []string{"a"}) {
		t.Fatalf("protocols mismatch: %v", ins.Protocols)
	}
	if ins.Type != model.InsightRisk || ins.Impact != model.ImpactHigh || ins.Confidence != 0.85 {
		t.Fatalf("unexpected insight shape: %+v", ins)
	}
}

func TestMarketRiskAggregatesAndIgnoresSmallShares(t *testing.T) {
	stats := []model.WeeklyStat{
		{Protocol: "a", VolumeChange: -20, MarketShareVolume: 40},
		{Protocol: "b", VolumeChange: -40, MarketShareVolume: 10},
		{Protocol: "tiny", VolumeChange: -90, MarketShareVolume: 1},
	}
	ins, ok := MarketRisk(inputFor(stats))
	if !ok {
		t.Fatalf("expected market risk insight")
	}
	if !reflect.DeepEqual(ins.Protocols, []string{"b", "a"}) {
		t.Fatalf("protocols should be worst first without tiny: %v", ins.Protocols)
	}
	if len(ins.Metrics) != 2 {
		t.Fatalf("expected one metric per protocol, got %d", len(ins.Metrics))
	}
}

func TestMarketLeaderSurge(t *testing.T) {
	stats := []model.WeeklyStat{
		{Protocol: "b", Volume: 500, VolumeChange: 50},
		{Protocol: "a", Volume: 1000, VolumeChange: 20},
	}
	ins, ok := MarketLeaderSurge(inputFor(stats))
	if !ok || !reflect.DeepEqual(ins.Protocols, []string{"a"}) {
		t.Fatalf("expected surge for leader a, got %+v %v", ins, ok)
	}
	if ins.Confidence != 0.90 || ins.Impact != model.ImpactHigh {
		t.Fatalf("unexpected insight shape: %+v", ins)
	}

	stats[1].VolumeChange = 15
	if _, ok := MarketLeaderSurge(inputFor(stats)); ok {
		t.Fatalf("15%% is not above the threshold")
	}
}

func TestPeerComparison(t *testing.T) {
	tax := model.Taxonomy{Categories: model.NewGroups(map[string][]string{
		"terminals":    {"axiom", "photon", "bull x"},
		"trading_bots": {"trojan"},
	})}
	stats := []model.WeeklyStat{
		{Protocol: "axiom", VolumeChange: 20},
		{Protocol: "photon", VolumeChange: 5},
		{Protocol: "bull_x", VolumeChange: 5},
		{Protocol: "trojan", VolumeChange: -50},
	}

	in := Input{Stats: stats, Taxonomy: tax, Focus: "Axiom"}
	ins, ok := PeerComparison(in)
	if !ok {
		t.Fatalf("expected comparison insight")
	}
	if ins.Type != model.InsightComparison || ins.Impact != model.ImpactMedium || ins.Confidence != 0.85 {
		t.Fatalf("unexpected insight shape: %+v", ins)
	}
	if !reflect.DeepEqual(ins.Protocols, []string{"axiom", "photon", "bull_x"}) {
		t.Fatalf("protocols mismatch: %v", ins.Protocols)
	}

	stats[0].VolumeChange = 8
	if _, ok := PeerComparison(in); ok {
		t.Fatalf("a 3 point gap should not fire")
	}

	in.Focus = "trojan"
	if _, ok := PeerComparison(in); ok {
		t.Fatalf("focus without peers should not fire")
	}
	in.Focus = "maestro"
	if _, ok := PeerComparison(in); ok {
		t.Fatalf("focus outside the taxonomy should not fire")
	}
}

func TestStatisticalAnomaly(t *testing.T) {
	stats := []model.WeeklyStat{
		{Protocol: "a"}, {Protocol: "b"}, {Protocol: "c"},
		{Protocol: "d"}, {Protocol: "e"}, {Protocol: "f"},
		{Protocol: "g", VolumeChange: 50},
	}
	ins, ok := StatisticalAnomaly(inputFor(stats))
	if !ok || !reflect.DeepEqual(ins.Protocols, []string{"g"}) {
		t.Fatalf("expected anomaly for g, got %+v %v", ins, ok)
	}
	if ins.Confidence != 0.95 {
		t.Fatalf("confidence mismatch: %v", ins.Confidence)
	}

	if _, ok := StatisticalAnomaly(inputFor(stats[:1])); ok {
		t.Fatalf("single data point must not produce an anomaly")
	}
	if _, ok := StatisticalAnomaly(inputFor(stats[:3])); ok {
		t.Fatalf("constant series must not produce an anomaly")
	}
}

func TestCategoryDivergence(t *testing.T) {
	tax := model.Taxonomy{Categories: model.NewGroups(map[string][]string{
		"x": {"a", "b"},
		"y": {"c"},
	})}
	stats := []model.WeeklyStat{
		{Protocol: "a", VolumeChange: 10},
		{Protocol: "b", VolumeChange: 20},
		{Protocol: "c", VolumeChange: -5},
	}
	ins, ok := CategoryDivergence(Input{Stats: stats, Taxonomy: tax})
	if !ok {
		t.Fatalf("expected divergence insight")
	}
	if ins.Confidence != 0.80 || !reflect.DeepEqual(ins.Protocols, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected insight: %+v", ins)
	}

	stats[2].VolumeChange = 6
	if _, ok := CategoryDivergence(Input{Stats: stats, Taxonomy: tax}); ok {
		t.Fatalf("a 9 point spread should not fire")
	}
}

func TestUserVolumeCorrelation(t *testing.T) {
	stats := []model.WeeklyStat{
		{Protocol: "a", VolumeChange: 10, UsersChange: 1},
		{Protocol: "b", VolumeChange: 20, UsersChange: 2},
		{Protocol: "c", VolumeChange: 30, UsersChange: 3.5},
	}
	ins, ok := UserVolumeCorrelation(inputFor(stats))
	if !ok || ins.Title != "User growth drives volume" {
		t.Fatalf("expected positive correlation insight, got %+v %v", ins, ok)
	}

	if _, ok := UserVolumeCorrelation(inputFor(stats[:1])); ok {
		t.Fatalf("single data point must not produce a correlation insight")
	}
}
