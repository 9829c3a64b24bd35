package insight

import (
	"reflect"
	"testing"

	"protocolLens/internal/model"
)

func fixed(ins model.Insight) Rule {
	return Rule{Name: ins.Title, Apply: func(Input) (model.Insight, bool) { return ins, true }}
}

func TestGenerateRanksAndTruncates(t *testing.T) {
	rules := []Rule{
		fixed(model.Insight{Title: "low", Impact: model.ImpactLow, Confidence: 0.99}),
		fixed(model.Insight{Title: "medium", Impact: model.ImpactMedium, Confidence: 0.9}),
		fixed(model.Insight{Title: "high-85", Impact: model.ImpactHigh, Confidence: 0.85}),
		fixed(model.Insight{Title: "high-95", Impact: model.ImpactHigh, Confidence: 0.95}),
		{Name: "silent", Apply: func(Input) (model.Insight, bool) { return model.Insight{}, false }},
	}

	got := NewGenerator(nil, rules...).Generate(nil, model.Taxonomy{}, "", 0)
	var titles []string
	for _, ins := range got {
		titles = append(titles, ins.Title)
	}
	want := []string{"high-95", "high-85", "medium", "low"}
	if !reflect.DeepEqual(titles, want) {
		t.Fatalf("ranking mismatch: %v != %v", titles, want)
	}

	if got := NewGenerator(nil, rules...).Generate(nil, model.Taxonomy{}, "", 2); len(got) != 2 {
		t.Fatalf("expected 2 insights after truncation, got %d", len(got))
	}
}

func scenarioStats() ([]model.WeeklyStat, model.Taxonomy) {
	tax := model.Taxonomy{Categories: model.NewGroups(map[string][]string{
		"terminals":    {"axiom", "photon"},
		"trading_bots": {"trojan", "bonkbot"},
	})}
	stats := []model.WeeklyStat{
		{Protocol: "axiom", Volume: 5000, VolumeChange: 40, UsersChange: 30, MarketShareVolume: 50},
		{Protocol: "photon", Volume: 2000, VolumeChange: 10, UsersChange: 8, MarketShareVolume: 20},
		{Protocol: "trojan", Volume: 2000, VolumeChange: -25, UsersChange: -20, MarketShareVolume: 20},
		{Protocol: "bonkbot", Volume: 1000, VolumeChange: -18, UsersChange: -10, MarketShareVolume: 10},
	}
	return stats, tax
}

func TestGenerateIsIndependentOfRuleOrder(t *testing.T) {
	stats, tax := scenarioStats()

	forward := NewGenerator(nil).Generate(stats, tax, "axiom", 0)
	rules := DefaultRules()
	for i, j := 0, len(rules)-1; i < j; i, j = i+1, j-1 {
		rules[i], rules[j] = rules[j], rules[i]
	}
	backward := NewGenerator(nil, rules...).Generate(stats, tax, "axiom", 0)

	if len(forward) == 0 {
		t.Fatalf("expected insights for the scenario")
	}
	if !reflect.DeepEqual(forward, backward) {
		t.Fatalf("rule order changed the ranking:\n%+v\n%+v", forward, backward)
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	stats, tax := scenarioStats()
	gen := NewGenerator(nil)

	first := gen.Generate(stats, tax, "photon", 4)
	second := gen.Generate(stats, tax, "photon", 4)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated runs differ")
	}
	if len(first) > 4 {
		t.Fatalf("limit not applied: %d", len(first))
	}
}

func TestGenerateEmpty(t *testing.T) {
	got := NewGenerator(nil).Generate(nil, model.Taxonomy{}, "axiom", 4)
	if len(got) != 0 {
		t.Fatalf("expected no insights, got %+v", got)
	}
}
