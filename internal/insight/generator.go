package insight

import (
	"sort"

	"go.uber.org/zap"

	"protocolLens/internal/model"
)

// Generator runs a rule pipeline and ranks the results.
type Generator struct {
	rules  []Rule
	logger *zap.Logger
}

// NewGenerator builds a Generator. With no rules given it uses DefaultRules.
func NewGenerator(logger *zap.Logger, rules ...Rule) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Generator{rules: rules, logger: logger}
}

// Generate runs every rule over the weekly stats, ranks the insights by impact
// and then confidence, and keeps at most limit of them (all when limit <= 0).
func (g *Generator) Generate(weekly []model.WeeklyStat, tax model.Taxonomy, focus string, limit int) []model.Insight {
	in := Input{
		Stats:    weekly,
		Taxonomy: tax,
		Focus:    focus,
		Summary:  Summarize(weekly),
	}

	insights := make([]model.Insight, 0, len(g.rules))
	for _, rule := range g.rules {
		ins, ok := rule.Apply(in)
		if !ok {
			continue
		}
		g.logger.Debug("rule fired",
			zap.String("rule", rule.Name),
			zap.String("impact", string(ins.Impact)),
			zap.Float64("confidence", ins.Confidence),
			zap.Strings("protocols", ins.Protocols),
		)
		insights = append(insights, ins)
	}

	Rank(insights)
	if limit > 0 && len(insights) > limit {
		insights = insights[:limit]
	}
	return insights
}

// Rank orders insights by impact (high first), then confidence (descending).
// Remaining ties fall back to type and title so the order never depends on
// rule order.
func Rank(insights []model.Insight) {
	sort.SliceStable(insights, func(i, j int) bool {
		a, b := insights[i], insights[j]
		if a.Impact.Rank() != b.Impact.Rank() {
			return a.Impact.Rank() > b.Impact.Rank()
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Title < b.Title
	})
}
