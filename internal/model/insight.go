package model

// InsightType classifies an insight.
type InsightType string

const (
	InsightTrend       InsightType = "trend"
	InsightComparison  InsightType = "comparison"
	InsightAnomaly     InsightType = "anomaly"
	InsightOpportunity InsightType = "opportunity"
	InsightRisk        InsightType = "risk"
)

// Impact ranks how much an insight matters.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Rank orders impact levels, high first.
func (i Impact) Rank() int {
	switch i {
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	case ImpactLow:
		return 1
	default:
		return 0
	}
}

// InsightMetric is one (metric, change, value) triple attached to an insight.
type InsightMetric struct {
	Name   string  `json:"name"`
	Change float64 `json:"change"`
	Value  float64 `json:"value"`
}

// Insight is a ranked, ready-to-render finding.
type Insight struct {
	Type           InsightType     `json:"type"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Impact         Impact          `json:"impact"`
	Protocols      []string        `json:"protocols"`
	Metrics        []InsightMetric `json:"metrics"`
	Confidence     float64         `json:"confidence"`
	Recommendation string          `json:"recommendation,omitempty"`
}
