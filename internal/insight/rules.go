package insight

import (
	"fmt"
	"math"
	"sort"

	"protocolLens/internal/aggregate"
	"protocolLens/internal/model"
	"protocolLens/internal/stats"
)

const (
	leaderSurgeThreshold     = 15.0
	peerGapThreshold         = 5.0
	peerGapHighImpact        = 20.0
	anomalyZThreshold        = 2.0
	categorySpreadThreshold  = 10.0
	correlationThreshold     = 0.7
	riskShareThreshold       = 3.0
	riskDeclineThreshold     = -15.0
	minStatisticalSampleSize = 2
)

// Input is what every rule sees: the weekly stats plus precomputed summary
// statistics over them.
type Input struct {
	Stats    []model.WeeklyStat
	Taxonomy model.Taxonomy
	Focus    string
	Summary  Summary
}

// Summary holds cross-sectional statistics of the weekly stats.
type Summary struct {
	VolumeMean   float64
	VolumeStdDev float64
	Correlation  float64
}

// Summarize computes the volume-change mean and deviation and the
// volume/users change correlation across protocols.
func Summarize(weekly []model.WeeklyStat) Summary {
	volume := make([]float64, 0, len(weekly))
	users := make([]float64, 0, len(weekly))
	for _, s := range weekly {
		volume = append(volume, s.VolumeChange)
		users = append(users, s.UsersChange)
	}
	return Summary{
		VolumeMean:   stats.Mean(volume),
		VolumeStdDev: stats.StandardDeviation(volume),
		Correlation:  stats.Correlation(volume, users),
	}
}

// Rule inspects the input and emits at most one insight.
type Rule struct {
	Name  string
	Apply func(Input) (model.Insight, bool)
}

// DefaultRules returns the fixed rule pipeline.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "market_leader_surge", Apply: MarketLeaderSurge},
		{Name: "peer_comparison", Apply: PeerComparison},
		{Name: "statistical_anomaly", Apply: StatisticalAnomaly},
		{Name: "category_divergence", Apply: CategoryDivergence},
		{Name: "user_volume_correlation", Apply: UserVolumeCorrelation},
		{Name: "market_risk", Apply: MarketRisk},
	}
}

// MarketLeaderSurge fires when the largest protocol by volume grew more than
// 15% week over week.
func MarketLeaderSurge(in Input) (model.Insight, bool) {
	if len(in.Stats) == 0 {
		return model.Insight{}, false
	}
	leader := in.Stats[0]
	for _, s := range in.Stats[1:] {
		if s.Volume > leader.Volume || (s.Volume == leader.Volume && s.Protocol < leader.Protocol) {
			leader = s
		}
	}
	if leader.VolumeChange <= leaderSurgeThreshold {
		return model.Insight{}, false
	}

	return model.Insight{
		Type:  model.InsightTrend,
		Title: fmt.Sprintf("Market leader %s surges %s", leader.Protocol, formatChange(leader.VolumeChange)),
		Description: fmt.Sprintf("%s leads weekly volume with %s (%.1f%% market share), up %s week over week while users moved %s.",
			leader.Protocol, formatUSD(leader.Volume), leader.MarketShareVolume, formatChange(leader.VolumeChange), formatChange(leader.UsersChange)),
		Impact:    model.ImpactHigh,
		Protocols: []string{leader.Protocol},
		Metrics: []model.InsightMetric{
			{Name: string(model.MetricVolume), Change: leader.VolumeChange, Value: leader.Volume},
			{Name: string(model.MetricUsers), Change: leader.UsersChange, Value: leader.Users},
		},
		Confidence:     0.90,
		Recommendation: fmt.Sprintf("Track whether %s sustains the surge into next week before reallocating attention.", leader.Protocol),
	}, true
}

// PeerComparison fires when the focus protocol's volume change differs from
// the mean of its category peers by more than 5 percentage points.
func PeerComparison(in Input) (model.Insight, bool) {
	focus := model.NormalizeKey(in.Focus)
	if focus == "" {
		return model.Insight{}, false
	}
	category, ok := in.Taxonomy.CategoryOf(focus)
	if !ok {
		return model.Insight{}, false
	}

	var target model.WeeklyStat
	var found bool
	var peers []model.WeeklyStat
	for _, s := range in.Stats {
		key := model.NormalizeKey(s.Protocol)
		if key == focus {
			target, found = s, true
			continue
		}
		if cat, ok := in.Taxonomy.CategoryOf(key); ok && cat == category {
			peers = append(peers, s)
		}
	}
	if !found || len(peers) == 0 {
		return model.Insight{}, false
	}

	peerChanges := make([]float64, 0, len(peers))
	peerNames := make([]string, 0, len(peers))
	for _, p := range peers {
		peerChanges = append(peerChanges, p.VolumeChange)
		peerNames = append(peerNames, p.Protocol)
	}
	peerMean := stats.Mean(peerChanges)
	gap := target.VolumeChange - peerMean
	if math.Abs(gap) <= peerGapThreshold {
		return model.Insight{}, false
	}

	impact := model.ImpactMedium
	if math.Abs(gap) > peerGapHighImpact {
		impact = model.ImpactHigh
	}
	verb, recommendation := "outperforms", fmt.Sprintf("Identify what is driving %s ahead of %s peers and reinforce it.", target.Protocol, category)
	if gap < 0 {
		verb = "underperforms"
		recommendation = fmt.Sprintf("Review %s against %s to find where %s peers are winning volume.", target.Protocol, joinNames(peerNames), category)
	}

	return model.Insight{
		Type:  model.InsightComparison,
		Title: fmt.Sprintf("%s %s %s peers", target.Protocol, verb, category),
		Description: fmt.Sprintf("%s volume moved %s week over week versus a %s average of %s across %d peers, a gap of %.1f points.",
			target.Protocol, formatChange(target.VolumeChange), category, formatChange(peerMean), len(peers), math.Abs(gap)),
		Impact:    impact,
		Protocols: append([]string{target.Protocol}, peerNames...),
		Metrics: []model.InsightMetric{
			{Name: string(model.MetricVolume), Change: target.VolumeChange, Value: target.Volume},
			{Name: "peer_volume_mean", Change: peerMean, Value: 0},
		},
		Confidence:     0.85,
		Recommendation: recommendation,
	}, true
}

// StatisticalAnomaly reports the protocol whose volume change is most extreme
// when its |z-score| exceeds 2.
func StatisticalAnomaly(in Input) (model.Insight, bool) {
	if len(in.Stats) < minStatisticalSampleSize || in.Summary.VolumeStdDev == 0 {
		return model.Insight{}, false
	}

	var subject model.WeeklyStat
	var best float64
	for _, s := range in.Stats {
		z := stats.ZScore(s.VolumeChange, in.Summary.VolumeMean, in.Summary.VolumeStdDev)
		if math.Abs(z) > anomalyZThreshold && math.Abs(z) > math.Abs(best) {
			subject, best = s, z
		}
	}
	if best == 0 {
		return model.Insight{}, false
	}

	direction := "spike"
	if best < 0 {
		direction = "drop"
	}
	return model.Insight{
		Type:  model.InsightAnomaly,
		Title: fmt.Sprintf("Unusual volume %s at %s", direction, subject.Protocol),
		Description: fmt.Sprintf("%s volume changed %s week over week, %.1f standard deviations from the market mean of %s.",
			subject.Protocol, formatChange(subject.VolumeChange), best, formatChange(in.Summary.VolumeMean)),
		Impact:    model.ImpactHigh,
		Protocols: []string{subject.Protocol},
		Metrics: []model.InsightMetric{
			{Name: string(model.MetricVolume), Change: subject.VolumeChange, Value: subject.Volume},
			{Name: "z_score", Change: 0, Value: best},
		},
		Confidence:     0.95,
		Recommendation: fmt.Sprintf("Check %s for one-off events such as launches, incidents or incentive changes.", subject.Protocol),
	}, true
}

// CategoryDivergence fires when the best category's mean volume change beats
// the worst category's by more than 10 percentage points.
func CategoryDivergence(in Input) (model.Insight, bool) {
	means := aggregate.CategoryMeans(in.Stats, in.Taxonomy)
	if len(means) < 2 {
		return model.Insight{}, false
	}

	best, worst := means[0], means[0]
	for _, m := range means[1:] {
		if m.Mean > best.Mean {
			best = m
		}
		if m.Mean < worst.Mean {
			worst = m
		}
	}
	spread := best.Mean - worst.Mean
	if spread <= categorySpreadThreshold {
		return model.Insight{}, false
	}

	var protocols []string
	for _, name := range []string{best.Category, worst.Category} {
		for _, s := range in.Stats {
			if cat, ok := in.Taxonomy.CategoryOf(s.Protocol); ok && cat == name {
				protocols = append(protocols, s.Protocol)
			}
		}
	}

	return model.Insight{
		Type:  model.InsightTrend,
		Title: fmt.Sprintf("%s pulls ahead of %s", best.Category, worst.Category),
		Description: fmt.Sprintf("%s averaged %s volume change across %d protocols against %s for %s, a %.1f point spread.",
			best.Category, formatChange(best.Mean), best.Members, formatChange(worst.Mean), worst.Category, spread),
		Impact:    model.ImpactMedium,
		Protocols: protocols,
		Metrics: []model.InsightMetric{
			{Name: best.Category, Change: best.Mean, Value: float64(best.Members)},
			{Name: worst.Category, Change: worst.Mean, Value: float64(worst.Members)},
		},
		Confidence:     0.80,
		Recommendation: fmt.Sprintf("Weigh exposure toward %s while the divergence persists.", best.Category),
	}, true
}

// UserVolumeCorrelation fires when volume and user changes are strongly
// correlated (|r| > 0.7) across protocols.
func UserVolumeCorrelation(in Input) (model.Insight, bool) {
	if len(in.Stats) < minStatisticalSampleSize {
		return model.Insight{}, false
	}
	r := in.Summary.Correlation
	if math.Abs(r) <= correlationThreshold {
		return model.Insight{}, false
	}

	protocols := make([]string, 0, len(in.Stats))
	for _, s := range in.Stats {
		protocols = append(protocols, s.Protocol)
	}

	title, description := "User growth drives volume", "Protocols that gained users also gained volume this week"
	recommendation := "Prioritise user acquisition metrics as a leading indicator of volume."
	if r < 0 {
		title, description = "Volume and users diverge", "Protocols that gained users lost volume this week, and the reverse"
		recommendation = "Look at volume per user: growth is coming from fewer, larger traders or from low-value new users."
	}

	return model.Insight{
		Type:        model.InsightTrend,
		Title:       title,
		Description: fmt.Sprintf("%s (correlation %.2f across %d protocols).", description, r, len(in.Stats)),
		Impact:      model.ImpactMedium,
		Protocols:   protocols,
		Metrics: []model.InsightMetric{
			{Name: "correlation", Change: 0, Value: r},
		},
		Confidence:     0.90,
		Recommendation: recommendation,
	}, true
}

// MarketRisk aggregates every protocol holding more than 3% volume share that
// lost more than 15% volume week over week.
func MarketRisk(in Input) (model.Insight, bool) {
	var hit []model.WeeklyStat
	for _, s := range in.Stats {
		if s.MarketShareVolume > riskShareThreshold && s.VolumeChange < riskDeclineThreshold {
			hit = append(hit, s)
		}
	}
	if len(hit) == 0 {
		return model.Insight{}, false
	}
	sort.SliceStable(hit, func(i, j int) bool { return hit[i].VolumeChange < hit[j].VolumeChange })

	names := make([]string, 0, len(hit))
	metrics := make([]model.InsightMetric, 0, len(hit))
	var share float64
	for _, s := range hit {
		names = append(names, s.Protocol)
		metrics = append(metrics, model.InsightMetric{Name: s.Protocol + "_volume", Change: s.VolumeChange, Value: s.Volume})
		share += s.MarketShareVolume
	}

	title := fmt.Sprintf("Volume decline at %s", joinNames(names))
	if len(hit) > 1 {
		title = fmt.Sprintf("Volume decline across %d major protocols", len(hit))
	}
	return model.Insight{
		Type:  model.InsightRisk,
		Title: title,
		Description: fmt.Sprintf("%s, together holding %.1f%% of weekly volume, fell by more than 15%% week over week (worst %s at %s).",
			joinNames(names), share, hit[0].Protocol, formatChange(hit[0].VolumeChange)),
		Impact:         model.ImpactHigh,
		Protocols:      names,
		Metrics:        metrics,
		Confidence:     0.85,
		Recommendation: "Monitor these protocols for continued outflows and check whether volume is migrating to competitors.",
	}, true
}
