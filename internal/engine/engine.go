package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"protocolLens/internal/aggregate"
	"protocolLens/internal/insight"
	"protocolLens/internal/model"
	"protocolLens/internal/window"
)

// DefaultDisplayCount is the insight limit the CLI applies when none is
// configured. The engine itself keeps every insight when DisplayCount <= 0.
const DefaultDisplayCount = 4

// Config is the static analysis configuration. It is loaded once by the
// caller at startup and passed in; the engine never loads it itself.
type Config struct {
	Taxonomy     model.Taxonomy
	Protocols    []string
	Focus        string
	DisplayCount int
}

// Report is the output of one analysis pass.
type Report struct {
	InputHash string             `json:"input_hash"`
	Weekly    []model.WeeklyStat `json:"weekly"`
	Insights  []model.Insight    `json:"insights"`
}

// ReportCache is an optional shared cache consulted by AnalyzeCached.
type ReportCache interface {
	Get(ctx context.Context, key string) (Report, bool, error)
	Set(ctx context.Context, key string, report Report) error
}

// Query selects a dominance view.
type Query struct {
	Metric    model.Metric
	GroupBy   aggregate.GroupKind
	Timeframe window.Timeframe
	Disabled  []string
}

// Engine runs the aggregation, statistics and insight passes. It is safe for
// concurrent use; the only state is the memo of the last analysis.
type Engine struct {
	cfg       Config
	generator *insight.Generator
	cache     ReportCache
	logger    *zap.Logger

	mu       sync.Mutex
	lastHash string
	last     Report
}

// New validates the configuration and builds an Engine. cache may be nil.
func New(cfg Config, cache ReportCache, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Taxonomy.Validate(); err != nil {
		return nil, fmt.Errorf("taxonomy: %w", err)
	}
	if len(cfg.Protocols) > 0 {
		known := make(map[string]struct{}, len(cfg.Protocols))
		for _, p := range cfg.Protocols {
			known[model.NormalizeKey(p)] = struct{}{}
		}
		for _, p := range cfg.Taxonomy.Protocols() {
			if _, ok := known[p]; !ok {
				return nil, fmt.Errorf("taxonomy references unknown protocol %q", p)
			}
		}
		if focus := model.NormalizeKey(cfg.Focus); focus != "" {
			if _, ok := known[focus]; !ok {
				return nil, fmt.Errorf("focus protocol %q is not in the protocol list", cfg.Focus)
			}
		}
	}
	return &Engine{
		cfg:       cfg,
		generator: insight.NewGenerator(logger),
		cache:     cache,
		logger:    logger,
	}, nil
}

// Analyze computes weekly stats and ranked insights. Repeated calls with the
// same records return the memoized report; callers must not mutate it.
func (e *Engine) Analyze(records []model.DailyRecord) Report {
	hash := e.hash(records)

	e.mu.Lock()
	if hash == e.lastHash {
		report := e.last
		e.mu.Unlock()
		e.logger.Debug("analysis memo hit", zap.String("hash", hash))
		return report
	}
	e.mu.Unlock()

	report := e.analyze(records, hash)

	e.mu.Lock()
	e.lastHash, e.last = hash, report
	e.mu.Unlock()
	return report
}

// AnalyzeCached is Analyze behind the shared cache. Cache failures are
// logged and the analysis runs uncached.
func (e *Engine) AnalyzeCached(ctx context.Context, records []model.DailyRecord) Report {
	if e.cache == nil {
		return e.Analyze(records)
	}

	hash := e.hash(records)
	report, ok, err := e.cache.Get(ctx, hash)
	if err != nil {
		e.logger.Warn("report cache get", zap.Error(err))
	} else if ok {
		e.logger.Debug("report cache hit", zap.String("hash", hash))
		return report
	}

	report = e.Analyze(records)
	if err := e.cache.Set(ctx, hash, report); err != nil {
		e.logger.Warn("report cache set", zap.Error(err))
	}
	return report
}

func (e *Engine) analyze(records []model.DailyRecord, hash string) Report {
	universe := aggregate.Universe(records, e.cfg.Protocols)
	weekly := aggregate.Weekly(records, universe)
	insights := e.generator.Generate(weekly, e.cfg.Taxonomy, e.cfg.Focus, e.cfg.DisplayCount)

	e.logger.Info("analysis complete",
		zap.Int("records", len(records)),
		zap.Int("protocols", len(universe)),
		zap.Int("insights", len(insights)),
	)

	return Report{InputHash: hash, Weekly: weekly, Insights: insights}
}

// Dominance computes dominance over every record, keeps the rows inside the
// query's timeframe (shares recomputed from the kept values) and applies any
// disabled groups.
func (e *Engine) Dominance(records []model.DailyRecord, q Query, now time.Time) []aggregate.DominanceRow {
	universe := aggregate.Universe(records, e.cfg.Protocols)
	grouping := aggregate.NewGrouping(q.GroupBy, e.cfg.Taxonomy, universe)

	rows := aggregate.Dominance(records, q.Metric, grouping, universe)
	rows = window.FilterRows(rows, q.Timeframe, now)
	if len(q.Disabled) > 0 {
		e.warnUnknownGroups(grouping, q.Disabled)
		rows = window.Toggle(rows, q.Disabled)
	}

	e.logger.Debug("dominance computed",
		zap.String("metric", string(q.Metric)),
		zap.String("group_by", string(grouping.Kind)),
		zap.String("timeframe", q.Timeframe.String()),
		zap.Int("rows", len(rows)),
	)
	return rows
}

func (e *Engine) warnUnknownGroups(grouping aggregate.Grouping, disabled []string) {
	known := make(map[string]struct{}, len(grouping.Groups))
	for _, name := range grouping.Names() {
		known[model.NormalizeKey(name)] = struct{}{}
	}
	for _, name := range disabled {
		if _, ok := known[model.NormalizeKey(name)]; !ok {
			e.logger.Warn("disabled group not in grouping",
				zap.String("group", name),
				zap.String("group_by", string(grouping.Kind)),
			)
		}
	}
}

func (e *Engine) hash(records []model.DailyRecord) string {
	sorted := make([]model.DailyRecord, len(records))
	copy(sorted, records)
	model.SortAscending(sorted)

	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(e.cfg)
	_ = enc.Encode(sorted)
	return hex.EncodeToString(h.Sum(nil))
}
