package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"protocolLens/internal/aggregate"
	"protocolLens/internal/engine"
	"protocolLens/internal/model"
	"protocolLens/internal/window"
)

// DominanceConfig holds the dominance command settings on top of Config.
type DominanceConfig struct {
	Config
	Metric    string
	GroupBy   string
	Timeframe string
	Disable   []string
	Out       string
	Summary   bool
}

// LoadDominance merges config sources into DominanceConfig.
func LoadDominance(cfgFile string, flags *pflag.FlagSet) (DominanceConfig, error) {
	base, err := Load(cfgFile, flags)
	if err != nil {
		return DominanceConfig{}, err
	}

	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("metric", string(model.MetricVolume))
		v.SetDefault("group-by", string(aggregate.GroupByProtocol))
		v.SetDefault("timeframe", "30d")
	})
	if err != nil {
		return DominanceConfig{}, err
	}

	return DominanceConfig{
		Config:    base,
		Metric:    v.GetString("metric"),
		GroupBy:   v.GetString("group-by"),
		Timeframe: v.GetString("timeframe"),
		Disable:   getStringSlice(v, "disable"),
		Out:       v.GetString("out"),
		Summary:   v.GetBool("summary"),
	}, nil
}

// Query parses the dominance settings into an engine query.
func (c DominanceConfig) Query() (engine.Query, error) {
	metric, err := model.ParseMetric(c.Metric)
	if err != nil {
		return engine.Query{}, err
	}
	tf, err := window.ParseTimeframe(c.Timeframe)
	if err != nil {
		return engine.Query{}, err
	}

	kind := aggregate.GroupKind(c.GroupBy)
	switch kind {
	case aggregate.GroupByProtocol, aggregate.GroupByCategory, aggregate.GroupByChain, aggregate.GroupByTotal:
	default:
		return engine.Query{}, fmt.Errorf("unknown group-by %q", c.GroupBy)
	}

	return engine.Query{Metric: metric, GroupBy: kind, Timeframe: tf, Disabled: c.Disable}, nil
}
