package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"protocolLens/internal/engine"
	"protocolLens/internal/model"
)

// Config holds the analysis settings shared by every command.
type Config struct {
	Input         string
	PGDSN         string
	PGBatchDays   int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	From          string
	To            string
	Days          int
	Protocols     []string
	Categories    map[string][]string
	Chains        map[string][]string
	Focus         string
	Limit         int
	MaxRetries    int
	RetryBackoff  time.Duration
	LogLevel      string
	Checkpoint    string
	Dest          string
	Window        string
}

var defaultCategories = map[string][]string{
	"trading_bots": {"bonkbot", "trojan", "bloom", "maestro", "banana", "soltradingbot", "nova"},
	"terminals":    {"axiom", "photon", "bullx", "gmgnai", "padre"},
	"mobile_apps":  {"moonshot", "vector", "slingshot", "fomo"},
}

var defaultChains = map[string][]string{
	"solana": {"bonkbot", "trojan", "bloom", "soltradingbot", "nova", "axiom", "photon", "bullx", "gmgnai", "padre", "moonshot", "vector", "slingshot", "fomo"},
	"evm":    {"maestro", "banana"},
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("pg-batch-days", 31)
		v.SetDefault("cache-ttl", 10*time.Minute)
		v.SetDefault("days", 90)
		v.SetDefault("limit", engine.DefaultDisplayCount)
		v.SetDefault("max-retries", 3)
		v.SetDefault("retry-backoff", 500*time.Millisecond)
		v.SetDefault("log-level", "info")
		v.SetDefault("window", "all")
		v.SetDefault("categories", defaultCategories)
		v.SetDefault("chains", defaultChains)
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Input:         v.GetString("in"),
		PGDSN:         v.GetString("pg-dsn"),
		PGBatchDays:   v.GetInt("pg-batch-days"),
		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),
		CacheTTL:      v.GetDuration("cache-ttl"),
		From:          v.GetString("from"),
		To:            v.GetString("to"),
		Days:          v.GetInt("days"),
		Protocols:     getStringSlice(v, "protocols"),
		Categories:    getGroupMap(v, "categories"),
		Chains:        getGroupMap(v, "chains"),
		Focus:         v.GetString("focus"),
		Limit:         v.GetInt("limit"),
		MaxRetries:    v.GetInt("max-retries"),
		RetryBackoff:  v.GetDuration("retry-backoff"),
		LogLevel:      v.GetString("log-level"),
		Checkpoint:    v.GetString("checkpoint"),
		Dest:          v.GetString("dest"),
		Window:        v.GetString("window"),
	}

	return cfg, nil
}

// Taxonomy builds the category and chain partitions.
func (c Config) Taxonomy() model.Taxonomy {
	return model.Taxonomy{
		Categories: model.NewGroups(c.Categories),
		Chains:     model.NewGroups(c.Chains),
	}
}

// Engine returns the engine configuration.
func (c Config) Engine() engine.Config {
	return engine.Config{
		Taxonomy:     c.Taxonomy(),
		Protocols:    c.Protocols,
		Focus:        c.Focus,
		DisplayCount: c.Limit,
	}
}

// Range resolves the fetch range. Explicit from/to win; otherwise the range
// ends today and spans Days days.
func (c Config) Range(now time.Time) (time.Time, time.Time, error) {
	to := model.Day(now)
	if c.To != "" {
		parsed, err := model.ParseDate(c.To)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse to: %w", err)
		}
		to = parsed
	}

	days := c.Days
	if days <= 0 {
		days = 90
	}
	from := to.AddDate(0, 0, -(days - 1))
	if c.From != "" {
		parsed, err := model.ParseDate(c.From)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse from: %w", err)
		}
		from = parsed
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to %s is before from %s", model.FormatDate(to), model.FormatDate(from))
	}
	return from, to, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults func(*viper.Viper)) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("PROTOLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if defaults != nil {
		defaults(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

// getGroupMap reads a name -> protocols map. Values may be lists or
// comma-separated strings.
func getGroupMap(v *viper.Viper, key string) map[string][]string {
	out := make(map[string][]string)
	switch typed := v.Get(key).(type) {
	case map[string][]string:
		for name, members := range typed {
			out[name] = cleanStrings(members)
		}
	case map[string]interface{}:
		for name, raw := range typed {
			switch members := raw.(type) {
			case []interface{}:
				items := make([]string, 0, len(members))
				for _, item := range members {
					items = append(items, fmt.Sprintf("%v", item))
				}
				out[name] = cleanStrings(items)
			case []string:
				out[name] = cleanStrings(members)
			case string:
				out[name] = splitAndClean(members)
			}
		}
	}
	return out
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
