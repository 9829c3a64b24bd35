package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"protocolLens/internal/cache"
	"protocolLens/internal/config"
	"protocolLens/internal/engine"
	"protocolLens/internal/model"
	"protocolLens/internal/storage"
	"protocolLens/internal/storage/postgres"
	"protocolLens/internal/window"
)

func main() {
	root := &cobra.Command{
		Use:          "protolens",
		Short:        "Cross-protocol analytics and insights",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	insightsCmd := &cobra.Command{
		Use:   "insights",
		Short: "Compute weekly stats and ranked insights",
		RunE:  runInsights,
	}
	addSourceFlags(insightsCmd.Flags())
	insightsCmd.Flags().Int("limit", engine.DefaultDisplayCount, "insights to keep (0 keeps all)")
	insightsCmd.Flags().String("window", "all", "restrict the fetched records to a timeframe (7d, 30d, ..., all, or from..to)")
	insightsCmd.Flags().String("redis-addr", "", "optional Redis address for the shared report cache")
	insightsCmd.Flags().String("redis-password", "", "Redis password")
	insightsCmd.Flags().Int("redis-db", 0, "Redis database")
	insightsCmd.Flags().Duration("cache-ttl", 10*time.Minute, "report cache TTL")
	root.AddCommand(insightsCmd)

	dominanceCmd := &cobra.Command{
		Use:   "dominance",
		Short: "Compute daily dominance shares",
		RunE:  runDominance,
	}
	addSourceFlags(dominanceCmd.Flags())
	dominanceCmd.Flags().String("metric", string(model.MetricVolume), "metric ("+metricNames()+")")
	dominanceCmd.Flags().String("group-by", "protocol", "grouping (protocol, category, chain, total)")
	dominanceCmd.Flags().String("timeframe", "30d", "timeframe (7d, 30d, 90d, 180d, 365d, all, or from..to)")
	dominanceCmd.Flags().StringSlice("disable", nil, "groups to hide (comma-separated)")
	dominanceCmd.Flags().String("out", "", "output JSONL path (stdout when empty)")
	dominanceCmd.Flags().Bool("summary", false, "emit one share per group over the whole window instead of daily rows")
	root.AddCommand(dominanceCmd)

	dayCmd := &cobra.Command{
		Use:   "day [date]",
		Short: "Print one day's protocol metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  runDay,
	}
	addSourceFlags(dayCmd.Flags())
	root.AddCommand(dayCmd)

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load JSONL daily records into Postgres",
		RunE:  runLoad,
	}
	addSourceFlags(loadCmd.Flags())
	loadCmd.Flags().String("dest", "", "destination JSONL path (Postgres is used when empty)")
	loadCmd.Flags().String("checkpoint", "", "checkpoint file; loads resume after the last loaded day")
	root.AddCommand(loadCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func metricNames() string {
	names := make([]string, 0, len(model.Metrics))
	for _, m := range model.Metrics {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}

func addSourceFlags(flags *pflag.FlagSet) {
	flags.String("in", "", "input daily records JSONL (Postgres is used when empty)")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.Int("pg-batch-days", postgres.DefaultBatchDays, "days per Postgres range query")
	flags.String("from", "", "first day to fetch (yyyy-mm-dd or dd-mm-yyyy)")
	flags.String("to", "", "last day to fetch, default today")
	flags.Int("days", 90, "days to fetch when from is not set")
	flags.StringSlice("protocols", nil, "protocol universe (comma-separated)")
	flags.String("focus", "", "protocol to compare against its category peers")
	flags.Int("max-retries", 3, "maximum retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func runInsights(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var reportCache engine.ReportCache
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		defer redisCache.Close()
		reportCache = redisCache
	}

	eng, err := engine.New(cfg.Engine(), reportCache, logger)
	if err != nil {
		return err
	}

	tf, err := window.ParseTimeframe(cfg.Window)
	if err != nil {
		return err
	}
	now := time.Now()
	from, to, err := cfg.Range(now)
	if err != nil {
		return err
	}

	logger.Info("insights start",
		zap.String("input", cfg.Input),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("from", from.Format(time.DateOnly)),
		zap.String("to", to.Format(time.DateOnly)),
		zap.Int("limit", cfg.Limit),
		zap.String("window", tf.String()),
		zap.Bool("redis_cache", reportCache != nil),
	)

	records, err := retryPolicy(cfg, logger).FetchRange(ctx, store, from, to)
	if err != nil {
		return fmt.Errorf("fetch records: %w", err)
	}
	records = window.Filter(records, tf, now)

	return writeJSON(eng.AnalyzeCached(ctx, records))
}

func runDay(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	day, err := model.ParseDate(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	record, err := fetchDay(ctx, retryPolicy(cfg, logger), store, day)
	if err != nil {
		if errors.Is(err, errNoRecord) {
			logger.Warn("no record for day", zap.String("day", args[0]))
		}
		return err
	}
	return writeJSON(record)
}

var errNoRecord = errors.New("no record")

// fetchDay returns errNoRecord when the store has nothing for day.
func fetchDay(ctx context.Context, policy storage.RetryPolicy, store storage.Store, day time.Time) (model.DailyRecord, error) {
	record, ok, err := policy.FetchDay(ctx, store, day)
	if err != nil {
		return model.DailyRecord{}, fmt.Errorf("fetch day: %w", err)
	}
	if !ok {
		return model.DailyRecord{}, fmt.Errorf("%w for %s", errNoRecord, model.FormatDate(day))
	}
	return record, nil
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, func(), error) {
	if cfg.Input != "" {
		return storage.NewJsonlStorage(cfg.Input), func() {}, nil
	}
	if cfg.PGDSN == "" {
		return nil, nil, fmt.Errorf("either in or pg-dsn is required")
	}
	store, err := postgres.NewStore(ctx, cfg.PGDSN, cfg.PGBatchDays)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	return store, store.Close, nil
}

func retryPolicy(cfg config.Config, logger *zap.Logger) storage.RetryPolicy {
	return storage.RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		Backoff:    cfg.RetryBackoff,
		Logger:     logger,
	}
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
