package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"protocolLens/internal/aggregate"
	"protocolLens/internal/config"
	"protocolLens/internal/engine"
	"protocolLens/internal/storage"
)

func runDominance(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDominance(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	query, err := cfg.Query()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Config)
	if err != nil {
		return err
	}
	defer closeStore()

	eng, err := engine.New(cfg.Engine(), nil, logger)
	if err != nil {
		return err
	}

	now := time.Now()
	from, to, err := fetchBounds(cfg, query, now)
	if err != nil {
		return err
	}

	logger.Info("dominance start",
		zap.String("metric", string(query.Metric)),
		zap.String("group_by", string(query.GroupBy)),
		zap.String("timeframe", query.Timeframe.String()),
		zap.Strings("disable", query.Disabled),
		zap.String("out", cfg.Out),
		zap.Bool("summary", cfg.Summary),
	)

	records, err := retryPolicy(cfg.Config, logger).FetchRange(ctx, store, from, to)
	if err != nil {
		return fmt.Errorf("fetch records: %w", err)
	}

	rows := eng.Dominance(records, query, now)
	if cfg.Summary {
		return emit(cfg.Out, aggregate.PeriodShares(rows), logger)
	}
	return emit(cfg.Out, rows, logger)
}

// emit prints items as JSON on stdout, or appends them as JSON lines to out.
func emit[T any](out string, items []T, logger *zap.Logger) error {
	if out == "" {
		return writeJSON(items)
	}
	if err := storage.AppendLines(out, items); err != nil {
		return err
	}
	logger.Info("dominance written", zap.Int("lines", len(items)), zap.String("out", out))
	return nil
}

// fetchBounds narrows the fetch to the timeframe when it is bounded, so only
// "all" falls back to the configured range.
func fetchBounds(cfg config.DominanceConfig, query engine.Query, now time.Time) (time.Time, time.Time, error) {
	if from, to, ok := query.Timeframe.Bounds(now); ok {
		return from, to, nil
	}
	if cfg.From == "" && cfg.To == "" {
		return time.Time{}, time.Time{}, nil
	}
	return cfg.Range(now)
}
