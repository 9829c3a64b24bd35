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

	"protocolLens/internal/config"
	"protocolLens/internal/model"
	"protocolLens/internal/storage"
	"protocolLens/internal/storage/postgres"
)

func runLoad(cmd *cobra.Command, _ []string) error {
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

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Dest == "" && cfg.PGDSN == "" {
		return fmt.Errorf("either dest or pg-dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Without explicit bounds the whole file is loaded.
	var from, to time.Time
	if cfg.From != "" || cfg.To != "" {
		from, to, err = cfg.Range(time.Now())
		if err != nil {
			return err
		}
	}

	checkpoint := storage.NewCheckpointStore(cfg.Checkpoint)
	if cfg.From == "" {
		last, ok, err := checkpoint.Load()
		if err != nil {
			return err
		}
		if ok {
			from = last.AddDate(0, 0, 1)
			logger.Info("resume from checkpoint", zap.String("last_day", model.FormatDate(last)))
		}
	}
	records, err := storage.NewJsonlStorage(cfg.Input).FetchRange(ctx, from, to)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	policy := retryPolicy(cfg, logger)
	sink, closeSink, err := openSink(ctx, cfg, policy)
	if err != nil {
		return err
	}
	defer closeSink()

	if err := writeRecords(ctx, policy, sink, checkpoint, records); err != nil {
		return err
	}

	logger.Info("load complete",
		zap.String("input", cfg.Input),
		zap.String("dest", cfg.Dest),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("records", len(records)),
	)
	return nil
}

// openSink returns the JSONL destination when set, otherwise Postgres with
// its schema ensured.
func openSink(ctx context.Context, cfg config.Config, policy storage.RetryPolicy) (storage.Sink, func(), error) {
	if cfg.Dest != "" {
		return storage.NewJsonlStorage(cfg.Dest), func() {}, nil
	}

	store, err := postgres.NewStore(ctx, cfg.PGDSN, cfg.PGBatchDays)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := policy.Do(ctx, "ensure schema", store.EnsureSchema); err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, store.Close, nil
}

// writeRecords puts records into the sink and advances the checkpoint to the
// newest day written. records are newest first, as FetchRange returns them.
func writeRecords(ctx context.Context, policy storage.RetryPolicy, sink storage.Sink, checkpoint *storage.CheckpointStore, records []model.DailyRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := policy.Do(ctx, "put records", func(ctx context.Context) error {
		return sink.PutRecords(ctx, records)
	}); err != nil {
		return err
	}
	return checkpoint.Save(records[0].Date)
}
