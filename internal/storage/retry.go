package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"protocolLens/internal/model"
)

// RetryPolicy retries store calls with exponential backoff. Retrying is the
// caller's job; stores themselves fail fast.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
	Logger     *zap.Logger
}

// Do runs fn until it succeeds, the retries are spent, or ctx ends.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := p.Backoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}
		logger.Warn("store call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

// FetchRange calls store.FetchRange under the policy.
func (p RetryPolicy) FetchRange(ctx context.Context, store Store, from, to time.Time) ([]model.DailyRecord, error) {
	var records []model.DailyRecord
	err := p.Do(ctx, "fetch_range", func(ctx context.Context) error {
		var err error
		records, err = store.FetchRange(ctx, from, to)
		return err
	})
	return records, err
}

// FetchDay calls store.FetchDay under the policy.
func (p RetryPolicy) FetchDay(ctx context.Context, store Store, day time.Time) (model.DailyRecord, bool, error) {
	var rec model.DailyRecord
	var ok bool
	err := p.Do(ctx, "fetch_day", func(ctx context.Context) error {
		var err error
		rec, ok, err = store.FetchDay(ctx, day)
		return err
	})
	return rec, ok, err
}
