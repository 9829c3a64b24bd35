package storage

import (
	"context"
	"time"

	"protocolLens/internal/model"
)

// Store is the record store the analytics read from.
type Store interface {
	FetchRange(ctx context.Context, from, to time.Time) ([]model.DailyRecord, error)
	FetchDay(ctx context.Context, day time.Time) (model.DailyRecord, bool, error)
}

// Sink accepts batches of daily records.
type Sink interface {
	PutRecords(ctx context.Context, records []model.DailyRecord) error
}
