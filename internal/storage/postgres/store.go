package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"protocolLens/internal/model"
	"protocolLens/internal/storage"
)

// DefaultBatchDays bounds how many days a single range query covers.
const DefaultBatchDays = 31

// Schema creates the daily metrics table.
const Schema = `
CREATE TABLE IF NOT EXISTS protocol_daily_metrics (
	day          date        NOT NULL,
	protocol     text        NOT NULL,
	volume       numeric     NOT NULL DEFAULT 0,
	daily_users  numeric     NOT NULL DEFAULT 0,
	new_users    numeric     NOT NULL DEFAULT 0,
	trades       numeric     NOT NULL DEFAULT 0,
	fees         numeric     NOT NULL DEFAULT 0,
	created_at   timestamptz NOT NULL DEFAULT now(),
	updated_at   timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (day, protocol)
)`

const selectColumns = `day, protocol, volume::text, daily_users::text, new_users::text, trades::text, fees::text`

// Store reads and writes daily protocol metrics in Postgres.
type Store struct {
	pool      *pgxpool.Pool
	batchDays int
}

var (
	_ storage.Store = (*Store)(nil)
	_ storage.Sink  = (*Store)(nil)
)

func NewStore(ctx context.Context, dsn string, batchDays int) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if batchDays <= 0 {
		batchDays = DefaultBatchDays
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, batchDays: batchDays}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the metrics table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

// FetchRange returns records for [from, to], newest first. The range is
// queried in chunks of batchDays.
func (s *Store) FetchRange(ctx context.Context, from, to time.Time) ([]model.DailyRecord, error) {
	from, to, ok, err := s.bounds(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.DailyRecord{}, nil
	}

	ranges, err := storage.SplitDateRange(from, to, s.batchDays)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]map[string]model.ProtocolMetrics)
	for _, r := range ranges {
		rows, err := s.pool.Query(ctx,
			`SELECT `+selectColumns+` FROM protocol_daily_metrics WHERE day BETWEEN $1 AND $2`,
			r.From, r.To,
		)
		if err != nil {
			return nil, fmt.Errorf("query %s..%s: %w", model.FormatDate(r.From), model.FormatDate(r.To), err)
		}
		if err := collect(rows, byDay); err != nil {
			return nil, err
		}
	}

	records := make([]model.DailyRecord, 0, len(byDay))
	for day, protocols := range byDay {
		records = append(records, model.NewDailyRecord(day, protocols))
	}
	model.SortDescending(records)
	return records, nil
}

// bounds fills zero range ends from the stored data. ok is false when the
// table is empty.
func (s *Store) bounds(ctx context.Context, from, to time.Time) (time.Time, time.Time, bool, error) {
	if !from.IsZero() && !to.IsZero() {
		return from, to, true, nil
	}
	var minDay, maxDay *time.Time
	row := s.pool.QueryRow(ctx, `SELECT min(day), max(day) FROM protocol_daily_metrics`)
	if err := row.Scan(&minDay, &maxDay); err != nil {
		return from, to, false, fmt.Errorf("query bounds: %w", err)
	}
	if minDay == nil || maxDay == nil {
		return from, to, false, nil
	}
	if from.IsZero() {
		from = *minDay
	}
	if to.IsZero() {
		to = *maxDay
	}
	return from, to, true, nil
}

// FetchDay returns the snapshot for one day.
func (s *Store) FetchDay(ctx context.Context, day time.Time) (model.DailyRecord, bool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM protocol_daily_metrics WHERE day = $1`,
		model.Day(day),
	)
	if err != nil {
		return model.DailyRecord{}, false, err
	}

	byDay := make(map[time.Time]map[string]model.ProtocolMetrics)
	if err := collect(rows, byDay); err != nil {
		return model.DailyRecord{}, false, err
	}
	for d, protocols := range byDay {
		return model.NewDailyRecord(d, protocols), true, nil
	}
	return model.DailyRecord{}, false, nil
}

// UpsertRecords inserts or updates one row per (day, protocol).
func (s *Store) UpsertRecords(ctx context.Context, records []model.DailyRecord) error {
	batch := &pgx.Batch{}
	for _, rec := range records {
		for protocol, m := range rec.Protocols {
			batch.Queue(`
				INSERT INTO protocol_daily_metrics (
					day, protocol, volume, daily_users, new_users, trades, fees, created_at, updated_at
				) VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7::numeric, now(), now())
				ON CONFLICT (day, protocol)
				DO UPDATE SET
					volume = EXCLUDED.volume,
					daily_users = EXCLUDED.daily_users,
					new_users = EXCLUDED.new_users,
					trades = EXCLUDED.trades,
					fees = EXCLUDED.fees,
					updated_at = now()
			`,
				rec.Date,
				protocol,
				numeric(m.Volume),
				numeric(m.DailyUsers),
				numeric(m.NewUsers),
				numeric(m.Trades),
				numeric(m.Fees),
			)
		}
	}
	if batch.Len() == 0 {
		return nil
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutRecords implements storage.Sink.
func (s *Store) PutRecords(ctx context.Context, records []model.DailyRecord) error {
	return s.UpsertRecords(ctx, records)
}

func collect(rows pgx.Rows, byDay map[time.Time]map[string]model.ProtocolMetrics) error {
	defer rows.Close()
	for rows.Next() {
		var (
			day      time.Time
			protocol string
			cols     [5]*string
		)
		if err := rows.Scan(&day, &protocol, &cols[0], &cols[1], &cols[2], &cols[3], &cols[4]); err != nil {
			return err
		}

		var vals [5]model.Value
		for i, col := range cols {
			if col == nil {
				continue
			}
			v, err := model.ParseValue(*col)
			if err != nil {
				return fmt.Errorf("%s %s: %w", model.FormatDate(day), protocol, err)
			}
			vals[i] = v
		}

		day = model.Day(day)
		if byDay[day] == nil {
			byDay[day] = make(map[string]model.ProtocolMetrics)
		}
		key := model.NormalizeKey(protocol)
		byDay[day][key] = byDay[day][key].Add(model.ProtocolMetrics{
			Volume:     vals[0],
			DailyUsers: vals[1],
			NewUsers:   vals[2],
			Trades:     vals[3],
			Fees:       vals[4],
		})
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	return nil
}

func numeric(v model.Value) string {
	return decimal.NewFromFloat(float64(v)).String()
}
