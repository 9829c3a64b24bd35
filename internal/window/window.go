package window

import (
	"time"

	"protocolLens/internal/aggregate"
	"protocolLens/internal/model"
)

// percentSampleRows is how many leading rows Toggle inspects to decide whether
// a series is already percentage-scaled.
const percentSampleRows = 3

// Filter returns the records inside the timeframe, keeping input order. Preset
// windows trail now, not the newest record.
func Filter(records []model.DailyRecord, tf Timeframe, now time.Time) []model.DailyRecord {
	if tf.All {
		out := make([]model.DailyRecord, len(records))
		copy(out, records)
		return out
	}
	out := make([]model.DailyRecord, 0, len(records))
	for _, rec := range records {
		if tf.Contains(rec.Date, now) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterRows keeps the dominance rows inside the timeframe and recomputes
// their shares from the kept values.
func FilterRows(rows []aggregate.DominanceRow, tf Timeframe, now time.Time) []aggregate.DominanceRow {
	out := make([]aggregate.DominanceRow, 0, len(rows))
	for _, row := range rows {
		if tf.Contains(row.Date, now) {
			out = append(out, cloneRow(row))
		}
	}
	return aggregate.Recompute(out)
}

// Toggle forces disabled groups to 0 on every row. Share series already in
// percent units (any share above 1 in the first rows) are only zeroed;
// fractional series have the enabled shares re-normalized to sum to 1.
func Toggle(rows []aggregate.DominanceRow, disabled []string) []aggregate.DominanceRow {
	off := make(map[string]struct{}, len(disabled))
	for _, name := range disabled {
		off[model.NormalizeKey(name)] = struct{}{}
	}

	percent := isPercentScaled(rows)
	out := make([]aggregate.DominanceRow, 0, len(rows))
	for _, row := range rows {
		row = cloneRow(row)
		var enabled float64
		for name := range row.Dominance {
			if _, ok := off[name]; ok {
				row.Dominance[name] = 0
				row.Values[name] = 0
				continue
			}
			enabled += row.Dominance[name]
		}
		if !percent {
			for name, share := range row.Dominance {
				row.Dominance[name] = aggregate.Share(share, enabled)
			}
		}
		out = append(out, row)
	}
	return out
}

func isPercentScaled(rows []aggregate.DominanceRow) bool {
	for i := 0; i < len(rows) && i < percentSampleRows; i++ {
		for _, share := range rows[i].Dominance {
			if share > 1 {
				return true
			}
		}
	}
	return false
}

func cloneRow(row aggregate.DominanceRow) aggregate.DominanceRow {
	out := aggregate.DominanceRow{
		Date:      row.Date,
		Total:     row.Total,
		Values:    make(map[string]float64, len(row.Values)),
		Dominance: make(map[string]float64, len(row.Dominance)),
	}
	for k, v := range row.Values {
		out.Values[k] = v
	}
	for k, v := range row.Dominance {
		out.Dominance[k] = v
	}
	return out
}
