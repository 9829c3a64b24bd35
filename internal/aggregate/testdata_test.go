package aggregate

import (
	"time"

	"protocolLens/internal/model"
)

var day0 = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func dayN(n int) time.Time {
	return day0.AddDate(0, 0, n)
}

// volumeDays builds one record per day with the given per-protocol volumes.
func volumeDays(volumes map[string][]float64) []model.DailyRecord {
	var n int
	for _, v := range volumes {
		if len(v) > n {
			n = len(v)
		}
	}
	records := make([]model.DailyRecord, 0, n)
	for i := 0; i < n; i++ {
		protocols := make(map[string]model.ProtocolMetrics)
		for p, v := range volumes {
			if i < len(v) {
				protocols[p] = model.ProtocolMetrics{Volume: model.Value(v[i]), DailyUsers: model.Value(v[i] / 10)}
			}
		}
		records = append(records, model.NewDailyRecord(dayN(i), protocols))
	}
	return records
}
