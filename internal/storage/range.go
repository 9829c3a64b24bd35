package storage

import (
	"fmt"
	"time"

	"protocolLens/internal/model"
)

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// SplitDateRange splits [from, to] into consecutive ranges of at most
// batchDays days.
func SplitDateRange(from, to time.Time, batchDays int) ([]DateRange, error) {
	if batchDays <= 0 {
		return nil, fmt.Errorf("batch days must be greater than zero")
	}
	from, to = model.Day(from), model.Day(to)
	if to.Before(from) {
		return nil, fmt.Errorf("to date must be >= from date")
	}

	ranges := make([]DateRange, 0)
	start := from
	for !start.After(to) {
		end := start.AddDate(0, 0, batchDays-1)
		if end.After(to) {
			end = to
		}
		ranges = append(ranges, DateRange{From: start, To: end})
		start = end.AddDate(0, 0, 1)
	}
	return ranges, nil
}
