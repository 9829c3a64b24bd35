package window

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"protocolLens/internal/model"
)

// ErrInvalidTimeframe is returned for unrecognised timeframe selectors.
var ErrInvalidTimeframe = errors.New("invalid timeframe")

// Timeframe selects a relative trailing window, everything, or a custom
// inclusive date range.
type Timeframe struct {
	Days  int
	All   bool
	Start time.Time
	End   time.Time
}

var presets = map[string]int{
	"7d":   7,
	"30d":  30,
	"90d":  90,
	"180d": 180,
	"365d": 365,
}

// All selects the whole sequence.
var All = Timeframe{All: true}

// Last returns a trailing window of n days.
func Last(days int) Timeframe {
	return Timeframe{Days: days}
}

// Between returns a custom inclusive range.
func Between(start, end time.Time) Timeframe {
	return Timeframe{Start: model.Day(start), End: model.Day(end)}
}

// IsCustom reports whether the timeframe is an explicit date range.
func (tf Timeframe) IsCustom() bool {
	return !tf.All && tf.Days == 0
}

func (tf Timeframe) String() string {
	switch {
	case tf.All:
		return "all"
	case tf.Days > 0:
		return fmt.Sprintf("%dd", tf.Days)
	default:
		return model.FormatDate(tf.Start) + ".." + model.FormatDate(tf.End)
	}
}

// ParseTimeframe accepts a preset (7d, 30d, 90d, 180d, 365d), "all", or a
// custom range "start..end" / "start,end" in either supported date layout.
func ParseTimeframe(input string) (Timeframe, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" || input == "all" {
		return All, nil
	}
	if days, ok := presets[input]; ok {
		return Last(days), nil
	}

	var parts []string
	switch {
	case strings.Contains(input, ".."):
		parts = strings.SplitN(input, "..", 2)
	case strings.Contains(input, ","):
		parts = strings.SplitN(input, ",", 2)
	default:
		return Timeframe{}, fmt.Errorf("%w: %q", ErrInvalidTimeframe, input)
	}

	start, err := model.ParseDate(parts[0])
	if err != nil {
		return Timeframe{}, fmt.Errorf("%w: start: %v", ErrInvalidTimeframe, err)
	}
	end, err := model.ParseDate(parts[1])
	if err != nil {
		return Timeframe{}, fmt.Errorf("%w: end: %v", ErrInvalidTimeframe, err)
	}
	if end.Before(start) {
		return Timeframe{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidTimeframe, model.FormatDate(end), model.FormatDate(start))
	}
	return Between(start, end), nil
}

// Bounds returns the inclusive time range selected relative to now. ok is
// false for All. A preset of N days covers N calendar days ending with the
// end of now's UTC day, whatever the time of day.
func (tf Timeframe) Bounds(now time.Time) (from, to time.Time, ok bool) {
	switch {
	case tf.All:
		return time.Time{}, time.Time{}, false
	case tf.Days > 0:
		today := model.Day(now)
		return today.AddDate(0, 0, -(tf.Days - 1)), today.AddDate(0, 0, 1).Add(-time.Nanosecond), true
	default:
		return tf.Start, tf.End, true
	}
}

// Contains reports whether a record date falls inside the timeframe.
func (tf Timeframe) Contains(date, now time.Time) bool {
	from, to, ok := tf.Bounds(now)
	if !ok {
		return true
	}
	if tf.IsCustom() {
		day := model.Day(date)
		return !day.Before(from) && !day.After(to)
	}
	return !date.Before(from) && !date.After(to)
}
