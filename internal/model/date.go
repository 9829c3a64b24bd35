package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned for date strings in neither supported layout.
var ErrInvalidDate = errors.New("invalid date")

const (
	isoLayout = "2006-01-02"
	dmyLayout = "02-01-2006"
)

// ParseDate parses a calendar date in ISO (yyyy-mm-dd) or day-month-year
// (dd-mm-yyyy) form. The layout is chosen by where the 4-digit year sits, so
// one form is never read as the other.
func ParseDate(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	parts := strings.Split(input, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, input)
	}

	var layout string
	switch {
	case len(parts[0]) == 4 && len(parts[2]) <= 2:
		layout = isoLayout
	case len(parts[2]) == 4 && len(parts[0]) <= 2:
		layout = dmyLayout
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, input)
	}

	for i, part := range parts {
		if len(part) == 1 {
			parts[i] = "0" + part
		}
	}

	tm, err := time.Parse(layout, strings.Join(parts, "-"))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, input, err)
	}
	return tm.UTC(), nil
}

// FormatDate renders a date in ISO form.
func FormatDate(tm time.Time) string {
	return tm.UTC().Format(isoLayout)
}

// Day truncates a timestamp to its UTC calendar day.
func Day(tm time.Time) time.Time {
	y, m, d := tm.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
