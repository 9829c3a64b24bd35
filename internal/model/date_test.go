package model

import (
	"errors"
	"testing"
	"time"
)

func TestParseDateLayouts(t *testing.T) {
	cases := map[string]time.Time{
		"2025-04-03": time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC),
		"03-04-2025": time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC),
		"2025-4-3":   time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC),
		"3-4-2025":   time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC),
		"31-12-2024": time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
	for input, want := range cases {
		got, err := ParseDate(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parse %q: got %s want %s", input, got, want)
		}
	}
}

func TestParseDateDoesNotSwapDayAndMonth(t *testing.T) {
	iso, err := ParseDate("2025-01-02")
	if err != nil {
		t.Fatalf("parse iso: %v", err)
	}
	dmy, err := ParseDate("01-02-2025")
	if err != nil {
		t.Fatalf("parse dmy: %v", err)
	}
	if iso.Month() != time.January || iso.Day() != 2 {
		t.Fatalf("iso misparsed: %s", iso)
	}
	if dmy.Month() != time.February || dmy.Day() != 1 {
		t.Fatalf("dmy misparsed: %s", dmy)
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, input := range []string{"", "2025/01/02", "25-01-02", "13-13-2025", "2025-02-30", "20250102"} {
		if _, err := ParseDate(input); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("expected ErrInvalidDate for %q, got %v", input, err)
		}
	}
}
