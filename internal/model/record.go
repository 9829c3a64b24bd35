package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

// DailyRecord holds every protocol's metrics for one calendar day.
type DailyRecord struct {
	Date      time.Time
	Protocols map[string]ProtocolMetrics
}

type dailyRecordJSON struct {
	Date      string                     `json:"date"`
	Protocols map[string]ProtocolMetrics `json:"protocols"`
}

// NormalizeKey folds a protocol identifier into its lookup key: whitespace
// runs become a single underscore and letters are lower-cased.
func NormalizeKey(id string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(id), unicode.IsSpace)
	return strings.ToLower(strings.Join(fields, "_"))
}

// NewDailyRecord builds a record with normalized protocol keys. Identifiers
// that collapse to the same key are summed.
func NewDailyRecord(date time.Time, protocols map[string]ProtocolMetrics) DailyRecord {
	rec := DailyRecord{Date: Day(date), Protocols: make(map[string]ProtocolMetrics, len(protocols))}
	for id, metrics := range protocols {
		key := NormalizeKey(id)
		rec.Protocols[key] = rec.Protocols[key].Add(metrics)
	}
	return rec
}

// Value returns a protocol's metric for the day, 0 when absent.
func (r DailyRecord) Value(protocol string, metric Metric) float64 {
	metrics, ok := r.Protocols[NormalizeKey(protocol)]
	if !ok {
		return 0
	}
	return metrics.Get(metric)
}

// MarshalJSON encodes the record with an ISO date.
func (r DailyRecord) MarshalJSON() ([]byte, error) {
	protocols := r.Protocols
	if protocols == nil {
		protocols = map[string]ProtocolMetrics{}
	}
	return json.Marshal(dailyRecordJSON{Date: FormatDate(r.Date), Protocols: protocols})
}

// UnmarshalJSON decodes a record, accepting either supported date layout.
func (r *DailyRecord) UnmarshalJSON(data []byte) error {
	var raw dailyRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, err := ParseDate(raw.Date)
	if err != nil {
		return err
	}
	*r = NewDailyRecord(date, raw.Protocols)
	return nil
}

// SortAscending orders records oldest first, in place.
func SortAscending(records []DailyRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
}

// SortDescending orders records newest first, in place.
func SortDescending(records []DailyRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
}

// FromSnapshot converts a date -> protocol -> metrics mapping into records
// sorted oldest first.
func FromSnapshot(snapshot map[string]map[string]ProtocolMetrics) ([]DailyRecord, error) {
	records := make([]DailyRecord, 0, len(snapshot))
	seen := make(map[time.Time]string, len(snapshot))
	for dateText, protocols := range snapshot {
		date, err := ParseDate(dateText)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[date]; ok {
			return nil, fmt.Errorf("duplicate date %s (%q and %q)", FormatDate(date), prev, dateText)
		}
		seen[date] = dateText
		records = append(records, NewDailyRecord(date, protocols))
	}
	SortAscending(records)
	return records, nil
}

// ProtocolKeys returns the sorted union of protocol keys across records.
func ProtocolKeys(records []DailyRecord) []string {
	set := make(map[string]struct{})
	for _, rec := range records {
		for key := range rec.Protocols {
			set[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
