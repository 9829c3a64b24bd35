package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownMetric is returned when a metric name is not recognised.
var ErrUnknownMetric = errors.New("unknown metric")

// Metric names one of the per-protocol daily measurements.
type Metric string

const (
	MetricVolume   Metric = "volume"
	MetricUsers    Metric = "users"
	MetricNewUsers Metric = "new_users"
	MetricTrades   Metric = "trades"
	MetricFees     Metric = "fees"
)

// Metrics lists every metric in display order.
var Metrics = []Metric{MetricVolume, MetricUsers, MetricNewUsers, MetricTrades, MetricFees}

// ParseMetric maps a metric name (or a column-style alias) to a Metric.
func ParseMetric(input string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "volume", "total_volume_usd":
		return MetricVolume, nil
	case "users", "daily_users":
		return MetricUsers, nil
	case "new_users", "numberofnewusers":
		return MetricNewUsers, nil
	case "trades", "daily_trades":
		return MetricTrades, nil
	case "fees", "total_fees_usd":
		return MetricFees, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, input)
	}
}

// Value is a metric reading. Absent, null and "<nil>" values decode as 0.
type Value float64

// UnmarshalJSON accepts JSON numbers, numeric strings (including scientific
// notation), null and the "<nil>" placeholder.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = 0
		return nil
	}

	text := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		text = s
	}

	parsed, err := ParseValue(text)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ParseValue parses a numeric text value. Empty and "<nil>" read as 0.
func ParseValue(text string) (Value, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == "<nil>" {
		return 0, nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", text, err)
	}
	f, _ := d.Float64()
	return Value(f), nil
}

// ProtocolMetrics is the fixed-shape metrics record of one protocol on one day.
type ProtocolMetrics struct {
	Volume     Value `json:"volume"`
	DailyUsers Value `json:"daily_users"`
	NewUsers   Value `json:"new_users"`
	Trades     Value `json:"trades"`
	Fees       Value `json:"fees"`
}

// Get returns the value of a metric.
func (m ProtocolMetrics) Get(metric Metric) float64 {
	switch metric {
	case MetricVolume:
		return float64(m.Volume)
	case MetricUsers:
		return float64(m.DailyUsers)
	case MetricNewUsers:
		return float64(m.NewUsers)
	case MetricTrades:
		return float64(m.Trades)
	case MetricFees:
		return float64(m.Fees)
	default:
		return 0
	}
}

// Add returns the field-wise sum of two metric records.
func (m ProtocolMetrics) Add(other ProtocolMetrics) ProtocolMetrics {
	return ProtocolMetrics{
		Volume:     m.Volume + other.Volume,
		DailyUsers: m.DailyUsers + other.DailyUsers,
		NewUsers:   m.NewUsers + other.NewUsers,
		Trades:     m.Trades + other.Trades,
		Fees:       m.Fees + other.Fees,
	}
}
