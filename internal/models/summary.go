package models

import (
	"fmt"
	"strings"
)

// Metric names a numeric field of a Reading.
type Metric string

const (
	MetricTemperature Metric = "temperature"
	MetricHumidity    Metric = "humidity"
)

// ParseMetric accepts the metric name case-insensitively.
func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case MetricTemperature:
		return MetricTemperature, nil
	case MetricHumidity:
		return MetricHumidity, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Summary holds running statistics of one metric over a window.
// All fields are zero when the window has no numeric values.
type Summary struct {
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}
