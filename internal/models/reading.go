package models

import (
	"encoding/json"
	"math"
	"time"
)

// RawRecord is one untyped row as delivered by a source, before normalization.
// Timestamp is either a spreadsheet serial date (number) or a string key.
type RawRecord struct {
	Timestamp   any
	Temperature any
	Humidity    any
}

// Reading is a single normalized measurement. Timestamp is always UTC.
// A metric that could not be parsed is NaN and is skipped by aggregation.
type Reading struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"` // °C
	Humidity    float64   `json:"humidity"`    // %RH
}

// ReadingSeries is ordered by arrival (or key) order, not by timestamp.
type ReadingSeries []Reading

// Value returns the value of the given metric.
func (r Reading) Value(m Metric) float64 {
	switch m {
	case MetricTemperature:
		return r.Temperature
	case MetricHumidity:
		return r.Humidity
	default:
		return math.NaN()
	}
}

// MarshalJSON renders missing metrics as null.
func (r Reading) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Timestamp   time.Time `json:"timestamp"`
		Temperature *float64  `json:"temperature"`
		Humidity    *float64  `json:"humidity"`
	}{
		Timestamp:   r.Timestamp,
		Temperature: finiteOrNil(r.Temperature),
		Humidity:    finiteOrNil(r.Humidity),
	})
}

// UnmarshalJSON is the inverse of MarshalJSON; null metrics become NaN.
func (r *Reading) UnmarshalJSON(b []byte) error {
	var aux struct {
		Timestamp   time.Time `json:"timestamp"`
		Temperature *float64  `json:"temperature"`
		Humidity    *float64  `json:"humidity"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.Timestamp = aux.Timestamp.UTC()
	r.Temperature = nilToNaN(aux.Temperature)
	r.Humidity = nilToNaN(aux.Humidity)
	return nil
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nilToNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// Rejection describes a raw record dropped during normalization.
type Rejection struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// Delivery is one emission of an ingestion adapter: the full current series.
type Delivery struct {
	Series   ReadingSeries
	Rejected []Rejection
}
