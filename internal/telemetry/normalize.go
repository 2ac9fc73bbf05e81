// Package telemetry holds the pure reading pipeline: timestamp normalization,
// the trailing time window, metric summaries and air-quality classification.
package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"air_quality_monitor/internal/models"

	"github.com/relvacode/iso8601"
)

// ErrMalformedTimestamp is returned for a raw timestamp that is neither a
// spreadsheet serial date nor an ISO-8601 string.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// Spreadsheet serial dates use the 1900 date system. Serial 1 is 1900-01-01 and
// serial 60 is the phantom 1900-02-29, so from serial 61 on the effective epoch
// moves back one day.
const (
	maxSerialDate  = 2958465 // 9999-12-31
	lotusLeapDay   = 61
	secondsPerDay  = 86400
	serialTimeUnit = time.Second
	subSecondCarry = 0.9999
)

var fallbackLayouts = []string{"2006-01-02 15:04:05", "2006-01-02 15:04"}

var (
	serialEpoch      = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)
	serialEpochAfter = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
)

// NormalizeTimestamp converts a raw timestamp into a UTC instant.
// Numbers (and numeric strings) are spreadsheet serial dates whose calendar
// fields are taken as UTC; other strings are parsed as ISO-8601.
func NormalizeTimestamp(raw any) (time.Time, error) {
	if v, ok := numeric(raw); ok {
		return SerialToTime(v)
	}
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrMalformedTimestamp, raw)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrMalformedTimestamp)
	}
	t, err := iso8601.ParseString(s)
	if err == nil {
		return t.UTC(), nil
	}
	// Push-store keys cannot always carry a 'T' separator.
	for _, layout := range fallbackLayouts {
		if t, perr := time.Parse(layout, s); perr == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, s, err)
}

// SerialToTime decomposes a spreadsheet serial date. The fractional day is
// truncated to the second; a sub-second remainder above subSecondCarry counts
// as a full second, and a carry to midnight rolls into the next day.
func SerialToTime(v float64) (time.Time, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > maxSerialDate {
		return time.Time{}, fmt.Errorf("%w: serial date %v out of range", ErrMalformedTimestamp, v)
	}
	days := math.Floor(v)
	frac := (v - days) * secondsPerDay
	secs := math.Floor(frac)
	if frac-secs > subSecondCarry {
		secs++
	}
	if secs >= secondsPerDay {
		days++
		secs = 0
	}
	epoch := serialEpoch
	if days >= lotusLeapDay {
		epoch = serialEpochAfter
	}
	return epoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * serialTimeUnit), nil
}

// NormalizeRecord turns one raw record into a Reading. Only a bad timestamp is
// an error; unparseable metrics become NaN.
func NormalizeRecord(rec models.RawRecord) (models.Reading, error) {
	ts, err := NormalizeTimestamp(rec.Timestamp)
	if err != nil {
		return models.Reading{}, err
	}
	return models.Reading{
		Timestamp:   ts,
		Temperature: ParseMetric(rec.Temperature),
		Humidity:    ParseMetric(rec.Humidity),
	}, nil
}

// NormalizeRecords normalizes records in order, dropping the ones whose
// timestamp is malformed.
func NormalizeRecords(recs []models.RawRecord) (models.ReadingSeries, []models.Rejection) {
	series := make(models.ReadingSeries, 0, len(recs))
	var rejected []models.Rejection
	for _, rec := range recs {
		r, err := NormalizeRecord(rec)
		if err != nil {
			rejected = append(rejected, models.Rejection{
				Key:    fmt.Sprint(rec.Timestamp),
				Reason: err.Error(),
			})
			continue
		}
		series = append(series, r)
	}
	return series, rejected
}

// ParseMetric reads a numeric or numeric-string metric. Anything else is NaN.
func ParseMetric(raw any) float64 {
	if v, ok := numeric(raw); ok {
		return v
	}
	return math.NaN()
}

func numeric(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, !math.IsNaN(v)
	case float32:
		return float64(v), !math.IsNaN(float64(v))
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
