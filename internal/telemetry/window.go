package telemetry

import (
	"time"

	"air_quality_monitor/internal/models"
)

// DefaultWindow is the trailing duration shown by the dashboard.
const DefaultWindow = 24 * time.Hour

// Window returns the readings strictly after now-d, in their original order.
func Window(series models.ReadingSeries, now time.Time, d time.Duration) models.ReadingSeries {
	cutoff := now.Add(-d)
	out := make(models.ReadingSeries, 0, len(series))
	for _, r := range series {
		if r.Timestamp.After(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// Latest returns the last reading in arrival order, or nil for an empty series.
// This is not necessarily the reading with the greatest timestamp.
func Latest(series models.ReadingSeries) *models.Reading {
	if len(series) == 0 {
		return nil
	}
	r := series[len(series)-1]
	return &r
}
