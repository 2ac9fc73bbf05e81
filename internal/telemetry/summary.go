package telemetry

import (
	"math"

	"air_quality_monitor/internal/models"
)

// Summarize computes avg/min/max of one metric, ignoring missing values.
func Summarize(series models.ReadingSeries, metric models.Metric) models.Summary {
	var (
		s     models.Summary
		sum   float64
		first = true
	)
	for _, r := range series {
		v := r.Value(metric)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if first {
			s.Min, s.Max = v, v
			first = false
		}
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
		sum += v
		s.Count++
	}
	if s.Count == 0 {
		return models.Summary{}
	}
	s.Avg = sum / float64(s.Count)
	return s
}
