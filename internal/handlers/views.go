package handlers

import (
	"fmt"
	"time"

	"air_quality_monitor/internal/models"
)

const statusNotAvailable = "N/A"

// summaryView renders a summary the way the display prints it: two decimals.
type summaryView struct {
	Avg   string `json:"avg"`
	Min   string `json:"min"`
	Max   string `json:"max"`
	Count int    `json:"count"`
}

type statusView struct {
	Status string `json:"status"`
	Color  string `json:"color,omitempty"`
}

type dashboardView struct {
	Now         time.Time            `json:"now"`
	LastUpdated *time.Time           `json:"last_updated"`
	Latest      *models.Reading      `json:"latest"`
	Readings    models.ReadingSeries `json:"readings"`
	Temperature summaryView          `json:"temperature"`
	Humidity    summaryView          `json:"humidity"`
	Status      statusView           `json:"status"`
	Source      models.SourceState   `json:"source"`
}

type readingsView struct {
	Count    int                  `json:"count"`
	Readings models.ReadingSeries `json:"readings"`
}

func formatFixed(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func newSummaryView(s models.Summary) summaryView {
	return summaryView{
		Avg:   formatFixed(s.Avg),
		Min:   formatFixed(s.Min),
		Max:   formatFixed(s.Max),
		Count: s.Count,
	}
}

func newStatusView(c *models.Classification) statusView {
	if c == nil {
		return statusView{Status: statusNotAvailable}
	}
	return statusView{Status: string(c.Status), Color: c.Color}
}

func newDashboardView(s models.Snapshot) dashboardView {
	v := dashboardView{
		Now:         s.Now,
		Latest:      s.Latest,
		Readings:    s.Window,
		Temperature: newSummaryView(s.Temperature),
		Humidity:    newSummaryView(s.Humidity),
		Status:      newStatusView(s.Classification),
		Source:      s.Source,
	}
	if s.Latest != nil {
		ts := s.Latest.Timestamp
		v.LastUpdated = &ts
	}
	if v.Readings == nil {
		v.Readings = models.ReadingSeries{}
	}
	return v
}
