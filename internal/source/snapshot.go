package source

import (
	"context"
	"fmt"

	"air_quality_monitor/internal/models"
	"air_quality_monitor/internal/telemetry"
)

// SnapshotAdapter loads a tabular export once. There is no refresh or retry.
type SnapshotAdapter struct {
	fetcher Fetcher
	format  string
	columns Columns
}

// Ensure implementation of Adapter interface at compile time.
var _ Adapter = (*SnapshotAdapter)(nil)

func NewSnapshotAdapter(fetcher Fetcher, format string, columns Columns) *SnapshotAdapter {
	if format == "" {
		format = FormatAuto
	}
	return &SnapshotAdapter{fetcher: fetcher, format: format, columns: columns}
}

func (a *SnapshotAdapter) Kind() string { return KindSnapshot }

// Run fetches, parses and normalizes the export, then delivers it exactly once.
// Fetch and parse failures are reported as ErrSourceUnavailable and deliver
// nothing.
func (a *SnapshotAdapter) Run(ctx context.Context, deliver func(models.Delivery)) error {
	payload, err := a.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	recs, err := Parse(payload, a.format, a.columns)
	if err != nil {
		return fmt.Errorf("%w: parse export: %w", ErrSourceUnavailable, err)
	}
	series, rejected := telemetry.NormalizeRecords(recs)
	deliver(models.Delivery{Series: series, Rejected: rejected})
	return nil
}
