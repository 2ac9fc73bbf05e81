package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"air_quality_monitor/internal/models"
	"air_quality_monitor/internal/telemetry"
)

// Feed is a push-based key-value store. Every notification carries the whole
// current set under path, keyed by reading identifier. Calls to fn are
// serialized, and none happen after unsubscribe returns.
type Feed interface {
	Subscribe(ctx context.Context, path string, fn func(map[string]json.RawMessage)) (unsubscribe func() error, err error)
}

// StreamAdapter re-delivers the full normalized set on every feed change.
type StreamAdapter struct {
	feed Feed
	path string
}

// Ensure implementation of Adapter interface at compile time.
var _ Adapter = (*StreamAdapter)(nil)

func NewStreamAdapter(feed Feed, path string) *StreamAdapter {
	return &StreamAdapter{feed: feed, path: path}
}

func (a *StreamAdapter) Kind() string { return KindStream }

// Run subscribes and blocks until ctx is cancelled, then unsubscribes.
func (a *StreamAdapter) Run(ctx context.Context, deliver func(models.Delivery)) error {
	unsubscribe, err := a.feed.Subscribe(ctx, a.path, func(set map[string]json.RawMessage) {
		deliver(DecodeSet(set))
	})
	if err != nil {
		return fmt.Errorf("%w: subscribe %q: %w", ErrSourceUnavailable, a.path, err)
	}
	<-ctx.Done()
	if err := unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribe %q: %w", a.path, err)
	}
	return nil
}

// DecodeSet normalizes one full feed value. Keys are the timestamps and are
// taken in lexicographic order, which is the order the store lists them in.
func DecodeSet(set map[string]json.RawMessage) models.Delivery {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	recs := make([]models.RawRecord, 0, len(keys))
	var rejected []models.Rejection
	for _, k := range keys {
		fields, err := decodeFields(set[k])
		if err != nil {
			rejected = append(rejected, models.Rejection{Key: k, Reason: err.Error()})
			continue
		}
		recs = append(recs, models.RawRecord{
			Timestamp:   k,
			Temperature: field(fields, "Temperature"),
			Humidity:    field(fields, "Humidity"),
		})
	}
	series, bad := telemetry.NormalizeRecords(recs)
	return models.Delivery{Series: series, Rejected: append(rejected, bad...)}
}

func decodeFields(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("decode record: not an object")
	}
	return fields, nil
}

func field(fields map[string]any, name string) any {
	if v, ok := fields[name]; ok {
		return v
	}
	for k, v := range fields {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return nil
}
