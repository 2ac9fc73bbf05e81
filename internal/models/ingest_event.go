package models

import "time"

// Ingestion event types.
const (
	EventLoaded            = "LOADED"
	EventSourceUnavailable = "SOURCE_UNAVAILABLE"
	EventRecordsRejected   = "RECORDS_REJECTED"
)

// IngestEvent is one ingestion outcome recorded by the engine. Source is the
// adapter kind that produced it (snapshot or stream).
type IngestEvent struct {
	EventID     string     `json:"event_id"`
	OccurredAt  time.Time  `json:"occurred_at"`
	Type        string     `json:"type"`
	Source      string     `json:"source"`
	Description string     `json:"description"`
	Meta        IngestMeta `json:"meta"`
}

// IngestMeta holds the counters of an event. LOADED sets Readings,
// RECORDS_REJECTED sets Count and the first rejected Keys, SOURCE_UNAVAILABLE
// sets Error.
type IngestMeta struct {
	Readings int      `json:"readings,omitempty"`
	Count    int      `json:"count,omitempty"`
	Keys     []string `json:"keys,omitempty"`
	Error    string   `json:"error,omitempty"`
}
