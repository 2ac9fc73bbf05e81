package service

import "time"

// LogFilter filters the ingestion event history. Type and Source are matched
// case-insensitively; empty values match everything.
type LogFilter struct {
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	Type   string    // LOADED, SOURCE_UNAVAILABLE or RECORDS_REJECTED
	Source string    // snapshot or stream
}
