package models

import "time"

// Source lifecycle states.
const (
	SourceLoading     = "loading"
	SourceReady       = "ready"
	SourceUnavailable = "unavailable"
)

// SourceState reports what the ingestion side last did.
type SourceState struct {
	Kind      string    `json:"kind"`
	Status    string    `json:"status"` // loading | ready | unavailable
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	Readings  int       `json:"readings"`
	Rejected  int       `json:"rejected"`
}

// Snapshot is everything the display needs, computed for one instant.
type Snapshot struct {
	Now            time.Time       `json:"now"`
	Latest         *Reading        `json:"latest"`
	Window         ReadingSeries   `json:"window"`
	Temperature    Summary         `json:"temperature"`
	Humidity       Summary         `json:"humidity"`
	Classification *Classification `json:"classification"`
	Source         SourceState     `json:"source"`
}
