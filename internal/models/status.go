package models

// Status is the qualitative air-quality tier.
type Status string

const (
	StatusGood     Status = "Good"
	StatusModerate Status = "Moderate"
	StatusPoor     Status = "Poor"
)

// Classification pairs a status with its display colour.
type Classification struct {
	Status Status `json:"status"`
	Color  string `json:"color"`
}
