package repository

import (
	"context"
	"database/sql"
	"time"

	"air_quality_monitor/internal/models"
)

// ReadingStore holds the one current reading series.
type ReadingStore interface {
	Replace(series models.ReadingSeries)
	Get() models.ReadingSeries
}

// EventQuery narrows an event listing. Zero fields match everything; From
// and To are inclusive.
type EventQuery struct {
	From   time.Time
	To     time.Time
	Type   string
	Source string
}

// EventRepo is the append-only ingestion event log.
type EventRepo interface {
	Append(ctx context.Context, e models.IngestEvent) error
	List(ctx context.Context, q EventQuery) ([]models.IngestEvent, error)
}

type Repository struct {
	Readings  ReadingStore
	EventRepo EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Readings:  NewReadingMemory(),
		EventRepo: NewEventSQLite(db),
	}
}
