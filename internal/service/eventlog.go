package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"air_quality_monitor/internal/models"
	"air_quality_monitor/internal/repository"
	"air_quality_monitor/internal/source"
)

// EventLogService reads the ingestion events recorded by the dashboard engine.
type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// ErrInvalidFilter wraps every LogFilter validation failure.
var ErrInvalidFilter = errors.New("invalid log filter")

var (
	errInvalidTimeRange = fmt.Errorf("%w: from must not be after to", ErrInvalidFilter)
	errUnknownEventType = fmt.Errorf("%w: unknown event type", ErrInvalidFilter)
	errUnknownSource    = fmt.Errorf("%w: unknown source", ErrInvalidFilter)
)

var eventTypes = map[string]bool{
	models.EventLoaded:            true,
	models.EventSourceUnavailable: true,
	models.EventRecordsRejected:   true,
}

// query validates f and turns it into a repository query. Types accept
// "records-rejected" and other case or dash variants; sources are lowercased.
func (f LogFilter) query() (repository.EventQuery, error) {
	q := repository.EventQuery{
		From:   f.From,
		To:     f.To,
		Type:   strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(f.Type)), "-", "_"),
		Source: strings.ToLower(strings.TrimSpace(f.Source)),
	}
	if !q.From.IsZero() {
		q.From = q.From.UTC()
	}
	if !q.To.IsZero() {
		q.To = q.To.UTC()
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return repository.EventQuery{}, errInvalidTimeRange
	}
	if q.Type != "" && !eventTypes[q.Type] {
		return repository.EventQuery{}, fmt.Errorf("%w %q", errUnknownEventType, f.Type)
	}
	if q.Source != "" && !source.ValidKind(q.Source) {
		return repository.EventQuery{}, fmt.Errorf("%w %q", errUnknownSource, f.Source)
	}
	return q, nil
}

// List returns the events matching f, oldest first.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.IngestEvent, error) {
	q, err := f.query()
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []models.IngestEvent{}
	}
	return events, nil
}
