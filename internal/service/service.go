package service

import (
	"context"
	"time"

	"air_quality_monitor/internal/clock"
	"air_quality_monitor/internal/logger"
	"air_quality_monitor/internal/models"
	"air_quality_monitor/internal/repository"
	"air_quality_monitor/internal/source"
)

// Dashboard exposes the current derived view of the readings.
type Dashboard interface {
	Snapshot() models.Snapshot
	// Subscribe returns a channel carrying each new snapshot; only the newest
	// pending one is kept. The returned func unsubscribes and closes the channel.
	Subscribe() (<-chan models.Snapshot, func())
}

// Engine drives ingestion and recomputation until ctx is canceled.
type Engine interface {
	Run(ctx context.Context, adapter source.Adapter, tick time.Duration)
}

// EventLog exposes the ingestion event history with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.IngestEvent, error)
}

type Service struct {
	Dashboard
	Engine
	EventLog
}

// Options tune the engine; zero values fall back to defaults.
type Options struct {
	Clock  clock.Clock
	Window time.Duration
	Log    *logger.Logger
}

func NewService(repos *repository.Repository, opts Options) *Service {
	dash := NewDashboardService(repos.Readings, repos.EventRepo, opts)
	return &Service{
		Dashboard: dash,
		Engine:    dash,
		EventLog:  NewEventLogService(repos.EventRepo),
	}
}
