package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"air_quality_monitor/internal/clock"
	"air_quality_monitor/internal/logger"
	"air_quality_monitor/internal/models"
	"air_quality_monitor/internal/repository"
	"air_quality_monitor/internal/source"
	"air_quality_monitor/internal/telemetry"

	"github.com/google/uuid"
)

// DefaultTick is the recomputation period when none is configured.
const DefaultTick = time.Second

// maxRejectedKeys bounds the keys copied into a RECORDS_REJECTED event.
const maxRejectedKeys = 20

// DashboardService owns the reading store and keeps the derived snapshot
// current. All mutation happens on the goroutine executing Run.
type DashboardService struct {
	store  repository.ReadingStore
	events repository.EventRepo
	clock  clock.Clock
	window time.Duration
	log    *logger.Logger

	// state is only touched by the Run goroutine (and before it starts).
	state models.SourceState

	mu   sync.RWMutex
	snap models.Snapshot

	subMu  sync.Mutex
	subs   map[uint64]chan models.Snapshot
	nextID uint64
	closed bool
}

var (
	_ Dashboard = (*DashboardService)(nil)
	_ Engine    = (*DashboardService)(nil)
)

func NewDashboardService(store repository.ReadingStore, events repository.EventRepo, opts Options) *DashboardService {
	if opts.Clock == nil {
		opts.Clock = clock.Wall
	}
	if opts.Window <= 0 {
		opts.Window = telemetry.DefaultWindow
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	s := &DashboardService{
		store:  store,
		events: events,
		clock:  opts.Clock,
		window: opts.Window,
		log:    opts.Log,
		state:  models.SourceState{Status: models.SourceLoading},
		subs:   make(map[uint64]chan models.Snapshot),
	}
	s.snap = s.compute(s.clock.Now())
	return s
}

// Snapshot returns the most recently computed snapshot. Its slices are never
// mutated after publication.
func (s *DashboardService) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *DashboardService) Subscribe() (<-chan models.Snapshot, func()) {
	ch := make(chan models.Snapshot, 1)

	s.subMu.Lock()
	if s.closed {
		s.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Run starts the adapter and processes its deliveries and clock ticks one at
// a time until ctx is canceled. On return the adapter has stopped and every
// subscriber channel is closed.
func (s *DashboardService) Run(ctx context.Context, adapter source.Adapter, tick time.Duration) {
	if tick <= 0 {
		tick = DefaultTick
	}
	defer s.closeSubscribers()

	s.state = models.SourceState{Kind: adapter.Kind(), Status: models.SourceLoading}
	s.refresh()

	deliveries := make(chan models.Delivery)
	adapterDone := make(chan error, 1)
	go func() {
		adapterDone <- adapter.Run(ctx, func(d models.Delivery) {
			select {
			case deliveries <- d:
			case <-ctx.Done():
			}
		})
	}()

	t := s.clock.NewTicker(tick)
	defer t.Stop()

	s.log.Infow("engine_started", "source", adapter.Kind(), "tick", tick.String(), "window", s.window.String())

	done := adapterDone
	for {
		select {
		case <-ctx.Done():
			if done != nil {
				<-done
			}
			s.log.Infow("engine_stopped", "source", adapter.Kind())
			return
		case d := <-deliveries:
			s.ingest(ctx, d)
		case err := <-done:
			done = nil
			if err != nil && ctx.Err() == nil {
				s.fail(ctx, err)
			}
		case <-t.C():
			s.refresh()
		}
	}
}

// ingest applies one delivery: the store is replaced, never merged.
func (s *DashboardService) ingest(ctx context.Context, d models.Delivery) {
	now := s.clock.Now().UTC()
	s.store.Replace(d.Series)
	s.state = models.SourceState{
		Kind:      s.state.Kind,
		Status:    models.SourceReady,
		UpdatedAt: now,
		Readings:  len(d.Series),
		Rejected:  len(d.Rejected),
	}
	s.refresh()

	s.log.Infow("ingest_delivered", "source", s.state.Kind, "readings", len(d.Series), "rejected", len(d.Rejected))
	s.record(ctx, now, models.EventLoaded,
		fmt.Sprintf("Loaded %d readings", len(d.Series)),
		models.IngestMeta{Readings: len(d.Series)})

	if len(d.Rejected) == 0 {
		return
	}
	keys := make([]string, 0, min(len(d.Rejected), maxRejectedKeys))
	for i, r := range d.Rejected {
		s.log.Warnw("ingest_record_rejected", "source", s.state.Kind, "key", r.Key, "reason", r.Reason)
		if i < maxRejectedKeys {
			keys = append(keys, r.Key)
		}
	}
	s.record(ctx, now, models.EventRecordsRejected,
		fmt.Sprintf("Rejected %d records", len(d.Rejected)),
		models.IngestMeta{Count: len(d.Rejected), Keys: keys})
}

// fail marks the source unavailable. Nothing is retried.
func (s *DashboardService) fail(ctx context.Context, err error) {
	now := s.clock.Now().UTC()
	s.state = models.SourceState{
		Kind:      s.state.Kind,
		Status:    models.SourceUnavailable,
		Error:     err.Error(),
		UpdatedAt: now,
	}
	s.refresh()

	s.log.Errorw("source_unavailable", "source", s.state.Kind, "err", err)
	s.record(ctx, now, models.EventSourceUnavailable, "Source unavailable",
		models.IngestMeta{Error: err.Error()})
}

func (s *DashboardService) record(ctx context.Context, at time.Time, typ, desc string, meta models.IngestMeta) {
	if s.events == nil {
		return
	}
	err := s.events.Append(ctx, models.IngestEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  at,
		Type:        typ,
		Source:      s.state.Kind,
		Description: desc,
		Meta:        meta,
	})
	if err != nil {
		s.log.Warnw("event_append_failed", "type", typ, "err", err)
	}
}

// refresh recomputes the snapshot for the current instant and publishes it.
func (s *DashboardService) refresh() {
	snap := s.compute(s.clock.Now())

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.publish(snap)
}

func (s *DashboardService) compute(now time.Time) models.Snapshot {
	win := telemetry.Window(s.store.Get(), now, s.window)
	return models.Snapshot{
		Now:            now.UTC(),
		Latest:         telemetry.Latest(win),
		Window:         win,
		Temperature:    telemetry.Summarize(win, models.MetricTemperature),
		Humidity:       telemetry.Summarize(win, models.MetricHumidity),
		Classification: telemetry.LatestClassification(win),
		Source:         s.state,
	}
}

// publish hands snap to every subscriber, replacing a value still pending.
func (s *DashboardService) publish(snap models.Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *DashboardService) closeSubscribers() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.closed = true
}
