package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"air_quality_monitor/internal/clock"
	"air_quality_monitor/internal/models"
	"air_quality_monitor/internal/repository"
	"air_quality_monitor/internal/source"

	"github.com/stretchr/testify/require"
)

// fakeAdapter delivers whatever is pushed into in and stops with the error
// sent on fail. A preset err fails it at once.
type fakeAdapter struct {
	kind string
	in   chan models.Delivery
	fail chan error
	err  error
}

func newFakeAdapter(kind string) *fakeAdapter {
	return &fakeAdapter{kind: kind, in: make(chan models.Delivery), fail: make(chan error)}
}

func (a *fakeAdapter) Kind() string { return a.kind }

func (a *fakeAdapter) Run(ctx context.Context, deliver func(models.Delivery)) error {
	if a.err != nil {
		return a.err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-a.in:
			deliver(d)
		case err := <-a.fail:
			return err
		}
	}
}

// memEventRepo records appended events.
type memEventRepo struct {
	mu     sync.Mutex
	events []models.IngestEvent
}

func (m *memEventRepo) Append(_ context.Context, e models.IngestEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memEventRepo) List(context.Context, repository.EventQuery) ([]models.IngestEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.IngestEvent(nil), m.events...), nil
}

func (m *memEventRepo) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

var t0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func reading(ts time.Time, temp, hum float64) models.Reading {
	return models.Reading{Timestamp: ts, Temperature: temp, Humidity: hum}
}

type harness struct {
	svc    *DashboardService
	store  *repository.ReadingMemory
	events *memEventRepo
	clock  *clock.Fake
	cancel context.CancelFunc
	done   chan struct{}
}

func startDashboard(t *testing.T, a source.Adapter) *harness {
	t.Helper()
	h := &harness{
		store:  repository.NewReadingMemory(),
		events: &memEventRepo{},
		clock:  clock.NewFake(t0),
		done:   make(chan struct{}),
	}
	h.svc = NewDashboardService(h.store, h.events, Options{Clock: h.clock})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		defer close(h.done)
		h.svc.Run(ctx, a, time.Second)
	}()
	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.cancel()
	<-h.done
}

func waitFor(t *testing.T, cond func(models.Snapshot) bool, svc *DashboardService, msg string) models.Snapshot {
	t.Helper()
	require.Eventually(t, func() bool { return cond(svc.Snapshot()) }, 2*time.Second, 5*time.Millisecond, msg)
	return svc.Snapshot()
}

func TestDashboard_InitialSnapshotIsEmpty(t *testing.T) {
	svc := NewDashboardService(repository.NewReadingMemory(), nil, Options{Clock: clock.NewFake(t0)})

	snap := svc.Snapshot()
	require.Equal(t, t0, snap.Now)
	require.Empty(t, snap.Window)
	require.Nil(t, snap.Latest)
	require.Nil(t, snap.Classification)
	require.Equal(t, models.Summary{}, snap.Temperature)
	require.Equal(t, models.SourceLoading, snap.Source.Status)
}

func TestDashboard_StreamDeliveryReplacesStore(t *testing.T) {
	a := newFakeAdapter(source.KindStream)
	h := startDashboard(t, a)

	a.in <- models.Delivery{Series: models.ReadingSeries{
		reading(t0.Add(-2*time.Hour), 20, 40),
	}}
	waitFor(t, func(s models.Snapshot) bool { return len(s.Window) == 1 }, h.svc, "first delivery")

	second := models.ReadingSeries{
		reading(t0.Add(-1*time.Hour), 22, 42),
		reading(t0.Add(-2*time.Hour), 21, 41),
	}
	a.in <- models.Delivery{Series: second}
	snap := waitFor(t, func(s models.Snapshot) bool { return s.Source.Readings == 2 }, h.svc, "second delivery")

	require.Equal(t, second, h.store.Get(), "store holds exactly the second delivery")
	require.Equal(t, second, snap.Window)
	require.Equal(t, models.SourceReady, snap.Source.Status)
	require.Equal(t, source.KindStream, snap.Source.Kind)

	// latest is the last element in arrival order, not the newest timestamp
	require.NotNil(t, snap.Latest)
	require.Equal(t, t0.Add(-2*time.Hour), snap.Latest.Timestamp)
	require.Equal(t, 21.0, snap.Latest.Temperature)

	require.Equal(t, models.Summary{Avg: 21.5, Min: 21, Max: 22, Count: 2}, snap.Temperature)
	require.NotNil(t, snap.Classification)
	require.Equal(t, models.StatusGood, snap.Classification.Status)

	require.Equal(t, []string{models.EventLoaded, models.EventLoaded}, h.events.types())
}

func TestDashboard_ClockAdvanceShrinksWindow(t *testing.T) {
	a := newFakeAdapter(source.KindSnapshot)
	h := startDashboard(t, a)

	a.in <- models.Delivery{Series: models.ReadingSeries{
		reading(t0.Add(-23*time.Hour), 17, 45),
		reading(t0.Add(-1*time.Hour), 23, 45),
	}}
	waitFor(t, func(s models.Snapshot) bool { return len(s.Window) == 2 }, h.svc, "delivery")

	h.clock.Advance(2 * time.Hour)
	snap := waitFor(t, func(s models.Snapshot) bool { return len(s.Window) == 1 }, h.svc, "oldest reading leaves the window")
	require.Equal(t, 23.0, snap.Latest.Temperature)
	require.Equal(t, t0.Add(2*time.Hour), snap.Now)
	require.Len(t, h.store.Get(), 2, "the store itself is not pruned")

	h.clock.Advance(23 * time.Hour)
	snap = waitFor(t, func(s models.Snapshot) bool { return len(s.Window) == 0 }, h.svc, "window empties")
	require.Nil(t, snap.Latest)
	require.Nil(t, snap.Classification)
	require.Equal(t, models.Summary{}, snap.Humidity)
}

func TestDashboard_RejectedRecordsAreCountedAndLogged(t *testing.T) {
	a := newFakeAdapter(source.KindSnapshot)
	h := startDashboard(t, a)

	a.in <- models.Delivery{
		Series: models.ReadingSeries{reading(t0.Add(-time.Minute), 5, 90)},
		Rejected: []models.Rejection{
			{Key: "not-a-date", Reason: "malformed timestamp"},
		},
	}
	snap := waitFor(t, func(s models.Snapshot) bool { return s.Source.Status == models.SourceReady }, h.svc, "delivery")

	require.Equal(t, 1, snap.Source.Rejected)
	require.Equal(t, models.StatusPoor, snap.Classification.Status)
	require.Eventually(t, func() bool {
		got := h.events.types()
		return len(got) == 2 && got[1] == models.EventRecordsRejected
	}, time.Second, 5*time.Millisecond)
}

func TestDashboard_UnavailableSource(t *testing.T) {
	a := newFakeAdapter(source.KindSnapshot)
	a.err = fmt.Errorf("%w: get export: connection refused", source.ErrSourceUnavailable)
	h := startDashboard(t, a)

	snap := waitFor(t, func(s models.Snapshot) bool { return s.Source.Status == models.SourceUnavailable }, h.svc, "failure reported")
	require.Contains(t, snap.Source.Error, "connection refused")
	require.Empty(t, snap.Window)
	require.Nil(t, snap.Classification)
	require.Eventually(t, func() bool {
		got := h.events.types()
		return len(got) == 1 && got[0] == models.EventSourceUnavailable
	}, time.Second, 5*time.Millisecond)

	// ticks keep recomputing after the failure
	h.clock.Advance(time.Second)
	waitFor(t, func(s models.Snapshot) bool { return s.Now.Equal(t0.Add(time.Second)) }, h.svc, "tick after failure")
}

func TestDashboard_SubscribeReceivesNewestAndClosesOnStop(t *testing.T) {
	a := newFakeAdapter(source.KindStream)
	h := startDashboard(t, a)

	ch, unsubscribe := h.svc.Subscribe()
	defer unsubscribe()

	a.in <- models.Delivery{Series: models.ReadingSeries{reading(t0.Add(-time.Minute), 23, 45)}}

	var got models.Snapshot
	require.Eventually(t, func() bool {
		select {
		case got = <-ch:
			return got.Source.Readings == 1
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
	require.Len(t, got.Window, 1)

	h.stop()
	for range ch {
		// drain anything published before shutdown
	}

	late, lateUnsub := h.svc.Subscribe()
	_, open := <-late
	require.False(t, open, "subscriptions after shutdown are closed")
	lateUnsub()
}

func TestDashboard_UnsubscribeClosesChannelOnce(t *testing.T) {
	svc := NewDashboardService(repository.NewReadingMemory(), nil, Options{Clock: clock.NewFake(t0)})

	ch, unsubscribe := svc.Subscribe()
	unsubscribe()
	unsubscribe()

	_, open := <-ch
	require.False(t, open)

	// publishing with no subscribers must not block
	svc.refresh()
}

func TestDashboard_PublishKeepsOnlyNewest(t *testing.T) {
	fc := clock.NewFake(t0)
	svc := NewDashboardService(repository.NewReadingMemory(), nil, Options{Clock: fc})
	ch, unsubscribe := svc.Subscribe()
	defer unsubscribe()

	svc.refresh()
	fc.Advance(time.Second)
	svc.refresh()

	snap := <-ch
	require.Equal(t, t0.Add(time.Second), snap.Now)
	select {
	case extra := <-ch:
		t.Fatalf("stale snapshot still pending: %v", extra.Now)
	default:
	}
}

func TestDashboard_CancelWaitsForAdapter(t *testing.T) {
	stopped := make(chan struct{})
	a := &blockingAdapter{stopped: stopped}
	svc := NewDashboardService(repository.NewReadingMemory(), nil, Options{Clock: clock.NewFake(t0)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, a, 0)
		close(done)
	}()
	cancel()
	<-done

	select {
	case <-stopped:
	default:
		t.Fatal("Run returned before the adapter stopped")
	}
}

type blockingAdapter struct {
	stopped chan struct{}
}

func (blockingAdapter) Kind() string { return source.KindStream }

func (b *blockingAdapter) Run(ctx context.Context, _ func(models.Delivery)) error {
	<-ctx.Done()
	close(b.stopped)
	return ctx.Err()
}

func TestDashboard_AdapterErrorAfterCancelIsIgnored(t *testing.T) {
	svc := NewDashboardService(repository.NewReadingMemory(), nil, Options{Clock: clock.NewFake(t0)})
	a := &blockingAdapter{stopped: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Run(ctx, a, time.Second)

	require.NotEqual(t, models.SourceUnavailable, svc.Snapshot().Source.Status)
}
