package handlers

import (
	"context"
	"sync"

	"air_quality_monitor/internal/models"
	"air_quality_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockDashboard struct {
	snap models.Snapshot

	mu           sync.Mutex
	subs         []chan models.Snapshot
	unsubscribed int
}

func (m *mockDashboard) Snapshot() models.Snapshot {
	return m.snap
}

func (m *mockDashboard) Subscribe() (<-chan models.Snapshot, func()) {
	ch := make(chan models.Snapshot, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch, func() {
		m.mu.Lock()
		m.unsubscribed++
		m.mu.Unlock()
	}
}

// push sends snap to every subscriber.
func (m *mockDashboard) push(snap models.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		ch <- snap
	}
}

// closeAll ends every subscription, as the engine does on shutdown.
func (m *mockDashboard) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		close(ch)
	}
	m.subs = nil
}

func (m *mockDashboard) subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *mockDashboard) unsubscribeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unsubscribed
}

type mockEventLog struct {
	resp  []models.IngestEvent
	err   error
	last  service.LogFilter
	calls int
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.IngestEvent, error) {
	m.calls++
	m.last = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
