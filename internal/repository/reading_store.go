package repository

import (
	"sync"

	"air_quality_monitor/internal/models"
)

// ReadingMemory keeps the series in process memory. Replace swaps the whole
// series under a write lock, so a reader never sees a partial update.
type ReadingMemory struct {
	mu     sync.RWMutex
	series models.ReadingSeries
}

// Ensure implementation of ReadingStore interface at compile time.
var _ ReadingStore = (*ReadingMemory)(nil)

func NewReadingMemory() *ReadingMemory {
	return &ReadingMemory{series: models.ReadingSeries{}}
}

// Replace overwrites the held series with a copy of series.
func (m *ReadingMemory) Replace(series models.ReadingSeries) {
	cp := make(models.ReadingSeries, len(series))
	copy(cp, series)

	m.mu.Lock()
	m.series = cp
	m.mu.Unlock()
}

// Get returns a copy of the current series; empty before the first Replace.
func (m *ReadingMemory) Get() models.ReadingSeries {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(models.ReadingSeries, len(m.series))
	copy(cp, m.series)
	return cp
}
