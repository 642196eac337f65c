package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Clark-Hu/movie-budget-game/internal/domain"
)

// DailyMemory keeps daily records in a map. Records live as long as the process.
type DailyMemory struct {
	mu      sync.RWMutex
	records map[string]domain.DailyRecord
	now     func() time.Time
}

// NewDailyMemory returns an empty in-memory store.
func NewDailyMemory() *DailyMemory {
	return &DailyMemory{records: make(map[string]domain.DailyRecord), now: time.Now}
}

// Get returns a copy of the record for date.
func (r *DailyMemory) Get(_ context.Context, date string) (domain.DailyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[date]
	if !ok {
		return domain.DailyRecord{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// InsertIfAbsent stores rec under its date unless one is already present.
func (r *DailyMemory) InsertIfAbsent(_ context.Context, rec domain.DailyRecord) (domain.DailyRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.records[rec.Date]; ok {
		return cloneRecord(existing), false, nil
	}
	rec = cloneRecord(rec)
	rec.CreatedAt = r.now().UTC()
	r.records[rec.Date] = rec
	return cloneRecord(rec), true, nil
}

// Len reports how many dates have a record.
func (r *DailyMemory) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func cloneRecord(rec domain.DailyRecord) domain.DailyRecord {
	movies := make([]domain.MovieSnapshot, len(rec.Movies))
	copy(movies, rec.Movies)
	rec.Movies = movies
	return rec
}
