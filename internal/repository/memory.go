package repository

import (
	"context"
	"sync"
	"time"

	"github.com/i-vertix/assethistory/internal/domain"
)

// MemoryIntervalRepository is an in-memory IntervalRepository used by unit
// tests and by hosts embedding the engine without Postgres.
type MemoryIntervalRepository struct {
	mu        sync.RWMutex
	intervals []domain.AssignmentInterval
	nextID    int64
}

// NewMemoryIntervalRepository creates an empty in-memory interval store.
func NewMemoryIntervalRepository() *MemoryIntervalRepository {
	return &MemoryIntervalRepository{nextID: 1}
}

func (m *MemoryIntervalRepository) Insert(_ context.Context, interval domain.AssignmentInterval) (domain.AssignmentInterval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	interval.ID = m.nextID
	m.nextID++
	m.intervals = append(m.intervals, interval)
	return interval, nil
}

func (m *MemoryIntervalRepository) CloseOpen(_ context.Context, objectType string, objectID, subjectID int64, revokedAt time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var closed int64
	for i := range m.intervals {
		iv := &m.intervals[i]
		if iv.ObjectType == objectType && iv.ObjectID == objectID && iv.SubjectID == subjectID && iv.RevokedAt == nil {
			at := revokedAt
			iv.RevokedAt = &at
			closed++
		}
	}
	return closed, nil
}

func (m *MemoryIntervalRepository) InsertBackfill(_ context.Context, objectType string, objectID, subjectID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, iv := range m.intervals {
		if iv.ObjectType == objectType && iv.ObjectID == objectID {
			return false, nil
		}
	}
	interval := domain.NewBackfillInterval(objectType, objectID, subjectID)
	interval.ID = m.nextID
	m.nextID++
	m.intervals = append(m.intervals, interval)
	return true, nil
}

func (m *MemoryIntervalRepository) ListForObject(_ context.Context, objectType string, objectID int64) ([]domain.AssignmentInterval, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.AssignmentInterval{}
	for _, iv := range m.intervals {
		if iv.ObjectType == objectType && iv.ObjectID == objectID {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (m *MemoryIntervalRepository) ListForSubject(_ context.Context, subjectID int64) ([]domain.AssignmentInterval, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.AssignmentInterval{}
	for _, iv := range m.intervals {
		if iv.SubjectID == subjectID {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (m *MemoryIntervalRepository) HasAny(_ context.Context, objectType string, objectID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, iv := range m.intervals {
		if iv.ObjectType == objectType && iv.ObjectID == objectID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryIntervalRepository) OpenInterval(_ context.Context, objectType string, objectID int64) (*domain.AssignmentInterval, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *domain.AssignmentInterval
	for i := range m.intervals {
		iv := m.intervals[i]
		if iv.ObjectType == objectType && iv.ObjectID == objectID && iv.RevokedAt == nil {
			// Highest ID wins when duplicate open rows exist.
			if found == nil || iv.ID > found.ID {
				copied := iv
				found = &copied
			}
		}
	}
	return found, nil
}

func (m *MemoryIntervalRepository) DeleteForObject(_ context.Context, objectType string, objectID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.intervals[:0]
	var deleted int64
	for _, iv := range m.intervals {
		if iv.ObjectType == objectType && iv.ObjectID == objectID {
			deleted++
			continue
		}
		kept = append(kept, iv)
	}
	m.intervals = kept
	return deleted, nil
}

func (m *MemoryIntervalRepository) AnonymizeSubject(_ context.Context, subjectID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var changed int64
	for i := range m.intervals {
		if m.intervals[i].SubjectID == subjectID {
			m.intervals[i].SubjectID = domain.AnonymousSubjectID
			changed++
		}
	}
	return changed, nil
}

// InTx runs fn directly; the in-memory store mutates atomically per call,
// which is enough for the tests that rely on it.
func (m *MemoryIntervalRepository) InTx(_ context.Context, fn func(IntervalRepository) error) error {
	return fn(m)
}

// All returns a snapshot of every stored interval, ID ascending.
func (m *MemoryIntervalRepository) All() []domain.AssignmentInterval {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.AssignmentInterval, len(m.intervals))
	copy(out, m.intervals)
	return out
}
