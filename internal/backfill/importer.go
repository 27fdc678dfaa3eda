// Package backfill seeds history for objects that predate change capture.
package backfill

import (
	"context"
	"fmt"
	"log"

	"github.com/i-vertix/assethistory/internal/repository"
)

// Importer inserts missing "currently assigned" intervals for objects of a
// newly monitored type. It runs once per type enablement, outside of
// steady-state traffic.
type Importer struct {
	objects   repository.ObjectSource
	intervals repository.IntervalRepository
}

// NewImporter creates a backfill importer.
func NewImporter(objects repository.ObjectSource, intervals repository.IntervalRepository) *Importer {
	return &Importer{objects: objects, intervals: intervals}
}

// Import inserts one open interval with unknown start for every live
// instance of objectType that has a current assignee and no interval yet.
// Objects that already have history are left alone, even when their latest
// interval is closed and stale; re-deriving those is change capture's job
// going forward. Safe to call repeatedly: the existence guard is evaluated by
// the store at write time, so a concurrent capture insert cannot be
// duplicated. Returns the number of intervals inserted.
func (i *Importer) Import(ctx context.Context, objectType string) (int, error) {
	candidates, err := i.objects.ListAssigned(ctx, objectType)
	if err != nil {
		return 0, fmt.Errorf("failed to list backfill candidates for %s: %w", objectType, err)
	}

	inserted := 0
	for _, obj := range candidates {
		ok, err := i.intervals.InsertBackfill(ctx, objectType, obj.ID, obj.SubjectID)
		if err != nil {
			return inserted, fmt.Errorf("failed to backfill %s #%d: %w", objectType, obj.ID, err)
		}
		if ok {
			inserted++
		}
	}

	log.Printf("[BACKFILL] imported %d of %d assigned %s objects", inserted, len(candidates), objectType)
	return inserted, nil
}
