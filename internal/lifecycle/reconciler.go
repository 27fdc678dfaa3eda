// Package lifecycle reacts to permanent deletions of monitored objects and
// subjects in the host application.
package lifecycle

import (
	"context"
	"fmt"
	"log"

	"github.com/i-vertix/assethistory/internal/repository"
	"github.com/i-vertix/assethistory/internal/retry"
)

// Reconciler keeps the interval store consistent with entity purges. Both
// operations are idempotent store writes scoped to a single entity, so a
// retry never corrupts other objects' data.
type Reconciler struct {
	intervals repository.IntervalRepository
	retry     retry.Config
}

// NewReconciler creates a lifecycle reconciler.
func NewReconciler(intervals repository.IntervalRepository) *Reconciler {
	return &Reconciler{intervals: intervals, retry: retry.DefaultConfig()}
}

// OnObjectPurged deletes every interval of a permanently deleted object.
// Irreversible and unconditional.
func (r *Reconciler) OnObjectPurged(ctx context.Context, objectType string, objectID int64) error {
	var deleted int64
	err := retry.Do(ctx, r.retry, func(ctx context.Context) error {
		var err error
		deleted, err = r.intervals.DeleteForObject(ctx, objectType, objectID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to purge history for %s #%d: %w", objectType, objectID, err)
	}
	log.Printf("[LIFECYCLE] purged %d intervals for %s #%d", deleted, objectType, objectID)
	return nil
}

// OnSubjectPurged anonymizes every interval of a permanently deleted
// subject. Rows are rewritten to the anonymous sentinel, never deleted, so
// the audit record that the object was assigned to someone survives.
func (r *Reconciler) OnSubjectPurged(ctx context.Context, subjectID int64) error {
	var changed int64
	err := retry.Do(ctx, r.retry, func(ctx context.Context) error {
		var err error
		changed, err = r.intervals.AnonymizeSubject(ctx, subjectID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to anonymize history for subject %d: %w", subjectID, err)
	}
	log.Printf("[LIFECYCLE] anonymized %d intervals for subject %d", changed, subjectID)
	return nil
}
