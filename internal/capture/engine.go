package capture

import (
	"context"
	"fmt"
	"log"

	"github.com/i-vertix/assethistory/internal/domain"
	"github.com/i-vertix/assethistory/internal/repository"
	"github.com/i-vertix/assethistory/internal/retry"
	"github.com/i-vertix/assethistory/internal/typeregistry"
)

// Engine turns assignee-change notifications into closed/open history
// intervals. The host's persistence layer must invoke HandleChange
// synchronously with the triggering mutation so no reader observes an object
// without a consistent interval.
type Engine struct {
	intervals repository.IntervalRepository
	registry  *typeregistry.Registry
	retry     retry.Config
}

// NewEngine creates a change capture engine.
func NewEngine(intervals repository.IntervalRepository, registry *typeregistry.Registry) *Engine {
	return &Engine{
		intervals: intervals,
		registry:  registry,
		retry:     retry.DefaultConfig(),
	}
}

// HandleChange applies one assignee transition to the interval store. It
// performs at most two writes (close the old holder's interval, open the new
// holder's) inside a single transaction. Unmonitored or unresolvable types
// and same-assignee updates are side-effect-free no-ops. Transient store
// failures are retried; a persistent failure propagates so the triggering
// mutation fails with it, because losing a capture write is a correctness
// regression, not a best-effort miss.
func (e *Engine) HandleChange(ctx context.Context, change domain.AssigneeChange) error {
	if !e.registry.IsMonitored(change.ObjectType) {
		return nil
	}
	if change.NoOp() {
		return nil
	}

	typeName, ok := e.registry.ResolveInstanceType(ctx, change.ObjectType, change.ObjectID)
	if !ok {
		log.Printf("[CAPTURE] could not resolve concrete type for %s #%d, skipping event", change.ObjectType, change.ObjectID)
		return nil
	}

	op := func(ctx context.Context) error {
		return e.intervals.InTx(ctx, func(store repository.IntervalRepository) error {
			if !change.Created && change.OldSubjectID != domain.AnonymousSubjectID {
				closed, err := store.CloseOpen(ctx, typeName, change.ObjectID, change.OldSubjectID, change.OccurredAt)
				if err != nil {
					return err
				}
				if closed == 0 {
					// Nothing to close: the store was already reconciled.
					// Consistency warning, not fatal.
					log.Printf("[CAPTURE] no open interval for %s #%d subject %d, nothing to close", typeName, change.ObjectID, change.OldSubjectID)
				}
			}

			if change.NewSubjectID != domain.AnonymousSubjectID {
				if _, err := store.Insert(ctx, domain.NewInterval(typeName, change.ObjectID, change.NewSubjectID, change.OccurredAt)); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := retry.Do(ctx, e.retry, op); err != nil {
		return fmt.Errorf("failed to capture assignee change for %s #%d: %w", typeName, change.ObjectID, err)
	}
	return nil
}
