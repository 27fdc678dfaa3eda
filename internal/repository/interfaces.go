package repository

import (
	"context"
	"time"

	"github.com/i-vertix/assethistory/internal/domain"
)

// IntervalRepository defines the interface for the assignment history store.
// It is pure data access; policy (when to close, what to backfill, who may
// see what) lives in the capture, backfill and query packages.
type IntervalRepository interface {
	// Insert persists a new interval and returns it with its assigned ID.
	Insert(ctx context.Context, interval domain.AssignmentInterval) (domain.AssignmentInterval, error)
	// CloseOpen sets revoked_at on the open interval matching the given
	// object and subject, returning how many rows were closed. Zero is a
	// consistency warning for the caller, not an error.
	CloseOpen(ctx context.Context, objectType string, objectID, subjectID int64, revokedAt time.Time) (int64, error)
	// InsertBackfill inserts an open interval with unknown start, guarded at
	// write time by "no interval of this type exists yet for this object".
	// Returns whether a row was actually inserted.
	InsertBackfill(ctx context.Context, objectType string, objectID, subjectID int64) (bool, error)
	// ListForObject returns every interval for one object, ID ascending.
	ListForObject(ctx context.Context, objectType string, objectID int64) ([]domain.AssignmentInterval, error)
	// ListForSubject returns every interval for one subject, ID ascending.
	ListForSubject(ctx context.Context, subjectID int64) ([]domain.AssignmentInterval, error)
	// HasAny reports whether any interval exists for the object.
	HasAny(ctx context.Context, objectType string, objectID int64) (bool, error)
	// OpenInterval returns the authoritative open interval for the object, or
	// nil when the object is unassigned. When duplicate open rows exist the
	// most recently created one wins.
	OpenInterval(ctx context.Context, objectType string, objectID int64) (*domain.AssignmentInterval, error)
	// DeleteForObject removes every interval for a permanently deleted
	// object, returning how many rows were removed. Idempotent.
	DeleteForObject(ctx context.Context, objectType string, objectID int64) (int64, error)
	// AnonymizeSubject rewrites every interval of a purged subject to the
	// anonymous sentinel, returning how many rows changed. Idempotent.
	AnonymizeSubject(ctx context.Context, subjectID int64) (int64, error)
	// InTx runs fn against a transaction-scoped view of the repository;
	// capture's close and open steps must be observed as a unit.
	InTx(ctx context.Context, fn func(IntervalRepository) error) error
}

// AssignedObject is one live instance of a monitored type together with its
// current assignee.
type AssignedObject struct {
	ID        int64
	SubjectID int64
}

// ObjectSource lists live, non-soft-deleted instances of a monitored type
// whose current assignee is set. The backfill importer reads from it.
type ObjectSource interface {
	ListAssigned(ctx context.Context, objectType string) ([]AssignedObject, error)
}

// ReferenceResolver batch-resolves foreign instances through the host's
// repositories for display annotation and instance-level authorization.
type ReferenceResolver interface {
	ResolveMany(ctx context.Context, objectType string, ids []int64) ([]domain.ResolvedRef, error)
}
