// Package admin wires the host-facing administrative operations: enabling
// monitoring for a type, feeding assignee-change events, and reacting to
// permanent deletions.
package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/i-vertix/assethistory/internal/backfill"
	"github.com/i-vertix/assethistory/internal/capture"
	"github.com/i-vertix/assethistory/internal/domain"
	"github.com/i-vertix/assethistory/internal/lifecycle"
	"github.com/i-vertix/assethistory/internal/typeregistry"
)

// Service coordinates monitoring enablement and event intake.
type Service struct {
	registry   *typeregistry.Registry
	importer   *backfill.Importer
	capture    *capture.Engine
	reconciler *lifecycle.Reconciler
}

// NewService creates the administrative service.
func NewService(registry *typeregistry.Registry, importer *backfill.Importer, captureEngine *capture.Engine, reconciler *lifecycle.Reconciler) *Service {
	return &Service{
		registry:   registry,
		importer:   importer,
		capture:    captureEngine,
		reconciler: reconciler,
	}
}

// EnableMonitoring turns on change capture for a registered type and seeds
// history for its already-assigned objects. Returns the number of backfilled
// intervals; re-enabling an already monitored type backfills nothing.
func (s *Service) EnableMonitoring(ctx context.Context, objectType string) (int, error) {
	if err := s.registry.Enable(objectType); err != nil {
		return 0, err
	}

	imported, err := s.importer.Import(ctx, objectType)
	if err != nil {
		return imported, fmt.Errorf("monitoring enabled but backfill failed for %s: %w", objectType, err)
	}

	log.Printf("[ADMIN] enabled user-history for %s (%d objects backfilled)", objectType, imported)
	return imported, nil
}

// HandleAssigneeChange forwards one change notification to the capture
// engine. Hosts embedding the module call the engine directly inside their
// own transaction; this path serves hosts integrating over HTTP.
func (s *Service) HandleAssigneeChange(ctx context.Context, change domain.AssigneeChange) error {
	return s.capture.HandleChange(ctx, change)
}

// ObjectPurged reacts to the permanent deletion of a monitored object.
func (s *Service) ObjectPurged(ctx context.Context, objectType string, objectID int64) error {
	return s.reconciler.OnObjectPurged(ctx, objectType, objectID)
}

// SubjectPurged reacts to the permanent deletion of a subject.
func (s *Service) SubjectPurged(ctx context.Context, subjectID int64) error {
	return s.reconciler.OnSubjectPurged(ctx, subjectID)
}
