package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/i-vertix/assethistory/internal/domain"
	"github.com/i-vertix/assethistory/internal/repository"
	"github.com/i-vertix/assethistory/internal/typeregistry"
)

func newTestRegistry(t *testing.T, monitored ...string) *typeregistry.Registry {
	t.Helper()
	registry := typeregistry.New()
	for _, name := range monitored {
		if err := registry.Register(typeregistry.Definition{Name: name, Table: "t_" + name}); err != nil {
			t.Fatalf("failed to register %s: %v", name, err)
		}
		if err := registry.Enable(name); err != nil {
			t.Fatalf("failed to enable %s: %v", name, err)
		}
	}
	return registry
}

func TestHandleChangeSameAssigneeIsNoOp(t *testing.T) {
	store := repository.NewMemoryIntervalRepository()
	engine := NewEngine(store, newTestRegistry(t, "Computer"))

	change := domain.AssigneeChange{
		ObjectType:   "Computer",
		ObjectID:     1,
		OldSubjectID: 7,
		NewSubjectID: 7,
		OccurredAt:   time.Now(),
	}
	if err := engine.HandleChange(context.Background(), change); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(store.All()); got != 0 {
		t.Fatalf("expected no intervals, got %d", got)
	}
}

func TestHandleChangeUnmonitoredTypeIsNoOp(t *testing.T) {
	store := repository.NewMemoryIntervalRepository()
	engine := NewEngine(store, newTestRegistry(t, "Computer"))

	change := domain.AssigneeChange{
		ObjectType:   "Monitor",
		ObjectID:     1,
		NewSubjectID: 7,
		OccurredAt:   time.Now(),
		Created:      true,
	}
	if err := engine.HandleChange(context.Background(), change); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(store.All()); got != 0 {
		t.Fatalf("expected no intervals for unmonitored type, got %d", got)
	}
}

func TestHandleChangeCreationInsertsOpenInterval(t *testing.T) {
	store := repository.NewMemoryIntervalRepository()
	engine := NewEngine(store, newTestRegistry(t, "Computer"))

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	change := domain.AssigneeChange{
		ObjectType:   "Computer",
		ObjectID:     42,
		NewSubjectID: 7,
		OccurredAt:   at,
		Created:      true,
	}
	if err := engine.HandleChange(context.Background(), change); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	intervals := store.All()
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(intervals))
	}
	iv := intervals[0]
	if iv.SubjectID != 7 || iv.ObjectID != 42 || iv.ObjectType != "Computer" {
		t.Fatalf("unexpected interval: %+v", iv)
	}
	if iv.AssignedAt == nil || !iv.AssignedAt.Equal(at) {
		t.Fatalf("expected assigned at %v, got %v", at, iv.AssignedAt)
	}
	if !iv.Open() {
		t.Fatalf("expected open interval")
	}
}

func TestHandleChangeReassignmentClosesAndOpens(t *testing.T) {
	store := repository.NewMemoryIntervalRepository()
	engine := NewEngine(store, newTestRegistry(t, "Computer"))
	ctx := context.Background()

	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	if err := engine.HandleChange(ctx, domain.AssigneeChange{
		ObjectType: "Computer", ObjectID: 42, NewSubjectID: 7, OccurredAt: t1, Created: true,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := engine.HandleChange(ctx, domain.AssigneeChange{
		ObjectType: "Computer", ObjectID: 42, OldSubjectID: 7, NewSubjectID: 9, OccurredAt: t2,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	intervals := store.All()
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(intervals))
	}

	first, second := intervals[0], intervals[1]
	if first.SubjectID != 7 || first.RevokedAt == nil || !first.RevokedAt.Equal(t2) {
		t.Fatalf("expected first interval closed at %v, got %+v", t2, first)
	}
	if second.SubjectID != 9 || !second.Open() {
		t.Fatalf("expected open interval for new subject, got %+v", second)
	}

	open := 0
	for _, iv := range intervals {
		if iv.Open() {
			open++
		}
	}
	if open != 1 {
		t.Fatalf("expected exactly one open interval, got %d", open)
	}
}

func TestHandleChangeUnassignmentOnlyCloses(t *testing.T) {
	store := repository.NewMemoryIntervalRepository()
	engine := NewEngine(store, newTestRegistry(t, "Computer"))
	ctx := context.Background()

	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	if err := engine.HandleChange(ctx, domain.AssigneeChange{
		ObjectType: "Computer", ObjectID: 1, NewSubjectID: 7, OccurredAt: t1, Created: true,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := engine.HandleChange(ctx, domain.AssigneeChange{
		ObjectType: "Computer", ObjectID: 1, OldSubjectID: 7, NewSubjectID: 0, OccurredAt: t2,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	intervals := store.All()
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(intervals))
	}
	if intervals[0].Open() {
		t.Fatalf("expected interval to be closed")
	}
}

func TestHandleChangeMissingOpenIntervalIsNotFatal(t *testing.T) {
	store := repository.NewMemoryIntervalRepository()
	engine := NewEngine(store, newTestRegistry(t, "Computer"))

	// Close step finds nothing: consistency warning, processing continues.
	change := domain.AssigneeChange{
		ObjectType:   "Computer",
		ObjectID:     1,
		OldSubjectID: 7,
		NewSubjectID: 9,
		OccurredAt:   time.Now(),
	}
	if err := engine.HandleChange(context.Background(), change); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	intervals := store.All()
	if len(intervals) != 1 || intervals[0].SubjectID != 9 || !intervals[0].Open() {
		t.Fatalf("expected single open interval for new subject, got %+v", intervals)
	}
}

func TestHandleChangeDynamicTypeResolution(t *testing.T) {
	store := repository.NewMemoryIntervalRepository()
	registry := typeregistry.New()
	if err := registry.Register(typeregistry.Definition{Name: "CustomAsset", Table: "t_custom", Dynamic: true}); err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	if err := registry.Enable("CustomAsset"); err != nil {
		t.Fatalf("failed to enable: %v", err)
	}
	registry.SetInstanceResolver(func(_ context.Context, objectType string, objectID int64) (string, bool) {
		if objectID == 5 {
			return "RackAsset", true
		}
		return "", false
	})
	engine := NewEngine(store, registry)
	ctx := context.Background()

	if err := engine.HandleChange(ctx, domain.AssigneeChange{
		ObjectType: "CustomAsset", ObjectID: 5, NewSubjectID: 7, OccurredAt: time.Now(), Created: true,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Resolution failure writes nothing.
	if err := engine.HandleChange(ctx, domain.AssigneeChange{
		ObjectType: "CustomAsset", ObjectID: 6, NewSubjectID: 7, OccurredAt: time.Now(), Created: true,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	intervals := store.All()
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(intervals))
	}
	if intervals[0].ObjectType != "RackAsset" {
		t.Fatalf("expected concrete resolved type, got %q", intervals[0].ObjectType)
	}
}

// flakyStore fails the first n transactional writes to exercise the retry.
type flakyStore struct {
	repository.IntervalRepository
	failures int
}

func (f *flakyStore) InTx(ctx context.Context, fn func(repository.IntervalRepository) error) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("store unavailable")
	}
	return f.IntervalRepository.InTx(ctx, fn)
}

func TestHandleChangeRetriesTransientFailures(t *testing.T) {
	memory := repository.NewMemoryIntervalRepository()
	store := &flakyStore{IntervalRepository: memory, failures: 2}
	engine := NewEngine(store, newTestRegistry(t, "Computer"))

	if err := engine.HandleChange(context.Background(), domain.AssigneeChange{
		ObjectType: "Computer", ObjectID: 1, NewSubjectID: 7, OccurredAt: time.Now(), Created: true,
	}); err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
	if got := len(memory.All()); got != 1 {
		t.Fatalf("expected 1 interval after retries, got %d", got)
	}
}

func TestHandleChangePersistentFailurePropagates(t *testing.T) {
	memory := repository.NewMemoryIntervalRepository()
	store := &flakyStore{IntervalRepository: memory, failures: 10}
	engine := NewEngine(store, newTestRegistry(t, "Computer"))

	err := engine.HandleChange(context.Background(), domain.AssigneeChange{
		ObjectType: "Computer", ObjectID: 1, NewSubjectID: 7, OccurredAt: time.Now(), Created: true,
	})
	if err == nil {
		t.Fatalf("expected persistent store failure to propagate")
	}
	if got := len(memory.All()); got != 0 {
		t.Fatalf("expected no intervals, got %d", got)
	}
}
