package export

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/i-vertix/assethistory/internal/auth"
	"github.com/i-vertix/assethistory/internal/domain"
	"github.com/i-vertix/assethistory/internal/query"
	"github.com/i-vertix/assethistory/internal/repository"
)

type fixedResolver struct {
	names map[int64]string
}

func (r fixedResolver) ResolveMany(_ context.Context, _ string, ids []int64) ([]domain.ResolvedRef, error) {
	refs := make([]domain.ResolvedRef, len(ids))
	for i, id := range ids {
		name, ok := r.names[id]
		refs[i] = domain.ResolvedRef{ID: id, DisplayName: name, Exists: ok}
	}
	return refs, nil
}

func TestExportForSubjectRendersWorkbook(t *testing.T) {
	store := repository.NewMemoryIntervalRepository()
	ctx := context.Background()

	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := store.Insert(ctx, domain.NewInterval("Computer", 1, 7, at)); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	if _, err := store.InsertBackfill(ctx, "Monitor", 2, 7); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	queries := query.NewService(store, fixedResolver{names: map[int64]string{1: "pc-1", 2: "screen-2", 7: "jdoe"}}, auth.AllowAll{})
	service := NewService(queries)

	file, err := service.ExportForSubject(ctx, 7, query.SubjectOptions{
		Sort:  domain.HistorySortFieldAssigned,
		Order: domain.SortDirectionAsc,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(file.Name, "subject-7-history-") || !strings.HasSuffix(file.Name, ".xlsx") {
		t.Fatalf("unexpected file name %q", file.Name)
	}

	workbook, err := excelize.OpenReader(file.Content)
	if err != nil {
		t.Fatalf("export is not a readable workbook: %v", err)
	}
	defer workbook.Close()

	rows, err := workbook.GetRows("History")
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Type" || rows[0][1] != "Name" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	// Backfill interval has an unknown start, rendered as "?", and sorts last.
	last := rows[2]
	if last[1] != "screen-2" || last[2] != "?" {
		t.Fatalf("unexpected backfill row: %v", last)
	}
}

func TestExportForObjectMarksDeletedSubjects(t *testing.T) {
	store := repository.NewMemoryIntervalRepository()
	ctx := context.Background()

	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := store.Insert(ctx, domain.NewInterval("Computer", 1, 9, at)); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	// Subject 9 no longer resolves in the host schema.
	queries := query.NewService(store, fixedResolver{names: map[int64]string{}}, auth.AllowAll{})
	service := NewService(queries)

	file, err := service.ExportForObject(ctx, "Computer", 1, query.ObjectOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	workbook, err := excelize.OpenReader(file.Content)
	if err != nil {
		t.Fatalf("export is not a readable workbook: %v", err)
	}
	defer workbook.Close()

	rows, err := workbook.GetRows("History")
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus 1 row, got %d", len(rows))
	}
	if rows[1][0] != "(deleted)" {
		t.Fatalf("expected deleted placeholder, got %v", rows[1])
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName("pc-1", false); got != "pc-1" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := displayName("pc-1", true); got != "pc-1 (deleted)" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := displayName("", true); got != "(deleted)" {
		t.Fatalf("unexpected name %q", got)
	}
}
