// Package export renders permission-filtered assignment history as XLSX
// workbooks. It goes through the query engine, so an export can never
// contain rows the caller is not allowed to see.
package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/i-vertix/assethistory/internal/query"
)

const sheetName = "History"

// File is a rendered export ready to stream to the caller.
type File struct {
	Name     string
	MimeType string
	Content  *bytes.Buffer
}

// Service builds history exports.
type Service struct {
	queries *query.Service
	now     func() time.Time
}

// NewService creates an export service on top of the query engine.
func NewService(queries *query.Service) *Service {
	return &Service{queries: queries, now: time.Now}
}

// ExportForSubject renders the full (unpaginated) visible history of a
// subject. Sorting and display filters apply like in the query engine.
func (s *Service) ExportForSubject(ctx context.Context, subjectID int64, opts query.SubjectOptions) (*File, error) {
	opts.Start = 0
	opts.Limit = 0

	page, err := s.queries.QueryForSubject(ctx, subjectID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query subject history for export: %w", err)
	}

	rows := make([][]any, 0, len(page.Rows))
	for _, row := range page.Rows {
		rows = append(rows, []any{
			row.ObjectType,
			displayName(row.ObjectName, row.Deleted),
			formatAssigned(row.AssignedAt),
			formatRevoked(row.RevokedAt),
		})
	}

	return s.render(
		fmt.Sprintf("subject-%d-history", subjectID),
		[]any{"Type", "Name", "Assigned", "Revoked"},
		rows,
	)
}

// ExportForObject renders the full visible history of an object.
func (s *Service) ExportForObject(ctx context.Context, objectType string, objectID int64, opts query.ObjectOptions) (*File, error) {
	opts.Start = 0
	opts.Limit = 0

	page, err := s.queries.QueryForObject(ctx, objectType, objectID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query object history for export: %w", err)
	}

	rows := make([][]any, 0, len(page.Rows))
	for _, row := range page.Rows {
		rows = append(rows, []any{
			displayName(row.SubjectName, row.Deleted),
			formatAssigned(row.AssignedAt),
			formatRevoked(row.RevokedAt),
		})
	}

	return s.render(
		fmt.Sprintf("%s-%d-history", objectType, objectID),
		[]any{"Login", "Assigned", "Revoked"},
		rows,
	)
}

func (s *Service) render(baseName string, header []any, rows [][]any) (*File, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create export sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to address export row: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write export row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render export workbook: %w", err)
	}

	return &File{
		Name:     fmt.Sprintf("%s-%s-%s.xlsx", baseName, s.now().Format("20060102"), uuid.New().String()[:8]),
		MimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:  buf,
	}, nil
}

func displayName(name string, deleted bool) string {
	if deleted {
		if name == "" {
			return "(deleted)"
		}
		return name + " (deleted)"
	}
	return name
}

// formatAssigned renders an unknown start as "?".
func formatAssigned(t *time.Time) string {
	if t == nil {
		return "?"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatRevoked(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
