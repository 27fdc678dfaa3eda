// Package query reconstructs permission-filtered assignment history for a
// subject or an object, with sorting and pagination. It performs reads only.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/i-vertix/assethistory/internal/auth"
	"github.com/i-vertix/assethistory/internal/domain"
	"github.com/i-vertix/assethistory/internal/repository"
)

// Service implements the authorization-filtered query and count engines.
// Count reuses the exact same authorization core as the queries so the badge
// counter can never disagree with the tab it decorates.
type Service struct {
	intervals  repository.IntervalRepository
	resolver   repository.ReferenceResolver
	authorizer auth.Authorizer
}

// NewService creates a query service.
func NewService(intervals repository.IntervalRepository, resolver repository.ReferenceResolver, authorizer auth.Authorizer) *Service {
	return &Service{intervals: intervals, resolver: resolver, authorizer: authorizer}
}

// SubjectOptions carries sorting, filtering and pagination for a subject
// history query. A Limit of zero or less disables slicing.
type SubjectOptions struct {
	Sort   domain.HistorySortField
	Order  domain.SortDirection
	Filter domain.SubjectHistoryFilter
	Start  int
	Limit  int
}

// ObjectOptions is the object-side counterpart of SubjectOptions.
type ObjectOptions struct {
	Sort   domain.HistorySortField
	Order  domain.SortDirection
	Filter domain.ObjectHistoryFilter
	Start  int
	Limit  int
}

// QueryForSubject returns the objects a subject held over time. Callers the
// Authorizer does not allow to see the subject get an empty page, not an
// error; the same holds for every per-row authorization drop.
func (s *Service) QueryForSubject(ctx context.Context, subjectID int64, opts SubjectOptions) (domain.SubjectHistoryPage, error) {
	if !s.canViewRoot(ctx, domain.SubjectType, subjectID) {
		return domain.SubjectHistoryPage{Rows: []domain.SubjectHistoryRow{}}, nil
	}

	rows, err := s.visibleRowsForSubject(ctx, subjectID)
	if err != nil {
		return domain.SubjectHistoryPage{}, err
	}

	page := domain.SubjectHistoryPage{TotalCount: len(rows)}
	rows = filterSubjectRows(rows, opts.Filter)
	page.FilteredCount = len(rows)

	sortSubjectRows(rows, opts.Sort, opts.Order)
	page.Rows = pageSlice(rows, opts.Start, opts.Limit)
	return page, nil
}

// QueryForObject returns the subjects that held an object over time.
func (s *Service) QueryForObject(ctx context.Context, objectType string, objectID int64, opts ObjectOptions) (domain.ObjectHistoryPage, error) {
	if !s.canViewRoot(ctx, objectType, objectID) {
		return domain.ObjectHistoryPage{Rows: []domain.ObjectHistoryRow{}}, nil
	}

	rows, err := s.visibleRowsForObject(ctx, objectType, objectID)
	if err != nil {
		return domain.ObjectHistoryPage{}, err
	}

	page := domain.ObjectHistoryPage{TotalCount: len(rows)}
	rows = filterObjectRows(rows, opts.Filter)
	page.FilteredCount = len(rows)

	sortObjectRows(rows, opts.Sort, opts.Order)
	page.Rows = pageSlice(rows, opts.Start, opts.Limit)
	return page, nil
}

// CountForSubject answers "how many history rows is the caller allowed to
// see for this subject". Display filters are ignored by design.
func (s *Service) CountForSubject(ctx context.Context, subjectID int64) (int, error) {
	if !s.canViewRoot(ctx, domain.SubjectType, subjectID) {
		return 0, nil
	}
	rows, err := s.visibleRowsForSubject(ctx, subjectID)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// CountForObject is the object-side counterpart of CountForSubject.
func (s *Service) CountForObject(ctx context.Context, objectType string, objectID int64) (int, error) {
	if !s.canViewRoot(ctx, objectType, objectID) {
		return 0, nil
	}
	rows, err := s.visibleRowsForObject(ctx, objectType, objectID)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// CurrentHolder returns the authoritative open interval for an object, or
// nil when the object is unassigned or the caller may not see it. When
// duplicate open rows exist (a healed backfill race) the most recently
// created one wins; both still surface as history rows.
func (s *Service) CurrentHolder(ctx context.Context, objectType string, objectID int64) (*domain.AssignmentInterval, error) {
	if !s.canViewRoot(ctx, objectType, objectID) {
		return nil, nil
	}
	interval, err := s.intervals.OpenInterval(ctx, objectType, objectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current holder of %s #%d: %w", objectType, objectID, err)
	}
	return interval, nil
}

// canViewRoot checks the query precondition: the caller must already be
// allowed to view the root entity itself.
func (s *Service) canViewRoot(ctx context.Context, objectType string, id int64) bool {
	return s.authorizer.CanViewType(ctx, objectType) && s.authorizer.CanViewInstance(ctx, objectType, id)
}

// visibleRowsForSubject runs the shared authorization core for a subject
// root: fetch raw intervals, group foreign objects by type, drop whole
// groups the caller may not see, batch-resolve survivors, drop rows whose
// instance fails the per-instance check, and annotate the rest. Foreign
// instances that no longer resolve stay as deleted-placeholder rows.
func (s *Service) visibleRowsForSubject(ctx context.Context, subjectID int64) ([]domain.SubjectHistoryRow, error) {
	intervals, err := s.intervals.ListForSubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for subject %d: %w", subjectID, err)
	}

	idsByType := map[string][]int64{}
	for _, interval := range intervals {
		idsByType[interval.ObjectType] = appendUnique(idsByType[interval.ObjectType], interval.ObjectID)
	}

	visible := map[string]map[int64]domain.ResolvedRef{}
	for objectType, ids := range idsByType {
		if !s.authorizer.CanViewType(ctx, objectType) {
			continue
		}
		refs, err := s.resolver.ResolveMany(ctx, objectType, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s references: %w", objectType, err)
		}
		byID := map[int64]domain.ResolvedRef{}
		for _, ref := range refs {
			if ref.Exists && !s.authorizer.CanViewInstance(ctx, objectType, ref.ID) {
				continue
			}
			byID[ref.ID] = ref
		}
		visible[objectType] = byID
	}

	rows := []domain.SubjectHistoryRow{}
	for _, interval := range intervals {
		byID, ok := visible[interval.ObjectType]
		if !ok {
			continue
		}
		ref, ok := byID[interval.ObjectID]
		if !ok {
			continue
		}
		rows = append(rows, domain.SubjectHistoryRow{
			ObjectType: interval.ObjectType,
			ObjectID:   interval.ObjectID,
			ObjectName: ref.DisplayName,
			Deleted:    !ref.Exists,
			AssignedAt: interval.AssignedAt,
			RevokedAt:  interval.RevokedAt,
			IntervalID: interval.ID,
		})
	}
	return rows, nil
}

// visibleRowsForObject runs the same core with the roles swapped: the
// foreign side is always the subject. Anonymized intervals skip resolution
// entirely and surface as deleted-placeholder rows.
func (s *Service) visibleRowsForObject(ctx context.Context, objectType string, objectID int64) ([]domain.ObjectHistoryRow, error) {
	intervals, err := s.intervals.ListForObject(ctx, objectType, objectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s #%d: %w", objectType, objectID, err)
	}

	subjectIDs := []int64{}
	for _, interval := range intervals {
		if !interval.Anonymized() {
			subjectIDs = appendUnique(subjectIDs, interval.SubjectID)
		}
	}

	subjectsVisible := s.authorizer.CanViewType(ctx, domain.SubjectType)
	byID := map[int64]domain.ResolvedRef{}
	if subjectsVisible && len(subjectIDs) > 0 {
		refs, err := s.resolver.ResolveMany(ctx, domain.SubjectType, subjectIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve subject references: %w", err)
		}
		for _, ref := range refs {
			if ref.Exists && !s.authorizer.CanViewInstance(ctx, domain.SubjectType, ref.ID) {
				continue
			}
			byID[ref.ID] = ref
		}
	}

	rows := []domain.ObjectHistoryRow{}
	for _, interval := range intervals {
		if interval.Anonymized() {
			rows = append(rows, domain.ObjectHistoryRow{
				SubjectID:  domain.AnonymousSubjectID,
				Deleted:    true,
				AssignedAt: interval.AssignedAt,
				RevokedAt:  interval.RevokedAt,
				IntervalID: interval.ID,
			})
			continue
		}
		if !subjectsVisible {
			continue
		}
		ref, ok := byID[interval.SubjectID]
		if !ok {
			continue
		}
		rows = append(rows, domain.ObjectHistoryRow{
			SubjectID:   interval.SubjectID,
			SubjectName: ref.DisplayName,
			Deleted:     !ref.Exists,
			AssignedAt:  interval.AssignedAt,
			RevokedAt:   interval.RevokedAt,
			IntervalID:  interval.ID,
		})
	}
	return rows, nil
}

func filterSubjectRows(rows []domain.SubjectHistoryRow, filter domain.SubjectHistoryFilter) []domain.SubjectHistoryRow {
	if filter.Empty() {
		return rows
	}

	types := map[string]bool{}
	for _, t := range filter.ObjectTypes {
		types[t] = true
	}
	needle := strings.ToLower(strings.TrimSpace(filter.NameContains))

	kept := []domain.SubjectHistoryRow{}
	for _, row := range rows {
		if len(types) > 0 && !types[row.ObjectType] {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(row.ObjectName), needle) {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

func filterObjectRows(rows []domain.ObjectHistoryRow, filter domain.ObjectHistoryFilter) []domain.ObjectHistoryRow {
	if filter.Empty() {
		return rows
	}

	subjects := map[int64]bool{}
	for _, id := range filter.SubjectIDs {
		subjects[id] = true
	}

	kept := []domain.ObjectHistoryRow{}
	for _, row := range rows {
		if !subjects[row.SubjectID] {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

func pageSlice[T any](rows []T, start, limit int) []T {
	if start < 0 {
		start = 0
	}
	if start >= len(rows) {
		return []T{}
	}
	end := len(rows)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return rows[start:end]
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
