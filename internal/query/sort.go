package query

import (
	"sort"
	"strings"
	"time"

	"github.com/i-vertix/assethistory/internal/domain"
)

// Ordering happens in memory after authorization filtering. The contract:
// unknown starts always sort last, and an open interval counts as more
// recent than any closed one.

func sortSubjectRows(rows []domain.SubjectHistoryRow, field domain.HistorySortField, order domain.SortDirection) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch field {
		case domain.HistorySortFieldRevoked:
			return lessRevoked(a.RevokedAt, b.RevokedAt, a.IntervalID, b.IntervalID, order)
		case domain.HistorySortFieldName:
			return lessString(a.ObjectName, b.ObjectName, a.IntervalID, b.IntervalID, order)
		case domain.HistorySortFieldType:
			return lessString(a.ObjectType, b.ObjectType, a.IntervalID, b.IntervalID, order)
		default:
			return lessAssigned(a.AssignedAt, b.AssignedAt, a.IntervalID, b.IntervalID, order)
		}
	})
}

func sortObjectRows(rows []domain.ObjectHistoryRow, field domain.HistorySortField, order domain.SortDirection) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch field {
		case domain.HistorySortFieldRevoked:
			return lessRevoked(a.RevokedAt, b.RevokedAt, a.IntervalID, b.IntervalID, order)
		case domain.HistorySortFieldName:
			return lessString(a.SubjectName, b.SubjectName, a.IntervalID, b.IntervalID, order)
		default:
			return lessAssigned(a.AssignedAt, b.AssignedAt, a.IntervalID, b.IntervalID, order)
		}
	})
}

// lessAssigned orders concrete timestamps in the requested direction; rows
// with an unknown start sort after all concrete rows regardless of
// direction. Ties break by interval ID ascending.
func lessAssigned(a, b *time.Time, aID, bID int64, order domain.SortDirection) bool {
	switch {
	case a == nil && b == nil:
		return aID < bID
	case a == nil:
		return false
	case b == nil:
		return true
	case a.Equal(*b):
		return aID < bID
	case order == domain.SortDirectionAsc:
		return a.Before(*b)
	default:
		return a.After(*b)
	}
}

// lessRevoked treats an open interval as strictly more recent than any
// closed one: first under descending order, last under ascending.
func lessRevoked(a, b *time.Time, aID, bID int64, order domain.SortDirection) bool {
	switch {
	case a == nil && b == nil:
		return aID < bID
	case a == nil:
		return order == domain.SortDirectionDesc
	case b == nil:
		return order == domain.SortDirectionAsc
	case a.Equal(*b):
		return aID < bID
	case order == domain.SortDirectionAsc:
		return a.Before(*b)
	default:
		return a.After(*b)
	}
}

func lessString(a, b string, aID, bID int64, order domain.SortDirection) bool {
	al, bl := strings.ToLower(a), strings.ToLower(b)
	if al == bl {
		return aID < bID
	}
	if order == domain.SortDirectionAsc {
		return al < bl
	}
	return al > bl
}
