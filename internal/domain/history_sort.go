package domain

import "strings"

// SortDirection represents ordering direction for sortable fields.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// HistorySortField enumerates fields that history rows can be sorted by.
type HistorySortField string

const (
	// HistorySortFieldAssigned sorts by interval start. Rows with an unknown
	// start (backfill origin) always sort after rows with a concrete
	// timestamp, regardless of direction.
	HistorySortFieldAssigned HistorySortField = "assigned"
	// HistorySortFieldRevoked sorts by interval end. An open interval is
	// treated as strictly more recent than any closed one.
	HistorySortFieldRevoked HistorySortField = "revoked"
	// HistorySortFieldName sorts by the resolved foreign display name.
	HistorySortFieldName HistorySortField = "name"
	// HistorySortFieldType sorts by object type; subject-history queries only.
	HistorySortFieldType HistorySortField = "type"
)

// ParseSortDirection normalizes a caller-supplied direction, defaulting to
// descending (most recent first).
func ParseSortDirection(raw string) SortDirection {
	if strings.EqualFold(raw, string(SortDirectionAsc)) {
		return SortDirectionAsc
	}
	return SortDirectionDesc
}

// ParseHistorySortField normalizes a caller-supplied sort field, defaulting
// to the assignment timestamp.
func ParseHistorySortField(raw string) HistorySortField {
	switch HistorySortField(strings.ToLower(raw)) {
	case HistorySortFieldRevoked:
		return HistorySortFieldRevoked
	case HistorySortFieldName:
		return HistorySortFieldName
	case HistorySortFieldType:
		return HistorySortFieldType
	default:
		return HistorySortFieldAssigned
	}
}
