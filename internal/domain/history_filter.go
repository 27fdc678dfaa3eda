package domain

import "strings"

// SubjectHistoryFilter narrows a subject's history after authorization
// filtering has already been applied.
type SubjectHistoryFilter struct {
	// ObjectTypes keeps only rows whose object type is in the set.
	ObjectTypes []string
	// NameContains keeps only rows whose resolved display name contains the
	// given substring, case-insensitively.
	NameContains string
}

// Empty reports whether the filter would keep every row.
func (f SubjectHistoryFilter) Empty() bool {
	return len(f.ObjectTypes) == 0 && strings.TrimSpace(f.NameContains) == ""
}

// ObjectHistoryFilter narrows an object's history after authorization
// filtering has already been applied.
type ObjectHistoryFilter struct {
	// SubjectIDs keeps only rows held by one of the given subjects.
	SubjectIDs []int64
}

// Empty reports whether the filter would keep every row.
func (f ObjectHistoryFilter) Empty() bool {
	return len(f.SubjectIDs) == 0
}
