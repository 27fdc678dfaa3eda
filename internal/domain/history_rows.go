package domain

import "time"

// ResolvedRef is the result of a batched foreign lookup against the host's
// repositories. Exists is false when the instance no longer resolves; such
// rows surface with a deleted placeholder instead of failing the query.
type ResolvedRef struct {
	ID          int64
	DisplayName string
	Exists      bool
}

// SubjectHistoryRow is one entry of a subject's assignment history: an object
// the subject held, annotated with resolved display data.
type SubjectHistoryRow struct {
	ObjectType  string     `json:"object_type"`
	ObjectID    int64      `json:"object_id"`
	ObjectName  string     `json:"object_name"`
	Deleted     bool       `json:"deleted"`
	AssignedAt  *time.Time `json:"assigned_at"`
	RevokedAt   *time.Time `json:"revoked_at"`
	// IntervalID is the underlying interval identity, used as the
	// deterministic sort tiebreaker.
	IntervalID int64 `json:"interval_id"`
}

// ObjectHistoryRow is one entry of an object's assignment history: a subject
// that held the object, annotated with resolved display data.
type ObjectHistoryRow struct {
	SubjectID   int64      `json:"subject_id"`
	SubjectName string     `json:"subject_name"`
	Deleted     bool       `json:"deleted"`
	AssignedAt  *time.Time `json:"assigned_at"`
	RevokedAt   *time.Time `json:"revoked_at"`
	IntervalID  int64      `json:"interval_id"`
}

// SubjectHistoryPage is a sorted, filtered, paginated slice of a subject's
// history together with the counts the pagination UI needs.
type SubjectHistoryPage struct {
	Rows []SubjectHistoryRow `json:"rows"`
	// TotalCount counts rows surviving authorization, before display filters.
	TotalCount int `json:"total_count"`
	// FilteredCount counts rows surviving display filters, before slicing.
	FilteredCount int `json:"filtered_count"`
}

// ObjectHistoryPage is the object-side counterpart of SubjectHistoryPage.
type ObjectHistoryPage struct {
	Rows          []ObjectHistoryRow `json:"rows"`
	TotalCount    int                `json:"total_count"`
	FilteredCount int                `json:"filtered_count"`
}
