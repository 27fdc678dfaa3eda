package domain

import (
	"time"
)

// SubjectType names the host's user itemtype; subjects are always users.
const SubjectType = "User"

// AnonymousSubjectID is the sentinel written in place of a purged subject.
// Intervals carrying it are never removed; the fact that the object was
// assigned to someone survives subject deletion.
const AnonymousSubjectID int64 = 0

// AssignmentInterval is one assignment period of a subject to an object.
type AssignmentInterval struct {
	ID         int64
	SubjectID  int64
	ObjectID   int64
	ObjectType string
	// AssignedAt is nil for intervals created by backfill import, where the
	// real start of the assignment is unknown.
	AssignedAt *time.Time
	// RevokedAt is nil while the subject still holds the object.
	RevokedAt *time.Time
}

// Open reports whether the subject currently holds the object.
func (i AssignmentInterval) Open() bool {
	return i.RevokedAt == nil
}

// Anonymized reports whether the interval's subject has been purged.
func (i AssignmentInterval) Anonymized() bool {
	return i.SubjectID == AnonymousSubjectID
}

// NewInterval builds an open interval starting at assignedAt.
func NewInterval(objectType string, objectID, subjectID int64, assignedAt time.Time) AssignmentInterval {
	at := assignedAt
	return AssignmentInterval{
		SubjectID:  subjectID,
		ObjectID:   objectID,
		ObjectType: objectType,
		AssignedAt: &at,
	}
}

// NewBackfillInterval builds an open interval with unknown start, used when
// seeding history for objects that predate change capture.
func NewBackfillInterval(objectType string, objectID, subjectID int64) AssignmentInterval {
	return AssignmentInterval{
		SubjectID:  subjectID,
		ObjectID:   objectID,
		ObjectType: objectType,
	}
}
