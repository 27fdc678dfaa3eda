package domain

import "time"

// AssigneeChange is the notification delivered by the host's persistence layer
// when a monitored object is created or its assignee changes. It must be
// delivered synchronously with the underlying write.
type AssigneeChange struct {
	ObjectType   string
	ObjectID     int64
	OldSubjectID int64
	NewSubjectID int64
	OccurredAt   time.Time
	// Created marks an object creation; the close step is skipped because no
	// prior interval can exist.
	Created bool
}

// NoOp reports whether the change carries no assignee transition at all.
func (c AssigneeChange) NoOp() bool {
	return !c.Created && c.OldSubjectID == c.NewSubjectID
}
