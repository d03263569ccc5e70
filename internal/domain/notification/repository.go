package notification

import (
	"context"
	"time"
)

// Repository defines operations for persisting and retrieving notifications.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	// Exists reports whether the user already has a notification of the
	// given type and link created at or after since. Used by the deadline
	// sweep to suppress duplicate reminders.
	Exists(ctx context.Context, userID int64, typ Type, link string, since time.Time) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]*Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
	Delete(ctx context.Context, id, userID int64) error
	// DeleteOlderThan removes notifications created before the cutoff and
	// returns how many were deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
