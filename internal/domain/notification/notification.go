package notification

import (
	"database/sql"
	"time"
)

// Type categorizes an in-app notification.
type Type string

const (
	TypeCycleCreated    Type = "CYCLE_CREATED"
	TypeReviewAssigned  Type = "REVIEW_ASSIGNED"
	TypeReviewSubmitted Type = "REVIEW_SUBMITTED"
	TypeReviewCompleted Type = "REVIEW_COMPLETED"
	TypeReviewDueSoon   Type = "REVIEW_DUE_SOON"
)

// Notification is a single in-app message for one recipient.
// Corresponds to the 'notifications' table. Rows older than the retention
// window are purged by the daily retention job.
type Notification struct {
	ID      int64
	UserID  int64
	Type    Type
	Title   string
	Message string
	// Link is a deep link into the web client, e.g. "/reviews/42". The
	// deadline sweep also keys its dedup check on it.
	Link      sql.NullString
	IsRead    bool
	CreatedAt time.Time
}

// RetentionPeriod is how long notifications are kept before the retention
// job deletes them.
const RetentionPeriod = 30 * 24 * time.Hour
