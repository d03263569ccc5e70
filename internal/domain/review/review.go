package review

import (
	"database/sql"
	"time"
)

// Status is the workflow state of a performance review.
//
// The only legal transitions are
// PENDING_EMPLOYEE -> PENDING_MANAGER -> COMPLETED; COMPLETED is terminal.
type Status string

const (
	StatusPendingEmployee Status = "PENDING_EMPLOYEE"
	StatusPendingManager  Status = "PENDING_MANAGER"
	StatusCompleted       Status = "COMPLETED"
)

// PerformanceReview is one employee's evaluation instance within (usually) a
// cycle. Corresponds to the 'performance_reviews' table, which carries a
// unique constraint on (employee_id, cycle_id) so re-instantiating a cycle
// skips employees that already have a review.
type PerformanceReview struct {
	ID         int64
	EmployeeID int64
	ManagerID  int64
	TemplateID int64
	CycleID    sql.NullInt64 // unset for ad-hoc reviews created outside a cycle
	Status     Status
	DueDate    sql.NullTime
	// OverallScore is the mean of per-question ratings on completion, with
	// the manager rating taking precedence over the self rating whenever
	// both exist. Range 0.0-4.0.
	OverallScore sql.NullFloat64
	IsDraft      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	// CompletedAt is set exactly once, when the manager submission closes
	// the review. Analytics must read this rather than UpdatedAt, which
	// moves on any later correction.
	CompletedAt sql.NullTime
}
