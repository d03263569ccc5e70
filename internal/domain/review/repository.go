package review

import (
	"context"
	"database/sql"
	"time"
)

// Created identifies one review produced by a bulk insert, so callers can
// tell which target employees actually received a new review (duplicates are
// silently skipped).
type Created struct {
	ID         int64
	EmployeeID int64
}

// Phase names which side of a response an answer set belongs to.
type Phase string

const (
	PhaseSelf    Phase = "SELF"
	PhaseManager Phase = "MANAGER"
)

// Repository defines operations for persisting and retrieving performance
// reviews and their responses.
//
// Multi-step writes (answers plus a status change) are single methods so the
// implementation can run them in one transaction: if any response write
// fails, the status must not advance.
type Repository interface {
	Create(ctx context.Context, r *PerformanceReview) error
	GetByID(ctx context.Context, id int64) (*PerformanceReview, error)

	// BulkCreateSkipDuplicates inserts the given reviews with
	// conflict-ignore semantics on (employee_id, cycle_id) and returns the
	// rows actually created. Implementations must use a genuine conditional
	// insert, not a find-then-insert, so overlapping scheduler runs cannot
	// double-instantiate.
	BulkCreateSkipDuplicates(ctx context.Context, reviews []*PerformanceReview) ([]Created, error)

	ListResponses(ctx context.Context, reviewID int64) ([]*Response, error)

	// SaveDraftResponses upserts the answers onto the given phase's columns
	// and marks the review as a draft, without touching the status.
	SaveDraftResponses(ctx context.Context, reviewID int64, phase Phase, answers []Answer) error

	// CompleteEmployeePhase upserts the self answers and advances the status
	// to PENDING_MANAGER in one transaction.
	CompleteEmployeePhase(ctx context.Context, reviewID int64, answers []Answer) error

	// CompleteManagerPhase upserts the manager answers and closes the review
	// in one transaction: status COMPLETED, overall score, completion
	// timestamp, draft flag cleared.
	CompleteManagerPhase(ctx context.Context, reviewID int64, answers []Answer, overall sql.NullFloat64, completedAt time.Time) error

	// ListPendingEmployeeDue returns PENDING_EMPLOYEE reviews that carry a
	// due date, for the daily deadline sweep.
	ListPendingEmployeeDue(ctx context.Context) ([]*PerformanceReview, error)

	// ListPendingByCycle returns the cycle's reviews still in either pending
	// state.
	ListPendingByCycle(ctx context.Context, cycleID int64) ([]*PerformanceReview, error)

	CountByCycle(ctx context.Context, cycleID int64) (int, error)
}
