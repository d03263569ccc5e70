package cycle

import (
	"context"
	"time"
)

// Repository defines operations for persisting and retrieving ReviewCycle
// entities.
type Repository interface {
	Create(ctx context.Context, c *ReviewCycle) error
	GetByID(ctx context.Context, id int64) (*ReviewCycle, error)
	Update(ctx context.Context, c *ReviewCycle) error
	Delete(ctx context.Context, id int64) error
	// ListDue returns every active cycle whose next run date is at or before
	// the given instant.
	ListDue(ctx context.Context, now time.Time) ([]*ReviewCycle, error)
	// UpdateRunDates writes back the run bookkeeping after a scheduler pass.
	UpdateRunDates(ctx context.Context, id int64, lastRun, nextRun time.Time) error
}
