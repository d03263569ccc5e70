package employee

import (
	"context"
)

// Repository defines the operations for persisting and retrieving Employee
// entities.
type Repository interface {
	Create(ctx context.Context, emp *Employee) error
	GetByID(ctx context.Context, id int64) (*Employee, error)
	Update(ctx context.Context, emp *Employee) error
	// ListActive returns every active employee regardless of manager
	// assignment; the instantiator is responsible for rejecting targets
	// without a manager.
	ListActive(ctx context.Context) ([]*Employee, error)
	// ListActiveByDepartments returns active employees belonging to any of
	// the given departments.
	ListActiveByDepartments(ctx context.Context, departments []string) ([]*Employee, error)
}
