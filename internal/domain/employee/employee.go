package employee

import (
	"database/sql"
	"time"
)

// Role is the coarse access role of a user. Authorization inside the review
// workflow is always by id, never by role: a MANAGER is also somebody's
// reviewee and must be treated as a plain employee on their own review.
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleHR       Role = "HR"
)

// Employee represents a user of the review system.
type Employee struct {
	ID         int64
	Email      string
	FirstName  string
	LastName   sql.NullString
	Department string
	Role       Role
	ManagerID  sql.NullInt64 // unset means no manager assigned yet
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FullName returns "First Last", or just the first name when no last name is
// recorded.
func (e *Employee) FullName() string {
	if e.LastName.Valid {
		return e.FirstName + " " + e.LastName.String
	}
	return e.FirstName
}
