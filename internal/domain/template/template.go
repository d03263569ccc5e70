package template

import (
	"database/sql"
	"time"
)

// ReviewTemplate is a reusable set of questions a review form is built from.
type ReviewTemplate struct {
	ID          int64
	Name        string
	Description sql.NullString
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Question is one prompt within a template.
type Question struct {
	ID         int64
	TemplateID int64
	Text       string
	SortOrder  int
	// VisibleTo restricts which roles see the question. Empty or nil means
	// visible to everyone.
	VisibleTo []string
}

// VisibleToRole reports whether the question should be shown to an actor
// with the given role.
func (q *Question) VisibleToRole(role string) bool {
	if len(q.VisibleTo) == 0 {
		return true
	}
	for _, r := range q.VisibleTo {
		if r == role {
			return true
		}
	}
	return false
}
