package template

import "context"

// Repository defines read operations for review templates. Template editing
// lives in the HR administration surface, outside this service.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*ReviewTemplate, error)
	// ListQuestions returns the template's questions in form order.
	ListQuestions(ctx context.Context, templateID int64) ([]*Question, error)
}
