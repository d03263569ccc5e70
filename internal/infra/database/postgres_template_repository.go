package database

import (
	"context"
	"database/sql"
	"fmt"

	"performance_review_service/internal/domain/template"

	"github.com/lib/pq"
)

// Custom errors specific to template repository
var ErrTemplateNotFound = fmt.Errorf("review template not found")

type PostgresTemplateRepository struct {
	db *sql.DB
}

func NewPostgresTemplateRepository(db *sql.DB) *PostgresTemplateRepository {
	return &PostgresTemplateRepository{db: db}
}

func (r *PostgresTemplateRepository) GetByID(ctx context.Context, id int64) (*template.ReviewTemplate, error) {
	query := `SELECT id, name, description, created_by, created_at, updated_at
               FROM review_templates WHERE id = $1`
	t := template.ReviewTemplate{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Description, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("error getting review template by ID: %w", err)
	}
	return &t, nil
}

func (r *PostgresTemplateRepository) ListQuestions(ctx context.Context, templateID int64) ([]*template.Question, error) {
	query := `SELECT id, template_id, question_text, sort_order, visible_to
               FROM template_questions WHERE template_id = $1 ORDER BY sort_order, id`
	rows, err := r.db.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("error querying template questions: %w", err)
	}
	defer rows.Close()

	questions := make([]*template.Question, 0)
	for rows.Next() {
		q := template.Question{}
		if err := rows.Scan(&q.ID, &q.TemplateID, &q.Text, &q.SortOrder, pq.Array(&q.VisibleTo)); err != nil {
			return nil, fmt.Errorf("error scanning template question row: %w", err)
		}
		questions = append(questions, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating template question rows: %w", err)
	}
	return questions, nil
}
