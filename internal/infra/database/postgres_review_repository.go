package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"performance_review_service/internal/domain/review"
)

// Custom errors specific to review repository
var ErrReviewNotFound = fmt.Errorf("performance review not found")

type PostgresReviewRepository struct {
	db *sql.DB
}

func NewPostgresReviewRepository(db *sql.DB) *PostgresReviewRepository {
	return &PostgresReviewRepository{db: db}
}

const reviewColumns = `id, employee_id, manager_id, template_id, cycle_id, status, due_date,
	overall_score, is_draft, created_at, updated_at, completed_at`

func (r *PostgresReviewRepository) Create(ctx context.Context, rv *review.PerformanceReview) error {
	query := `INSERT INTO performance_reviews (employee_id, manager_id, template_id, cycle_id, status, due_date, is_draft)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		rv.EmployeeID, rv.ManagerID, rv.TemplateID, rv.CycleID, rv.Status, rv.DueDate, rv.IsDraft,
	).Scan(&rv.ID, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating performance review: %w", err)
	}
	return nil
}

func (r *PostgresReviewRepository) GetByID(ctx context.Context, id int64) (*review.PerformanceReview, error) {
	query := `SELECT ` + reviewColumns + ` FROM performance_reviews WHERE id = $1`
	rv := review.PerformanceReview{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rv.ID, &rv.EmployeeID, &rv.ManagerID, &rv.TemplateID, &rv.CycleID, &rv.Status,
		&rv.DueDate, &rv.OverallScore, &rv.IsDraft, &rv.CreatedAt, &rv.UpdatedAt, &rv.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("error getting performance review by ID: %w", err)
	}
	return &rv, nil
}

// BulkCreateSkipDuplicates issues one multi-row INSERT with ON CONFLICT DO
// NOTHING on the (employee_id, cycle_id) unique constraint. RETURNING only
// yields ids for rows actually inserted, which is exactly the set the caller
// wants; skipped duplicates produce no row. The conflict handling happens in
// the database, so concurrent instantiation runs cannot race each other into
// duplicate reviews.
func (r *PostgresReviewRepository) BulkCreateSkipDuplicates(ctx context.Context, reviews []*review.PerformanceReview) ([]review.Created, error) {
	if len(reviews) == 0 {
		return nil, nil
	}

	valueClauses := make([]string, 0, len(reviews))
	args := make([]interface{}, 0, len(reviews)*7)
	for i, rv := range reviews {
		base := i * 7
		valueClauses = append(valueClauses, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args, rv.EmployeeID, rv.ManagerID, rv.TemplateID, rv.CycleID, rv.Status, rv.DueDate, rv.IsDraft)
	}

	query := `INSERT INTO performance_reviews (employee_id, manager_id, template_id, cycle_id, status, due_date, is_draft)
               VALUES ` + strings.Join(valueClauses, ", ") + `
               ON CONFLICT (employee_id, cycle_id) DO NOTHING
               RETURNING id, employee_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error bulk creating performance reviews: %w", err)
	}
	defer rows.Close()

	created := make([]review.Created, 0, len(reviews))
	for rows.Next() {
		var c review.Created
		if err := rows.Scan(&c.ID, &c.EmployeeID); err != nil {
			return nil, fmt.Errorf("error scanning created review id: %w", err)
		}
		created = append(created, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating created review ids: %w", err)
	}
	return created, nil
}

func (r *PostgresReviewRepository) ListResponses(ctx context.Context, reviewID int64) ([]*review.Response, error) {
	query := `SELECT id, review_id, question_id, self_rating, self_comment, manager_rating, manager_comment
               FROM review_responses WHERE review_id = $1 ORDER BY question_id`
	rows, err := r.db.QueryContext(ctx, query, reviewID)
	if err != nil {
		return nil, fmt.Errorf("error querying review responses: %w", err)
	}
	defer rows.Close()

	responses := make([]*review.Response, 0)
	for rows.Next() {
		resp := review.Response{}
		if err := rows.Scan(
			&resp.ID, &resp.ReviewID, &resp.QuestionID,
			&resp.SelfRating, &resp.SelfComment, &resp.ManagerRating, &resp.ManagerComment,
		); err != nil {
			return nil, fmt.Errorf("error scanning review response row: %w", err)
		}
		responses = append(responses, &resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review response rows: %w", err)
	}
	return responses, nil
}

// upsertResponsesTx writes one answer row per question onto the given
// phase's columns, creating the row if the other phase hasn't yet.
func upsertResponsesTx(ctx context.Context, txn *sql.Tx, reviewID int64, phase review.Phase, answers []review.Answer) error {
	var query string
	switch phase {
	case review.PhaseSelf:
		query = `INSERT INTO review_responses (review_id, question_id, self_rating, self_comment)
                  VALUES ($1, $2, $3, $4)
                  ON CONFLICT (review_id, question_id)
                  DO UPDATE SET self_rating = EXCLUDED.self_rating, self_comment = EXCLUDED.self_comment`
	case review.PhaseManager:
		query = `INSERT INTO review_responses (review_id, question_id, manager_rating, manager_comment)
                  VALUES ($1, $2, $3, $4)
                  ON CONFLICT (review_id, question_id)
                  DO UPDATE SET manager_rating = EXCLUDED.manager_rating, manager_comment = EXCLUDED.manager_comment`
	default:
		return fmt.Errorf("unknown response phase: %s", phase)
	}

	stmt, err := txn.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare response upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range answers {
		rating := sql.NullInt64{}
		if a.Rating != 0 {
			rating = sql.NullInt64{Int64: int64(a.Rating), Valid: true}
		}
		comment := sql.NullString{}
		if a.Comment != "" {
			comment = sql.NullString{String: a.Comment, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, reviewID, a.QuestionID, rating, comment); err != nil {
			return fmt.Errorf("error upserting response (review %d, question %d): %w", reviewID, a.QuestionID, err)
		}
	}
	return nil
}

func (r *PostgresReviewRepository) SaveDraftResponses(ctx context.Context, reviewID int64, phase review.Phase, answers []review.Answer) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for draft save: %w", err)
	}
	defer txn.Rollback()

	if err := upsertResponsesTx(ctx, txn, reviewID, phase, answers); err != nil {
		return err
	}
	if _, err := txn.ExecContext(ctx,
		`UPDATE performance_reviews SET is_draft = TRUE, updated_at = NOW() WHERE id = $1`, reviewID); err != nil {
		return fmt.Errorf("error marking review as draft: %w", err)
	}
	return txn.Commit()
}

func (r *PostgresReviewRepository) CompleteEmployeePhase(ctx context.Context, reviewID int64, answers []review.Answer) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for employee submission: %w", err)
	}
	defer txn.Rollback()

	if err := upsertResponsesTx(ctx, txn, reviewID, review.PhaseSelf, answers); err != nil {
		return err
	}
	// Status filter keeps a lost-update from re-advancing a review somebody
	// else already moved on.
	res, err := txn.ExecContext(ctx,
		`UPDATE performance_reviews SET status = $1, is_draft = FALSE, updated_at = NOW()
          WHERE id = $2 AND status = $3`,
		review.StatusPendingManager, reviewID, review.StatusPendingEmployee)
	if err != nil {
		return fmt.Errorf("error advancing review to manager phase: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading status update result: %w", err)
	}
	if affected == 0 {
		return ErrReviewNotFound
	}
	return txn.Commit()
}

func (r *PostgresReviewRepository) CompleteManagerPhase(ctx context.Context, reviewID int64, answers []review.Answer, overall sql.NullFloat64, completedAt time.Time) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for manager submission: %w", err)
	}
	defer txn.Rollback()

	if err := upsertResponsesTx(ctx, txn, reviewID, review.PhaseManager, answers); err != nil {
		return err
	}
	res, err := txn.ExecContext(ctx,
		`UPDATE performance_reviews
          SET status = $1, overall_score = $2, completed_at = $3, is_draft = FALSE, updated_at = NOW()
          WHERE id = $4 AND status = $5`,
		review.StatusCompleted, overall, completedAt, reviewID, review.StatusPendingManager)
	if err != nil {
		return fmt.Errorf("error completing review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading completion update result: %w", err)
	}
	if affected == 0 {
		return ErrReviewNotFound
	}
	return txn.Commit()
}

func (r *PostgresReviewRepository) ListPendingEmployeeDue(ctx context.Context) ([]*review.PerformanceReview, error) {
	query := `SELECT ` + reviewColumns + ` FROM performance_reviews
               WHERE status = $1 AND due_date IS NOT NULL
               ORDER BY due_date ASC`
	rows, err := r.db.QueryContext(ctx, query, review.StatusPendingEmployee)
	if err != nil {
		return nil, fmt.Errorf("error querying pending reviews with due dates: %w", err)
	}
	defer rows.Close()
	return scanReviews(rows)
}

func (r *PostgresReviewRepository) ListPendingByCycle(ctx context.Context, cycleID int64) ([]*review.PerformanceReview, error) {
	query := `SELECT ` + reviewColumns + ` FROM performance_reviews
               WHERE cycle_id = $1 AND status IN ($2, $3)
               ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, cycleID, review.StatusPendingEmployee, review.StatusPendingManager)
	if err != nil {
		return nil, fmt.Errorf("error querying pending reviews by cycle: %w", err)
	}
	defer rows.Close()
	return scanReviews(rows)
}

func (r *PostgresReviewRepository) CountByCycle(ctx context.Context, cycleID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM performance_reviews WHERE cycle_id = $1`, cycleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting reviews by cycle: %w", err)
	}
	return count, nil
}

func scanReviews(rows *sql.Rows) ([]*review.PerformanceReview, error) {
	reviews := make([]*review.PerformanceReview, 0)
	for rows.Next() {
		rv := review.PerformanceReview{}
		if err := rows.Scan(
			&rv.ID, &rv.EmployeeID, &rv.ManagerID, &rv.TemplateID, &rv.CycleID, &rv.Status,
			&rv.DueDate, &rv.OverallScore, &rv.IsDraft, &rv.CreatedAt, &rv.UpdatedAt, &rv.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning performance review row: %w", err)
		}
		reviews = append(reviews, &rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating performance review rows: %w", err)
	}
	return reviews, nil
}
