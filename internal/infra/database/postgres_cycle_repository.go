package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"performance_review_service/internal/domain/cycle"

	"github.com/lib/pq"
)

// Custom errors specific to cycle repository
var ErrCycleNotFound = fmt.Errorf("review cycle not found")

type PostgresCycleRepository struct {
	db *sql.DB
}

func NewPostgresCycleRepository(db *sql.DB) *PostgresCycleRepository {
	return &PostgresCycleRepository{db: db}
}

const cycleColumns = `id, name, description, frequency, start_date, due_date, last_run_date, next_run_date,
	is_active, include_all_employees, departments, template_id, created_by, created_at, updated_at`

func (r *PostgresCycleRepository) Create(ctx context.Context, c *cycle.ReviewCycle) error {
	query := `INSERT INTO review_cycles
               (name, description, frequency, start_date, due_date, next_run_date, is_active, include_all_employees, departments, template_id, created_by)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		c.Name, c.Description, c.Frequency, c.StartDate, c.DueDate, c.NextRunDate,
		c.IsActive, c.IncludeAllEmployees, pq.Array(c.Departments), c.TemplateID, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating review cycle: %w", err)
	}
	return nil
}

func scanCycle(row *sql.Row) (*cycle.ReviewCycle, error) {
	c := cycle.ReviewCycle{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Frequency, &c.StartDate, &c.DueDate,
		&c.LastRunDate, &c.NextRunDate, &c.IsActive, &c.IncludeAllEmployees,
		pq.Array(&c.Departments), &c.TemplateID, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresCycleRepository) GetByID(ctx context.Context, id int64) (*cycle.ReviewCycle, error) {
	query := `SELECT ` + cycleColumns + ` FROM review_cycles WHERE id = $1`
	c, err := scanCycle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCycleNotFound
		}
		return nil, fmt.Errorf("error getting review cycle by ID: %w", err)
	}
	return c, nil
}

func (r *PostgresCycleRepository) Update(ctx context.Context, c *cycle.ReviewCycle) error {
	query := `UPDATE review_cycles
               SET name = $1, description = $2, frequency = $3, start_date = $4, due_date = $5,
                   is_active = $6, include_all_employees = $7, departments = $8, updated_at = NOW()
               WHERE id = $9
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		c.Name, c.Description, c.Frequency, c.StartDate, c.DueDate,
		c.IsActive, c.IncludeAllEmployees, pq.Array(c.Departments), c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrCycleNotFound
		}
		return fmt.Errorf("error updating review cycle: %w", err)
	}
	return nil
}

func (r *PostgresCycleRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM review_cycles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting review cycle: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading delete result: %w", err)
	}
	if affected == 0 {
		return ErrCycleNotFound
	}
	return nil
}

func (r *PostgresCycleRepository) ListDue(ctx context.Context, now time.Time) ([]*cycle.ReviewCycle, error) {
	query := `SELECT ` + cycleColumns + ` FROM review_cycles
               WHERE is_active = TRUE AND next_run_date <= $1
               ORDER BY next_run_date ASC`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("error querying due review cycles: %w", err)
	}
	defer rows.Close()

	cycles := make([]*cycle.ReviewCycle, 0)
	for rows.Next() {
		c := cycle.ReviewCycle{}
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Description, &c.Frequency, &c.StartDate, &c.DueDate,
			&c.LastRunDate, &c.NextRunDate, &c.IsActive, &c.IncludeAllEmployees,
			pq.Array(&c.Departments), &c.TemplateID, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning review cycle row: %w", err)
		}
		cycles = append(cycles, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review cycle rows: %w", err)
	}
	return cycles, nil
}

func (r *PostgresCycleRepository) UpdateRunDates(ctx context.Context, id int64, lastRun, nextRun time.Time) error {
	query := `UPDATE review_cycles
               SET last_run_date = $1, next_run_date = $2, updated_at = NOW()
               WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, lastRun, nextRun, id)
	if err != nil {
		return fmt.Errorf("error updating cycle run dates: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading run date update result: %w", err)
	}
	if affected == 0 {
		return ErrCycleNotFound
	}
	return nil
}
