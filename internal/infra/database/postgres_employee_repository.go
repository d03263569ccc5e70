package database

import (
	"context"
	"database/sql"
	"fmt"

	"performance_review_service/internal/domain/employee"

	"github.com/lib/pq"
)

// Custom errors specific to employee repository
var ErrEmployeeNotFound = fmt.Errorf("employee not found")
var ErrDuplicateEmail = fmt.Errorf("employee with this email already exists")

type PostgresEmployeeRepository struct {
	db *sql.DB
}

func NewPostgresEmployeeRepository(db *sql.DB) *PostgresEmployeeRepository {
	return &PostgresEmployeeRepository{db: db}
}

const employeeColumns = `id, email, first_name, last_name, department, role, manager_id, is_active, created_at, updated_at`

func (r *PostgresEmployeeRepository) Create(ctx context.Context, emp *employee.Employee) error {
	query := `INSERT INTO employees (email, first_name, last_name, department, role, manager_id, is_active)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		emp.Email, emp.FirstName, emp.LastName, emp.Department, emp.Role, emp.ManagerID, emp.IsActive,
	).Scan(&emp.ID, &emp.CreatedAt, &emp.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("error creating employee: %w", err)
	}
	return nil
}

func (r *PostgresEmployeeRepository) GetByID(ctx context.Context, id int64) (*employee.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	emp := employee.Employee{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&emp.ID, &emp.Email, &emp.FirstName, &emp.LastName, &emp.Department,
		&emp.Role, &emp.ManagerID, &emp.IsActive, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("error getting employee by ID: %w", err)
	}
	return &emp, nil
}

func (r *PostgresEmployeeRepository) Update(ctx context.Context, emp *employee.Employee) error {
	query := `UPDATE employees
               SET email = $1, first_name = $2, last_name = $3, department = $4, role = $5, manager_id = $6, is_active = $7, updated_at = NOW()
               WHERE id = $8
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		emp.Email, emp.FirstName, emp.LastName, emp.Department, emp.Role, emp.ManagerID, emp.IsActive, emp.ID,
	).Scan(&emp.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("error updating employee: %w", err)
	}
	return nil
}

func scanEmployees(rows *sql.Rows) ([]*employee.Employee, error) {
	employees := make([]*employee.Employee, 0)
	for rows.Next() {
		emp := employee.Employee{}
		if err := rows.Scan(
			&emp.ID, &emp.Email, &emp.FirstName, &emp.LastName, &emp.Department,
			&emp.Role, &emp.ManagerID, &emp.IsActive, &emp.CreatedAt, &emp.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning employee row: %w", err)
		}
		employees = append(employees, &emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employee rows: %w", err)
	}
	return employees, nil
}

func (r *PostgresEmployeeRepository) ListActive(ctx context.Context) ([]*employee.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE is_active = TRUE ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying active employees: %w", err)
	}
	defer rows.Close()
	return scanEmployees(rows)
}

func (r *PostgresEmployeeRepository) ListActiveByDepartments(ctx context.Context, departments []string) ([]*employee.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees
               WHERE is_active = TRUE AND department = ANY($1::varchar[]) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(departments))
	if err != nil {
		return nil, fmt.Errorf("error querying employees by departments: %w", err)
	}
	defer rows.Close()
	return scanEmployees(rows)
}
