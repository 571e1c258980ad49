package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
)

const employeeColumns = `id, name, phone, segment, monthly_salary, created_at`

const salaryColumns = `id, employee_id, amount, month, year, status, paid_date, created_at`

type EmployeeRepository struct {
	db *sql.DB
}

func NewEmployeeRepository(db *sql.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO employees (id, name, phone, segment, monthly_salary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Name, e.Phone, e.Segment, e.MonthlySalary, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Employee, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id,
	)
	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return e, nil
}

func (r *EmployeeRepository) List(ctx context.Context) ([]domain.Employee, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var employees []domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		employees = append(employees, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return employees, nil
}

func scanEmployee(s scanner) (*domain.Employee, error) {
	var e domain.Employee
	err := s.Scan(&e.ID, &e.Name, &e.Phone, &e.Segment, &e.MonthlySalary, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type SalaryRepository struct {
	db *sql.DB
}

func NewSalaryRepository(db *sql.DB) *SalaryRepository {
	return &SalaryRepository{db: db}
}

// CreateIfAbsent inserts a salary row unless one already exists for the
// employee and period. Returns true when a row was inserted.
func (r *SalaryRepository) CreateIfAbsent(ctx context.Context, sal *domain.Salary) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO salaries (id, employee_id, amount, month, year, status, paid_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (employee_id, month, year) DO NOTHING`,
		sal.ID, sal.EmployeeID, sal.Amount, sal.Month, sal.Year, sal.Status, sal.PaidDate, sal.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("CreateIfAbsent: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("CreateIfAbsent: rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *SalaryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Salary, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+salaryColumns+` FROM salaries WHERE id = $1`, id,
	)
	sal, err := scanSalary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return sal, nil
}

func (r *SalaryRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Salary, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+salaryColumns+` FROM salaries WHERE id = $1 FOR UPDATE`, id,
	)
	sal, err := scanSalary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return sal, nil
}

func (r *SalaryRepository) ListByPeriod(ctx context.Context, month, year int) ([]domain.Salary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+salaryColumns+` FROM salaries
		WHERE month = $1 AND year = $2 ORDER BY created_at`,
		month, year,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByPeriod: %w", err)
	}
	defer rows.Close()

	var salaries []domain.Salary
	for rows.Next() {
		sal, err := scanSalary(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByPeriod: scan: %w", err)
		}
		salaries = append(salaries, *sal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByPeriod: rows: %w", err)
	}
	return salaries, nil
}

func (r *SalaryRepository) MarkPaid(ctx context.Context, tx *sql.Tx, id uuid.UUID, paidDate time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE salaries SET status = $1, paid_date = $2 WHERE id = $3`,
		domain.SalaryPaid, paidDate, id,
	)
	if err != nil {
		return fmt.Errorf("MarkPaid: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("MarkPaid: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("MarkPaid: %w", domain.ErrNotFound)
	}
	return nil
}

func scanSalary(s scanner) (*domain.Salary, error) {
	var sal domain.Salary
	err := s.Scan(
		&sal.ID, &sal.EmployeeID, &sal.Amount, &sal.Month, &sal.Year,
		&sal.Status, &sal.PaidDate, &sal.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sal, nil
}
