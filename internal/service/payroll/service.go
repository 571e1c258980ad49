package payroll

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
	"github.com/safwanm/biztrack-backend/internal/logging"
)

type employeeRepo interface {
	Create(ctx context.Context, e *domain.Employee) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Employee, error)
	List(ctx context.Context) ([]domain.Employee, error)
}

type salaryRepo interface {
	CreateIfAbsent(ctx context.Context, sal *domain.Salary) (bool, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Salary, error)
	ListByPeriod(ctx context.Context, month, year int) ([]domain.Salary, error)
	MarkPaid(ctx context.Context, tx *sql.Tx, id uuid.UUID, paidDate time.Time) error
}

type accountRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance domain.Minor, newVersion int64) error
}

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
}

type Service struct {
	employees    employeeRepo
	salaries     salaryRepo
	accounts     accountRepo
	transactions transactionRepo
	db           *sql.DB
}

func NewService(employees employeeRepo, salaries salaryRepo, accounts accountRepo, transactions transactionRepo, db *sql.DB) *Service {
	return &Service{
		employees:    employees,
		salaries:     salaries,
		accounts:     accounts,
		transactions: transactions,
		db:           db,
	}
}

func (s *Service) CreateEmployee(ctx context.Context, e *domain.Employee) error {
	if e.MonthlySalary <= 0 {
		return fmt.Errorf("CreateEmployee: %w", domain.ErrInvalidAmount)
	}
	if err := s.employees.Create(ctx, e); err != nil {
		return fmt.Errorf("CreateEmployee: %w", err)
	}
	return nil
}

func (s *Service) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	employees, err := s.employees.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListEmployees: %w", err)
	}
	return employees, nil
}

// GenerateMonthly creates an unpaid salary row per employee for the period.
// Re-running for the same period only fills gaps; existing rows are left
// alone. No balances move until a salary is actually paid.
func (s *Service) GenerateMonthly(ctx context.Context, month, year int) (int, error) {
	log := logging.FromContext(ctx)

	if month < 1 || month > 12 || year < 2000 {
		return 0, fmt.Errorf("GenerateMonthly: %w", domain.ErrInvalidStatus)
	}

	employees, err := s.employees.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("GenerateMonthly: %w", err)
	}

	created := 0
	now := time.Now().UTC()
	for _, e := range employees {
		sal := &domain.Salary{
			ID:         uuid.New(),
			EmployeeID: e.ID,
			Amount:     e.MonthlySalary,
			Month:      month,
			Year:       year,
			Status:     domain.SalaryUnpaid,
			CreatedAt:  now,
		}
		inserted, err := s.salaries.CreateIfAbsent(ctx, sal)
		if err != nil {
			return created, fmt.Errorf("GenerateMonthly: %w", err)
		}
		if inserted {
			created++
		}
	}

	log.Info("monthly salaries generated", "month", month, "year", year, "created", created)
	return created, nil
}

func (s *Service) ListByPeriod(ctx context.Context, month, year int) ([]domain.Salary, error) {
	salaries, err := s.salaries.ListByPeriod(ctx, month, year)
	if err != nil {
		return nil, fmt.Errorf("ListByPeriod: %w", err)
	}
	return salaries, nil
}

type PaySalaryRequest struct {
	SalaryID  uuid.UUID
	AccountID uuid.UUID
	Date      time.Time
	Note      string
}

// PaySalary pays one salary out of an account: the expense entry, the account
// balance drop, and the paid flag commit together.
func (s *Service) PaySalary(ctx context.Context, req PaySalaryRequest) error {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("PaySalary: begin tx: %w", err)
	}
	defer tx.Rollback()

	sal, err := s.salaries.GetForUpdate(ctx, tx, req.SalaryID)
	if err != nil {
		return fmt.Errorf("PaySalary: %w", err)
	}
	if sal.Status == domain.SalaryPaid {
		return fmt.Errorf("PaySalary: %w", domain.ErrAlreadyPaid)
	}

	employee, err := s.employees.GetByID(ctx, sal.EmployeeID)
	if err != nil {
		return fmt.Errorf("PaySalary: %w", err)
	}

	account, err := s.accounts.GetForUpdate(ctx, tx, req.AccountID)
	if err != nil {
		return fmt.Errorf("PaySalary: %w", err)
	}
	if account.Balance < sal.Amount {
		return fmt.Errorf("PaySalary: %w", domain.ErrInsufficientFunds)
	}

	kind := domain.ReferenceSalary
	entry := &domain.Transaction{
		ID:            uuid.New(),
		Date:          req.Date,
		Amount:        sal.Amount,
		Type:          domain.TransactionExpense,
		Category:      "Salary",
		Segment:       employee.Segment,
		AccountID:     account.ID,
		ReferenceID:   &sal.ID,
		ReferenceKind: &kind,
		Note:          req.Note,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.transactions.Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("PaySalary: %w", err)
	}

	if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance-sal.Amount, account.Version+1); err != nil {
		return fmt.Errorf("PaySalary: %w", err)
	}

	if err := s.salaries.MarkPaid(ctx, tx, sal.ID, req.Date); err != nil {
		return fmt.Errorf("PaySalary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("PaySalary: commit: %w", err)
	}

	log.Info("salary paid",
		"salary_id", sal.ID,
		"employee_id", sal.EmployeeID,
		"amount", sal.Amount,
	)
	return nil
}
