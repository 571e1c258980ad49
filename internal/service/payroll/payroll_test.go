package payroll_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safwanm/biztrack-backend/internal/domain"
	"github.com/safwanm/biztrack-backend/internal/repository"
	"github.com/safwanm/biztrack-backend/internal/service/payroll"
	"github.com/safwanm/biztrack-backend/internal/testutil"
)

func newService(db *sql.DB) *payroll.Service {
	return payroll.NewService(
		repository.NewEmployeeRepository(db),
		repository.NewSalaryRepository(db),
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		db,
	)
}

func TestPayroll(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	db := testutil.SetupTestDB(t)
	svc := newService(db)
	ctx := context.Background()

	t.Run("employee needs a positive salary", func(t *testing.T) {
		err := svc.CreateEmployee(ctx, &domain.Employee{
			Name:    "Ahmed",
			Segment: domain.SegmentTravel,
		})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("generation is idempotent per period", func(t *testing.T) {
		testutil.SeedEmployee(t, db, "Rania", domain.SegmentTravel, 120000)
		testutil.SeedEmployee(t, db, "Sameer", domain.SegmentISP, 90000)

		created, err := svc.GenerateMonthly(ctx, 3, 2026)
		require.NoError(t, err)
		assert.Equal(t, 2, created)

		// Running the same period again must not duplicate anything.
		created, err = svc.GenerateMonthly(ctx, 3, 2026)
		require.NoError(t, err)
		assert.Equal(t, 0, created)

		salaries, err := svc.ListByPeriod(ctx, 3, 2026)
		require.NoError(t, err)
		require.Len(t, salaries, 2)
		for _, s := range salaries {
			assert.Equal(t, domain.SalaryUnpaid, s.Status)
			assert.Equal(t, 3, s.Month)
			assert.Equal(t, 2026, s.Year)
		}
	})

	t.Run("a hire after generation only adds the missing row", func(t *testing.T) {
		testutil.SeedEmployee(t, db, "Dina", domain.SegmentISP, 70000)

		created, err := svc.GenerateMonthly(ctx, 3, 2026)
		require.NoError(t, err)
		assert.Equal(t, 1, created)

		salaries, err := svc.ListByPeriod(ctx, 3, 2026)
		require.NoError(t, err)
		assert.Len(t, salaries, 3)
	})

	t.Run("invalid period is rejected", func(t *testing.T) {
		_, err := svc.GenerateMonthly(ctx, 13, 2026)
		require.ErrorIs(t, err, domain.ErrInvalidStatus)

		_, err = svc.GenerateMonthly(ctx, 1, 1999)
		require.ErrorIs(t, err, domain.ErrInvalidStatus)
	})

	t.Run("paying a salary books the expense once", func(t *testing.T) {
		employeeID := testutil.SeedEmployee(t, db, "Karima", domain.SegmentTravel, 60000)
		accountID := testutil.SeedAccount(t, db, "Payroll", domain.SegmentTravel, 100000)

		_, err := svc.GenerateMonthly(ctx, 4, 2026)
		require.NoError(t, err)

		salary := salaryFor(ctx, t, svc, employeeID, 4, 2026)

		err = svc.PaySalary(ctx, payroll.PaySalaryRequest{
			SalaryID:  salary.ID,
			AccountID: accountID,
			Date:      time.Now().UTC(),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.Minor(40000), testutil.GetAccountBalance(t, db, accountID))
		assert.Equal(t, 1, testutil.CountTransactionsByReference(t, db, salary.ID))

		paid := salaryFor(ctx, t, svc, employeeID, 4, 2026)
		assert.Equal(t, domain.SalaryPaid, paid.Status)
		require.NotNil(t, paid.PaidDate)

		// Paying again is rejected and nothing moves.
		err = svc.PaySalary(ctx, payroll.PaySalaryRequest{
			SalaryID:  salary.ID,
			AccountID: accountID,
			Date:      time.Now().UTC(),
		})
		require.ErrorIs(t, err, domain.ErrAlreadyPaid)
		assert.Equal(t, domain.Minor(40000), testutil.GetAccountBalance(t, db, accountID))
		assert.Equal(t, 1, testutil.CountTransactionsByReference(t, db, salary.ID))
	})

	t.Run("account must cover the salary", func(t *testing.T) {
		employeeID := testutil.SeedEmployee(t, db, "Munir", domain.SegmentTravel, 80000)
		accountID := testutil.SeedAccount(t, db, "Petty Cash", domain.SegmentTravel, 10000)

		_, err := svc.GenerateMonthly(ctx, 5, 2026)
		require.NoError(t, err)

		salary := salaryFor(ctx, t, svc, employeeID, 5, 2026)

		err = svc.PaySalary(ctx, payroll.PaySalaryRequest{
			SalaryID:  salary.ID,
			AccountID: accountID,
			Date:      time.Now().UTC(),
		})
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
		assert.Equal(t, domain.Minor(10000), testutil.GetAccountBalance(t, db, accountID))
	})
}

func salaryFor(ctx context.Context, t *testing.T, svc *payroll.Service, employeeID uuid.UUID, month, year int) domain.Salary {
	t.Helper()

	salaries, err := svc.ListByPeriod(ctx, month, year)
	require.NoError(t, err)
	for _, s := range salaries {
		if s.EmployeeID == employeeID {
			return s
		}
	}
	t.Fatalf("no salary for employee %s in %d/%d", employeeID, month, year)
	return domain.Salary{}
}
