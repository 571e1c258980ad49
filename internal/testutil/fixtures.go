package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
)

func SeedAccount(t *testing.T, db *sql.DB, name string, segment domain.Segment, balance domain.Minor) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO accounts (id, name, kind, segment, balance, version, created_at)
		 VALUES ($1, $2, 'cash', $3, $4, 0, now())`,
		id, name, segment, balance,
	)
	if err != nil {
		t.Fatalf("seed account %s: %v", name, err)
	}
	return id
}

func SeedCustomer(t *testing.T, db *sql.DB, name string, segment domain.Segment) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO customers (id, name, segment, balance, version, created_at)
		 VALUES ($1, $2, $3, 0, 0, now())`,
		id, name, segment,
	)
	if err != nil {
		t.Fatalf("seed customer %s: %v", name, err)
	}
	return id
}

func SeedVendor(t *testing.T, db *sql.DB, name string, segment domain.Segment) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO vendors (id, name, segment, balance, version, created_at)
		 VALUES ($1, $2, $3, 0, 0, now())`,
		id, name, segment,
	)
	if err != nil {
		t.Fatalf("seed vendor %s: %v", name, err)
	}
	return id
}

func SeedEmployee(t *testing.T, db *sql.DB, name string, segment domain.Segment, monthlySalary domain.Minor) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO employees (id, name, segment, monthly_salary, created_at)
		 VALUES ($1, $2, $3, $4, now())`,
		id, name, segment, monthlySalary,
	)
	if err != nil {
		t.Fatalf("seed employee %s: %v", name, err)
	}
	return id
}

func GetAccountBalance(t *testing.T, db *sql.DB, id uuid.UUID) domain.Minor {
	t.Helper()

	var balance domain.Minor
	if err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, id).Scan(&balance); err != nil {
		t.Fatalf("get account balance: %v", err)
	}
	return balance
}

func GetCustomerBalance(t *testing.T, db *sql.DB, id uuid.UUID) domain.Minor {
	t.Helper()

	var balance domain.Minor
	if err := db.QueryRow(`SELECT balance FROM customers WHERE id = $1`, id).Scan(&balance); err != nil {
		t.Fatalf("get customer balance: %v", err)
	}
	return balance
}

func GetVendorBalance(t *testing.T, db *sql.DB, id uuid.UUID) domain.Minor {
	t.Helper()

	var balance domain.Minor
	if err := db.QueryRow(`SELECT balance FROM vendors WHERE id = $1`, id).Scan(&balance); err != nil {
		t.Fatalf("get vendor balance: %v", err)
	}
	return balance
}

func CountTransactionsByReference(t *testing.T, db *sql.DB, referenceID uuid.UUID) int {
	t.Helper()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE reference_id = $1`, referenceID).Scan(&n); err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return n
}

// DaysAgo is a helper for due dates relative to now.
func DaysAgo(n int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -n)
}
