package reporting_test

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
	"github.com/safwanm/biztrack-backend/internal/service/reporting"
	"github.com/safwanm/biztrack-backend/internal/testutil"
)

func newService(db *sql.DB) *reporting.Service {
	return reporting.NewService(
		repository.NewReceivableRepository(db),
		repository.NewPayableRepository(db),
		repository.NewAccountRepository(db),
		nil,
		time.Minute,
	)
}

func seedReceivable(t *testing.T, db *sql.DB, customerID uuid.UUID, amount, paid domain.Minor, due time.Time) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO receivables (id, customer_id, amount, paid_amount, due_date, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())`,
		uuid.New(), customerID, amount, paid, due, domain.DeriveStatus(amount, paid),
	)
	require.NoError(t, err)
}

func seedPayable(t *testing.T, db *sql.DB, vendorID uuid.UUID, amount, paid domain.Minor, due time.Time) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO payables (id, vendor_id, amount, paid_amount, due_date, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())`,
		uuid.New(), vendorID, amount, paid, due, domain.DeriveStatus(amount, paid),
	)
	require.NoError(t, err)
}

func TestReporting(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	db := testutil.SetupTestDB(t)
	svc := newService(db)
	ctx := context.Background()

	customerID := testutil.SeedCustomer(t, db, "Majid", domain.SegmentTravel)
	ispCustomerID := testutil.SeedCustomer(t, db, "Lina", domain.SegmentISP)
	vendorID := testutil.SeedVendor(t, db, "AirGulf", domain.SegmentTravel)
	testutil.SeedAccount(t, db, "Till", domain.SegmentTravel, 25000)
	testutil.SeedAccount(t, db, "ISP Cash", domain.SegmentISP, 999999)

	seedReceivable(t, db, customerID, 100000, 0, testutil.DaysAgo(45))
	seedReceivable(t, db, customerID, 50000, 20000, testutil.DaysAgo(5))
	seedReceivable(t, db, customerID, 10000, 10000, testutil.DaysAgo(90))
	seedReceivable(t, db, ispCustomerID, 70000, 0, testutil.DaysAgo(45))
	seedPayable(t, db, vendorID, 40000, 0, testutil.DaysAgo(70))

	t.Run("aging buckets open receivables by days past due", func(t *testing.T) {
		report, err := svc.AgingReceivables(ctx, domain.SegmentTravel)
		require.NoError(t, err)

		assert.Equal(t, domain.Minor(130000), report.Total)
		require.Len(t, report.Buckets, 3)

		assert.Equal(t, "0-30", report.Buckets[0].Label)
		assert.Equal(t, 1, report.Buckets[0].Count)
		assert.Equal(t, domain.Minor(30000), report.Buckets[0].Total)

		assert.Equal(t, "31-60", report.Buckets[1].Label)
		assert.Equal(t, 1, report.Buckets[1].Count)
		assert.Equal(t, domain.Minor(100000), report.Buckets[1].Total)

		// The fully paid receivable never shows up.
		assert.Equal(t, 0, report.Buckets[2].Count)
	})

	t.Run("aging payables", func(t *testing.T) {
		report, err := svc.AgingPayables(ctx, domain.SegmentTravel)
		require.NoError(t, err)

		assert.Equal(t, domain.Minor(40000), report.Total)
		assert.Equal(t, "61+", report.Buckets[2].Label)
		assert.Equal(t, 1, report.Buckets[2].Count)
		assert.Equal(t, domain.Minor(40000), report.Buckets[2].Total)
	})

	t.Run("summary nets cash against open documents per segment", func(t *testing.T) {
		sum, err := svc.BuildSummary(ctx, domain.SegmentTravel)
		require.NoError(t, err)

		assert.Equal(t, domain.Minor(25000), sum.CashOnHand)
		assert.Equal(t, domain.Minor(130000), sum.ReceivablesDue)
		assert.Equal(t, domain.Minor(40000), sum.PayablesDue)
		assert.Equal(t, 2, sum.OpenReceivables)
		assert.Equal(t, 1, sum.OpenPayables)
		assert.Equal(t, domain.Minor(115000), sum.NetPosition)
	})
}
