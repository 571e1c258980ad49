package settlement_test

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
	"github.com/safwanm/biztrack-backend/internal/service/settlement"
	"github.com/safwanm/biztrack-backend/internal/testutil"
)

func newService(db *sql.DB) *settlement.Service {
	return settlement.NewService(
		repository.NewReceivableRepository(db),
		repository.NewPayableRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewVendorRepository(db),
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		db,
	)
}

func TestReceivableSettlement(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	db := testutil.SetupTestDB(t)
	svc := newService(db)
	recs := repository.NewReceivableRepository(db)
	ctx := context.Background()

	t.Run("create bills the customer without a ledger entry", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Amal Travels", domain.SegmentTravel)

		rec, err := svc.CreateReceivable(ctx, settlement.CreateReceivableRequest{
			CustomerID: customerID,
			Amount:     100000,
			DueDate:    testutil.DaysAgo(-7),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.StatusUnpaid, rec.Status)
		assert.Equal(t, domain.Minor(100000), testutil.GetCustomerBalance(t, db, customerID))
		assert.Equal(t, 0, testutil.CountTransactionsByReference(t, db, rec.ID))
	})

	t.Run("partial payment moves cash and leaves the rest due", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Nadia", domain.SegmentTravel)
		accountID := testutil.SeedAccount(t, db, "Till", domain.SegmentTravel, 0)

		rec, err := svc.CreateReceivable(ctx, settlement.CreateReceivableRequest{
			CustomerID: customerID,
			Amount:     100000,
			DueDate:    testutil.DaysAgo(-7),
		})
		require.NoError(t, err)

		res, err := svc.SettleReceivable(ctx, settlement.SettleReceivableRequest{
			ReceivableID: rec.ID,
			AccountID:    accountID,
			Amount:       40000,
			Date:         time.Now().UTC(),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.Minor(40000), res.Applied)
		assert.Equal(t, domain.Minor(60000), res.Remaining)
		assert.Equal(t, domain.Minor(40000), testutil.GetAccountBalance(t, db, accountID))
		assert.Equal(t, domain.Minor(60000), testutil.GetCustomerBalance(t, db, customerID))

		got, err := recs.GetByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPartial, got.Status)
		assert.Equal(t, domain.Minor(40000), got.PaidAmount)
		assert.Equal(t, 1, testutil.CountTransactionsByReference(t, db, rec.ID))
	})

	t.Run("payment above remaining is rejected", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Rafiq", domain.SegmentTravel)
		accountID := testutil.SeedAccount(t, db, "Till 2", domain.SegmentTravel, 0)

		rec, err := svc.CreateReceivable(ctx, settlement.CreateReceivableRequest{
			CustomerID: customerID,
			Amount:     100000,
			DueDate:    testutil.DaysAgo(-7),
		})
		require.NoError(t, err)

		_, err = svc.SettleReceivable(ctx, settlement.SettleReceivableRequest{
			ReceivableID: rec.ID,
			AccountID:    accountID,
			Amount:       40000,
			Date:         time.Now().UTC(),
		})
		require.NoError(t, err)

		_, err = svc.SettleReceivable(ctx, settlement.SettleReceivableRequest{
			ReceivableID: rec.ID,
			AccountID:    accountID,
			Amount:       70000,
			Date:         time.Now().UTC(),
		})
		require.ErrorIs(t, err, domain.ErrExceedsRemainingDue)

		// Nothing from the rejected attempt may stick.
		assert.Equal(t, domain.Minor(40000), testutil.GetAccountBalance(t, db, accountID))
		assert.Equal(t, domain.Minor(60000), testutil.GetCustomerBalance(t, db, customerID))
	})

	t.Run("discount and surcharge adjust the billed amount", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Hana", domain.SegmentISP)
		accountID := testutil.SeedAccount(t, db, "ISP Cash", domain.SegmentISP, 0)

		rec, err := svc.CreateReceivable(ctx, settlement.CreateReceivableRequest{
			CustomerID: customerID,
			Amount:     100000,
			DueDate:    testutil.DaysAgo(-7),
		})
		require.NoError(t, err)

		// 1000.00 billed, 100.00 off, 50.00 added, 500.00 collected.
		res, err := svc.SettleReceivable(ctx, settlement.SettleReceivableRequest{
			ReceivableID: rec.ID,
			AccountID:    accountID,
			Amount:       50000,
			Discount:     10000,
			Surcharge:    5000,
			Date:         time.Now().UTC(),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.Minor(50000), res.Applied)
		assert.Equal(t, domain.Minor(45000), res.Remaining)

		got, err := recs.GetByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.Minor(95000), got.Amount)

		// Account takes only the cash, the customer is relieved of cash
		// plus discount minus surcharge.
		assert.Equal(t, domain.Minor(50000), testutil.GetAccountBalance(t, db, accountID))
		assert.Equal(t, domain.Minor(45000), testutil.GetCustomerBalance(t, db, customerID))
	})

	t.Run("discount cannot push the amount below what was paid", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Yusuf", domain.SegmentTravel)
		accountID := testutil.SeedAccount(t, db, "Till 3", domain.SegmentTravel, 0)

		rec, err := svc.CreateReceivable(ctx, settlement.CreateReceivableRequest{
			CustomerID: customerID,
			Amount:     100000,
			DueDate:    testutil.DaysAgo(-7),
		})
		require.NoError(t, err)

		_, err = svc.SettleReceivable(ctx, settlement.SettleReceivableRequest{
			ReceivableID: rec.ID,
			AccountID:    accountID,
			Amount:       60000,
			Date:         time.Now().UTC(),
		})
		require.NoError(t, err)

		_, err = svc.SettleReceivable(ctx, settlement.SettleReceivableRequest{
			ReceivableID: rec.ID,
			AccountID:    accountID,
			Amount:       1000,
			Discount:     50000,
			Date:         time.Now().UTC(),
		})
		require.ErrorIs(t, err, domain.ErrAmountBelowPaid)
	})

	t.Run("settling a paid receivable is rejected", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Leila", domain.SegmentTravel)
		accountID := testutil.SeedAccount(t, db, "Till 4", domain.SegmentTravel, 0)

		rec, err := svc.CreateReceivable(ctx, settlement.CreateReceivableRequest{
			CustomerID: customerID,
			Amount:     50000,
			DueDate:    testutil.DaysAgo(-7),
		})
		require.NoError(t, err)

		_, err = svc.SettleReceivable(ctx, settlement.SettleReceivableRequest{
			ReceivableID: rec.ID,
			AccountID:    accountID,
			Amount:       50000,
			Date:         time.Now().UTC(),
		})
		require.NoError(t, err)

		got, err := recs.GetByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPaid, got.Status)

		_, err = svc.SettleReceivable(ctx, settlement.SettleReceivableRequest{
			ReceivableID: rec.ID,
			AccountID:    accountID,
			Amount:       100,
			Date:         time.Now().UTC(),
		})
		require.ErrorIs(t, err, domain.ErrAlreadyPaid)
	})

	t.Run("delete reverses settlements and unwinds the balances", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Omar", domain.SegmentTravel)
		accountID := testutil.SeedAccount(t, db, "Till 5", domain.SegmentTravel, 20000)

		rec, err := svc.CreateReceivable(ctx, settlement.CreateReceivableRequest{
			CustomerID: customerID,
			Amount:     100000,
			DueDate:    testutil.DaysAgo(-7),
		})
		require.NoError(t, err)

		_, err = svc.SettleReceivable(ctx, settlement.SettleReceivableRequest{
			ReceivableID: rec.ID,
			AccountID:    accountID,
			Amount:       30000,
			Date:         time.Now().UTC(),
		})
		require.NoError(t, err)

		require.NoError(t, svc.DeleteReceivable(ctx, rec.ID))

		// Cash returns to the account's seed value, the customer owes
		// nothing, and no entries reference the deleted document.
		assert.Equal(t, domain.Minor(20000), testutil.GetAccountBalance(t, db, accountID))
		assert.Equal(t, domain.Minor(0), testutil.GetCustomerBalance(t, db, customerID))
		assert.Equal(t, 0, testutil.CountTransactionsByReference(t, db, rec.ID))

		_, err = recs.GetByID(ctx, rec.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRecordCustomerPayment(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	db := testutil.SetupTestDB(t)
	svc := newService(db)
	ctx := context.Background()

	t.Run("distributes oldest due first", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Karim", domain.SegmentTravel)
		accountID := testutil.SeedAccount(t, db, "Main", domain.SegmentTravel, 0)

		older, err := svc.CreateReceivable(ctx, settlement.CreateReceivableRequest{
			CustomerID: customerID,
			Amount:     100000,
			DueDate:    testutil.DaysAgo(10),
		})
		require.NoError(t, err)
		newer, err := svc.CreateReceivable(ctx, settlement.CreateReceivableRequest{
			CustomerID: customerID,
			Amount:     80000,
			DueDate:    testutil.DaysAgo(5),
		})
		require.NoError(t, err)

		res, err := svc.RecordCustomerPayment(ctx, settlement.CustomerPaymentRequest{
			CustomerID: customerID,
			AccountID:  accountID,
			Amount:     150000,
			Date:       time.Now().UTC(),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.Minor(150000), res.Settled)
		assert.Equal(t, domain.Minor(0), res.Advance)
		assert.Equal(t, domain.Minor(30000), res.TotalDueAfter)

		byID := fetchReceivables(ctx, t, svc, customerID)
		assert.Equal(t, domain.Minor(100000), byID[older.ID].PaidAmount)
		assert.Equal(t, domain.StatusPaid, byID[older.ID].Status)
		assert.Equal(t, domain.Minor(50000), byID[newer.ID].PaidAmount)
		assert.Equal(t, domain.StatusPartial, byID[newer.ID].Status)

		assert.Equal(t, domain.Minor(150000), testutil.GetAccountBalance(t, db, accountID))
		assert.Equal(t, domain.Minor(30000), testutil.GetCustomerBalance(t, db, customerID))
	})

	t.Run("residual becomes advance credit", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Selma", domain.SegmentTravel)
		accountID := testutil.SeedAccount(t, db, "Main 2", domain.SegmentTravel, 0)

		_, err := svc.CreateReceivable(ctx, settlement.CreateReceivableRequest{
			CustomerID: customerID,
			Amount:     180000,
			DueDate:    testutil.DaysAgo(3),
		})
		require.NoError(t, err)

		res, err := svc.RecordCustomerPayment(ctx, settlement.CustomerPaymentRequest{
			CustomerID: customerID,
			AccountID:  accountID,
			Amount:     200000,
			Date:       time.Now().UTC(),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.Minor(180000), res.Settled)
		assert.Equal(t, domain.Minor(20000), res.Advance)
		assert.Equal(t, domain.Minor(0), res.TotalDueAfter)

		// The customer now holds credit with us.
		assert.Equal(t, domain.Minor(-20000), testutil.GetCustomerBalance(t, db, customerID))
		assert.Equal(t, domain.Minor(200000), testutil.GetAccountBalance(t, db, accountID))
	})

	t.Run("discount matching the full amount writes the receivable off", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Ghada", domain.SegmentTravel)
		accountID := testutil.SeedAccount(t, db, "Main 4", domain.SegmentTravel, 0)

		rec, err := svc.CreateReceivable(ctx, settlement.CreateReceivableRequest{
			CustomerID: customerID,
			Amount:     50000,
			DueDate:    testutil.DaysAgo(3),
		})
		require.NoError(t, err)

		res, err := svc.RecordCustomerPayment(ctx, settlement.CustomerPaymentRequest{
			CustomerID: customerID,
			AccountID:  accountID,
			Amount:     10000,
			Discount:   50000,
			Date:       time.Now().UTC(),
		})
		require.NoError(t, err)

		// The discount absorbs the whole document, so the cash has nowhere
		// to land and stays as advance credit.
		assert.Equal(t, domain.Minor(0), res.Settled)
		assert.Equal(t, domain.Minor(10000), res.Advance)
		assert.Equal(t, domain.Minor(0), res.TotalDueAfter)

		byID := fetchReceivables(ctx, t, svc, customerID)
		assert.Equal(t, domain.Minor(0), byID[rec.ID].Amount)
		assert.Equal(t, domain.Minor(0), byID[rec.ID].PaidAmount)
		assert.Equal(t, domain.StatusPaid, byID[rec.ID].Status)

		assert.Equal(t, domain.Minor(10000), testutil.GetAccountBalance(t, db, accountID))
		assert.Equal(t, domain.Minor(-10000), testutil.GetCustomerBalance(t, db, customerID))
		assert.Equal(t, 0, testutil.CountTransactionsByReference(t, db, rec.ID))
	})

	t.Run("discount larger than total due is rejected", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Tariq", domain.SegmentTravel)
		accountID := testutil.SeedAccount(t, db, "Main 3", domain.SegmentTravel, 0)

		_, err := svc.CreateReceivable(ctx, settlement.CreateReceivableRequest{
			CustomerID: customerID,
			Amount:     50000,
			DueDate:    testutil.DaysAgo(3),
		})
		require.NoError(t, err)

		_, err = svc.RecordCustomerPayment(ctx, settlement.CustomerPaymentRequest{
			CustomerID: customerID,
			AccountID:  accountID,
			Amount:     10000,
			Discount:   60000,
			Date:       time.Now().UTC(),
		})
		require.ErrorIs(t, err, domain.ErrExceedsTotalDue)
	})
}

func TestPayVendorBill(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	db := testutil.SetupTestDB(t)
	svc := newService(db)
	ctx := context.Background()

	t.Run("no open payables", func(t *testing.T) {
		vendorID := testutil.SeedVendor(t, db, "SkyLink", domain.SegmentISP)
		accountID := testutil.SeedAccount(t, db, "Ops", domain.SegmentISP, 100000)

		_, err := svc.PayVendorBill(ctx, settlement.VendorPaymentRequest{
			VendorID:  vendorID,
			AccountID: accountID,
			Amount:    10000,
			Date:      time.Now().UTC(),
		})
		require.ErrorIs(t, err, domain.ErrNoDueEntries)
	})

	t.Run("payment above total due is rejected", func(t *testing.T) {
		vendorID := testutil.SeedVendor(t, db, "FiberCo", domain.SegmentISP)
		accountID := testutil.SeedAccount(t, db, "Ops 2", domain.SegmentISP, 500000)

		_, err := svc.CreatePayable(ctx, settlement.CreatePayableRequest{
			VendorID: vendorID,
			Amount:   80000,
			DueDate:  testutil.DaysAgo(2),
		})
		require.NoError(t, err)

		_, err = svc.PayVendorBill(ctx, settlement.VendorPaymentRequest{
			VendorID:  vendorID,
			AccountID: accountID,
			Amount:    90000,
			Date:      time.Now().UTC(),
		})
		require.ErrorIs(t, err, domain.ErrExceedsTotalDue)
	})

	t.Run("account must cover the payment", func(t *testing.T) {
		vendorID := testutil.SeedVendor(t, db, "NetSupply", domain.SegmentISP)
		accountID := testutil.SeedAccount(t, db, "Ops 3", domain.SegmentISP, 5000)

		_, err := svc.CreatePayable(ctx, settlement.CreatePayableRequest{
			VendorID: vendorID,
			Amount:   80000,
			DueDate:  testutil.DaysAgo(2),
		})
		require.NoError(t, err)

		_, err = svc.PayVendorBill(ctx, settlement.VendorPaymentRequest{
			VendorID:  vendorID,
			AccountID: accountID,
			Amount:    80000,
			Date:      time.Now().UTC(),
		})
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
		assert.Equal(t, domain.Minor(5000), testutil.GetAccountBalance(t, db, accountID))
	})

	t.Run("spreads the payment oldest due first", func(t *testing.T) {
		vendorID := testutil.SeedVendor(t, db, "TransitWorks", domain.SegmentTravel)
		accountID := testutil.SeedAccount(t, db, "Ops 4", domain.SegmentTravel, 100000)

		first, err := svc.CreatePayable(ctx, settlement.CreatePayableRequest{
			VendorID: vendorID,
			Amount:   50000,
			DueDate:  testutil.DaysAgo(10),
		})
		require.NoError(t, err)
		second, err := svc.CreatePayable(ctx, settlement.CreatePayableRequest{
			VendorID: vendorID,
			Amount:   30000,
			DueDate:  testutil.DaysAgo(2),
		})
		require.NoError(t, err)

		res, err := svc.PayVendorBill(ctx, settlement.VendorPaymentRequest{
			VendorID:  vendorID,
			AccountID: accountID,
			Amount:    60000,
			Date:      time.Now().UTC(),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.Minor(60000), res.Applied)
		assert.Equal(t, domain.Minor(20000), res.TotalDueAfter)

		payables, err := svc.ListPayablesByVendor(ctx, vendorID)
		require.NoError(t, err)
		byID := make(map[uuid.UUID]domain.Payable, len(payables))
		for _, p := range payables {
			byID[p.ID] = p
		}
		assert.Equal(t, domain.Minor(50000), byID[first.ID].PaidAmount)
		assert.Equal(t, domain.StatusPaid, byID[first.ID].Status)
		assert.Equal(t, domain.Minor(10000), byID[second.ID].PaidAmount)
		assert.Equal(t, domain.StatusPartial, byID[second.ID].Status)

		assert.Equal(t, domain.Minor(40000), testutil.GetAccountBalance(t, db, accountID))
		assert.Equal(t, domain.Minor(20000), testutil.GetVendorBalance(t, db, vendorID))
	})
}

func fetchReceivables(ctx context.Context, t *testing.T, svc *settlement.Service, customerID uuid.UUID) map[uuid.UUID]domain.Receivable {
	t.Helper()

	recs, err := svc.ListReceivablesByCustomer(ctx, customerID)
	require.NoError(t, err)

	byID := make(map[uuid.UUID]domain.Receivable, len(recs))
	for _, r := range recs {
		byID[r.ID] = r
	}
	return byID
}
