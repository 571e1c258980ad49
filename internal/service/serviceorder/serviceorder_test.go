package serviceorder_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safwanm/biztrack-backend/internal/domain"
	"github.com/safwanm/biztrack-backend/internal/repository"
	"github.com/safwanm/biztrack-backend/internal/service/serviceorder"
	"github.com/safwanm/biztrack-backend/internal/service/settlement"
	"github.com/safwanm/biztrack-backend/internal/testutil"
)

func newOrderService(db *sql.DB) *serviceorder.Service {
	return serviceorder.NewService(
		repository.NewServiceOrderRepository(db),
		repository.NewReceivableRepository(db),
		repository.NewPayableRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewVendorRepository(db),
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		db,
		7,
	)
}

func newSettlementService(db *sql.DB) *settlement.Service {
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

func TestOrderLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	db := testutil.SetupTestDB(t)
	svc := newOrderService(db)
	recs := repository.NewReceivableRepository(db)
	ctx := context.Background()

	t.Run("create bills the customer up front", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Basma Tours", domain.SegmentTravel)

		order, err := svc.CreateOrder(ctx, serviceorder.CreateOrderRequest{
			CustomerID: customerID,
			Title:      "Umrah package",
			Segment:    domain.SegmentTravel,
			Price:      250000,
			Cost:       0,
			Status:     domain.OrderPending,
		})
		require.NoError(t, err)

		require.NotNil(t, order.ReceivableID)
		assert.Nil(t, order.PayableID)
		assert.Equal(t, domain.Minor(250000), testutil.GetCustomerBalance(t, db, customerID))

		rec, err := recs.GetByID(ctx, *order.ReceivableID)
		require.NoError(t, err)
		require.NotNil(t, rec.ServiceOrderID)
		assert.Equal(t, order.ID, *rec.ServiceOrderID)
		assert.Equal(t, domain.Minor(250000), rec.Amount)
	})

	t.Run("delivery attaches the payable once", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Jamal", domain.SegmentTravel)
		vendorID := testutil.SeedVendor(t, db, "AirGulf", domain.SegmentTravel)

		order, err := svc.CreateOrder(ctx, serviceorder.CreateOrderRequest{
			CustomerID: customerID,
			VendorID:   &vendorID,
			Title:      "Ticket booking",
			Segment:    domain.SegmentTravel,
			Price:      100000,
			Cost:       40000,
			Status:     domain.OrderPending,
		})
		require.NoError(t, err)
		assert.Nil(t, order.PayableID)
		assert.Equal(t, domain.Minor(0), testutil.GetVendorBalance(t, db, vendorID))

		order, err = svc.TransitionStatus(ctx, order.ID, domain.OrderDelivered, nil)
		require.NoError(t, err)

		require.NotNil(t, order.PayableID)
		require.NotNil(t, order.DeliveryDate)
		assert.Equal(t, domain.Minor(40000), testutil.GetVendorBalance(t, db, vendorID))

		// Same-status transition changes nothing.
		again, err := svc.TransitionStatus(ctx, order.ID, domain.OrderDelivered, nil)
		require.NoError(t, err)
		assert.Equal(t, order.PayableID, again.PayableID)
		assert.Equal(t, domain.Minor(40000), testutil.GetVendorBalance(t, db, vendorID))
	})

	t.Run("demotion from delivered unwinds the vendor side only", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Noor", domain.SegmentTravel)
		vendorID := testutil.SeedVendor(t, db, "DesertCabs", domain.SegmentTravel)

		order, err := svc.CreateOrder(ctx, serviceorder.CreateOrderRequest{
			CustomerID: customerID,
			VendorID:   &vendorID,
			Title:      "Airport transfer",
			Segment:    domain.SegmentTravel,
			Price:      30000,
			Cost:       12000,
			Status:     domain.OrderPending,
		})
		require.NoError(t, err)

		order, err = svc.TransitionStatus(ctx, order.ID, domain.OrderDelivered, nil)
		require.NoError(t, err)

		order, err = svc.TransitionStatus(ctx, order.ID, domain.OrderReady, nil)
		require.NoError(t, err)

		assert.Nil(t, order.PayableID)
		assert.Nil(t, order.DeliveryDate)
		require.NotNil(t, order.ReceivableID)
		assert.Equal(t, domain.Minor(0), testutil.GetVendorBalance(t, db, vendorID))
		assert.Equal(t, domain.Minor(30000), testutil.GetCustomerBalance(t, db, customerID))
	})

	t.Run("cancel wipes both documents", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Fahad", domain.SegmentTravel)
		vendorID := testutil.SeedVendor(t, db, "AirGulf 2", domain.SegmentTravel)

		order, err := svc.CreateOrder(ctx, serviceorder.CreateOrderRequest{
			CustomerID: customerID,
			VendorID:   &vendorID,
			Title:      "Visa processing",
			Segment:    domain.SegmentTravel,
			Price:      60000,
			Cost:       25000,
			Status:     domain.OrderDelivered,
		})
		require.NoError(t, err)
		require.NotNil(t, order.ReceivableID)
		require.NotNil(t, order.PayableID)

		order, err = svc.TransitionStatus(ctx, order.ID, domain.OrderCancelled, nil)
		require.NoError(t, err)

		assert.Nil(t, order.ReceivableID)
		assert.Nil(t, order.PayableID)
		assert.Equal(t, domain.Minor(0), testutil.GetCustomerBalance(t, db, customerID))
		assert.Equal(t, domain.Minor(0), testutil.GetVendorBalance(t, db, vendorID))

		// A cancelled service cannot be delivered.
		_, err = svc.TransitionStatus(ctx, order.ID, domain.OrderDelivered, nil)
		require.ErrorIs(t, err, domain.ErrCancelledService)

		// Reviving it re-bills the customer at the current price.
		order, err = svc.TransitionStatus(ctx, order.ID, domain.OrderPending, nil)
		require.NoError(t, err)
		require.NotNil(t, order.ReceivableID)
		assert.Equal(t, domain.Minor(60000), testutil.GetCustomerBalance(t, db, customerID))
	})

	t.Run("delete removes order and billing", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Salim", domain.SegmentISP)

		order, err := svc.CreateOrder(ctx, serviceorder.CreateOrderRequest{
			CustomerID: customerID,
			Title:      "Router install",
			Segment:    domain.SegmentISP,
			Price:      15000,
			Status:     domain.OrderPending,
		})
		require.NoError(t, err)
		recID := *order.ReceivableID

		require.NoError(t, svc.DeleteOrder(ctx, order.ID))

		assert.Equal(t, domain.Minor(0), testutil.GetCustomerBalance(t, db, customerID))
		_, err = recs.GetByID(ctx, recID)
		require.ErrorIs(t, err, domain.ErrNotFound)
		_, err = svc.GetOrder(ctx, order.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("cost without a vendor is rejected", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Maha", domain.SegmentTravel)

		_, err := svc.CreateOrder(ctx, serviceorder.CreateOrderRequest{
			CustomerID: customerID,
			Title:      "Hotel booking",
			Segment:    domain.SegmentTravel,
			Price:      90000,
			Cost:       35000,
			Status:     domain.OrderPending,
		})
		require.ErrorIs(t, err, domain.ErrVendorRequired)
	})
}

func TestUpdateOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	db := testutil.SetupTestDB(t)
	svc := newOrderService(db)
	settle := newSettlementService(db)
	recs := repository.NewReceivableRepository(db)
	ctx := context.Background()

	t.Run("price drop caps the paid amount and adjusts the balance", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Walid", domain.SegmentTravel)
		accountID := testutil.SeedAccount(t, db, "Till", domain.SegmentTravel, 0)

		order, err := svc.CreateOrder(ctx, serviceorder.CreateOrderRequest{
			CustomerID: customerID,
			Title:      "Group tour",
			Segment:    domain.SegmentTravel,
			Price:      100000,
			Status:     domain.OrderPending,
		})
		require.NoError(t, err)

		_, err = settle.SettleReceivable(ctx, settlement.SettleReceivableRequest{
			ReceivableID: *order.ReceivableID,
			AccountID:    accountID,
			Amount:       40000,
			Date:         time.Now().UTC(),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.Minor(60000), testutil.GetCustomerBalance(t, db, customerID))

		order, err = svc.UpdateOrder(ctx, serviceorder.UpdateOrderRequest{
			OrderID:    order.ID,
			CustomerID: customerID,
			Title:      "Group tour",
			Price:      30000,
			Cost:       0,
		})
		require.NoError(t, err)

		rec, err := recs.GetByID(ctx, *order.ReceivableID)
		require.NoError(t, err)
		assert.Equal(t, domain.Minor(30000), rec.Amount)
		assert.Equal(t, domain.Minor(30000), rec.PaidAmount)
		assert.Equal(t, domain.StatusPaid, rec.Status)

		// Nothing remains due, so the customer owes nothing.
		assert.Equal(t, domain.Minor(0), testutil.GetCustomerBalance(t, db, customerID))
	})

	t.Run("customer reassignment moves the open balance", func(t *testing.T) {
		fromID := testutil.SeedCustomer(t, db, "Adel", domain.SegmentTravel)
		toID := testutil.SeedCustomer(t, db, "Bilal", domain.SegmentTravel)

		order, err := svc.CreateOrder(ctx, serviceorder.CreateOrderRequest{
			CustomerID: fromID,
			Title:      "City tour",
			Segment:    domain.SegmentTravel,
			Price:      50000,
			Status:     domain.OrderPending,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.Minor(50000), testutil.GetCustomerBalance(t, db, fromID))

		order, err = svc.UpdateOrder(ctx, serviceorder.UpdateOrderRequest{
			OrderID:    order.ID,
			CustomerID: toID,
			Title:      "City tour",
			Price:      50000,
			Cost:       0,
		})
		require.NoError(t, err)
		assert.Equal(t, toID, order.CustomerID)

		rec, err := recs.GetByID(ctx, *order.ReceivableID)
		require.NoError(t, err)
		assert.Equal(t, toID, rec.CustomerID)
		assert.Equal(t, domain.Minor(0), testutil.GetCustomerBalance(t, db, fromID))
		assert.Equal(t, domain.Minor(50000), testutil.GetCustomerBalance(t, db, toID))
	})

	t.Run("vendor reassignment moves the open cost", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Samira", domain.SegmentTravel)
		oldVendorID := testutil.SeedVendor(t, db, "CoastShuttles", domain.SegmentTravel)
		newVendorID := testutil.SeedVendor(t, db, "RidgeShuttles", domain.SegmentTravel)

		order, err := svc.CreateOrder(ctx, serviceorder.CreateOrderRequest{
			CustomerID: customerID,
			VendorID:   &oldVendorID,
			Title:      "Shuttle contract",
			Segment:    domain.SegmentTravel,
			Price:      150000,
			Cost:       80000,
			Status:     domain.OrderDelivered,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.Minor(80000), testutil.GetVendorBalance(t, db, oldVendorID))

		// Reassign the vendor and lower the cost in the same edit.
		order, err = svc.UpdateOrder(ctx, serviceorder.UpdateOrderRequest{
			OrderID:    order.ID,
			CustomerID: customerID,
			VendorID:   &newVendorID,
			Title:      "Shuttle contract",
			Price:      150000,
			Cost:       60000,
		})
		require.NoError(t, err)

		require.NotNil(t, order.VendorID)
		assert.Equal(t, newVendorID, *order.VendorID)

		p, err := repository.NewPayableRepository(db).GetByID(ctx, *order.PayableID)
		require.NoError(t, err)
		assert.Equal(t, newVendorID, p.VendorID)
		assert.Equal(t, domain.Minor(60000), p.Amount)

		// The old remaining leaves the old vendor's books, the new
		// remaining lands on the new one's.
		assert.Equal(t, domain.Minor(0), testutil.GetVendorBalance(t, db, oldVendorID))
		assert.Equal(t, domain.Minor(60000), testutil.GetVendorBalance(t, db, newVendorID))
	})

	t.Run("cost change on a delivered order follows the payable", func(t *testing.T) {
		customerID := testutil.SeedCustomer(t, db, "Huda", domain.SegmentTravel)
		vendorID := testutil.SeedVendor(t, db, "StarHotels", domain.SegmentTravel)

		order, err := svc.CreateOrder(ctx, serviceorder.CreateOrderRequest{
			CustomerID: customerID,
			VendorID:   &vendorID,
			Title:      "Hotel block",
			Segment:    domain.SegmentTravel,
			Price:      200000,
			Cost:       80000,
			Status:     domain.OrderDelivered,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.Minor(80000), testutil.GetVendorBalance(t, db, vendorID))

		order, err = svc.UpdateOrder(ctx, serviceorder.UpdateOrderRequest{
			OrderID:    order.ID,
			CustomerID: customerID,
			VendorID:   &vendorID,
			Title:      "Hotel block",
			Price:      200000,
			Cost:       95000,
		})
		require.NoError(t, err)

		assert.Equal(t, domain.Minor(95000), order.Cost)
		assert.Equal(t, domain.Minor(95000), testutil.GetVendorBalance(t, db, vendorID))
	})
}

func TestListOrders(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	db := testutil.SetupTestDB(t)
	svc := newOrderService(db)
	ctx := context.Background()

	customerID := testutil.SeedCustomer(t, db, "Zain", domain.SegmentISP)
	for _, title := range []string{"Fiber drop", "CPE swap"} {
		_, err := svc.CreateOrder(ctx, serviceorder.CreateOrderRequest{
			CustomerID: customerID,
			Title:      title,
			Segment:    domain.SegmentISP,
			Price:      20000,
			Status:     domain.OrderPending,
		})
		require.NoError(t, err)
	}

	orders, err := svc.ListOrders(ctx, domain.SegmentISP)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	travel, err := svc.ListOrders(ctx, domain.SegmentTravel)
	require.NoError(t, err)
	assert.Empty(t, travel)
}
