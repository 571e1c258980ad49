package serviceorder

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
	"github.com/safwanm/biztrack-backend/internal/logging"
)

type UpdateOrderRequest struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	VendorID   *uuid.UUID
	Title      string
	Price      domain.Minor
	Cost       domain.Minor
}

// UpdateOrder edits an order in place and re-syncs its billing documents. The
// linked receivable follows the new price and customer, the linked payable
// (delivered orders only) follows the new cost and vendor. Paid amounts are
// preserved, capped at the new amount, and counterparty balances move by the
// delta between old and new remaining rather than being re-added wholesale.
func (s *Service) UpdateOrder(ctx context.Context, req UpdateOrderRequest) (*domain.ServiceOrder, error) {
	log := logging.FromContext(ctx)

	if req.Price <= 0 || req.Cost < 0 {
		return nil, fmt.Errorf("UpdateOrder: %w", domain.ErrInvalidAmount)
	}
	if req.Cost > 0 && req.VendorID == nil {
		return nil, fmt.Errorf("UpdateOrder: %w", domain.ErrVendorRequired)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("UpdateOrder: begin tx: %w", err)
	}
	defer tx.Rollback()

	order, err := s.orders.GetForUpdate(ctx, tx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("UpdateOrder: %w", err)
	}

	order.Title = req.Title
	order.Price = req.Price
	order.Cost = req.Cost

	if order.Status != domain.OrderCancelled {
		if err := s.syncReceivable(ctx, tx, order, req.CustomerID); err != nil {
			return nil, fmt.Errorf("UpdateOrder: %w", err)
		}
	}
	order.CustomerID = req.CustomerID

	if order.Status == domain.OrderDelivered {
		if err := s.syncPayable(ctx, tx, order, req.VendorID); err != nil {
			return nil, fmt.Errorf("UpdateOrder: %w", err)
		}
	}
	order.VendorID = req.VendorID

	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.Update(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("UpdateOrder: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("UpdateOrder: commit: %w", err)
	}

	log.Info("service order updated",
		"order_id", order.ID,
		"price", order.Price,
		"cost", order.Cost,
	)
	return order, nil
}

// syncReceivable drags the linked receivable to the order's current price and
// customer. Missing receivable on a live order means it was never billed
// (order came back from cancelled through an edit): create it fresh.
func (s *Service) syncReceivable(ctx context.Context, tx *sql.Tx, order *domain.ServiceOrder, newCustomerID uuid.UUID) error {
	if order.ReceivableID == nil {
		order.CustomerID = newCustomerID
		return s.attachReceivable(ctx, tx, order, time.Now().UTC().Add(s.grace))
	}

	rec, err := s.receivables.GetForUpdate(ctx, tx, *order.ReceivableID)
	if err != nil {
		return fmt.Errorf("syncReceivable: %w", err)
	}

	oldCustomerID := rec.CustomerID
	oldRemaining := rec.Remaining()

	rec.Amount = order.Price
	if rec.PaidAmount > rec.Amount {
		rec.PaidAmount = rec.Amount
	}
	rec.Status = domain.DeriveStatus(rec.Amount, rec.PaidAmount)
	rec.CustomerID = newCustomerID
	rec.Description = order.Title
	newRemaining := rec.Remaining()

	if err := s.receivables.Update(ctx, tx, rec); err != nil {
		return fmt.Errorf("syncReceivable: %w", err)
	}

	if oldCustomerID == newCustomerID {
		if delta := newRemaining - oldRemaining; delta != 0 {
			customer, err := s.customers.GetForUpdate(ctx, tx, oldCustomerID)
			if err != nil {
				return fmt.Errorf("syncReceivable: %w", err)
			}
			if err := s.customers.UpdateBalance(ctx, tx, customer.ID, customer.Balance+delta, customer.Version+1); err != nil {
				return fmt.Errorf("syncReceivable: %w", err)
			}
		}
		return nil
	}

	// Reassignment: the outstanding amount leaves the old customer's books
	// and lands on the new one's. Lock in id order to stay deadlock-free.
	first, second := oldCustomerID, newCustomerID
	firstDelta, secondDelta := -oldRemaining, newRemaining
	if second.String() < first.String() {
		first, second = second, first
		firstDelta, secondDelta = secondDelta, firstDelta
	}

	for _, step := range []struct {
		id    uuid.UUID
		delta domain.Minor
	}{{first, firstDelta}, {second, secondDelta}} {
		customer, err := s.customers.GetForUpdate(ctx, tx, step.id)
		if err != nil {
			return fmt.Errorf("syncReceivable: %w", err)
		}
		if err := s.customers.UpdateBalance(ctx, tx, customer.ID, customer.Balance+step.delta, customer.Version+1); err != nil {
			return fmt.Errorf("syncReceivable: %w", err)
		}
	}
	return nil
}

// syncPayable mirrors syncReceivable for the vendor side of a delivered
// order. Cost dropping to zero removes the payable outright; cost appearing
// on an order that never had one creates it.
func (s *Service) syncPayable(ctx context.Context, tx *sql.Tx, order *domain.ServiceOrder, newVendorID *uuid.UUID) error {
	if order.Cost == 0 {
		return s.detachPayable(ctx, tx, order)
	}

	if order.PayableID == nil {
		order.VendorID = newVendorID
		delivered := time.Now().UTC()
		if order.DeliveryDate != nil {
			delivered = *order.DeliveryDate
		}
		return s.attachPayable(ctx, tx, order, delivered.Add(s.grace))
	}

	p, err := s.payables.GetForUpdate(ctx, tx, *order.PayableID)
	if err != nil {
		return fmt.Errorf("syncPayable: %w", err)
	}

	oldVendorID := p.VendorID
	oldRemaining := p.Remaining()

	p.Amount = order.Cost
	if p.PaidAmount > p.Amount {
		p.PaidAmount = p.Amount
	}
	p.Status = domain.DeriveStatus(p.Amount, p.PaidAmount)
	p.VendorID = *newVendorID
	p.Description = order.Title
	newRemaining := p.Remaining()

	if err := s.payables.Update(ctx, tx, p); err != nil {
		return fmt.Errorf("syncPayable: %w", err)
	}

	if oldVendorID == *newVendorID {
		if delta := newRemaining - oldRemaining; delta != 0 {
			vendor, err := s.vendors.GetForUpdate(ctx, tx, oldVendorID)
			if err != nil {
				return fmt.Errorf("syncPayable: %w", err)
			}
			if err := s.vendors.UpdateBalance(ctx, tx, vendor.ID, vendor.Balance+delta, vendor.Version+1); err != nil {
				return fmt.Errorf("syncPayable: %w", err)
			}
		}
		return nil
	}

	first, second := oldVendorID, *newVendorID
	firstDelta, secondDelta := -oldRemaining, newRemaining
	if second.String() < first.String() {
		first, second = second, first
		firstDelta, secondDelta = secondDelta, firstDelta
	}

	for _, step := range []struct {
		id    uuid.UUID
		delta domain.Minor
	}{{first, firstDelta}, {second, secondDelta}} {
		vendor, err := s.vendors.GetForUpdate(ctx, tx, step.id)
		if err != nil {
			return fmt.Errorf("syncPayable: %w", err)
		}
		if err := s.vendors.UpdateBalance(ctx, tx, vendor.ID, vendor.Balance+step.delta, vendor.Version+1); err != nil {
			return fmt.Errorf("syncPayable: %w", err)
		}
	}
	return nil
}
