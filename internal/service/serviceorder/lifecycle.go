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

type CreateOrderRequest struct {
	CustomerID uuid.UUID
	VendorID   *uuid.UUID
	Title      string
	Segment    domain.Segment
	Price      domain.Minor
	Cost       domain.Minor
	Status     domain.OrderStatus
}

// CreateOrder opens a service order and eagerly bills the customer: the
// receivable is created alongside unless the order starts out cancelled. An
// order created directly as delivered also gets its payable when cost > 0.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.ServiceOrder, error) {
	log := logging.FromContext(ctx)

	if req.Price <= 0 || req.Cost < 0 {
		return nil, fmt.Errorf("CreateOrder: %w", domain.ErrInvalidAmount)
	}
	if req.Status == "" {
		req.Status = domain.OrderPending
	}
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("CreateOrder: %w", domain.ErrInvalidStatus)
	}
	if req.Cost > 0 && req.VendorID == nil {
		return nil, fmt.Errorf("CreateOrder: %w", domain.ErrVendorRequired)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateOrder: begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	order := &domain.ServiceOrder{
		ID:         uuid.New(),
		CustomerID: req.CustomerID,
		VendorID:   req.VendorID,
		Title:      req.Title,
		Segment:    req.Segment,
		Price:      req.Price,
		Cost:       req.Cost,
		Status:     req.Status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.orders.Create(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	if req.Status != domain.OrderCancelled {
		if err := s.attachReceivable(ctx, tx, order, now.Add(s.grace)); err != nil {
			return nil, fmt.Errorf("CreateOrder: %w", err)
		}
	}

	if req.Status == domain.OrderDelivered {
		order.DeliveryDate = &now
		if order.Cost > 0 {
			if err := s.attachPayable(ctx, tx, order, now.Add(s.grace)); err != nil {
				return nil, fmt.Errorf("CreateOrder: %w", err)
			}
		}
	}

	if err := s.orders.Update(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreateOrder: commit: %w", err)
	}

	log.Info("service order created",
		"order_id", order.ID,
		"customer_id", order.CustomerID,
		"price", order.Price,
		"status", order.Status,
	)
	return order, nil
}

// TransitionStatus moves an order through the state machine and applies the
// billing side effects of the move in the same atomic unit.
func (s *Service) TransitionStatus(ctx context.Context, orderID uuid.UUID, newStatus domain.OrderStatus, deliveryDate *time.Time) (*domain.ServiceOrder, error) {
	log := logging.FromContext(ctx)

	if !newStatus.IsValid() {
		return nil, fmt.Errorf("TransitionStatus: %w", domain.ErrInvalidStatus)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("TransitionStatus: begin tx: %w", err)
	}
	defer tx.Rollback()

	order, err := s.orders.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("TransitionStatus: %w", err)
	}

	// Same-status transition is a successful no-op: nothing is written.
	if order.Status == newStatus {
		return order, nil
	}
	if order.Status == domain.OrderCancelled && newStatus == domain.OrderDelivered {
		return nil, fmt.Errorf("TransitionStatus: %w", domain.ErrCancelledService)
	}

	from := order.Status
	now := time.Now().UTC()

	switch {
	case newStatus == domain.OrderCancelled:
		// Cancelling wipes the billing: both documents go, balances reversed
		// by what was still outstanding.
		if err := s.detachReceivable(ctx, tx, order); err != nil {
			return nil, fmt.Errorf("TransitionStatus: %w", err)
		}
		if err := s.detachPayable(ctx, tx, order); err != nil {
			return nil, fmt.Errorf("TransitionStatus: %w", err)
		}
		order.DeliveryDate = nil

	case from == domain.OrderCancelled:
		// Reviving a cancelled order re-bills the customer at the current
		// price; cancellation removed the original receivable.
		if err := s.attachReceivable(ctx, tx, order, now.Add(s.grace)); err != nil {
			return nil, fmt.Errorf("TransitionStatus: %w", err)
		}

	case newStatus == domain.OrderDelivered:
		delivered := now
		if deliveryDate != nil {
			delivered = deliveryDate.UTC()
		}
		order.DeliveryDate = &delivered

		if order.ReceivableID == nil {
			if err := s.attachReceivable(ctx, tx, order, delivered.Add(s.grace)); err != nil {
				return nil, fmt.Errorf("TransitionStatus: %w", err)
			}
		}
		if order.Cost > 0 && order.PayableID == nil {
			if order.VendorID == nil {
				return nil, fmt.Errorf("TransitionStatus: %w", domain.ErrVendorRequired)
			}
			if err := s.attachPayable(ctx, tx, order, delivered.Add(s.grace)); err != nil {
				return nil, fmt.Errorf("TransitionStatus: %w", err)
			}
		}

	case from == domain.OrderDelivered:
		// Demotion: the vendor side unwinds, the customer billing survives.
		if err := s.detachPayable(ctx, tx, order); err != nil {
			return nil, fmt.Errorf("TransitionStatus: %w", err)
		}
		order.DeliveryDate = nil
	}

	order.Status = newStatus
	order.UpdatedAt = now
	if err := s.orders.Update(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("TransitionStatus: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("TransitionStatus: commit: %w", err)
	}

	log.Info("service order transitioned",
		"order_id", order.ID,
		"from", from,
		"to", newStatus,
	)
	return order, nil
}

// DeleteOrder removes the order and both linked documents, reversing whatever
// was still outstanding on each.
func (s *Service) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeleteOrder: begin tx: %w", err)
	}
	defer tx.Rollback()

	order, err := s.orders.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return fmt.Errorf("DeleteOrder: %w", err)
	}

	if err := s.detachReceivable(ctx, tx, order); err != nil {
		return fmt.Errorf("DeleteOrder: %w", err)
	}
	if err := s.detachPayable(ctx, tx, order); err != nil {
		return fmt.Errorf("DeleteOrder: %w", err)
	}
	if err := s.orders.Delete(ctx, tx, order.ID); err != nil {
		return fmt.Errorf("DeleteOrder: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("DeleteOrder: commit: %w", err)
	}
	return nil
}

// attachReceivable bills the customer for the order price.
func (s *Service) attachReceivable(ctx context.Context, tx *sql.Tx, order *domain.ServiceOrder, due time.Time) error {
	customer, err := s.customers.GetForUpdate(ctx, tx, order.CustomerID)
	if err != nil {
		return fmt.Errorf("attachReceivable: %w", err)
	}

	orderID := order.ID
	rec := &domain.Receivable{
		ID:             uuid.New(),
		CustomerID:     customer.ID,
		ServiceOrderID: &orderID,
		Amount:         order.Price,
		PaidAmount:     0,
		DueDate:        due,
		Status:         domain.StatusUnpaid,
		Description:    order.Title,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.receivables.Create(ctx, tx, rec); err != nil {
		return fmt.Errorf("attachReceivable: %w", err)
	}

	if err := s.customers.UpdateBalance(ctx, tx, customer.ID, customer.Balance+order.Price, customer.Version+1); err != nil {
		return fmt.Errorf("attachReceivable: %w", err)
	}

	order.ReceivableID = &rec.ID
	return nil
}

// detachReceivable deletes the linked receivable, reversing the customer
// balance by its remaining and purging its settlement entries. No-op when the
// order has no receivable.
func (s *Service) detachReceivable(ctx context.Context, tx *sql.Tx, order *domain.ServiceOrder) error {
	if order.ReceivableID == nil {
		return nil
	}

	customer, err := s.customers.GetForUpdate(ctx, tx, order.CustomerID)
	if err != nil {
		return fmt.Errorf("detachReceivable: %w", err)
	}

	rec, err := s.receivables.GetForUpdate(ctx, tx, *order.ReceivableID)
	if err != nil {
		return fmt.Errorf("detachReceivable: %w", err)
	}

	if remaining := rec.Remaining(); remaining > 0 {
		if err := s.customers.UpdateBalance(ctx, tx, customer.ID, customer.Balance-remaining, customer.Version+1); err != nil {
			return fmt.Errorf("detachReceivable: %w", err)
		}
	}

	if err := s.purgeEntries(ctx, tx, rec.ID); err != nil {
		return fmt.Errorf("detachReceivable: %w", err)
	}
	if err := s.receivables.Delete(ctx, tx, rec.ID); err != nil {
		return fmt.Errorf("detachReceivable: %w", err)
	}

	order.ReceivableID = nil
	return nil
}

// attachPayable books the vendor cost. Callers guarantee cost > 0 and a
// vendor on the order.
func (s *Service) attachPayable(ctx context.Context, tx *sql.Tx, order *domain.ServiceOrder, due time.Time) error {
	vendor, err := s.vendors.GetForUpdate(ctx, tx, *order.VendorID)
	if err != nil {
		return fmt.Errorf("attachPayable: %w", err)
	}

	orderID := order.ID
	p := &domain.Payable{
		ID:             uuid.New(),
		VendorID:       vendor.ID,
		ServiceOrderID: &orderID,
		Amount:         order.Cost,
		PaidAmount:     0,
		DueDate:        due,
		Status:         domain.StatusUnpaid,
		Description:    order.Title,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.payables.Create(ctx, tx, p); err != nil {
		return fmt.Errorf("attachPayable: %w", err)
	}

	if err := s.vendors.UpdateBalance(ctx, tx, vendor.ID, vendor.Balance+order.Cost, vendor.Version+1); err != nil {
		return fmt.Errorf("attachPayable: %w", err)
	}

	order.PayableID = &p.ID
	return nil
}

func (s *Service) detachPayable(ctx context.Context, tx *sql.Tx, order *domain.ServiceOrder) error {
	if order.PayableID == nil {
		return nil
	}

	p, err := s.payables.GetForUpdate(ctx, tx, *order.PayableID)
	if err != nil {
		return fmt.Errorf("detachPayable: %w", err)
	}

	vendor, err := s.vendors.GetForUpdate(ctx, tx, p.VendorID)
	if err != nil {
		return fmt.Errorf("detachPayable: %w", err)
	}

	if remaining := p.Remaining(); remaining > 0 {
		if err := s.vendors.UpdateBalance(ctx, tx, vendor.ID, vendor.Balance-remaining, vendor.Version+1); err != nil {
			return fmt.Errorf("detachPayable: %w", err)
		}
	}

	if err := s.purgeEntries(ctx, tx, p.ID); err != nil {
		return fmt.Errorf("detachPayable: %w", err)
	}
	if err := s.payables.Delete(ctx, tx, p.ID); err != nil {
		return fmt.Errorf("detachPayable: %w", err)
	}

	order.PayableID = nil
	return nil
}
