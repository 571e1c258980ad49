package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
	"github.com/safwanm/biztrack-backend/internal/logging"
)

type CreateReceivableRequest struct {
	CustomerID  uuid.UUID
	Amount      domain.Minor
	DueDate     time.Time
	Description string
}

// CreateReceivable bills a customer: the receivable row and the customer
// balance increase commit as one unit. No transaction entry is written; cash
// only moves on settlement.
func (s *Service) CreateReceivable(ctx context.Context, req CreateReceivableRequest) (*domain.Receivable, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("CreateReceivable: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateReceivable: begin tx: %w", err)
	}
	defer tx.Rollback()

	customer, err := s.customers.GetForUpdate(ctx, tx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("CreateReceivable: %w", err)
	}

	now := time.Now().UTC()
	rec := &domain.Receivable{
		ID:          uuid.New(),
		CustomerID:  customer.ID,
		Amount:      req.Amount,
		PaidAmount:  0,
		DueDate:     req.DueDate,
		Status:      domain.StatusUnpaid,
		Description: req.Description,
		CreatedAt:   now,
	}
	if err := s.receivables.Create(ctx, tx, rec); err != nil {
		return nil, fmt.Errorf("CreateReceivable: %w", err)
	}

	if err := s.customers.UpdateBalance(ctx, tx, customer.ID, customer.Balance+req.Amount, customer.Version+1); err != nil {
		return nil, fmt.Errorf("CreateReceivable: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreateReceivable: commit: %w", err)
	}
	return rec, nil
}

type SettleReceivableRequest struct {
	ReceivableID uuid.UUID
	AccountID    uuid.UUID
	Amount       domain.Minor
	Discount     domain.Minor
	Surcharge    domain.Minor
	Date         time.Time
	Note         string
}

type SettleResult struct {
	Applied   domain.Minor
	Advance   domain.Minor
	Remaining domain.Minor
}

// SettleReceivable collects a payment against one named receivable. Surcharge
// raises the billed amount, discount lowers it (never below what is already
// paid), and the payment itself may not exceed what then remains: advances are
// only accepted on the distributing path, not here.
func (s *Service) SettleReceivable(ctx context.Context, req SettleReceivableRequest) (*SettleResult, error) {
	log := logging.FromContext(ctx)

	if req.Amount <= 0 {
		return nil, fmt.Errorf("SettleReceivable: %w", domain.ErrInvalidAmount)
	}
	if req.Discount < 0 || req.Surcharge < 0 {
		return nil, fmt.Errorf("SettleReceivable: %w", domain.ErrInvalidAmount)
	}

	// Resolve the customer outside the unit so locks are always taken in
	// customer, receivable, account order.
	peek, err := s.receivables.GetByID(ctx, req.ReceivableID)
	if err != nil {
		return nil, fmt.Errorf("SettleReceivable: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("SettleReceivable: begin tx: %w", err)
	}
	defer tx.Rollback()

	customer, err := s.customers.GetForUpdate(ctx, tx, peek.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("SettleReceivable: %w", err)
	}

	rec, err := s.receivables.GetForUpdate(ctx, tx, req.ReceivableID)
	if err != nil {
		return nil, fmt.Errorf("SettleReceivable: %w", err)
	}
	if rec.Remaining() <= 0 {
		return nil, fmt.Errorf("SettleReceivable: %w", domain.ErrAlreadyPaid)
	}

	adjusted, err := adjustObligation(rec.Amount, rec.PaidAmount, req.Discount, req.Surcharge)
	if err != nil {
		return nil, fmt.Errorf("SettleReceivable: %w", err)
	}
	remaining := domain.RemainingOf(adjusted, rec.PaidAmount)
	if req.Amount > remaining {
		return nil, fmt.Errorf("SettleReceivable: %w", domain.ErrExceedsRemainingDue)
	}

	account, err := s.accounts.GetForUpdate(ctx, tx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("SettleReceivable: %w", err)
	}

	rec.Amount = adjusted
	rec.PaidAmount += req.Amount
	rec.Status = domain.DeriveStatus(rec.Amount, rec.PaidAmount)
	if err := s.receivables.Update(ctx, tx, rec); err != nil {
		return nil, fmt.Errorf("SettleReceivable: %w", err)
	}

	kind := domain.ReferenceReceivable
	entry := &domain.Transaction{
		ID:            uuid.New(),
		Date:          req.Date,
		Amount:        req.Amount,
		Type:          domain.TransactionIncome,
		Category:      "Collection",
		Segment:       customer.Segment,
		AccountID:     account.ID,
		CustomerID:    &customer.ID,
		ReferenceID:   &rec.ID,
		ReferenceKind: &kind,
		Note:          req.Note,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.transactions.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("SettleReceivable: %w", err)
	}

	if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance+req.Amount, account.Version+1); err != nil {
		return nil, fmt.Errorf("SettleReceivable: %w", err)
	}

	// Net due reduction: payment plus discount minus surcharge.
	dueDelta := req.Amount + req.Discount - req.Surcharge
	if err := s.customers.UpdateBalance(ctx, tx, customer.ID, customer.Balance-dueDelta, customer.Version+1); err != nil {
		return nil, fmt.Errorf("SettleReceivable: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("SettleReceivable: commit: %w", err)
	}

	log.Info("receivable settled",
		"receivable_id", rec.ID,
		"customer_id", customer.ID,
		"applied", req.Amount,
		"discount", req.Discount,
		"surcharge", req.Surcharge,
		"remaining", rec.Remaining(),
	)

	return &SettleResult{
		Applied:   req.Amount,
		Advance:   0,
		Remaining: rec.Remaining(),
	}, nil
}

// DeleteReceivable removes the document, reverses the customer balance by the
// outstanding remainder, and purges its settlement entries with a corrective
// account reversal.
func (s *Service) DeleteReceivable(ctx context.Context, id uuid.UUID) error {
	peek, err := s.receivables.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("DeleteReceivable: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeleteReceivable: begin tx: %w", err)
	}
	defer tx.Rollback()

	customer, err := s.customers.GetForUpdate(ctx, tx, peek.CustomerID)
	if err != nil {
		return fmt.Errorf("DeleteReceivable: %w", err)
	}

	rec, err := s.receivables.GetForUpdate(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("DeleteReceivable: %w", err)
	}

	if remaining := rec.Remaining(); remaining > 0 {
		if err := s.customers.UpdateBalance(ctx, tx, customer.ID, customer.Balance-remaining, customer.Version+1); err != nil {
			return fmt.Errorf("DeleteReceivable: %w", err)
		}
	}

	if err := s.reverseSettlements(ctx, tx, rec.ID); err != nil {
		return fmt.Errorf("DeleteReceivable: %w", err)
	}

	if err := s.receivables.Delete(ctx, tx, rec.ID); err != nil {
		return fmt.Errorf("DeleteReceivable: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("DeleteReceivable: commit: %w", err)
	}
	return nil
}

func (s *Service) ListReceivablesByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Receivable, error) {
	recs, err := s.receivables.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("ListReceivablesByCustomer: %w", err)
	}
	return recs, nil
}
