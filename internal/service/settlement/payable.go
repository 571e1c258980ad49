package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
	"github.com/safwanm/biztrack-backend/internal/logging"
)

type CreatePayableRequest struct {
	VendorID    uuid.UUID
	Amount      domain.Minor
	DueDate     time.Time
	Description string
}

func (s *Service) CreatePayable(ctx context.Context, req CreatePayableRequest) (*domain.Payable, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("CreatePayable: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreatePayable: begin tx: %w", err)
	}
	defer tx.Rollback()

	vendor, err := s.vendors.GetForUpdate(ctx, tx, req.VendorID)
	if err != nil {
		return nil, fmt.Errorf("CreatePayable: %w", err)
	}

	now := time.Now().UTC()
	p := &domain.Payable{
		ID:          uuid.New(),
		VendorID:    vendor.ID,
		Amount:      req.Amount,
		PaidAmount:  0,
		DueDate:     req.DueDate,
		Status:      domain.StatusUnpaid,
		Description: req.Description,
		CreatedAt:   now,
	}
	if err := s.payables.Create(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("CreatePayable: %w", err)
	}

	if err := s.vendors.UpdateBalance(ctx, tx, vendor.ID, vendor.Balance+req.Amount, vendor.Version+1); err != nil {
		return nil, fmt.Errorf("CreatePayable: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreatePayable: commit: %w", err)
	}
	return p, nil
}

type SettlePayableRequest struct {
	PayableID uuid.UUID
	AccountID uuid.UUID
	Amount    domain.Minor
	Discount  domain.Minor
	Surcharge domain.Minor
	Date      time.Time
	Note      string
}

// SettlePayable pays down one named vendor bill. The settlement account must
// cover the payment; paying more than remains due is rejected.
func (s *Service) SettlePayable(ctx context.Context, req SettlePayableRequest) (*SettleResult, error) {
	log := logging.FromContext(ctx)

	if req.Amount <= 0 {
		return nil, fmt.Errorf("SettlePayable: %w", domain.ErrInvalidAmount)
	}
	if req.Discount < 0 || req.Surcharge < 0 {
		return nil, fmt.Errorf("SettlePayable: %w", domain.ErrInvalidAmount)
	}

	peek, err := s.payables.GetByID(ctx, req.PayableID)
	if err != nil {
		return nil, fmt.Errorf("SettlePayable: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("SettlePayable: begin tx: %w", err)
	}
	defer tx.Rollback()

	vendor, err := s.vendors.GetForUpdate(ctx, tx, peek.VendorID)
	if err != nil {
		return nil, fmt.Errorf("SettlePayable: %w", err)
	}

	p, err := s.payables.GetForUpdate(ctx, tx, req.PayableID)
	if err != nil {
		return nil, fmt.Errorf("SettlePayable: %w", err)
	}
	if p.Remaining() <= 0 {
		return nil, fmt.Errorf("SettlePayable: %w", domain.ErrAlreadyPaid)
	}

	adjusted, err := adjustObligation(p.Amount, p.PaidAmount, req.Discount, req.Surcharge)
	if err != nil {
		return nil, fmt.Errorf("SettlePayable: %w", err)
	}
	remaining := domain.RemainingOf(adjusted, p.PaidAmount)
	if req.Amount > remaining {
		return nil, fmt.Errorf("SettlePayable: %w", domain.ErrExceedsRemainingDue)
	}

	account, err := s.accounts.GetForUpdate(ctx, tx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("SettlePayable: %w", err)
	}
	if account.Balance < req.Amount {
		return nil, fmt.Errorf("SettlePayable: %w", domain.ErrInsufficientFunds)
	}

	p.Amount = adjusted
	p.PaidAmount += req.Amount
	p.Status = domain.DeriveStatus(p.Amount, p.PaidAmount)
	if err := s.payables.Update(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("SettlePayable: %w", err)
	}

	kind := domain.ReferencePayable
	entry := &domain.Transaction{
		ID:            uuid.New(),
		Date:          req.Date,
		Amount:        req.Amount,
		Type:          domain.TransactionExpense,
		Category:      "Settlement",
		Segment:       vendor.Segment,
		AccountID:     account.ID,
		VendorID:      &vendor.ID,
		ReferenceID:   &p.ID,
		ReferenceKind: &kind,
		Note:          req.Note,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.transactions.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("SettlePayable: %w", err)
	}

	if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance-req.Amount, account.Version+1); err != nil {
		return nil, fmt.Errorf("SettlePayable: %w", err)
	}

	dueDelta := req.Amount + req.Discount - req.Surcharge
	if err := s.vendors.UpdateBalance(ctx, tx, vendor.ID, vendor.Balance-dueDelta, vendor.Version+1); err != nil {
		return nil, fmt.Errorf("SettlePayable: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("SettlePayable: commit: %w", err)
	}

	log.Info("payable settled",
		"payable_id", p.ID,
		"vendor_id", vendor.ID,
		"applied", req.Amount,
		"remaining", p.Remaining(),
	)

	return &SettleResult{
		Applied:   req.Amount,
		Advance:   0,
		Remaining: p.Remaining(),
	}, nil
}

func (s *Service) DeletePayable(ctx context.Context, id uuid.UUID) error {
	peek, err := s.payables.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("DeletePayable: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeletePayable: begin tx: %w", err)
	}
	defer tx.Rollback()

	vendor, err := s.vendors.GetForUpdate(ctx, tx, peek.VendorID)
	if err != nil {
		return fmt.Errorf("DeletePayable: %w", err)
	}

	p, err := s.payables.GetForUpdate(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("DeletePayable: %w", err)
	}

	if remaining := p.Remaining(); remaining > 0 {
		if err := s.vendors.UpdateBalance(ctx, tx, vendor.ID, vendor.Balance-remaining, vendor.Version+1); err != nil {
			return fmt.Errorf("DeletePayable: %w", err)
		}
	}

	if err := s.reverseSettlements(ctx, tx, p.ID); err != nil {
		return fmt.Errorf("DeletePayable: %w", err)
	}

	if err := s.payables.Delete(ctx, tx, p.ID); err != nil {
		return fmt.Errorf("DeletePayable: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("DeletePayable: commit: %w", err)
	}
	return nil
}

func (s *Service) ListPayablesByVendor(ctx context.Context, vendorID uuid.UUID) ([]domain.Payable, error) {
	payables, err := s.payables.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("ListPayablesByVendor: %w", err)
	}
	return payables, nil
}
