package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
	"github.com/safwanm/biztrack-backend/internal/logging"
)

type VendorPaymentRequest struct {
	VendorID  uuid.UUID
	AccountID uuid.UUID
	Amount    domain.Minor
	Date      time.Time
	Note      string
}

type VendorPaymentResult struct {
	Applied       domain.Minor
	TotalDueAfter domain.Minor
}

// PayVendorBill spreads one outgoing payment across the vendor's open
// payables, oldest due first. Vendor advances are not supported: the payment
// may not exceed the total due, and the paying account must cover it.
func (s *Service) PayVendorBill(ctx context.Context, req VendorPaymentRequest) (*VendorPaymentResult, error) {
	log := logging.FromContext(ctx)

	if req.Amount <= 0 {
		return nil, fmt.Errorf("PayVendorBill: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("PayVendorBill: begin tx: %w", err)
	}
	defer tx.Rollback()

	vendor, err := s.vendors.GetForUpdate(ctx, tx, req.VendorID)
	if err != nil {
		return nil, fmt.Errorf("PayVendorBill: %w", err)
	}

	open, err := s.payables.ListOpenByVendorForUpdate(ctx, tx, vendor.ID)
	if err != nil {
		return nil, fmt.Errorf("PayVendorBill: %w", err)
	}
	if len(open) == 0 {
		return nil, fmt.Errorf("PayVendorBill: %w", domain.ErrNoDueEntries)
	}

	obligations := make([]domain.Obligation, len(open))
	byID := make(map[uuid.UUID]*domain.Payable, len(open))
	for i := range open {
		p := &open[i]
		obligations[i] = domain.Obligation{
			ID:         p.ID,
			Amount:     p.Amount,
			PaidAmount: p.PaidAmount,
			DueDate:    p.DueDate,
			CreatedAt:  p.CreatedAt,
		}
		byID[p.ID] = p
	}
	// Oldest due first, independent of how the rows came back.
	domain.SortObligations(obligations)

	if req.Amount > domain.TotalRemaining(obligations) {
		return nil, fmt.Errorf("PayVendorBill: %w", domain.ErrExceedsTotalDue)
	}

	account, err := s.accounts.GetForUpdate(ctx, tx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("PayVendorBill: %w", err)
	}
	if account.Balance < req.Amount {
		return nil, fmt.Errorf("PayVendorBill: %w", domain.ErrInsufficientFunds)
	}

	apps, residual := domain.Allocate(req.Amount, obligations)
	if residual != 0 {
		// Unreachable after the total-due check; kept as a consistency guard.
		return nil, fmt.Errorf("PayVendorBill: residual %d: %w", residual, domain.ErrExceedsTotalDue)
	}

	kind := domain.ReferencePayable
	now := time.Now().UTC()
	for _, app := range apps {
		p := byID[app.ObligationID]
		p.PaidAmount += app.Applied
		p.Status = domain.DeriveStatus(p.Amount, p.PaidAmount)
		if err := s.payables.Update(ctx, tx, p); err != nil {
			return nil, fmt.Errorf("PayVendorBill: %w", err)
		}

		refID := p.ID
		entry := &domain.Transaction{
			ID:            uuid.New(),
			Date:          req.Date,
			Amount:        app.Applied,
			Type:          domain.TransactionExpense,
			Category:      "Settlement",
			Segment:       vendor.Segment,
			AccountID:     account.ID,
			VendorID:      &vendor.ID,
			ReferenceID:   &refID,
			ReferenceKind: &kind,
			Note:          req.Note,
			CreatedAt:     now,
		}
		if err := s.transactions.Create(ctx, tx, entry); err != nil {
			return nil, fmt.Errorf("PayVendorBill: %w", err)
		}
	}

	if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance-req.Amount, account.Version+1); err != nil {
		return nil, fmt.Errorf("PayVendorBill: %w", err)
	}

	if err := s.vendors.UpdateBalance(ctx, tx, vendor.ID, vendor.Balance-req.Amount, vendor.Version+1); err != nil {
		return nil, fmt.Errorf("PayVendorBill: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("PayVendorBill: commit: %w", err)
	}

	var totalDueAfter domain.Minor
	for _, p := range byID {
		totalDueAfter += p.Remaining()
	}

	log.Info("vendor bill paid",
		"vendor_id", vendor.ID,
		"amount", req.Amount,
		"payables_touched", len(apps),
	)

	return &VendorPaymentResult{
		Applied:       req.Amount,
		TotalDueAfter: totalDueAfter,
	}, nil
}
