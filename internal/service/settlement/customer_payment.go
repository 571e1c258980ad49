package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safwanm/biztrack-backend/internal/domain"
	"github.com/safwanm/biztrack-backend/internal/logging"
)

type CustomerPaymentRequest struct {
	CustomerID uuid.UUID
	AccountID  uuid.UUID
	Amount     domain.Minor
	Discount   domain.Minor
	Date       time.Time
	Note       string
}

type CustomerPaymentResult struct {
	Settled       domain.Minor
	Advance       domain.Minor
	TotalDueAfter domain.Minor
}

// RecordCustomerPayment distributes one payment across the customer's open
// receivables, oldest due date first. A discount is absorbed the same way
// before the payment lands. Whatever no receivable can absorb stays on the
// books as advance credit: the customer balance goes negative and the entry
// carries no document reference.
func (s *Service) RecordCustomerPayment(ctx context.Context, req CustomerPaymentRequest) (*CustomerPaymentResult, error) {
	log := logging.FromContext(ctx)

	if req.Amount <= 0 {
		return nil, fmt.Errorf("RecordCustomerPayment: %w", domain.ErrInvalidAmount)
	}
	if req.Discount < 0 {
		return nil, fmt.Errorf("RecordCustomerPayment: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("RecordCustomerPayment: begin tx: %w", err)
	}
	defer tx.Rollback()

	customer, err := s.customers.GetForUpdate(ctx, tx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("RecordCustomerPayment: %w", err)
	}

	open, err := s.receivables.ListOpenByCustomerForUpdate(ctx, tx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("RecordCustomerPayment: %w", err)
	}

	obligations := make([]domain.Obligation, len(open))
	byID := make(map[uuid.UUID]*domain.Receivable, len(open))
	for i := range open {
		rec := &open[i]
		obligations[i] = domain.Obligation{
			ID:         rec.ID,
			Amount:     rec.Amount,
			PaidAmount: rec.PaidAmount,
			DueDate:    rec.DueDate,
			CreatedAt:  rec.CreatedAt,
		}
		byID[rec.ID] = rec
	}
	// Oldest due first, independent of how the rows came back.
	domain.SortObligations(obligations)

	// Discount first: it shrinks amounts, never paid amounts, and must be
	// fully absorbed by the outstanding total.
	if req.Discount > 0 {
		discountApps, residual := domain.AllocateDiscount(req.Discount, obligations)
		if residual > 0 {
			return nil, fmt.Errorf("RecordCustomerPayment: discount: %w", domain.ErrExceedsTotalDue)
		}
		for _, app := range discountApps {
			rec := byID[app.ObligationID]
			rec.Amount -= app.Applied
			rec.Status = domain.DeriveStatus(rec.Amount, rec.PaidAmount)
		}
		for i := range obligations {
			obligations[i].Amount = byID[obligations[i].ID].Amount
		}
	}

	apps, advance := domain.Allocate(req.Amount, obligations)

	account, err := s.accounts.GetForUpdate(ctx, tx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("RecordCustomerPayment: %w", err)
	}

	kind := domain.ReferenceReceivable
	now := time.Now().UTC()
	for _, app := range apps {
		rec := byID[app.ObligationID]
		rec.PaidAmount += app.Applied
		rec.Status = domain.DeriveStatus(rec.Amount, rec.PaidAmount)
		if err := s.receivables.Update(ctx, tx, rec); err != nil {
			return nil, fmt.Errorf("RecordCustomerPayment: %w", err)
		}

		refID := rec.ID
		entry := &domain.Transaction{
			ID:            uuid.New(),
			Date:          req.Date,
			Amount:        app.Applied,
			Type:          domain.TransactionIncome,
			Category:      "Collection",
			Segment:       customer.Segment,
			AccountID:     account.ID,
			CustomerID:    &customer.ID,
			ReferenceID:   &refID,
			ReferenceKind: &kind,
			Note:          req.Note,
			CreatedAt:     now,
		}
		if err := s.transactions.Create(ctx, tx, entry); err != nil {
			return nil, fmt.Errorf("RecordCustomerPayment: %w", err)
		}
	}

	// Receivables that only moved because of the discount still need their
	// new amount and status persisted.
	if req.Discount > 0 {
		applied := make(map[uuid.UUID]bool, len(apps))
		for _, app := range apps {
			applied[app.ObligationID] = true
		}
		for _, rec := range byID {
			if !applied[rec.ID] {
				if err := s.receivables.Update(ctx, tx, rec); err != nil {
					return nil, fmt.Errorf("RecordCustomerPayment: %w", err)
				}
			}
		}
	}

	if advance > 0 {
		entry := &domain.Transaction{
			ID:         uuid.New(),
			Date:       req.Date,
			Amount:     advance,
			Type:       domain.TransactionIncome,
			Category:   "Advance",
			Segment:    customer.Segment,
			AccountID:  account.ID,
			CustomerID: &customer.ID,
			Note:       req.Note,
			CreatedAt:  now,
		}
		if err := s.transactions.Create(ctx, tx, entry); err != nil {
			return nil, fmt.Errorf("RecordCustomerPayment: %w", err)
		}
	}

	if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance+req.Amount, account.Version+1); err != nil {
		return nil, fmt.Errorf("RecordCustomerPayment: %w", err)
	}

	dueDelta := req.Amount + req.Discount
	if err := s.customers.UpdateBalance(ctx, tx, customer.ID, customer.Balance-dueDelta, customer.Version+1); err != nil {
		return nil, fmt.Errorf("RecordCustomerPayment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("RecordCustomerPayment: commit: %w", err)
	}

	var totalDueAfter domain.Minor
	for _, rec := range byID {
		totalDueAfter += rec.Remaining()
	}

	log.Info("customer payment recorded",
		"customer_id", customer.ID,
		"amount", req.Amount,
		"discount", req.Discount,
		"receivables_touched", len(apps),
		"advance", advance,
	)

	return &CustomerPaymentResult{
		Settled:       req.Amount - advance,
		Advance:       advance,
		TotalDueAfter: totalDueAfter,
	}, nil
}
