package domain

import (
	"time"

	"github.com/google/uuid"
)

// Receivable is a customer obligation. Invariant: 0 <= PaidAmount, status is
// always DeriveStatus(Amount, PaidAmount), and the customer balance equals the
// sum of remaining across the customer's receivables net of advance credit.
type Receivable struct {
	ID             uuid.UUID
	CustomerID     uuid.UUID
	ServiceOrderID *uuid.UUID
	Amount         Minor
	PaidAmount     Minor
	DueDate        time.Time
	Status         PaymentStatus
	Description    string
	CreatedAt      time.Time
}

func (r *Receivable) Remaining() Minor {
	return RemainingOf(r.Amount, r.PaidAmount)
}
