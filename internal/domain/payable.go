package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payable mirrors Receivable for vendor obligations.
type Payable struct {
	ID             uuid.UUID
	VendorID       uuid.UUID
	ServiceOrderID *uuid.UUID
	Amount         Minor
	PaidAmount     Minor
	DueDate        time.Time
	Status         PaymentStatus
	Description    string
	CreatedAt      time.Time
}

func (p *Payable) Remaining() Minor {
	return RemainingOf(p.Amount, p.PaidAmount)
}
