package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Obligation is the allocator's view of an outstanding receivable or payable.
type Obligation struct {
	ID         uuid.UUID
	Amount     Minor
	PaidAmount Minor
	DueDate    time.Time
	CreatedAt  time.Time
}

func (o Obligation) Remaining() Minor {
	return RemainingOf(o.Amount, o.PaidAmount)
}

// Application records how much of a payment landed on one obligation.
type Application struct {
	ObligationID uuid.UUID
	Applied      Minor
}

// SortObligations orders oldest due date first, ties broken by creation time.
func SortObligations(obligations []Obligation) {
	sort.SliceStable(obligations, func(i, j int) bool {
		if !obligations[i].DueDate.Equal(obligations[j].DueDate) {
			return obligations[i].DueDate.Before(obligations[j].DueDate)
		}
		return obligations[i].CreatedAt.Before(obligations[j].CreatedAt)
	})
}

// Allocate walks obligations in order and applies min(remaining, left) to each
// until the payment is exhausted. The second return value is the residual that
// no obligation could absorb (an advance). Conservation holds by construction:
// sum of applied amounts plus the residual equals the payment.
func Allocate(payment Minor, obligations []Obligation) ([]Application, Minor) {
	left := payment
	var applications []Application
	for _, o := range obligations {
		if left <= 0 {
			break
		}
		remaining := o.Remaining()
		if remaining <= 0 {
			continue
		}
		applied := remaining
		if left < remaining {
			applied = left
		}
		applications = append(applications, Application{ObligationID: o.ID, Applied: applied})
		left -= applied
	}
	return applications, left
}

// AllocateDiscount distributes a discount by reducing each obligation's amount
// (never its paid amount), oldest first, capped at the obligation's remaining.
// The residual is whatever the outstanding total could not absorb.
func AllocateDiscount(discount Minor, obligations []Obligation) ([]Application, Minor) {
	return Allocate(discount, obligations)
}

// TotalRemaining sums remaining across obligations.
func TotalRemaining(obligations []Obligation) Minor {
	var total Minor
	for _, o := range obligations {
		total += o.Remaining()
	}
	return total
}
