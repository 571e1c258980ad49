package domain

type PaymentStatus string

const (
	StatusUnpaid  PaymentStatus = "unpaid"
	StatusPartial PaymentStatus = "partial"
	StatusPaid    PaymentStatus = "paid"
)

// DeriveStatus is total over all (amount, paidAmount) pairs: exactly one of the
// three states holds for any input. An amount written down to zero reads paid;
// nothing remains due on it.
func DeriveStatus(amount, paid Minor) PaymentStatus {
	switch {
	case paid >= amount:
		return StatusPaid
	case paid <= 0:
		return StatusUnpaid
	default:
		return StatusPartial
	}
}

// RemainingOf never goes negative, even after an amount reduction.
func RemainingOf(amount, paid Minor) Minor {
	if paid >= amount {
		return 0
	}
	return amount - paid
}
