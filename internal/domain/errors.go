package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidSegment      = errors.New("invalid business segment")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrAlreadyPaid         = errors.New("already fully paid")
	ErrExceedsRemainingDue = errors.New("exceeds remaining due")
	ErrExceedsTotalDue     = errors.New("exceeds total due")
	ErrNoDueEntries        = errors.New("no due entries")
	ErrInsufficientFunds   = errors.New("insufficient account balance")
	ErrAmountBelowPaid     = errors.New("amount cannot drop below paid amount")
	ErrCancelledService    = errors.New("cannot deliver a cancelled service")
	ErrVendorRequired      = errors.New("vendor is required when cost is set")
	ErrLinkedTransaction   = errors.New("transaction is linked to a document")
	ErrSalaryExists        = errors.New("salary already generated for this period")
	ErrVersionConflict     = errors.New("optimistic lock conflict")
	ErrSelfTransfer        = errors.New("cannot transfer to same account")
)
