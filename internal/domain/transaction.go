package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// ReferenceKind names the document a settlement transaction belongs to.
type ReferenceKind string

const (
	ReferenceReceivable ReferenceKind = "receivable"
	ReferencePayable    ReferenceKind = "payable"
	ReferenceSalary     ReferenceKind = "salary"
)

// Transaction is an append-only ledger entry. It is never edited after
// creation; it is deleted only when its referenced parent document is deleted,
// with a corrective balance reversal and no replacement entry.
type Transaction struct {
	ID            uuid.UUID
	Date          time.Time
	Amount        Minor
	Type          TransactionType
	Category      string
	Segment       Segment
	AccountID     uuid.UUID
	CustomerID    *uuid.UUID
	VendorID      *uuid.UUID
	ReferenceID   *uuid.UUID
	ReferenceKind *ReferenceKind
	Note          string
	CreatedAt     time.Time
}
