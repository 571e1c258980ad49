package domain

import (
	"time"

	"github.com/google/uuid"
)

type AccountKind string

const (
	AccountKindCash   AccountKind = "cash"
	AccountKindBank   AccountKind = "bank"
	AccountKindMobile AccountKind = "mobile"
)

func (k AccountKind) IsValid() bool {
	switch k {
	case AccountKindCash, AccountKindBank, AccountKindMobile:
		return true
	}
	return false
}

// Account holds cash on hand. Balance is signed and mutated only through the
// atomic unit that also writes the matching transaction.
type Account struct {
	ID        uuid.UUID
	Name      string
	Kind      AccountKind
	Segment   Segment
	Balance   Minor
	Version   int64
	CreatedAt time.Time
}
