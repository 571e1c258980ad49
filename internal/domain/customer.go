package domain

import (
	"time"

	"github.com/google/uuid"
)

// Customer balance is signed: positive means the customer owes money,
// negative means the customer holds advance credit.
type Customer struct {
	ID        uuid.UUID
	Name      string
	Phone     *string
	Segment   Segment
	Balance   Minor
	Version   int64
	CreatedAt time.Time
}
