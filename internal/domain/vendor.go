package domain

import (
	"time"

	"github.com/google/uuid"
)

// Vendor balance is signed: positive means the business owes the vendor.
type Vendor struct {
	ID        uuid.UUID
	Name      string
	Phone     *string
	Segment   Segment
	Balance   Minor
	Version   int64
	CreatedAt time.Time
}
