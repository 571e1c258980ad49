package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderReady      OrderStatus = "ready"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderPending, OrderInProgress, OrderReady, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// ServiceOrder is the origin of exactly one receivable (created eagerly unless
// the order is cancelled) and at most one payable (created on delivery when
// cost > 0). Profit is price minus cost.
type ServiceOrder struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	VendorID     *uuid.UUID
	Title        string
	Segment      Segment
	Price        Minor
	Cost         Minor
	Status       OrderStatus
	DeliveryDate *time.Time
	ReceivableID *uuid.UUID
	PayableID    *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (o *ServiceOrder) Profit() Minor {
	return o.Price - o.Cost
}
