package domain

import (
	"time"

	"github.com/google/uuid"
)

type Employee struct {
	ID            uuid.UUID
	Name          string
	Phone         *string
	Segment       Segment
	MonthlySalary Minor
	CreatedAt     time.Time
}

type SalaryStatus string

const (
	SalaryUnpaid SalaryStatus = "unpaid"
	SalaryPaid   SalaryStatus = "paid"
)

type Salary struct {
	ID         uuid.UUID
	EmployeeID uuid.UUID
	Amount     Minor
	Month      int
	Year       int
	Status     SalaryStatus
	PaidDate   *time.Time
	CreatedAt  time.Time
}
