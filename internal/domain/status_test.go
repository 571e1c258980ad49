package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name   string
		amount Minor
		paid   Minor
		want   PaymentStatus
	}{
		{name: "nothing paid", amount: 1000, paid: 0, want: StatusUnpaid},
		{name: "partially paid", amount: 1000, paid: 400, want: StatusPartial},
		{name: "fully paid", amount: 1000, paid: 1000, want: StatusPaid},
		{name: "overpaid", amount: 1000, paid: 1200, want: StatusPaid},
		{name: "written off to zero", amount: 0, paid: 0, want: StatusPaid},
		{name: "amount reduced below paid", amount: 300, paid: 400, want: StatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.amount, tt.paid))
		})
	}
}

// Exactly one status holds for every (amount, paid) pair.
func TestDeriveStatusTotality(t *testing.T) {
	for amount := Minor(0); amount <= 3; amount++ {
		for paid := Minor(0); paid <= 4; paid++ {
			s := DeriveStatus(amount, paid)
			assert.Contains(t, []PaymentStatus{StatusUnpaid, StatusPartial, StatusPaid}, s)
		}
	}
}

func TestRemainingOfNeverNegative(t *testing.T) {
	assert.Equal(t, Minor(600), RemainingOf(1000, 400))
	assert.Equal(t, Minor(0), RemainingOf(1000, 1000))
	assert.Equal(t, Minor(0), RemainingOf(300, 400))
}
