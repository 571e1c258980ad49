package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safwanm/biztrack-backend/internal/domain"
)

func TestAdjustObligation(t *testing.T) {
	tests := []struct {
		name      string
		amount    domain.Minor
		paid      domain.Minor
		discount  domain.Minor
		surcharge domain.Minor
		want      domain.Minor
		wantErr   error
	}{
		{name: "no adjustment", amount: 1000, paid: 0, want: 1000},
		{name: "discount lowers amount", amount: 1000, paid: 200, discount: 300, want: 700},
		{name: "surcharge raises amount", amount: 1000, paid: 0, surcharge: 150, want: 1150},
		{name: "discount and surcharge net out", amount: 1000, paid: 0, discount: 100, surcharge: 100, want: 1000},
		{name: "adjusted equals paid is allowed", amount: 1000, paid: 600, discount: 400, want: 600},
		{name: "adjusted below paid rejected", amount: 1000, paid: 700, discount: 400, wantErr: domain.ErrAmountBelowPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := adjustObligation(tt.amount, tt.paid, tt.discount, tt.surcharge)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
