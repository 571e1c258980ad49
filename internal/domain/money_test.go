package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Minor
		wantErr bool
	}{
		{name: "whole units", in: "1000", want: 100000},
		{name: "two decimals", in: "12.34", want: 1234},
		{name: "one decimal", in: "5.5", want: 550},
		{name: "zero", in: "0", want: 0},
		{name: "zero with decimals", in: "0.00", want: 0},
		{name: "sub-cent precision", in: "1.005", wantErr: true},
		{name: "negative", in: "-10", wantErr: true},
		{name: "not a number", in: "ten", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "exponent notation", in: "1e2", want: 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMinorString(t *testing.T) {
	assert.Equal(t, "12.34", Minor(1234).String())
	assert.Equal(t, "0.05", Minor(5).String())
	assert.Equal(t, "-3.00", Minor(-300).String())
}
