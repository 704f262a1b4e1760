package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stratlab/backtest-go/internal/types"
)

func TestCross(t *testing.T) {
	nan := math.NaN()

	tests := []struct {
		name                       string
		prevA, prevB, currA, currB float64
		want                       types.SignalType
	}{
		{
			name:  "upward crossing",
			prevA: 9, prevB: 10, currA: 11, currB: 10,
			want: types.SignalTypeBuy,
		},
		{
			name:  "downward crossing",
			prevA: 11, prevB: 10, currA: 9, currB: 10,
			want: types.SignalTypeSell,
		},
		{
			name:  "stays above",
			prevA: 11, prevB: 10, currA: 12, currB: 10,
			want: types.SignalTypeHold,
		},
		{
			name:  "stays below",
			prevA: 9, prevB: 10, currA: 8, currB: 10,
			want: types.SignalTypeHold,
		},
		{
			name:  "leaves from equal upward",
			prevA: 10, prevB: 10, currA: 11, currB: 10,
			want: types.SignalTypeBuy,
		},
		{
			name:  "lands on equal",
			prevA: 9, prevB: 10, currA: 10, currB: 10,
			want: types.SignalTypeHold,
		},
		{
			name:  "undefined current holds",
			prevA: 9, prevB: 10, currA: nan, currB: 10,
			want: types.SignalTypeHold,
		},
		{
			name:  "undefined previous counts as first transition up",
			prevA: nan, prevB: nan, currA: 11, currB: 10,
			want: types.SignalTypeBuy,
		},
		{
			name:  "undefined previous counts as first transition down",
			prevA: nan, prevB: 10, currA: 9, currB: 10,
			want: types.SignalTypeSell,
		},
		{
			name:  "undefined previous with equal current holds",
			prevA: nan, prevB: nan, currA: 10, currB: 10,
			want: types.SignalTypeHold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cross(tt.prevA, tt.prevB, tt.currA, tt.currB)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCrossSeries(t *testing.T) {
	a := []float64{math.NaN(), 9, 11, 12, 9}
	b := []float64{10, 10, 10, 10, 10}

	got := crossSeries(a, b)

	assert.Equal(t, []types.SignalType{
		types.SignalTypeHold, // undefined a
		types.SignalTypeSell, // first defined pair, below
		types.SignalTypeBuy,  // crossed above
		types.SignalTypeHold, // stays above
		types.SignalTypeSell, // crossed below
	}, got)
}
