package strategy

import (
	"github.com/stratlab/backtest-go/internal/indicator"
	"github.com/stratlab/backtest-go/internal/types"
)

// Cross is the shared crossing-detection primitive: it reports a buy when
// series a transitions from at-or-below to above series b between the
// previous and current bar, and a sell on the reverse transition.
//
// Undefined current values always yield hold. An undefined previous pair is
// treated as "relative order unknown", equivalent to the two series having
// been equal: the first defined bar where a is strictly above (or below) b
// counts as a transition. Without this, a series that starts out above its
// counterpart once its rolling window fills would never register the
// crossing at all.
func Cross(prevA, prevB, currA, currB float64) types.SignalType {
	if !indicator.Defined(currA) || !indicator.Defined(currB) {
		return types.SignalTypeHold
	}

	prevKnown := indicator.Defined(prevA) && indicator.Defined(prevB)
	prevAbove := prevKnown && prevA > prevB
	prevBelow := prevKnown && prevA < prevB

	if currA > currB && !prevAbove {
		return types.SignalTypeBuy
	}

	if currA < currB && !prevBelow {
		return types.SignalTypeSell
	}

	return types.SignalTypeHold
}

// crossSeries applies Cross pointwise over two aligned series, returning one
// signal type per index. Index 0 has no previous bar and uses the
// unknown-order rule.
func crossSeries(a, b []float64) []types.SignalType {
	out := make([]types.SignalType, len(a))

	prevA, prevB := indicator.Undefined, indicator.Undefined
	for i := range a {
		out[i] = Cross(prevA, prevB, a[i], b[i])
		prevA, prevB = a[i], b[i]
	}

	return out
}
