package strategy

import (
	"github.com/stratlab/backtest-go/internal/indicator"
	"github.com/stratlab/backtest-go/internal/types"
	"github.com/stratlab/backtest-go/pkg/errors"
)

// StrategyNameRSI identifies the RSI threshold-cross strategy.
const StrategyNameRSI = "rsi"

// RSIStrategy buys when RSI crosses upward through the oversold threshold
// and sells when it crosses downward through the overbought threshold.
type RSIStrategy struct {
	period     int
	oversold   float64
	overbought float64
}

// NewRSI builds an RSIStrategy. Recognized parameters: period (default 14),
// oversold (default 30), overbought (default 70).
func NewRSI(params map[string]any) (Strategy, error) {
	period, err := intParam(params, "period", 14)
	if err != nil {
		return nil, err
	}

	oversold, err := floatParam(params, "oversold", 30)
	if err != nil {
		return nil, err
	}

	overbought, err := floatParam(params, "overbought", 70)
	if err != nil {
		return nil, err
	}

	if period < 1 {
		return nil, errors.Newf(errors.ErrCodeStrategyInvalidParams, "period must be positive, got %d", period)
	}

	if oversold >= overbought {
		return nil, errors.Newf(errors.ErrCodeStrategyInvalidParams,
			"oversold (%f) must be below overbought (%f)", oversold, overbought)
	}

	return &RSIStrategy{
		period:     period,
		oversold:   oversold,
		overbought: overbought,
	}, nil
}

// Name implements Strategy.
func (s *RSIStrategy) Name() string {
	return StrategyNameRSI
}

// MinBars implements Strategy.
func (s *RSIStrategy) MinBars() int {
	return s.period + 1
}

// GenerateSignals implements Strategy.
func (s *RSIStrategy) GenerateSignals(bars []types.Bar) []types.Signal {
	signals := holdSignals(bars)
	if len(bars) < s.MinBars() {
		return signals
	}

	rsi := indicator.RSI(closePrices(bars), s.period)

	prev := indicator.Undefined
	for i, value := range rsi {
		// The thresholds are constant lines, so the unknown-order rule
		// for warming-up series pairs does not apply: the first defined
		// RSI value only seeds the previous bar.
		if indicator.Defined(prev) {
			if Cross(prev, s.oversold, value, s.oversold) == types.SignalTypeBuy {
				signals[i].Type = types.SignalTypeBuy
			} else if Cross(prev, s.overbought, value, s.overbought) == types.SignalTypeSell {
				signals[i].Type = types.SignalTypeSell
			}
		}

		prev = value
	}

	return signals
}
