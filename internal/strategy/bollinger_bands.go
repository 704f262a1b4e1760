package strategy

import (
	"github.com/stratlab/backtest-go/internal/indicator"
	"github.com/stratlab/backtest-go/internal/types"
	"github.com/stratlab/backtest-go/pkg/errors"
)

// StrategyNameBollingerBands identifies the Bollinger band touch strategy.
const StrategyNameBollingerBands = "bollinger_bands"

// BollingerBandsStrategy is a mean-reversion strategy: it buys when the
// close crosses below the lower band and sells when it crosses above the
// upper band.
type BollingerBandsStrategy struct {
	window int
	numStd float64
}

// NewBollingerBands builds a BollingerBandsStrategy. Recognized parameters:
// window (default 20), num_std (default 2).
func NewBollingerBands(params map[string]any) (Strategy, error) {
	window, err := intParam(params, "window", 20)
	if err != nil {
		return nil, err
	}

	numStd, err := floatParam(params, "num_std", 2)
	if err != nil {
		return nil, err
	}

	if window < 2 {
		return nil, errors.Newf(errors.ErrCodeStrategyInvalidParams, "window must be at least 2, got %d", window)
	}

	if numStd <= 0 {
		return nil, errors.Newf(errors.ErrCodeStrategyInvalidParams, "num_std must be positive, got %f", numStd)
	}

	return &BollingerBandsStrategy{
		window: window,
		numStd: numStd,
	}, nil
}

// Name implements Strategy.
func (s *BollingerBandsStrategy) Name() string {
	return StrategyNameBollingerBands
}

// MinBars implements Strategy.
func (s *BollingerBandsStrategy) MinBars() int {
	return s.window
}

// GenerateSignals implements Strategy.
func (s *BollingerBandsStrategy) GenerateSignals(bars []types.Bar) []types.Signal {
	signals := holdSignals(bars)
	if len(bars) < s.window {
		return signals
	}

	closes := closePrices(bars)
	_, upper, lower := indicator.BollingerBands(closes, s.window, s.numStd)

	prevClose := indicator.Undefined
	prevUpper := indicator.Undefined
	prevLower := indicator.Undefined

	for i := range bars {
		// Putting the band on the a-side of the primitive makes the
		// lower band rising above the close the buy transition, which
		// is exactly the close dropping through the band.
		if Cross(prevLower, prevClose, lower[i], closes[i]) == types.SignalTypeBuy {
			signals[i].Type = types.SignalTypeBuy
		} else if Cross(prevUpper, prevClose, upper[i], closes[i]) == types.SignalTypeSell {
			signals[i].Type = types.SignalTypeSell
		}

		prevClose, prevUpper, prevLower = closes[i], upper[i], lower[i]
	}

	return signals
}
