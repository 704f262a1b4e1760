package strategy

import (
	"github.com/stratlab/backtest-go/internal/indicator"
	"github.com/stratlab/backtest-go/internal/types"
	"github.com/stratlab/backtest-go/pkg/errors"
)

// StrategyNameMACrossover identifies the moving-average crossover strategy.
const StrategyNameMACrossover = "ma_crossover"

// MACrossover buys when the short moving average crosses above the long one
// and sells on the reverse crossing.
type MACrossover struct {
	shortWindow int
	longWindow  int
}

// NewMACrossover builds a MACrossover strategy. Recognized parameters:
// short_window (default 5), long_window (default 20).
func NewMACrossover(params map[string]any) (Strategy, error) {
	shortWindow, err := intParam(params, "short_window", 5)
	if err != nil {
		return nil, err
	}

	longWindow, err := intParam(params, "long_window", 20)
	if err != nil {
		return nil, err
	}

	if shortWindow < 1 || longWindow < 1 {
		return nil, errors.Newf(errors.ErrCodeStrategyInvalidParams,
			"windows must be positive, got short=%d long=%d", shortWindow, longWindow)
	}

	if shortWindow >= longWindow {
		return nil, errors.Newf(errors.ErrCodeStrategyInvalidParams,
			"short_window (%d) must be less than long_window (%d)", shortWindow, longWindow)
	}

	return &MACrossover{
		shortWindow: shortWindow,
		longWindow:  longWindow,
	}, nil
}

// Name implements Strategy.
func (s *MACrossover) Name() string {
	return StrategyNameMACrossover
}

// MinBars implements Strategy.
func (s *MACrossover) MinBars() int {
	return s.longWindow
}

// GenerateSignals implements Strategy.
func (s *MACrossover) GenerateSignals(bars []types.Bar) []types.Signal {
	signals := holdSignals(bars)
	if len(bars) < s.longWindow {
		return signals
	}

	closes := closePrices(bars)
	shortMA := indicator.SMA(closes, s.shortWindow)
	longMA := indicator.SMA(closes, s.longWindow)

	for i, sig := range crossSeries(shortMA, longMA) {
		signals[i].Type = sig
	}

	return signals
}
