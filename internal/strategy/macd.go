package strategy

import (
	"github.com/stratlab/backtest-go/internal/indicator"
	"github.com/stratlab/backtest-go/internal/types"
	"github.com/stratlab/backtest-go/pkg/errors"
)

// StrategyNameMACD identifies the MACD crossover strategy.
const StrategyNameMACD = "macd"

// MACDStrategy buys when the MACD line crosses above its signal line and
// sells on the reverse crossing.
type MACDStrategy struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD builds a MACDStrategy. Recognized parameters: fast_period
// (default 12), slow_period (default 26), signal_period (default 9).
func NewMACD(params map[string]any) (Strategy, error) {
	fastPeriod, err := intParam(params, "fast_period", 12)
	if err != nil {
		return nil, err
	}

	slowPeriod, err := intParam(params, "slow_period", 26)
	if err != nil {
		return nil, err
	}

	signalPeriod, err := intParam(params, "signal_period", 9)
	if err != nil {
		return nil, err
	}

	if fastPeriod < 1 || slowPeriod < 1 || signalPeriod < 1 {
		return nil, errors.Newf(errors.ErrCodeStrategyInvalidParams,
			"periods must be positive, got fast=%d slow=%d signal=%d", fastPeriod, slowPeriod, signalPeriod)
	}

	if fastPeriod >= slowPeriod {
		return nil, errors.Newf(errors.ErrCodeStrategyInvalidParams,
			"fast_period (%d) must be less than slow_period (%d)", fastPeriod, slowPeriod)
	}

	return &MACDStrategy{
		fastPeriod:   fastPeriod,
		slowPeriod:   slowPeriod,
		signalPeriod: signalPeriod,
	}, nil
}

// Name implements Strategy.
func (s *MACDStrategy) Name() string {
	return StrategyNameMACD
}

// MinBars implements Strategy.
func (s *MACDStrategy) MinBars() int {
	return s.slowPeriod + s.signalPeriod
}

// GenerateSignals implements Strategy.
func (s *MACDStrategy) GenerateSignals(bars []types.Bar) []types.Signal {
	signals := holdSignals(bars)
	if len(bars) < s.MinBars() {
		return signals
	}

	macdLine, signalLine := indicator.MACD(closePrices(bars), s.fastPeriod, s.slowPeriod, s.signalPeriod)

	for i, sig := range crossSeries(macdLine, signalLine) {
		signals[i].Type = sig
	}

	return signals
}
