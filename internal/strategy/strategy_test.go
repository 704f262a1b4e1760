package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/stratlab/backtest-go/internal/types"
	"github.com/stratlab/backtest-go/pkg/errors"
)

// barsFromCloses builds a daily bar series with the given closes.
func barsFromCloses(symbol string, closes []float64) []types.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{
			Symbol: symbol,
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}

	return bars
}

// risingCloses returns n closes rising linearly from first to last.
func risingCloses(n int, first, last float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = first + float64(i)*(last-first)/float64(n-1)
	}

	return closes
}

// flatCloses returns n identical closes.
func flatCloses(n int, price float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}

	return closes
}

func signalIndexes(signals []types.Signal, want types.SignalType) []int {
	var idx []int
	for i, sig := range signals {
		if sig.Type == want {
			idx = append(idx, i)
		}
	}

	return idx
}

type RegistryTestSuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (suite *RegistryTestSuite) SetupTest() {
	suite.registry = NewRegistry()
}

func (suite *RegistryTestSuite) TestNamesSorted() {
	suite.Equal([]string{
		StrategyNameBollingerBands,
		StrategyNameMACrossover,
		StrategyNameMACD,
		StrategyNameRSI,
	}, suite.registry.Names())
}

func (suite *RegistryTestSuite) TestCreateBuiltin() {
	strat, err := suite.registry.Create(StrategyNameMACrossover, map[string]any{
		"short_window": 5,
		"long_window":  20,
	})
	suite.Require().NoError(err)
	suite.Equal(StrategyNameMACrossover, strat.Name())
	suite.Equal(20, strat.MinBars())
}

func (suite *RegistryTestSuite) TestCreateUnknownStrategy() {
	_, err := suite.registry.Create("momentum_breakout", nil)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeUnknownStrategy, errors.GetCode(err))
}

func (suite *RegistryTestSuite) TestRegisterDuplicate() {
	err := suite.registry.Register(StrategyNameRSI, NewRSI)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeStrategyAlreadyExists, errors.GetCode(err))
}

type StrategyTestSuite struct {
	suite.Suite
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategyTestSuite))
}

func (suite *StrategyTestSuite) TestMACrossoverFlatSeriesHolds() {
	strat, err := NewMACrossover(map[string]any{"short_window": 5, "long_window": 20})
	suite.Require().NoError(err)

	signals := strat.GenerateSignals(barsFromCloses("AAPL", flatCloses(60, 100)))

	suite.Len(signals, 60)
	suite.Empty(signalIndexes(signals, types.SignalTypeBuy))
	suite.Empty(signalIndexes(signals, types.SignalTypeSell))
}

func (suite *StrategyTestSuite) TestMACrossoverRisingSeriesBuysOnce() {
	strat, err := NewMACrossover(map[string]any{"short_window": 5, "long_window": 20})
	suite.Require().NoError(err)

	signals := strat.GenerateSignals(barsFromCloses("AAPL", risingCloses(50, 100, 200)))

	// The short MA is above the long MA from the first bar where both are
	// defined, which is the long window's warm-up end.
	suite.Equal([]int{19}, signalIndexes(signals, types.SignalTypeBuy))
	suite.Empty(signalIndexes(signals, types.SignalTypeSell))
}

func (suite *StrategyTestSuite) TestMACrossoverInsufficientHistoryHolds() {
	strat, err := NewMACrossover(map[string]any{"short_window": 5, "long_window": 20})
	suite.Require().NoError(err)

	signals := strat.GenerateSignals(barsFromCloses("AAPL", risingCloses(10, 100, 200)))

	suite.Len(signals, 10)
	for _, sig := range signals {
		suite.Equal(types.SignalTypeHold, sig.Type)
	}
}

func (suite *StrategyTestSuite) TestMACrossoverSellOnReverseCrossing() {
	// Rise long enough to establish short above long, then collapse.
	closes := append(risingCloses(30, 100, 160), risingCloses(15, 100, 60)...)

	strat, err := NewMACrossover(map[string]any{"short_window": 3, "long_window": 10})
	suite.Require().NoError(err)

	signals := strat.GenerateSignals(barsFromCloses("AAPL", closes))

	buys := signalIndexes(signals, types.SignalTypeBuy)
	sells := signalIndexes(signals, types.SignalTypeSell)

	suite.Require().Len(buys, 1)
	suite.Require().Len(sells, 1)
	suite.Greater(sells[0], buys[0])
	suite.GreaterOrEqual(sells[0], 30)
}

func (suite *StrategyTestSuite) TestMACrossoverRejectsBadWindows() {
	_, err := NewMACrossover(map[string]any{"short_window": 20, "long_window": 5})
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeStrategyInvalidParams, errors.GetCode(err))

	_, err = NewMACrossover(map[string]any{"short_window": "five"})
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeStrategyInvalidParams, errors.GetCode(err))
}

func (suite *StrategyTestSuite) TestRSIThresholdCrossings() {
	// Falling closes pin RSI at 0, the +5 bar lifts it through the
	// oversold line (and past overbought), the -5 bar drops it back.
	closes := []float64{100, 98, 96, 94, 92, 97, 92}

	strat, err := NewRSI(map[string]any{"period": 2, "oversold": 30.0, "overbought": 70.0})
	suite.Require().NoError(err)

	signals := strat.GenerateSignals(barsFromCloses("MSFT", closes))

	suite.Equal([]int{5}, signalIndexes(signals, types.SignalTypeBuy))
	suite.Equal([]int{6}, signalIndexes(signals, types.SignalTypeSell))
}

func (suite *StrategyTestSuite) TestRSIFirstDefinedValueOnlySeeds() {
	// RSI is 0 as soon as it is defined; that must not count as a
	// downward crossing of either threshold.
	closes := []float64{100, 98, 96, 94, 92}

	strat, err := NewRSI(map[string]any{"period": 2})
	suite.Require().NoError(err)

	signals := strat.GenerateSignals(barsFromCloses("MSFT", closes))

	for _, sig := range signals {
		suite.Equal(types.SignalTypeHold, sig.Type)
	}
}

func (suite *StrategyTestSuite) TestRSIRejectsInvertedThresholds() {
	_, err := NewRSI(map[string]any{"oversold": 80.0, "overbought": 20.0})
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeStrategyInvalidParams, errors.GetCode(err))
}

func (suite *StrategyTestSuite) TestMACDBuysInUptrendSellsAfterReversal() {
	closes := append(risingCloses(15, 100, 170), risingCloses(15, 170, 100)...)

	strat, err := NewMACD(map[string]any{"fast_period": 3, "slow_period": 6, "signal_period": 3})
	suite.Require().NoError(err)

	signals := strat.GenerateSignals(barsFromCloses("SPY", closes))

	buys := signalIndexes(signals, types.SignalTypeBuy)
	sells := signalIndexes(signals, types.SignalTypeSell)

	// First defined MACD/signal pair is at slow-1 + signal-1.
	suite.Require().NotEmpty(buys)
	suite.Equal(7, buys[0])

	suite.Require().NotEmpty(sells)
	suite.Greater(sells[0], 14)
}

func (suite *StrategyTestSuite) TestMACDRejectsFastNotBelowSlow() {
	_, err := NewMACD(map[string]any{"fast_period": 26, "slow_period": 12})
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeStrategyInvalidParams, errors.GetCode(err))
}

func (suite *StrategyTestSuite) TestBollingerBandTouches() {
	closes := []float64{100, 100, 100, 100, 90, 100, 100, 100, 110}

	strat, err := NewBollingerBands(map[string]any{"window": 3, "num_std": 1.0})
	suite.Require().NoError(err)

	signals := strat.GenerateSignals(barsFromCloses("QQQ", closes))

	suite.Equal([]int{4}, signalIndexes(signals, types.SignalTypeBuy))
	suite.Equal([]int{8}, signalIndexes(signals, types.SignalTypeSell))
}

func (suite *StrategyTestSuite) TestBollingerFlatSeriesHolds() {
	strat, err := NewBollingerBands(map[string]any{"window": 5})
	suite.Require().NoError(err)

	signals := strat.GenerateSignals(barsFromCloses("QQQ", flatCloses(30, 100)))

	for _, sig := range signals {
		suite.Equal(types.SignalTypeHold, sig.Type)
	}
}

func (suite *StrategyTestSuite) TestDefaultParams() {
	registry := NewRegistry()

	for _, name := range registry.Names() {
		strat, err := registry.Create(name, nil)
		suite.Require().NoError(err, "strategy %s should build with defaults", name)
		suite.Greater(strat.MinBars(), 1)
	}
}
