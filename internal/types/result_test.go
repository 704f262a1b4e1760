package types

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type ResultTestSuite struct {
	suite.Suite
	result *BacktestResult
}

func TestResultSuite(t *testing.T) {
	suite.Run(t, new(ResultTestSuite))
}

func (suite *ResultTestSuite) SetupTest() {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	suite.result = &BacktestResult{
		ID:       "run-1",
		Strategy: "ma_crossover",
		Params:   map[string]any{"short_window": 5, "long_window": 20},
		Symbols:  []string{"AAPL", "MSFT"},
		DateRange: DateRange{
			Start: start,
			End:   end,
		},
		InitialCapital:   100000,
		FinalEquity:      104217.3341,
		TotalReturn:      0.042173341,
		AnnualizedReturn: 0.287,
		SharpeRatio:      1.4412,
		MaxDrawdown:      -0.031,
		WinRate:          0.6,
		TradeLog: []TradeRecord{
			{
				Date:   start,
				Symbol: "AAPL",
				Action: SignalTypeBuy,
				Price:  185.64,
				Shares: 107,
				Value:  19863.48,
				PnL:    optional.None[float64](),
				Reason: ExitReasonSignal,
			},
			{
				Date:   end,
				Symbol: "AAPL",
				Action: SignalTypeSell,
				Price:  191.21,
				Shares: 107,
				Value:  20459.47,
				PnL:    optional.Some(595.99),
				Reason: ExitReasonEndOfBacktest,
			},
		},
		EquityCurve: []EquityPoint{
			{Date: start, Equity: 100000},
			{Date: end, Equity: 104217.3341},
		},
	}
}

func (suite *ResultTestSuite) TestRoundTrip() {
	data, err := suite.result.Marshal()
	suite.Require().NoError(err)

	decoded, err := UnmarshalResult(data)
	suite.Require().NoError(err)

	suite.Equal(suite.result.Strategy, decoded.Strategy)
	suite.Equal(suite.result.Symbols, decoded.Symbols)
	suite.True(suite.result.DateRange.Start.Equal(decoded.DateRange.Start))
	suite.True(suite.result.DateRange.End.Equal(decoded.DateRange.End))

	suite.InDelta(suite.result.FinalEquity, decoded.FinalEquity, 1e-9)
	suite.InDelta(suite.result.TotalReturn, decoded.TotalReturn, 1e-9)
	suite.InDelta(suite.result.SharpeRatio, decoded.SharpeRatio, 1e-9)
	suite.InDelta(suite.result.MaxDrawdown, decoded.MaxDrawdown, 1e-9)

	suite.Require().Len(decoded.EquityCurve, len(suite.result.EquityCurve))
	for i, point := range suite.result.EquityCurve {
		suite.True(point.Date.Equal(decoded.EquityCurve[i].Date))
		suite.InDelta(point.Equity, decoded.EquityCurve[i].Equity, 1e-9)
	}

	suite.Require().Len(decoded.TradeLog, len(suite.result.TradeLog))
	for i, record := range suite.result.TradeLog {
		got := decoded.TradeLog[i]
		suite.Equal(record.Symbol, got.Symbol)
		suite.Equal(record.Action, got.Action)
		suite.Equal(record.Shares, got.Shares)
		suite.InDelta(record.Price, got.Price, 1e-9)
		suite.Equal(record.PnL.IsSome(), got.PnL.IsSome())

		if record.PnL.IsSome() {
			suite.InDelta(record.PnL.Unwrap(), got.PnL.Unwrap(), 1e-9)
		}
	}
}

func (suite *ResultTestSuite) TestOpenTradePnLIsNull() {
	data, err := suite.result.Marshal()
	suite.Require().NoError(err)

	suite.Contains(string(data), `"pnl": null`)
}

func (suite *ResultTestSuite) TestWriteSummary() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "summary.yaml")

	err := WriteSummary(path, suite.result.Summarize())
	suite.Require().NoError(err)

	suite.FileExists(path)
}

func (suite *ResultTestSuite) TestSummarize() {
	summary := suite.result.Summarize()

	suite.Equal("ma_crossover", summary.Strategy)
	suite.Equal(2, summary.TradeCount)
	suite.InDelta(suite.result.TotalReturn, summary.TotalReturn, 1e-9)
}
