// Package analyzer computes the performance statistics of a finished run
// from its equity curve and trade log.
package analyzer

import (
	"math"

	"github.com/stratlab/backtest-go/internal/types"
)

// tradingDaysPerYear is the convention used to annualize daily returns.
const tradingDaysPerYear = 252

// Metrics is the full set of performance statistics for one run.
type Metrics struct {
	FinalEquity      float64
	TotalReturn      float64
	AnnualizedReturn float64
	SharpeRatio      float64
	MaxDrawdown      float64
	WinRate          float64
}

// Analyze computes the metrics of a run. An empty equity curve yields the
// zero-return metrics of a run that never traded.
func Analyze(initialCapital float64, curve []types.EquityPoint, tradeLog []types.TradeRecord) Metrics {
	if len(curve) == 0 || initialCapital <= 0 {
		return Metrics{FinalEquity: initialCapital, WinRate: winRate(tradeLog)}
	}

	final := curve[len(curve)-1].Equity
	totalReturn := final/initialCapital - 1

	return Metrics{
		FinalEquity:      final,
		TotalReturn:      totalReturn,
		AnnualizedReturn: annualize(totalReturn, curve),
		SharpeRatio:      sharpe(dailyReturns(curve)),
		MaxDrawdown:      maxDrawdown(curve),
		WinRate:          winRate(tradeLog),
	}
}

// annualize scales the total return to a yearly rate over the calendar span
// of the curve. A single-day curve has no span to scale by and keeps the
// total return as is.
func annualize(totalReturn float64, curve []types.EquityPoint) float64 {
	days := curve[len(curve)-1].Date.Sub(curve[0].Date).Hours() / 24
	if days <= 0 {
		return totalReturn
	}

	return math.Pow(1+totalReturn, 365/days) - 1
}

// dailyReturns converts the equity curve into simple day-over-day returns.
func dailyReturns(curve []types.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}

		returns = append(returns, curve[i].Equity/prev-1)
	}

	return returns
}

// sharpe is the annualized ratio of mean daily return to its volatility,
// assuming a zero risk-free rate. Zero volatility yields zero rather than
// an infinite ratio.
func sharpe(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	return mean * tradingDaysPerYear / (std * math.Sqrt(tradingDaysPerYear))
}

// maxDrawdown is the largest peak-to-trough decline of the curve, reported
// as a non-positive fraction.
func maxDrawdown(curve []types.EquityPoint) float64 {
	var worst float64
	peak := curve[0].Equity

	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak <= 0 {
			continue
		}

		if dd := point.Equity/peak - 1; dd < worst {
			worst = dd
		}
	}

	return worst
}

// winRate is the fraction of closing trades with positive realized pnl. A
// run with no closing trades has a zero win rate.
func winRate(tradeLog []types.TradeRecord) float64 {
	var closed, won int
	for _, record := range tradeLog {
		pnl, err := record.PnL.Take()
		if err != nil {
			continue
		}

		closed++
		if pnl > 0 {
			won++
		}
	}

	if closed == 0 {
		return 0
	}

	return float64(won) / float64(closed)
}
