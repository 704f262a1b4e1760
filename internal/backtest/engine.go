// Package backtest runs the deterministic simulation: one pass over the
// sorted union of all bar dates, feeding strategy signals and risk exits
// through the portfolio.
package backtest

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stratlab/backtest-go/internal/analyzer"
	"github.com/stratlab/backtest-go/internal/config"
	"github.com/stratlab/backtest-go/internal/datasource"
	"github.com/stratlab/backtest-go/internal/logger"
	"github.com/stratlab/backtest-go/internal/portfolio"
	"github.com/stratlab/backtest-go/internal/strategy"
	"github.com/stratlab/backtest-go/internal/types"
	"github.com/stratlab/backtest-go/pkg/errors"
)

// ProgressCallback reports simulation progress, called once per trading date.
type ProgressCallback func(current, total int)

// Engine wires a strategy, a data provider, and a portfolio into one run.
// Identical inputs always produce an identical result.
type Engine struct {
	config   config.Config
	registry *strategy.Registry
	provider datasource.BarProvider
	logger   *logger.Logger

	onProgress ProgressCallback
}

// NewEngine creates an engine for the given configuration.
func NewEngine(cfg config.Config, registry *strategy.Registry, provider datasource.BarProvider, log *logger.Logger) *Engine {
	return &Engine{
		config:   cfg,
		registry: registry,
		provider: provider,
		logger:   log,
	}
}

// SetProgressCallback registers a per-date progress callback.
func (e *Engine) SetProgressCallback(callback ProgressCallback) {
	e.onProgress = callback
}

// symbolData is the precomputed per-symbol view of the simulation: bars and
// signals keyed by normalized date.
type symbolData struct {
	barsByDate    map[time.Time]types.Bar
	signalsByDate map[time.Time]types.SignalType
}

// Run executes the full simulation and returns its immutable result. An
// unknown strategy or unusable configuration aborts before the first date is
// processed; per-symbol data gaps are skipped with a warning instead.
func (e *Engine) Run() (*types.BacktestResult, error) {
	strat, err := e.registry.Create(e.config.Strategy, e.config.StrategyParams)
	if err != nil {
		return nil, err
	}

	start, end := e.dateWindow()

	data, dates, err := e.loadData(start, end)
	if err != nil {
		return nil, err
	}

	port, err := portfolio.NewPortfolio(portfolio.Config{
		InitialCapital:  e.config.InitialCapital,
		PositionSizePct: e.config.PositionSizePct,
		CommissionPct:   e.config.CommissionPct,
		MaxPositions:    e.config.MaxPositions,
		StopLossPct:     e.config.StopLossPct,
		TakeProfitPct:   e.config.TakeProfitPct,
	}, e.logger)
	if err != nil {
		return nil, err
	}

	e.precomputeSignals(strat, data)

	e.logger.Info("starting backtest",
		zap.String("strategy", strat.Name()),
		zap.Int("symbols", len(data)),
		zap.Int("dates", len(dates)))

	lastClose := make(map[string]float64)
	lastDate := time.Time{}

	for i, date := range dates {
		if err := e.riskExitPass(port, data, date); err != nil {
			return nil, err
		}
		if err := e.signalPass(port, data, date); err != nil {
			return nil, err
		}

		for _, symbol := range sortedSymbols(data) {
			if bar, ok := data[symbol].barsByDate[date]; ok {
				lastClose[symbol] = bar.Close
			}
		}

		port.UpdateEquity(date, lastClose)
		lastDate = date

		if e.onProgress != nil {
			e.onProgress(i+1, len(dates))
		}
	}

	// Any position still open liquidates at its last seen price so the
	// final equity is fully realized.
	liquidated := port.OpenSymbols()
	for _, symbol := range liquidated {
		price, ok := lastClose[symbol]
		if !ok {
			pos, _ := port.Position(symbol)
			price = pos.EntryPrice
		}

		if err := port.ClosePosition(symbol, price, lastDate, types.ExitReasonEndOfBacktest); err != nil {
			return nil, err
		}
	}

	if len(liquidated) > 0 {
		port.UpdateEquity(lastDate, lastClose)
	}

	return e.buildResult(strat, port, dates), nil
}

// dateWindow resolves the configured simulation period, defaulting to a wide
// window when either bound is absent.
func (e *Engine) dateWindow() (time.Time, time.Time) {
	start := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)

	if t, err := e.config.StartDate.Take(); err == nil {
		start = t
	}
	if t, err := e.config.EndDate.Take(); err == nil {
		end = t
	}

	return start, end
}

// loadData fetches each configured symbol's bars and builds the sorted union
// of their dates. Symbols with no data are skipped with a warning; a run
// where every symbol is empty still succeeds with zero trades.
func (e *Engine) loadData(start, end time.Time) (map[string]*symbolData, []time.Time, error) {
	data := make(map[string]*symbolData)
	dateSet := make(map[time.Time]struct{})

	for _, symbol := range e.config.Symbols {
		bars, err := e.provider.GetBars(symbol, start, end)
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeDataUnavailable) {
				e.logger.Warn("no data for symbol, skipping",
					zap.String("symbol", symbol),
					zap.Error(err))
				continue
			}

			return nil, nil, err
		}
		if len(bars) == 0 {
			e.logger.Warn("empty bar series for symbol, skipping",
				zap.String("symbol", symbol))
			continue
		}

		sd := &symbolData{
			barsByDate:    make(map[time.Time]types.Bar, len(bars)),
			signalsByDate: make(map[time.Time]types.SignalType, len(bars)),
		}
		for _, bar := range bars {
			date := bar.Date()
			sd.barsByDate[date] = bar
			dateSet[date] = struct{}{}
		}

		data[symbol] = sd
	}

	dates := make([]time.Time, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return data, dates, nil
}

// precomputeSignals evaluates the strategy once per symbol over its full bar
// history. Signals are pure functions of the bars, so evaluating them up
// front does not leak future information into the simulation.
func (e *Engine) precomputeSignals(strat strategy.Strategy, data map[string]*symbolData) {
	for _, symbol := range sortedSymbols(data) {
		sd := data[symbol]

		bars := make([]types.Bar, 0, len(sd.barsByDate))
		for _, bar := range sd.barsByDate {
			bars = append(bars, bar)
		}
		sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

		for i, signal := range strat.GenerateSignals(bars) {
			sd.signalsByDate[bars[i].Date()] = signal.Type
		}
	}
}

// riskExitPass closes positions whose stop-loss or take-profit triggered
// against the date's close. Stop-loss wins when both trigger on the same bar.
// A close failure here means the portfolio state machine was violated and
// aborts the run.
func (e *Engine) riskExitPass(port *portfolio.Portfolio, data map[string]*symbolData, date time.Time) error {
	for _, symbol := range port.OpenSymbols() {
		sd, ok := data[symbol]
		if !ok {
			continue
		}

		bar, ok := sd.barsByDate[date]
		if !ok {
			continue
		}

		pos, ok := port.Position(symbol)
		if !ok {
			continue
		}

		switch {
		case pos.ShouldStopOut(bar.Close):
			if err := port.ClosePosition(symbol, bar.Close, date, types.ExitReasonStopLoss); err != nil {
				return err
			}
		case pos.ShouldTakeProfit(bar.Close):
			if err := port.ClosePosition(symbol, bar.Close, date, types.ExitReasonTakeProfit); err != nil {
				return err
			}
		}
	}

	return nil
}

// signalPass applies the date's strategy signals: buys open new long
// positions, sells close existing ones. Symbols without a bar on this date
// are skipped.
func (e *Engine) signalPass(port *portfolio.Portfolio, data map[string]*symbolData, date time.Time) error {
	for _, symbol := range sortedSymbols(data) {
		sd := data[symbol]

		bar, ok := sd.barsByDate[date]
		if !ok {
			continue
		}

		switch sd.signalsByDate[date] {
		case types.SignalTypeBuy:
			if _, open := port.Position(symbol); open {
				continue
			}

			if _, err := port.OpenPosition(symbol, bar.Close, date); err != nil {
				return err
			}
		case types.SignalTypeSell:
			if _, open := port.Position(symbol); !open {
				continue
			}

			if err := port.ClosePosition(symbol, bar.Close, date, types.ExitReasonSignal); err != nil {
				return err
			}
		}
	}

	return nil
}

func (e *Engine) buildResult(strat strategy.Strategy, port *portfolio.Portfolio, dates []time.Time) *types.BacktestResult {
	var dateRange types.DateRange
	if len(dates) > 0 {
		dateRange = types.DateRange{Start: dates[0], End: dates[len(dates)-1]}
	}

	metrics := analyzer.Analyze(e.config.InitialCapital, port.EquityCurve(), port.TradeLog())

	result := &types.BacktestResult{
		ID:               uuid.New().String(),
		Strategy:         strat.Name(),
		Params:           e.config.StrategyParams,
		Symbols:          e.config.Symbols,
		DateRange:        dateRange,
		InitialCapital:   e.config.InitialCapital,
		FinalEquity:      metrics.FinalEquity,
		TotalReturn:      metrics.TotalReturn,
		AnnualizedReturn: metrics.AnnualizedReturn,
		SharpeRatio:      metrics.SharpeRatio,
		MaxDrawdown:      metrics.MaxDrawdown,
		WinRate:          metrics.WinRate,
		TradeLog:         port.TradeLog(),
		EquityCurve:      port.EquityCurve(),
	}

	e.logger.Info("backtest finished",
		zap.String("run_id", result.ID),
		zap.Float64("final_equity", result.FinalEquity),
		zap.Float64("total_return", result.TotalReturn),
		zap.Int("trades", len(result.TradeLog)))

	return result
}

func sortedSymbols(data map[string]*symbolData) []string {
	symbols := make([]string, 0, len(data))
	for symbol := range data {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}
