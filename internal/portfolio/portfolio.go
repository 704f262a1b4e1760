package portfolio

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stratlab/backtest-go/internal/logger"
	"github.com/stratlab/backtest-go/internal/types"
	"github.com/stratlab/backtest-go/pkg/errors"
)

// Config holds the sizing and cost parameters of a portfolio.
type Config struct {
	InitialCapital  float64
	PositionSizePct float64
	CommissionPct   float64
	MaxPositions    int
	StopLossPct     optional.Option[float64]
	TakeProfitPct   optional.Option[float64]
}

// Portfolio is the single mutable accounting entity of a run. It holds cash,
// at most one open position per symbol, the realized trade log, and the
// equity curve. It is not safe for concurrent use.
type Portfolio struct {
	config Config
	logger *logger.Logger

	cash   decimal.Decimal
	open   map[string]*Position
	closed []*Position

	tradeLog    []types.TradeRecord
	equityCurve []types.EquityPoint
}

// NewPortfolio creates a portfolio holding the full initial capital in cash.
func NewPortfolio(config Config, log *logger.Logger) (*Portfolio, error) {
	if config.InitialCapital <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "initial capital must be positive, got %f", config.InitialCapital)
	}
	if config.PositionSizePct <= 0 || config.PositionSizePct > 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "position size must be in (0, 1], got %f", config.PositionSizePct)
	}
	if config.CommissionPct < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "commission must not be negative, got %f", config.CommissionPct)
	}

	return &Portfolio{
		config: config,
		logger: log,
		cash:   decimal.NewFromFloat(config.InitialCapital),
		open:   make(map[string]*Position),
	}, nil
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 {
	f, _ := p.cash.Float64()
	return f
}

// Position returns the open position for a symbol, if any.
func (p *Portfolio) Position(symbol string) (*Position, bool) {
	pos, ok := p.open[symbol]
	return pos, ok
}

// OpenSymbols returns the symbols with open positions in sorted order, so
// callers iterate deterministically.
func (p *Portfolio) OpenSymbols() []string {
	symbols := make([]string, 0, len(p.open))
	for symbol := range p.open {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}

// ClosedPositions returns all closed positions in closing order.
func (p *Portfolio) ClosedPositions() []*Position {
	return p.closed
}

// TradeLog returns the realized trade records in execution order.
func (p *Portfolio) TradeLog() []types.TradeRecord {
	return p.tradeLog
}

// EquityCurve returns the recorded equity marks in chronological order.
func (p *Portfolio) EquityCurve() []types.EquityPoint {
	return p.equityCurve
}

// CalculateShares returns the whole number of shares the sizing rule buys at
// the given price: the floor of cash times the position size fraction over
// the price. Zero means the trade is skipped.
func (p *Portfolio) CalculateShares(price float64) int64 {
	if price <= 0 {
		return 0
	}

	budget := p.cash.Mul(decimal.NewFromFloat(p.config.PositionSizePct))

	return budget.Div(decimal.NewFromFloat(price)).IntPart()
}

// OpenPosition opens a long position at the given price. The boolean reports
// whether a position was actually opened: sizing to zero shares, hitting the
// max position limit, or lacking the cash for the commission-inclusive cost
// all decline the trade without error. Opening on a symbol that already has
// an open position is a contract violation and returns an error.
func (p *Portfolio) OpenPosition(symbol string, price float64, date time.Time) (bool, error) {
	if _, exists := p.open[symbol]; exists {
		return false, errors.Newf(errors.ErrCodePositionAlreadyOpen, "symbol %s already has an open position", symbol)
	}

	if p.config.MaxPositions > 0 && len(p.open) >= p.config.MaxPositions {
		p.logger.Debug("position limit reached, skipping entry",
			zap.String("symbol", symbol),
			zap.Int("max_positions", p.config.MaxPositions))
		return false, nil
	}

	shares := p.CalculateShares(price)
	if shares == 0 {
		p.logger.Warn("insufficient capital for a single share, skipping entry",
			zap.String("symbol", symbol),
			zap.Float64("price", price),
			zap.String("cash", p.cash.String()))
		return false, nil
	}

	// Total debit is the notional plus commission, computed exactly.
	notional := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(shares))
	cost := notional.Mul(decimal.NewFromFloat(1).Add(decimal.NewFromFloat(p.config.CommissionPct)))
	if cost.GreaterThan(p.cash) {
		p.logger.Warn("insufficient capital for sized entry, skipping",
			zap.String("symbol", symbol),
			zap.String("cost", cost.String()),
			zap.String("cash", p.cash.String()))
		return false, nil
	}

	pos, err := NewPosition(symbol, shares, price, date, p.config.StopLossPct, p.config.TakeProfitPct)
	if err != nil {
		return false, err
	}

	p.cash = p.cash.Sub(cost)
	p.open[symbol] = pos

	value, _ := notional.Float64()
	p.tradeLog = append(p.tradeLog, types.TradeRecord{
		Date:   date,
		Symbol: symbol,
		Action: types.SignalTypeBuy,
		Price:  price,
		Shares: shares,
		Value:  value,
	})

	p.logger.Info("opened position",
		zap.String("symbol", symbol),
		zap.Int64("shares", shares),
		zap.Float64("price", price))

	return true, nil
}

// ClosePosition closes the open position for a symbol at the given price,
// crediting the commission-adjusted proceeds back to cash. Closing a symbol
// with no open position is a contract violation.
func (p *Portfolio) ClosePosition(symbol string, price float64, date time.Time, reason types.ExitReason) error {
	pos, ok := p.open[symbol]
	if !ok {
		return errors.Newf(errors.ErrCodePositionAlreadyClosed, "symbol %s has no open position", symbol)
	}

	pnl, err := pos.Close(price, date, reason)
	if err != nil {
		return err
	}

	absShares := pos.Shares
	if absShares < 0 {
		absShares = -absShares
	}

	notional := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(absShares))
	proceeds := notional.Mul(decimal.NewFromFloat(1).Sub(decimal.NewFromFloat(p.config.CommissionPct)))

	p.cash = p.cash.Add(proceeds)
	delete(p.open, symbol)
	p.closed = append(p.closed, pos)

	value, _ := notional.Float64()
	p.tradeLog = append(p.tradeLog, types.TradeRecord{
		Date:   date,
		Symbol: symbol,
		Action: types.SignalTypeSell,
		Price:  price,
		Shares: absShares,
		Value:  value,
		PnL:    optional.Some(pnl),
		Reason: reason,
	})

	p.logger.Info("closed position",
		zap.String("symbol", symbol),
		zap.Float64("price", price),
		zap.Float64("pnl", pnl),
		zap.String("reason", string(reason)))

	return nil
}

// UpdateEquity records one equity mark: cash plus every open position valued
// at its symbol's latest close. Symbols without a mark keep their positions
// out of the sum for that date. Marking a date that already holds the latest
// point overwrites it, so the curve keeps exactly one point per date.
func (p *Portfolio) UpdateEquity(date time.Time, marks map[string]float64) {
	equity := p.cash
	for _, symbol := range p.OpenSymbols() {
		mark, ok := marks[symbol]
		if !ok {
			continue
		}

		equity = equity.Add(p.open[symbol].MarketValue(mark))
	}

	value, _ := equity.Float64()
	point := types.EquityPoint{
		Date:   date,
		Equity: value,
	}

	if n := len(p.equityCurve); n > 0 && p.equityCurve[n-1].Date.Equal(date) {
		p.equityCurve[n-1] = point
		return
	}

	p.equityCurve = append(p.equityCurve, point)
}

// Equity returns the latest recorded equity mark, or the initial capital if
// none has been recorded yet.
func (p *Portfolio) Equity() float64 {
	if len(p.equityCurve) == 0 {
		return p.config.InitialCapital
	}

	return p.equityCurve[len(p.equityCurve)-1].Equity
}
