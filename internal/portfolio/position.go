// Package portfolio tracks positions, cash, and the realized trade log for a
// single simulation run. All cash movements go through decimal arithmetic so
// commission accounting is exact.
package portfolio

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/stratlab/backtest-go/internal/types"
	"github.com/stratlab/backtest-go/pkg/errors"
)

// PositionStatus is the lifecycle state of a position.
type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "OPEN"
	PositionStatusClosed PositionStatus = "CLOSED"
)

// Position is a single holding from entry to exit. Shares are positive for
// long positions and negative for shorts. Once closed a position is terminal.
type Position struct {
	ID         string
	Symbol     string
	Shares     int64
	EntryPrice float64
	EntryDate  time.Time
	Status     PositionStatus

	// StopLoss and TakeProfit are absolute trigger prices, fixed at entry.
	StopLoss   optional.Option[float64]
	TakeProfit optional.Option[float64]

	ExitPrice  optional.Option[float64]
	ExitDate   optional.Option[time.Time]
	ExitReason optional.Option[types.ExitReason]
}

// NewPosition opens a position at the given entry price. Stop-loss and
// take-profit percentages, when provided, are converted to absolute trigger
// prices relative to the entry. For shorts the triggers mirror: the stop sits
// above the entry and the target below.
func NewPosition(symbol string, shares int64, entryPrice float64, entryDate time.Time, stopLossPct, takeProfitPct optional.Option[float64]) (*Position, error) {
	if shares == 0 {
		return nil, errors.New(errors.ErrCodeInvalidShares, "position must have a non-zero share count")
	}
	if entryPrice <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "entry price must be positive, got %f", entryPrice)
	}

	p := &Position{
		ID:         uuid.New().String(),
		Symbol:     symbol,
		Shares:     shares,
		EntryPrice: entryPrice,
		EntryDate:  entryDate,
		Status:     PositionStatusOpen,
	}

	direction := 1.0
	if shares < 0 {
		direction = -1.0
	}

	if pct, err := stopLossPct.Take(); err == nil {
		p.StopLoss = optional.Some(entryPrice * (1 - direction*pct))
	}
	if pct, err := takeProfitPct.Take(); err == nil {
		p.TakeProfit = optional.Some(entryPrice * (1 + direction*pct))
	}

	return p, nil
}

// Close transitions the position to its terminal state and returns the
// realized profit or loss, exclusive of commission. Closing twice is a
// contract violation.
func (p *Position) Close(exitPrice float64, exitDate time.Time, reason types.ExitReason) (float64, error) {
	if p.Status == PositionStatusClosed {
		return 0, errors.Newf(errors.ErrCodePositionAlreadyClosed, "position %s for %s is already closed", p.ID, p.Symbol)
	}

	p.Status = PositionStatusClosed
	p.ExitPrice = optional.Some(exitPrice)
	p.ExitDate = optional.Some(exitDate)
	p.ExitReason = optional.Some(reason)

	return p.PnL(exitPrice), nil
}

// PnL returns the profit or loss of the position marked at the given price,
// exclusive of commission. Works for open and closed positions alike.
func (p *Position) PnL(price float64) float64 {
	pnl := decimal.NewFromFloat(price).
		Sub(decimal.NewFromFloat(p.EntryPrice)).
		Mul(decimal.NewFromInt(p.Shares))

	f, _ := pnl.Float64()

	return f
}

// MarketValue returns the position's value marked at the given price.
func (p *Position) MarketValue(price float64) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(p.Shares))
}

// ShouldStopOut reports whether the given price has breached the stop-loss
// trigger. Longs stop out at or below the trigger, shorts at or above.
func (p *Position) ShouldStopOut(price float64) bool {
	trigger, err := p.StopLoss.Take()
	if err != nil {
		return false
	}

	if p.Shares > 0 {
		return price <= trigger
	}

	return price >= trigger
}

// ShouldTakeProfit reports whether the given price has reached the
// take-profit trigger.
func (p *Position) ShouldTakeProfit(price float64) bool {
	trigger, err := p.TakeProfit.Take()
	if err != nil {
		return false
	}

	if p.Shares > 0 {
		return price >= trigger
	}

	return price <= trigger
}
