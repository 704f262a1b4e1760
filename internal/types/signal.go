package types

import "time"

// SignalType is the discrete trade action suggested by a strategy for one bar.
type SignalType string

const (
	// SignalTypeBuy tells the engine to open a long position.
	SignalTypeBuy SignalType = "BUY"
	// SignalTypeSell tells the engine to close an existing position.
	SignalTypeSell SignalType = "SELL"
	// SignalTypeHold means no action.
	SignalTypeHold SignalType = "HOLD"
)

// Signal is one strategy decision for one symbol on one bar date.
type Signal struct {
	Time   time.Time  `json:"time"`
	Symbol string     `json:"symbol"`
	Type   SignalType `json:"type"`
}

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitReasonStopLoss      ExitReason = "stop_loss"
	ExitReasonTakeProfit    ExitReason = "take_profit"
	ExitReasonSignal        ExitReason = "signal"
	ExitReasonEndOfBacktest ExitReason = "end_of_backtest"
)
