package types

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"
)

// TradeRecord is an immutable trade-log entry. Consumers receive these
// snapshots instead of references to live positions.
type TradeRecord struct {
	Date   time.Time  `json:"date" yaml:"date"`
	Symbol string     `json:"symbol" yaml:"symbol"`
	Action SignalType `json:"action" yaml:"action"`
	Price  float64    `json:"price" yaml:"price"`
	Shares int64      `json:"shares" yaml:"shares"`
	// Value is the trade notional, price times absolute share count.
	Value float64 `json:"value" yaml:"value"`
	// PnL is set on closing trades only.
	PnL    optional.Option[float64] `json:"pnl" yaml:"pnl"`
	Reason ExitReason               `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// EquityPoint is one mark on the portfolio equity curve.
type EquityPoint struct {
	Date   time.Time `json:"date" yaml:"date"`
	Equity float64   `json:"equity" yaml:"equity"`
}

// DateRange is the simulated period of a backtest run.
type DateRange struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// BacktestResult is the immutable outcome of a single backtest run. It is
// produced once per run and never mutated afterwards.
type BacktestResult struct {
	ID               string         `json:"id" yaml:"id"`
	Strategy         string         `json:"strategy" yaml:"strategy"`
	Params           map[string]any `json:"params" yaml:"params"`
	Symbols          []string       `json:"symbols" yaml:"symbols"`
	DateRange        DateRange      `json:"date_range" yaml:"date_range"`
	InitialCapital   float64        `json:"initial_capital" yaml:"initial_capital"`
	FinalEquity      float64        `json:"final_equity" yaml:"final_equity"`
	TotalReturn      float64        `json:"total_return" yaml:"total_return"`
	AnnualizedReturn float64        `json:"annualized_return" yaml:"annualized_return"`
	SharpeRatio      float64        `json:"sharpe_ratio" yaml:"sharpe_ratio"`
	MaxDrawdown      float64        `json:"max_drawdown" yaml:"max_drawdown"`
	WinRate          float64        `json:"win_rate" yaml:"win_rate"`
	TradeLog         []TradeRecord  `json:"trade_log" yaml:"trade_log"`
	EquityCurve      []EquityPoint  `json:"equity_curve" yaml:"equity_curve"`
}

// Marshal produces the canonical serialized form; the result round-trips
// losslessly through UnmarshalResult.
func (r *BacktestResult) Marshal() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// UnmarshalResult decodes a serialized BacktestResult.
func UnmarshalResult(data []byte) (*BacktestResult, error) {
	var result BacktestResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backtest result: %w", err)
	}

	return &result, nil
}

// Summary is the condensed per-run view written next to the full result for
// human consumption.
type Summary struct {
	Strategy         string    `yaml:"strategy"`
	Symbols          []string  `yaml:"symbols"`
	DateRange        DateRange `yaml:"date_range"`
	InitialCapital   float64   `yaml:"initial_capital"`
	FinalEquity      float64   `yaml:"final_equity"`
	TotalReturn      float64   `yaml:"total_return"`
	AnnualizedReturn float64   `yaml:"annualized_return"`
	SharpeRatio      float64   `yaml:"sharpe_ratio"`
	MaxDrawdown      float64   `yaml:"max_drawdown"`
	WinRate          float64   `yaml:"win_rate"`
	TradeCount       int       `yaml:"trade_count"`
}

// Summarize builds the condensed view of a result.
func (r *BacktestResult) Summarize() Summary {
	return Summary{
		Strategy:         r.Strategy,
		Symbols:          r.Symbols,
		DateRange:        r.DateRange,
		InitialCapital:   r.InitialCapital,
		FinalEquity:      r.FinalEquity,
		TotalReturn:      r.TotalReturn,
		AnnualizedReturn: r.AnnualizedReturn,
		SharpeRatio:      r.SharpeRatio,
		MaxDrawdown:      r.MaxDrawdown,
		WinRate:          r.WinRate,
		TradeCount:       len(r.TradeLog),
	}
}

// WriteSummary marshals the summary to YAML and writes it to path.
func WriteSummary(path string, summary Summary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary to file: %w", err)
	}

	return nil
}
