// Package strategy defines the Strategy interface for signal generation and
// a Registry of the built-in strategy variants. Strategies are pure functions
// of bar history: they never touch the portfolio and can be evaluated for
// different symbols independently.
package strategy

import (
	"sort"

	"github.com/stratlab/backtest-go/internal/types"
	"github.com/stratlab/backtest-go/pkg/errors"
)

// Strategy maps a bar history to one signal per bar. Implementations must
// return types.SignalTypeHold (not an error) for bars without enough history.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string
	// MinBars returns the minimum history length before the strategy can
	// produce a non-hold signal.
	MinBars() int
	// GenerateSignals returns exactly one signal per input bar. The input
	// must be a single symbol's bars in chronological order.
	GenerateSignals(bars []types.Bar) []types.Signal
}

// Factory builds a strategy instance from raw configuration parameters.
type Factory func(params map[string]any) (Strategy, error)

// Registry holds named strategy factories for lookup and enumeration.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a registry pre-populated with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
	}

	r.factories[StrategyNameMACrossover] = NewMACrossover
	r.factories[StrategyNameRSI] = NewRSI
	r.factories[StrategyNameMACD] = NewMACD
	r.factories[StrategyNameBollingerBands] = NewBollingerBands

	return r
}

// Register adds a strategy factory under the given name.
func (r *Registry) Register(name string, factory Factory) error {
	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrCodeStrategyAlreadyExists, "strategy %q is already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// Create builds a strategy by name with the given parameters. Unknown names
// are reported before any simulation can start.
func (r *Registry) Create(name string, params map[string]any) (Strategy, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "unknown strategy %q", name)
	}

	return factory(params)
}

// Names returns the sorted names of all registered strategies.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// intParam extracts an integer parameter, tolerating the numeric types YAML
// and JSON decoders produce.
func intParam(params map[string]any, key string, fallback int) (int, error) {
	raw, ok := params[key]
	if !ok {
		return fallback, nil
	}

	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, errors.Newf(errors.ErrCodeStrategyInvalidParams, "parameter %q must be an integer, got %T", key, raw)
	}
}

// floatParam extracts a float parameter, tolerating integer-typed input.
func floatParam(params map[string]any, key string, fallback float64) (float64, error) {
	raw, ok := params[key]
	if !ok {
		return fallback, nil
	}

	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, errors.Newf(errors.ErrCodeStrategyInvalidParams, "parameter %q must be a number, got %T", key, raw)
	}
}

// closePrices extracts the close series from a bar history.
func closePrices(bars []types.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	return closes
}

// holdSignals pre-fills a signal slice with one hold per bar.
func holdSignals(bars []types.Bar) []types.Signal {
	signals := make([]types.Signal, len(bars))
	for i, bar := range bars {
		signals[i] = types.Signal{
			Time:   bar.Time,
			Symbol: bar.Symbol,
			Type:   types.SignalTypeHold,
		}
	}

	return signals
}
