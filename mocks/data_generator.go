package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/stratlab/backtest-go/internal/types"
)

// DataGenerator produces synthetic daily bar series for tests and benchmarks.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a generator. Use a fixed seed for reproducible
// series in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig controls the shape of a generated series.
type GeneratorConfig struct {
	Symbol string
	// StartDate is the date of the first bar; bars step forward daily.
	StartDate time.Time
	// Count is the number of bars to generate.
	Count int
	// InitialPrice is the first bar's open.
	InitialPrice float64
	// Volatility is the typical per-bar return magnitude (0.02 = 2%).
	Volatility float64
	// Trend is the total drift spread across the whole series.
	Trend float64
	// VolumeBase is the average volume per bar.
	VolumeBase float64
}

// DefaultConfig returns a neutral daily series configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "TEST",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Count:        252,
		InitialPrice: 100.0,
		Volatility:   0.02,
		Trend:        0.0,
		VolumeBase:   1_000_000,
	}
}

// Generate builds a bar series following geometric Brownian motion, so the
// prices move like a plausible equity while staying strictly positive and
// OHLC-consistent.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	price := config.InitialPrice
	date := config.StartDate

	for i := 0; i < config.Count; i++ {
		open := price

		// Box-Muller transform for a normally distributed return.
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)
		close := open * (1 + config.Volatility*z + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExt := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExt := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExt
		low := math.Min(open, close) - lowExt
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volume := config.VolumeBase * (0.7 + g.rng.Float64()*0.6)

		bars[i] = types.Bar{
			Symbol: config.Symbol,
			Time:   date,
			Open:   round4(open),
			High:   round4(high),
			Low:    round4(low),
			Close:  round4(close),
			Volume: math.Round(volume),
		}

		price = close
		date = date.AddDate(0, 0, 1)
	}

	return bars
}

// GenerateMultiSymbol builds one series per symbol, varying the starting
// price and volatility so the symbols do not move in lockstep.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, baseConfig GeneratorConfig) map[string][]types.Bar {
	series := make(map[string][]types.Bar, len(symbols))

	for _, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		series[symbol] = g.Generate(config)
	}

	return series
}

func round4(val float64) float64 {
	return math.Round(val*10000) / 10000
}
