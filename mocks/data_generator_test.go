package mocks

import (
	"testing"
	"time"
)

func TestDataGeneratorGenerate(t *testing.T) {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 100

	bars := gen.Generate(config)

	if len(bars) != 100 {
		t.Fatalf("expected 100 bars, got %d", len(bars))
	}

	for i, bar := range bars {
		if err := bar.Validate(); err != nil {
			t.Errorf("bar %d is invalid: %v", i, err)
		}

		if i > 0 && !bars[i-1].Time.Before(bar.Time) {
			t.Errorf("bar %d is not after its predecessor", i)
		}
	}
}

func TestDataGeneratorIsDeterministic(t *testing.T) {
	config := DefaultConfig()
	config.Count = 50

	first := NewDataGenerator(7).Generate(config)
	second := NewDataGenerator(7).Generate(config)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("bar %d differs between identically seeded runs", i)
		}
	}
}

func TestDataGeneratorDailyStep(t *testing.T) {
	config := DefaultConfig()
	config.Count = 10
	config.StartDate = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	bars := NewDataGenerator(1).Generate(config)

	for i, bar := range bars {
		want := config.StartDate.AddDate(0, 0, i)
		if !bar.Time.Equal(want) {
			t.Errorf("bar %d: expected %v, got %v", i, want, bar.Time)
		}
	}
}

func TestGenerateMultiSymbol(t *testing.T) {
	gen := NewDataGenerator(42)
	config := DefaultConfig()
	config.Count = 20

	series := gen.GenerateMultiSymbol([]string{"AAPL", "MSFT"}, config)

	if len(series) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(series))
	}

	for symbol, bars := range series {
		if len(bars) != 20 {
			t.Errorf("%s: expected 20 bars, got %d", symbol, len(bars))
		}
		for _, bar := range bars {
			if bar.Symbol != symbol {
				t.Errorf("%s: bar tagged %s", symbol, bar.Symbol)
			}
		}
	}
}
