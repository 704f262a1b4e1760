// Package datasource provides historical bar data to the engine. Providers
// return each symbol's bars in chronological order; the engine never assumes
// symbols share a calendar.
package datasource

import (
	"time"

	"github.com/stratlab/backtest-go/internal/types"
)

// BarProvider serves the bar history for one symbol over a closed date range.
type BarProvider interface {
	// GetBars returns the bars for symbol with timestamps inside
	// [start, end], sorted chronologically. A symbol with no data in the
	// range yields an empty slice, not an error.
	GetBars(symbol string, start, end time.Time) ([]types.Bar, error)
}
