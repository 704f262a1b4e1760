package portfolio

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratlab/backtest-go/internal/types"
	"github.com/stratlab/backtest-go/pkg/errors"
)

var entryDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestNewPositionSetsTriggers(t *testing.T) {
	pos, err := NewPosition("AAPL", 100, 200, entryDate,
		optional.Some(0.05), optional.Some(0.10))
	require.NoError(t, err)

	assert.Equal(t, PositionStatusOpen, pos.Status)
	assert.NotEmpty(t, pos.ID)

	stop, err := pos.StopLoss.Take()
	require.NoError(t, err)
	assert.InDelta(t, 190, stop, 1e-9)

	target, err := pos.TakeProfit.Take()
	require.NoError(t, err)
	assert.InDelta(t, 220, target, 1e-9)
}

func TestNewPositionShortMirrorsTriggers(t *testing.T) {
	pos, err := NewPosition("AAPL", -100, 200, entryDate,
		optional.Some(0.05), optional.Some(0.10))
	require.NoError(t, err)

	stop, err := pos.StopLoss.Take()
	require.NoError(t, err)
	assert.InDelta(t, 210, stop, 1e-9)

	target, err := pos.TakeProfit.Take()
	require.NoError(t, err)
	assert.InDelta(t, 180, target, 1e-9)
}

func TestNewPositionWithoutTriggers(t *testing.T) {
	pos, err := NewPosition("AAPL", 10, 50, entryDate, optional.None[float64](), optional.None[float64]())
	require.NoError(t, err)

	assert.True(t, pos.StopLoss.IsNone())
	assert.True(t, pos.TakeProfit.IsNone())
	assert.False(t, pos.ShouldStopOut(0.01))
	assert.False(t, pos.ShouldTakeProfit(1e9))
}

func TestNewPositionRejectsZeroShares(t *testing.T) {
	_, err := NewPosition("AAPL", 0, 50, entryDate, optional.None[float64](), optional.None[float64]())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidShares, errors.GetCode(err))
}

func TestCloseIsTerminal(t *testing.T) {
	pos, err := NewPosition("AAPL", 100, 200, entryDate, optional.None[float64](), optional.None[float64]())
	require.NoError(t, err)

	exitDate := entryDate.AddDate(0, 0, 10)
	pnl, err := pos.Close(210, exitDate, types.ExitReasonSignal)
	require.NoError(t, err)
	assert.InDelta(t, 1000, pnl, 1e-9)
	assert.Equal(t, PositionStatusClosed, pos.Status)

	reason, err := pos.ExitReason.Take()
	require.NoError(t, err)
	assert.Equal(t, types.ExitReasonSignal, reason)

	_, err = pos.Close(220, exitDate, types.ExitReasonSignal)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePositionAlreadyClosed, errors.GetCode(err))
}

func TestStopOutAndTakeProfitBoundaries(t *testing.T) {
	pos, err := NewPosition("AAPL", 100, 200, entryDate,
		optional.Some(0.05), optional.Some(0.10))
	require.NoError(t, err)

	// Triggers fire at the boundary, not only beyond it.
	assert.True(t, pos.ShouldStopOut(190))
	assert.False(t, pos.ShouldStopOut(190.01))
	assert.True(t, pos.ShouldTakeProfit(220))
	assert.False(t, pos.ShouldTakeProfit(219.99))
}

func TestShortPositionPnL(t *testing.T) {
	pos, err := NewPosition("AAPL", -50, 100, entryDate, optional.None[float64](), optional.None[float64]())
	require.NoError(t, err)

	assert.InDelta(t, 500, pos.PnL(90), 1e-9)
	assert.InDelta(t, -500, pos.PnL(110), 1e-9)
}
