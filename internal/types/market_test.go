package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stratlab/backtest-go/pkg/errors"
)

func validBar() Bar {
	return Bar{
		Symbol: "AAPL",
		Time:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Open:   100,
		High:   105,
		Low:    98,
		Close:  103,
		Volume: 1_000_000,
	}
}

func TestBarValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Bar)
		wantErr bool
	}{
		{
			name:    "valid bar",
			modify:  func(b *Bar) {},
			wantErr: false,
		},
		{
			name:    "doji bar with equal open and close",
			modify:  func(b *Bar) { b.Open, b.Close = 100, 100 },
			wantErr: false,
		},
		{
			name:    "high below close",
			modify:  func(b *Bar) { b.High = 102 },
			wantErr: true,
		},
		{
			name:    "low above open",
			modify:  func(b *Bar) { b.Low = 101 },
			wantErr: true,
		},
		{
			name:    "non-positive price",
			modify:  func(b *Bar) { b.Close = 0 },
			wantErr: true,
		},
		{
			name:    "negative volume",
			modify:  func(b *Bar) { b.Volume = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := validBar()
			tt.modify(&bar)

			err := bar.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, errors.ErrCodeInvalidBar, errors.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBarDate(t *testing.T) {
	bar := validBar()
	bar.Time = time.Date(2024, 3, 15, 20, 30, 0, 0, time.FixedZone("EST", -5*3600))

	// 20:30 EST on March 15 is March 16 in UTC
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), bar.Date())
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2024, 6, 1, 15, 45, 12, 999, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), DateOf(ts))
}
