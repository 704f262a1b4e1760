package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/stratlab/backtest-go/pkg/errors"
)

// Bar is a single OHLCV record for one symbol and one period.
type Bar struct {
	Symbol string    `csv:"symbol" json:"symbol"`
	Time   time.Time `csv:"time" json:"time" validate:"required"`
	Open   float64   `csv:"open" json:"open" validate:"gt=0"`
	High   float64   `csv:"high" json:"high" validate:"gt=0"`
	Low    float64   `csv:"low" json:"low" validate:"gt=0"`
	Close  float64   `csv:"close" json:"close" validate:"gt=0"`
	Volume float64   `csv:"volume" json:"volume" validate:"gte=0"`
}

// Validate checks struct tags plus the OHLC ordering invariant:
// low <= min(open, close) <= max(open, close) <= high.
func (b *Bar) Validate() error {
	validate := validator.New()
	if err := validate.Struct(b); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidBar, "invalid bar", err)
	}

	lo, hi := b.Open, b.Close
	if lo > hi {
		lo, hi = hi, lo
	}

	if b.Low > lo || hi > b.High {
		return errors.Newf(errors.ErrCodeInvalidBar,
			"bar violates OHLC ordering: low=%f open=%f close=%f high=%f",
			b.Low, b.Open, b.Close, b.High)
	}

	return nil
}

// Date returns the bar's time truncated to a UTC calendar date. Bars on the
// same trading day compare equal regardless of intraday timestamp or zone.
func (b *Bar) Date() time.Time {
	return DateOf(b.Time)
}

// DateOf truncates t to a UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
