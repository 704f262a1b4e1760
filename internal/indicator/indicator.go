// Package indicator provides rolling-series calculations used by the trading
// strategies. All functions return a slice aligned with the input where
// entries without enough history are NaN.
package indicator

import "math"

// Undefined is the placeholder for series entries that lack enough history.
var Undefined = math.NaN()

// Defined reports whether a series value carries a real number.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

// SMA computes the simple moving average of values over the given period.
func SMA(values []float64, period int) []float64 {
	out := undefinedSeries(len(values))
	if period < 1 || len(values) < period {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}

		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}

	return out
}

// EMA computes the exponential moving average of values over the given
// period. The first defined entry is seeded with the SMA of the first full
// window; subsequent entries use the standard 2/(period+1) multiplier.
// Leading undefined input entries are skipped, so EMA composes with other
// indicator outputs such as the MACD line.
func EMA(values []float64, period int) []float64 {
	out := undefinedSeries(len(values))
	if period < 1 {
		return out
	}

	start := 0
	for start < len(values) && !Defined(values[start]) {
		start++
	}

	if len(values)-start < period {
		return out
	}

	sum := 0.0
	for i := start; i < start+period; i++ {
		sum += values[i]
	}

	ema := sum / float64(period)
	out[start+period-1] = ema

	multiplier := 2.0 / (float64(period) + 1.0)
	for i := start + period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out[i] = ema
	}

	return out
}

// RSI computes the Relative Strength Index from rolling average gain and
// loss over the given period, using Wilder's smoothing. The first defined
// entry is at index period.
func RSI(values []float64, period int) []float64 {
	out := undefinedSeries(len(values))
	if period < 1 || len(values) < period+1 {
		return out
	}

	avgGain := 0.0
	avgLoss := 0.0

	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFromAverages(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]

		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}

	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		// Perfect uptrend
		return 100
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs))
}

// MACD computes the MACD line (fast EMA minus slow EMA) and its signal line
// (EMA of the MACD line over signalPeriod).
func MACD(values []float64, fastPeriod, slowPeriod, signalPeriod int) (macdLine, signalLine []float64) {
	fast := EMA(values, fastPeriod)
	slow := EMA(values, slowPeriod)

	macdLine = undefinedSeries(len(values))
	for i := range values {
		if Defined(fast[i]) && Defined(slow[i]) {
			macdLine[i] = fast[i] - slow[i]
		}
	}

	signalLine = EMA(macdLine, signalPeriod)

	return macdLine, signalLine
}

// BollingerBands computes the middle (SMA), upper, and lower bands over the
// given window, with the band width of numStd population standard deviations.
func BollingerBands(values []float64, window int, numStd float64) (middle, upper, lower []float64) {
	middle = SMA(values, window)
	upper = undefinedSeries(len(values))
	lower = undefinedSeries(len(values))

	if window < 1 {
		return middle, upper, lower
	}

	for i := window - 1; i < len(values); i++ {
		if !Defined(middle[i]) {
			continue
		}

		variance := 0.0
		for j := i - window + 1; j <= i; j++ {
			diff := values[j] - middle[i]
			variance += diff * diff
		}

		stdDev := math.Sqrt(variance / float64(window))
		upper[i] = middle[i] + numStd*stdDev
		lower[i] = middle[i] - numStd*stdDev
	}

	return middle, upper, lower
}

func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = Undefined
	}

	return out
}
