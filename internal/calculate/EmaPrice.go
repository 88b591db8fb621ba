package calculate

// EMA returns the exponential moving average of prices seeded with the SMA
// of the first period values. Shorter series return the last price.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || len(prices) < period {
		return prices[len(prices)-1] // Return last price if not enough data
	}

	series := emaSeries(prices, period)
	return series[len(series)-1]
}

// emaSeries returns the EMA for every index from period-1 onward
func emaSeries(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}

	sma := calculateAverage(prices[:period])
	multiplier := 2.0 / float64(period+1)

	out := make([]float64, 0, len(prices)-period+1)
	ema := sma
	out = append(out, ema)
	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		out = append(out, ema)
	}

	return out
}
