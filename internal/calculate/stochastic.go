package calculate

import "github.com/Liam-wats/SmartMoneyTrader-sub000/models"

const defaultStochastic = 50.0

func calculateStochastic(candles []models.Candle, kPeriod, dPeriod int) models.Stochastic {
	if len(candles) < kPeriod {
		return models.Stochastic{K: defaultStochastic, D: defaultStochastic} // Default values if not enough data
	}

	last := len(candles) - 1
	k := stochasticK(candles, last, kPeriod)

	// %D is the simple average of the most recent %K values
	var kSum float64
	count := 0
	for idx := last; idx > last-dPeriod && idx >= kPeriod-1; idx-- {
		kSum += stochasticK(candles, idx, kPeriod)
		count++
	}

	return models.Stochastic{K: k, D: kSum / float64(count)}
}

// stochasticK computes %K for the candle at idx
func stochasticK(candles []models.Candle, idx, kPeriod int) float64 {
	highest := candles[idx].High
	lowest := candles[idx].Low
	for i := idx - kPeriod + 1; i < idx; i++ {
		if candles[i].High > highest {
			highest = candles[i].High
		}
		if candles[i].Low < lowest {
			lowest = candles[i].Low
		}
	}

	if highest-lowest <= 0 {
		return defaultStochastic // If no range, default to middle
	}
	return ((candles[idx].Close - lowest) / (highest - lowest)) * 100
}
