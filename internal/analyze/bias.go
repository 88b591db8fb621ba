package analyze

import (
	"math"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/calculate"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

// ComputeBias classifies the trend of the last window candles from moving
// average ordering and higher-high / lower-low counts. Shorter series are
// Neutral.
func ComputeBias(candles []models.Candle, window, swingStrength int) models.Bias {
	if window < 2 || len(candles) < window {
		return models.Bias{Direction: models.Neutral}
	}

	w := candles[len(candles)-window:]
	prices := make([]float64, len(w))
	for i, c := range w {
		prices[i] = c.Close
	}

	last := prices[len(prices)-1]
	fastMA := calculate.SMA(prices, window/2)
	slowMA := calculate.SMA(prices, window)

	bull, bear := 0, 0
	maAligned := 0.0
	if last > fastMA && fastMA > slowMA {
		bull += 2
		maAligned = 1
	} else if last < fastMA && fastMA < slowMA {
		bear += 2
		maAligned = 1
	}

	higherHighs, lowerLows := 0, 0
	for i := 1; i < len(w); i++ {
		if w[i].High > w[i-1].High {
			higherHighs++
		}
		if w[i].Low < w[i-1].Low {
			lowerLows++
		}
	}
	if higherHighs > lowerLows {
		bull++
	} else if lowerLows > higherHighs {
		bear++
	}

	swingHigh, swingLow := calculate.LatestSwingLevels(w, swingStrength)
	bias := models.Bias{SwingHigh: swingHigh, SwingLow: swingLow}

	structure := math.Abs(float64(higherHighs-lowerLows)) / float64(len(w)-1)
	confidence := math.Max(0, math.Min(1, 0.5*maAligned+0.5*structure))

	switch {
	case bull >= 2 && bull > bear:
		bias.Direction = models.Bullish
		bias.KeyLevel = swingLow
		bias.Confidence = confidence
	case bear >= 2 && bear > bull:
		bias.Direction = models.Bearish
		bias.KeyLevel = swingHigh
		bias.Confidence = confidence
	default:
		bias.Direction = models.Neutral
		bias.KeyLevel = swingLow
		if math.Abs(swingHigh-last) < math.Abs(last-swingLow) {
			bias.KeyLevel = swingHigh
		}
	}

	return bias
}
