package calculate

import (
	"math"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

const defaultATR = 0.001

// TrueRange is the greatest of high-low, |high-prevClose| and |low-prevClose|
func TrueRange(cur, prev models.Candle) float64 {
	highLow := cur.High - cur.Low
	highPrevClose := math.Abs(cur.High - prev.Close)
	lowPrevClose := math.Abs(cur.Low - prev.Close)
	return math.Max(highLow, math.Max(highPrevClose, lowPrevClose))
}

// calculateATR returns the mean true range of the last period candles
func calculateATR(candles []models.Candle, period int) float64 {
	if len(candles) < period+1 {
		return defaultATR
	}

	var sum float64
	for i := len(candles) - period; i < len(candles); i++ {
		sum += TrueRange(candles[i], candles[i-1])
	}

	return sum / float64(period)
}
