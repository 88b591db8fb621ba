package calculate

import (
	"math"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

// calculateBollingerBands calculates Bollinger Bands
func calculateBollingerBands(candles []models.Candle, period int, stdDev float64) models.BollingerBands {
	if len(candles) == 0 {
		return models.BollingerBands{}
	}
	if len(candles) < period {
		last := candles[len(candles)-1].Close
		return models.BollingerBands{Upper: bounded(last * 1.02), Middle: last, Lower: last * 0.98}
	}

	window := closes(candles[len(candles)-period:])
	middle := calculateAverage(window)

	var variance float64
	for _, c := range window {
		variance += (c - middle) * (c - middle)
	}
	sd := math.Sqrt(variance / float64(period))

	return models.BollingerBands{
		Upper:  middle + (sd * stdDev),
		Middle: middle,
		Lower:  middle - (sd * stdDev),
	}
}
