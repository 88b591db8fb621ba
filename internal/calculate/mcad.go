package calculate

import "github.com/Liam-wats/SmartMoneyTrader-sub000/models"

func calculateMACD(candles []models.Candle, fastPeriod, slowPeriod, signalPeriod int) models.MACD {
	prices := closes(candles)

	// Cannot calculate MACD with insufficient data
	if len(prices) < slowPeriod+signalPeriod {
		return models.MACD{}
	}

	fast := emaSeries(prices, fastPeriod)
	slow := emaSeries(prices, slowPeriod)

	// Align both series on the slow EMA's first index
	offset := slowPeriod - fastPeriod
	macdHistory := make([]float64, len(slow))
	for i := range slow {
		macdHistory[i] = fast[i+offset] - slow[i]
	}

	macdLine := macdHistory[len(macdHistory)-1]
	signalLine := EMA(macdHistory, signalPeriod)

	return models.MACD{
		Value:     macdLine,
		Signal:    signalLine,
		Histogram: macdLine - signalLine,
	}
}
