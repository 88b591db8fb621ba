package calculate

import "github.com/Liam-wats/SmartMoneyTrader-sub000/models"

const (
	rsiPeriod        = 14
	shortMAPeriod    = 20
	longMAPeriod     = 50
	bbPeriod         = 20
	bbStdDev         = 2.0
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
	stochKPeriod     = 14
	stochDPeriod     = 3
	atrPeriod        = 14
)

// ComputeIndicators calculates the indicator snapshot for the last candle of
// the window. Indicators without enough history fall back to their defaults
// so the snapshot is always complete and finite.
func ComputeIndicators(candles []models.Candle) models.IndicatorSnapshot {
	prices := closes(candles)
	last := 0.0
	if len(prices) > 0 {
		last = prices[len(prices)-1]
	}

	bb := calculateBollingerBands(candles, bbPeriod, bbStdDev)
	macd := calculateMACD(candles, macdFastPeriod, macdSlowPeriod, macdSignalPeriod)
	stoch := calculateStochastic(candles, stochKPeriod, stochDPeriod)

	return models.IndicatorSnapshot{
		RSI:   finite(calculateRSI(candles, rsiPeriod), defaultRSI),
		SMA20: finite(SMA(prices, shortMAPeriod), last),
		SMA50: finite(SMA(prices, longMAPeriod), last),
		EMA20: finite(EMA(prices, shortMAPeriod), last),
		EMA50: finite(EMA(prices, longMAPeriod), last),
		Bollinger: models.BollingerBands{
			Upper:  finite(bb.Upper, last*1.02),
			Middle: finite(bb.Middle, last),
			Lower:  finite(bb.Lower, last*0.98),
		},
		MACD: models.MACD{
			Value:     finite(macd.Value, 0),
			Signal:    finite(macd.Signal, 0),
			Histogram: finite(macd.Histogram, 0),
		},
		Stochastic: models.Stochastic{
			K: finite(stoch.K, defaultStochastic),
			D: finite(stoch.D, defaultStochastic),
		},
		ATR: finite(calculateATR(candles, atrPeriod), defaultATR),
	}
}
