package patterns

import (
	"fmt"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

const continuationCandles = 3

// detectBOS finds closes beyond the range of the preceding lookback candles
func (d *Detector) detectBOS(candles []models.Candle) []models.Pattern {
	lookback := d.cfg.BOSLookback
	var out []models.Pattern

	for i := lookback; i < len(candles); i++ {
		prevHigh, prevLow := candles[i-lookback].High, candles[i-lookback].Low
		var volSum float64
		for j := i - lookback; j < i; j++ {
			if candles[j].High > prevHigh {
				prevHigh = candles[j].High
			}
			if candles[j].Low < prevLow {
				prevLow = candles[j].Low
			}
			volSum += candles[j].Volume
		}

		c := candles[i]
		var dir models.Direction
		var level float64
		switch {
		case c.Close > prevHigh:
			dir, level = models.Bullish, prevHigh
		case c.Close < prevLow:
			dir, level = models.Bearish, prevLow
		default:
			continue
		}

		confidence := 0.5
		if ratio := bodyRatio(c); ratio > 0.6 {
			confidence += 0.2 * ratio
		}
		if avgVol := volSum / float64(lookback); avgVol > 0 && c.Volume > 1.5*avgVol {
			confidence += 0.15
		}
		confidence += 0.2 * continuation(candles, i, dir)

		out = append(out, models.Pattern{
			Kind:           models.PatternBOS,
			Direction:      dir,
			ReferencePrice: level,
			Confidence:     confidence,
			Description:    fmt.Sprintf("%s BOS: close %.5f broke %d-candle level %.5f", dir, c.Close, lookback, level),
			Timestamp:      c.Timestamp,
		})
	}

	return out
}

// continuation returns the share of the following candles that kept closing in dir
func continuation(candles []models.Candle, i int, dir models.Direction) float64 {
	count := 0
	for j := i + 1; j <= i+continuationCandles && j < len(candles); j++ {
		if dir == models.Bullish && candles[j].Close > candles[j-1].Close {
			count++
		}
		if dir == models.Bearish && candles[j].Close < candles[j-1].Close {
			count++
		}
	}
	return float64(count) / continuationCandles
}
