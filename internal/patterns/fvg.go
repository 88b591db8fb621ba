package patterns

import (
	"fmt"
	"math"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

// detectFVG finds three-candle imbalances where c1 and c3 do not overlap
func (d *Detector) detectFVG(candles []models.Candle) []models.Pattern {
	var out []models.Pattern

	for i := 2; i < len(candles); i++ {
		c1, c2, c3 := candles[i-2], candles[i-1], candles[i]

		var dir models.Direction
		var top, bottom float64
		switch {
		case c1.High < c3.Low && c2.IsBullish():
			dir, top, bottom = models.Bullish, c3.Low, c1.High
		case c1.Low > c3.High && c2.IsBearish():
			dir, top, bottom = models.Bearish, c1.Low, c3.High
		default:
			continue
		}

		mid := (top + bottom) / 2
		gapPct := (top - bottom) / mid * 100

		out = append(out, models.Pattern{
			Kind:           models.PatternFVG,
			Direction:      dir,
			ReferencePrice: mid,
			Confidence:     fvgConfidence(gapPct),
			Description:    fmt.Sprintf("%s FVG %.5f-%.5f (%.3f%%)", dir, bottom, top, gapPct),
			Timestamp:      c3.Timestamp,
		})
	}

	return out
}

func fvgConfidence(gapPct float64) float64 {
	confidence := 0.4
	if gapPct >= 0.05 {
		confidence += 0.2
	}
	if gapPct >= 0.1 {
		confidence += 0.15
	}
	if gapPct >= 0.2 {
		confidence += 0.1
	}
	return math.Min(confidence, 0.9)
}
