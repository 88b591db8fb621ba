package patterns

import (
	"fmt"
	"math"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

const rangeWindow = 20

// detectOrderBlocks finds strong candles whose far side is closed through
// within the next OrderBlockWindow candles. A bearish candle taken out to the
// upside leaves a bullish block and vice versa.
func (d *Detector) detectOrderBlocks(candles []models.Candle) []models.Pattern {
	var out []models.Pattern

	for i, c := range candles {
		r := c.Range()
		if r <= 0 || bodyRatio(c) <= d.cfg.OrderBlockBodyRatio {
			continue
		}

		end := min(len(candles)-1, i+d.cfg.OrderBlockWindow)
		var dir models.Direction
		var ref, penetration float64
		for j := i + 1; j <= end; j++ {
			if c.IsBearish() && candles[j].Close > c.High {
				dir, ref, penetration = models.Bullish, c.Low, candles[j].Close-c.High
				break
			}
			if c.IsBullish() && candles[j].Close < c.Low {
				dir, ref, penetration = models.Bearish, c.High, c.Low-candles[j].Close
				break
			}
		}
		if dir == models.Neutral {
			continue
		}

		pos := rangePosition(candles[max(0, i-rangeWindow+1):i+1], ref)
		placement := 1 - pos // demand blocks are better near the range low
		if dir == models.Bearish {
			placement = pos
		}

		confidence := 0.5 + 0.2*math.Min(1, penetration/r) + 0.2*placement

		out = append(out, models.Pattern{
			Kind:           models.PatternOrderBlock,
			Direction:      dir,
			ReferencePrice: ref,
			Confidence:     confidence,
			Description:    fmt.Sprintf("%s order block %.5f-%.5f", dir, c.Low, c.High),
			Timestamp:      c.Timestamp,
		})
	}

	return out
}

// rangePosition places price in the window's high-low range, 0 at the low and 1 at the high
func rangePosition(window []models.Candle, price float64) float64 {
	lo, hi := window[0].Low, window[0].High
	for _, c := range window[1:] {
		lo = math.Min(lo, c.Low)
		hi = math.Max(hi, c.High)
	}
	if hi <= lo {
		return 0.5
	}
	return math.Max(0, math.Min(1, (price-lo)/(hi-lo)))
}
