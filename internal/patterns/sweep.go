package patterns

import (
	"fmt"
	"math"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

// detectLiquiditySweeps finds wicks through clustered equal highs or lows
// that close back inside the level. The sweep points the other way.
func (d *Detector) detectLiquiditySweeps(candles []models.Candle) []models.Pattern {
	lookback := d.cfg.SweepLookback
	var out []models.Pattern

	for i := lookback; i < len(candles); i++ {
		c := candles[i]
		window := candles[i-lookback : i]
		tol := d.tolerance(c.Close)

		// Highest equal-high level pierced and closed below
		if level, ok := sweptLevel(window, tol, c, true); ok {
			wick := c.High - math.Max(c.Open, c.Close)
			out = append(out, d.sweepPattern(candles, i, models.Bearish, level, wick))
		}
		// Lowest equal-low level pierced and closed above
		if level, ok := sweptLevel(window, tol, c, false); ok {
			wick := math.Min(c.Open, c.Close) - c.Low
			out = append(out, d.sweepPattern(candles, i, models.Bullish, level, wick))
		}
	}

	return out
}

func (d *Detector) sweepPattern(candles []models.Candle, i int, dir models.Direction, level, wick float64) models.Pattern {
	c := candles[i]
	confidence := 0.5
	if body := c.Body(); body == 0 || wick/body > 2 {
		confidence += 0.2
	}
	if i+1 < len(candles) {
		next := candles[i+1]
		if (dir == models.Bearish && next.IsBearish()) || (dir == models.Bullish && next.IsBullish()) {
			confidence += 0.2
		}
	}

	side := "lows"
	if dir == models.Bearish {
		side = "highs"
	}
	return models.Pattern{
		Kind:           models.PatternLiquiditySweep,
		Direction:      dir,
		ReferencePrice: level,
		Confidence:     confidence,
		Description:    fmt.Sprintf("%s liquidity sweep of equal %s at %.5f", dir, side, level),
		Timestamp:      c.Timestamp,
	}
}

// sweptLevel finds the equal-high (or equal-low) level in window that c
// pierces with its wick while closing back inside
func sweptLevel(window []models.Candle, tol float64, c models.Candle, highs bool) (float64, bool) {
	best, found := 0.0, false
	eps := tol * 1e-9

	for j := 0; j < len(window); j++ {
		for k := j + 1; k < len(window); k++ {
			if highs {
				a, b := window[j].High, window[k].High
				if math.Abs(a-b) > tol+eps {
					continue
				}
				level := math.Max(a, b)
				if c.High > level && c.Close < level && (!found || level > best) {
					best, found = level, true
				}
				continue
			}

			a, b := window[j].Low, window[k].Low
			if math.Abs(a-b) > tol+eps {
				continue
			}
			level := math.Min(a, b)
			if c.Low < level && c.Close > level && (!found || level < best) {
				best, found = level, true
			}
		}
	}

	return best, found
}
