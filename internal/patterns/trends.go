package patterns

import (
	"fmt"
	"math"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

// ClassifyTrend returns the direction of the net close-to-close change across
// the window and the change in percent. Moves within threshold percent are
// sideways (Neutral).
func ClassifyTrend(window []models.Candle, threshold float64) (models.Direction, float64) {
	if len(window) < 2 || window[0].Close == 0 {
		return models.Neutral, 0
	}

	first, last := window[0].Close, window[len(window)-1].Close
	change := (last - first) / first * 100

	switch {
	case change > threshold:
		return models.Bullish, change
	case change < -threshold:
		return models.Bearish, change
	}
	return models.Neutral, change
}

// detectCHoCH compares the trend of the latest window with the one before it
func (d *Detector) detectCHoCH(candles []models.Candle) []models.Pattern {
	w := d.cfg.CHoCHWindow
	n := len(candles)
	if n < 2*w {
		return nil
	}

	recentDir, recentPct := ClassifyTrend(candles[n-w:], d.cfg.CHoCHThreshold)
	prevDir, prevPct := ClassifyTrend(candles[n-2*w:n-w], d.cfg.CHoCHThreshold)
	if recentDir == models.Neutral || prevDir == models.Neutral || recentDir == prevDir {
		return nil
	}

	// Stronger moves on both sides of the shift give more confidence. A 1%
	// move saturates each term.
	confidence := 0.5 + 0.3*math.Min(1, math.Abs(recentPct)) + 0.15*math.Min(1, math.Abs(prevPct))

	last := candles[n-1]
	return []models.Pattern{{
		Kind:           models.PatternCHoCH,
		Direction:      recentDir,
		ReferencePrice: last.Close,
		Confidence:     confidence,
		Description:    fmt.Sprintf("CHoCH: %s %.2f%% after %s %.2f%%", recentDir, recentPct, prevDir, prevPct),
		Timestamp:      last.Timestamp,
	}}
}
