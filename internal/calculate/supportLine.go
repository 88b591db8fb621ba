package calculate

import "github.com/Liam-wats/SmartMoneyTrader-sub000/models"

// Swing is a fractal pivot: a high (or low) more extreme than strength
// candles on each side
type Swing struct {
	Index  int
	Price  float64
	IsHigh bool
}

// FindSwings scans for swing highs and lows in index order
func FindSwings(candles []models.Candle, strength int) []Swing {
	if strength < 1 || len(candles) < 2*strength+1 {
		return nil
	}

	var swings []Swing
	for i := strength; i < len(candles)-strength; i++ {
		isHigh, isLow := true, true
		for j := 1; j <= strength; j++ {
			if candles[i].High <= candles[i-j].High || candles[i].High <= candles[i+j].High {
				isHigh = false
			}
			if candles[i].Low >= candles[i-j].Low || candles[i].Low >= candles[i+j].Low {
				isLow = false
			}
		}
		if isHigh {
			swings = append(swings, Swing{Index: i, Price: candles[i].High, IsHigh: true})
		}
		if isLow {
			swings = append(swings, Swing{Index: i, Price: candles[i].Low})
		}
	}

	return swings
}

// LatestSwingLevels returns the most recent swing high and swing low. When no
// pivot is confirmed the window extreme is used instead.
func LatestSwingLevels(candles []models.Candle, strength int) (high, low float64) {
	if len(candles) == 0 {
		return 0, 0
	}

	high, low = candles[0].High, candles[0].Low
	for _, c := range candles[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}

	foundHigh, foundLow := false, false
	swings := FindSwings(candles, strength)
	for i := len(swings) - 1; i >= 0 && !(foundHigh && foundLow); i-- {
		s := swings[i]
		if s.IsHigh && !foundHigh {
			high, foundHigh = s.Price, true
		}
		if !s.IsHigh && !foundLow {
			low, foundLow = s.Price, true
		}
	}

	return high, low
}
