package models

import (
	"fmt"
	"time"
)

// TimeframeDuration returns the candle length of a timeframe such as "15m" or "4h"
func TimeframeDuration(timeframe string) (time.Duration, error) {
	switch timeframe {
	case "1m", "1min":
		return time.Minute, nil
	case "5m", "5min":
		return 5 * time.Minute, nil
	case "15m", "15min":
		return 15 * time.Minute, nil
	case "30m", "30min":
		return 30 * time.Minute, nil
	case "45m", "45min":
		return 45 * time.Minute, nil
	case "1h":
		return time.Hour, nil
	case "2h":
		return 2 * time.Hour, nil
	case "4h":
		return 4 * time.Hour, nil
	case "8h":
		return 8 * time.Hour, nil
	case "1d", "1day":
		return 24 * time.Hour, nil
	case "1w", "1week":
		return 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unsupported timeframe %q", timeframe)
}

// CalculateCandlesForBacktest estimates how many candles cover the given number of days
func CalculateCandlesForBacktest(timeframe string, days int) int {
	if days < 1 {
		days = 1
	}
	d, err := TimeframeDuration(timeframe)
	if err != nil {
		return 0
	}

	candlesPerDay := float64(24*time.Hour) / float64(d)
	if candlesPerDay < 1 {
		// Weekly candles: at least one candle per requested period
		weeks := days / 7
		if weeks < 1 {
			weeks = 1
		}
		return int(float64(weeks) * 1.1)
	}

	// Add a 10% buffer for gaps
	return int(candlesPerDay * float64(days) * 1.1)
}
