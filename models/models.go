package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidCandles is returned by ValidateCandles for malformed input
var ErrInvalidCandles = errors.New("invalid candles")

// Candle represents a single price candle
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume,omitempty"`
}

// IsBullish reports whether the candle closed above its open
func (c Candle) IsBullish() bool { return c.Close > c.Open }

// IsBearish reports whether the candle closed below its open
func (c Candle) IsBearish() bool { return c.Close < c.Open }

// Body returns the absolute open-close distance
func (c Candle) Body() float64 { return math.Abs(c.Close - c.Open) }

// Range returns the high-low distance
func (c Candle) Range() float64 { return c.High - c.Low }

// TwelveResponse represents the API response from Twelve Data
type TwelveResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string  `json:"datetime"`
		Open     float64 `json:"open,string"`
		High     float64 `json:"high,string"`
		Low      float64 `json:"low,string"`
		Close    float64 `json:"close,string"`
		Volume   float64 `json:"volume,string,omitempty"`
	} `json:"values"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// BollingerBands holds the three band values
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// MACD holds the MACD line, its signal line and the histogram
type MACD struct {
	Value     float64 `json:"value"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// Stochastic holds %K and %D
type Stochastic struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
}

// IndicatorSnapshot holds the indicators for the last candle of a window
type IndicatorSnapshot struct {
	RSI        float64        `json:"rsi"`
	SMA20      float64        `json:"sma20"`
	SMA50      float64        `json:"sma50"`
	EMA20      float64        `json:"ema20"`
	EMA50      float64        `json:"ema50"`
	Bollinger  BollingerBands `json:"bollinger"`
	MACD       MACD           `json:"macd"`
	Stochastic Stochastic     `json:"stochastic"`
	ATR        float64        `json:"atr"`
}

// ValidateCandles checks a series before it is handed to the analysis core.
// Prices must be finite and positive, OHLC must be consistent and timestamps
// strictly increasing.
func ValidateCandles(candles []Candle) error {
	for i, c := range candles {
		for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: candle %d has non-finite value", ErrInvalidCandles, i)
			}
		}
		if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
			return fmt.Errorf("%w: candle %d has non-positive price", ErrInvalidCandles, i)
		}
		if c.Volume < 0 {
			return fmt.Errorf("%w: candle %d has negative volume", ErrInvalidCandles, i)
		}
		if c.High < math.Max(c.Open, c.Close) || c.Low > math.Min(c.Open, c.Close) {
			return fmt.Errorf("%w: candle %d has inconsistent OHLC", ErrInvalidCandles, i)
		}
		if i > 0 && !c.Timestamp.After(candles[i-1].Timestamp) {
			return fmt.Errorf("%w: candle %d timestamp %s not after %s", ErrInvalidCandles, i,
				c.Timestamp.Format(time.RFC3339), candles[i-1].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// PipSize returns the pip increment for a quote: 0.01 for JPY-scale prices,
// 0.0001 otherwise
func PipSize(price float64) float64 {
	if price > 20 {
		return 0.01
	}
	return 0.0001
}
