package analyze

import (
	"fmt"
	"math"
	"time"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/trading/risk"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

// SignalConfig holds the thresholds of the confluence scoring
type SignalConfig struct {
	MinCandles         int
	PatternThreshold   float64 // patterns above this confidence vote on direction
	MinConfidence      float64 // 0-100
	MinConfirmations   int
	ATRMultiplier      float64 // stop distance in ATRs
	RiskRewardMultiple float64 // target distance in stop distances
}

// DefaultSignalConfig returns the standard confluence thresholds
func DefaultSignalConfig() SignalConfig {
	return SignalConfig{
		MinCandles:         20,
		PatternThreshold:   0.6,
		MinConfidence:      50,
		MinConfirmations:   3,
		ATRMultiplier:      2,
		RiskRewardMultiple: 2.5,
	}
}

// SignalEngine turns detected patterns and indicators into trading signals.
// It holds no state between calls.
type SignalEngine struct {
	cfg SignalConfig
}

// NewSignalEngine creates a signal engine
func NewSignalEngine(cfg SignalConfig) *SignalEngine {
	return &SignalEngine{cfg: cfg}
}

// Evaluate returns a signal for the last candle of the window, or nil when
// the confluence is too weak
func (e *SignalEngine) Evaluate(candles []models.Candle, patterns []models.Pattern, ind models.IndicatorSnapshot, pair, timeframe string) *models.TradingSignal {
	if len(candles) < e.cfg.MinCandles || len(candles) == 0 {
		return nil
	}

	// High-confidence patterns vote on direction
	var bullish, bearish []models.Pattern
	for _, p := range patterns {
		if p.Confidence <= e.cfg.PatternThreshold {
			continue
		}
		switch p.Direction {
		case models.Bullish:
			bullish = append(bullish, p)
		case models.Bearish:
			bearish = append(bearish, p)
		}
	}

	var side models.SignalType
	var supporting []models.Pattern
	switch {
	case len(bullish) > len(bearish):
		side, supporting = models.Buy, bullish
	case len(bearish) > len(bullish):
		side, supporting = models.Sell, bearish
	default:
		return nil
	}

	last := candles[len(candles)-1]
	price := last.Close

	var confidence float64
	var confirmations []string
	confirm := func(points float64, reason string) {
		confidence += points
		confirmations = append(confirmations, reason)
	}

	// The SMC majority always comes first
	confirm(20, fmt.Sprintf("SMC majority: %d bullish vs %d bearish patterns", len(bullish), len(bearish)))

	if side == models.Buy {
		if ind.RSI < 30 {
			confirm(15, fmt.Sprintf("RSI oversold (%.1f)", ind.RSI))
		} else if ind.RSI < 40 {
			confirm(10, fmt.Sprintf("RSI approaching oversold (%.1f)", ind.RSI))
		}
		if ind.EMA20 > ind.EMA50 {
			confirm(15, "EMA20 above EMA50")
		}
		if price <= ind.Bollinger.Lower {
			confirm(10, "Price at lower Bollinger band")
		}
		if ind.MACD.Value > ind.MACD.Signal && ind.MACD.Histogram > 0 {
			confirm(10, "MACD bullish crossover")
		}
		if ind.Stochastic.K < 20 {
			confirm(10, fmt.Sprintf("Stochastic oversold (K %.1f)", ind.Stochastic.K))
		}
	} else {
		if ind.RSI > 70 {
			confirm(15, fmt.Sprintf("RSI overbought (%.1f)", ind.RSI))
		} else if ind.RSI > 60 {
			confirm(10, fmt.Sprintf("RSI approaching overbought (%.1f)", ind.RSI))
		}
		if ind.EMA20 < ind.EMA50 {
			confirm(15, "EMA20 below EMA50")
		}
		if price >= ind.Bollinger.Upper {
			confirm(10, "Price at upper Bollinger band")
		}
		if ind.MACD.Value < ind.MACD.Signal && ind.MACD.Histogram < 0 {
			confirm(10, "MACD bearish crossover")
		}
		if ind.Stochastic.K > 80 {
			confirm(10, fmt.Sprintf("Stochastic overbought (K %.1f)", ind.Stochastic.K))
		}
	}

	if confidence < e.cfg.MinConfidence || len(confirmations) < e.cfg.MinConfirmations {
		return nil
	}

	atr := ind.ATR
	if atr <= 0 || math.IsNaN(atr) || math.IsInf(atr, 0) {
		return nil
	}

	stop := risk.DetermineStopLoss(price, atr, side, e.cfg.ATRMultiplier)
	target := risk.DetermineTakeProfit(price, stop, side, e.cfg.RiskRewardMultiple)

	return &models.TradingSignal{
		ID:              models.DeterministicID("signal", pair, timeframe, side.String(), last.Timestamp.UTC().Format(time.RFC3339Nano)),
		Pair:            pair,
		Timeframe:       timeframe,
		Direction:       side,
		EntryPrice:      price,
		StopLossPrice:   stop,
		TakeProfitPrice: target,
		Confidence:      math.Min(100, confidence),
		Confirmations:   confirmations,
		Patterns:        supporting,
		RiskRewardRatio: risk.RiskRewardRatio(price, stop, target),
		Timestamp:       last.Timestamp,
	}
}
