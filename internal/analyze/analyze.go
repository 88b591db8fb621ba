package analyze

import (
	"github.com/rs/zerolog"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/patterns"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

// PatternDetector finds SMC patterns in a candle window
type PatternDetector interface {
	Detect(candles []models.Candle, pair, timeframe string) []models.Pattern
}

// EvaluateSignal scores a window with the default signal thresholds
func EvaluateSignal(candles []models.Candle, found []models.Pattern, ind models.IndicatorSnapshot, pair, timeframe string) *models.TradingSignal {
	return NewSignalEngine(DefaultSignalConfig()).Evaluate(candles, found, ind, pair, timeframe)
}

// AnalyzeTopDown runs a multi-timeframe analysis with the default detector,
// signal engine and timeframes
func AnalyzeTopDown(candlesByTimeframe map[string][]models.Candle, pair string) models.TopDownAnalysis {
	detector := patterns.NewDetector(patterns.DefaultDetectorConfig(), zerolog.Nop())
	analyzer := NewTopDownAnalyzer(DefaultTopDownConfig(), detector, NewSignalEngine(DefaultSignalConfig()), zerolog.Nop())
	return analyzer.Analyze(candlesByTimeframe, pair)
}
