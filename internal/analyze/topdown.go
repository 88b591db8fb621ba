package analyze

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/calculate"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

var fibLevels = []float64{0.236, 0.382, 0.5, 0.618, 0.786}

// TopDownConfig holds the timeframes and gates of the multi-timeframe analysis
type TopDownConfig struct {
	HTF                 string
	LTF                 string
	EntryTimeframes     []string
	BiasWindow          int
	SwingStrength       int
	ProximityTolerance  float64 // share of price counted as "at" a level
	MinFactors          int
	MinRiskReward       float64
	StrongScore         float64 // confidence x factors needed for a strong call
	DisagreementPenalty float64 // confidence multiplier when HTF and LTF disagree
}

// DefaultTopDownConfig returns the 4h / 1h / 15m setup
func DefaultTopDownConfig() TopDownConfig {
	return TopDownConfig{
		HTF:                 "4h",
		LTF:                 "1h",
		EntryTimeframes:     []string{"15m"},
		BiasWindow:          20,
		SwingStrength:       2,
		ProximityTolerance:  0.001,
		MinFactors:          3,
		MinRiskReward:       2.0,
		StrongScore:         200,
		DisagreementPenalty: 0.85,
	}
}

// Timeframes lists every timeframe the analysis reads
func (c TopDownConfig) Timeframes() []string {
	return append([]string{c.HTF, c.LTF}, c.EntryTimeframes...)
}

// TopDownAnalyzer reads the higher timeframes for bias and only accepts
// entry signals that agree with it and sit at a meaningful level
type TopDownAnalyzer struct {
	cfg      TopDownConfig
	detector PatternDetector
	engine   *SignalEngine
	logger   zerolog.Logger
}

// NewTopDownAnalyzer creates a top-down analyzer
func NewTopDownAnalyzer(cfg TopDownConfig, detector PatternDetector, engine *SignalEngine, logger zerolog.Logger) *TopDownAnalyzer {
	return &TopDownAnalyzer{
		cfg:      cfg,
		detector: detector,
		engine:   engine,
		logger:   logger.With().Str("component", "top_down").Logger(),
	}
}

// Analyze runs the analysis for one pair. Missing timeframes are treated as
// empty series.
func (a *TopDownAnalyzer) Analyze(candlesByTimeframe map[string][]models.Candle, pair string) models.TopDownAnalysis {
	htf := ComputeBias(candlesByTimeframe[a.cfg.HTF], a.cfg.BiasWindow, a.cfg.SwingStrength)
	htf.Timeframe = a.cfg.HTF
	ltf := ComputeBias(candlesByTimeframe[a.cfg.LTF], a.cfg.BiasWindow, a.cfg.SwingStrength)
	ltf.Timeframe = a.cfg.LTF

	result := models.TopDownAnalysis{
		Pair:              pair,
		HTFBias:           htf,
		LTFBias:           ltf,
		ConfluenceSignals: []models.ConfluenceSignal{},
	}

	for _, tf := range a.cfg.EntryTimeframes {
		candles := candlesByTimeframe[tf]
		found := a.detector.Detect(candles, pair, tf)
		signal := a.engine.Evaluate(candles, found, calculate.ComputeIndicators(candles), pair, tf)
		if signal == nil {
			continue
		}

		cs, reason := a.gate(*signal, tf, htf, ltf)
		if reason != "" {
			a.logger.Debug().Str("pair", pair).Str("timeframe", tf).
				Str("direction", signal.Direction.String()).Str("reason", reason).
				Msg("Entry signal rejected")
			continue
		}
		result.ConfluenceSignals = append(result.ConfluenceSignals, cs)
	}

	sort.SliceStable(result.ConfluenceSignals, func(i, j int) bool {
		return result.ConfluenceSignals[i].Score > result.ConfluenceSignals[j].Score
	})

	result.Recommendation, result.Confidence = a.recommend(result.ConfluenceSignals, htf, ltf)
	return result
}

// gate collects confluence factors for an entry signal. A non-empty reason
// means the signal was rejected.
func (a *TopDownAnalyzer) gate(signal models.TradingSignal, tf string, htf, ltf models.Bias) (models.ConfluenceSignal, string) {
	want := models.Bullish
	if signal.Direction == models.Sell {
		want = models.Bearish
	}
	if htf.Direction != want {
		return models.ConfluenceSignal{}, fmt.Sprintf("against %s bias (%s)", htf.Timeframe, htf.Direction)
	}
	if signal.RiskRewardRatio < a.cfg.MinRiskReward {
		return models.ConfluenceSignal{}, fmt.Sprintf("risk-reward %.2f below %.2f", signal.RiskRewardRatio, a.cfg.MinRiskReward)
	}

	var factors []string
	if len(signal.Patterns) > 0 {
		factors = append(factors, "pattern: "+patternKinds(signal.Patterns))
	}
	// Every signal opens with the SMC majority; the rest are indicator confirmations
	if len(signal.Confirmations) > 1 {
		factors = append(factors, fmt.Sprintf("indicators: %d confirmations", len(signal.Confirmations)-1))
	}

	entry := signal.EntryPrice
	for _, b := range []models.Bias{htf, ltf} {
		if b.KeyLevel > 0 && a.near(entry, b.KeyLevel) {
			factors = append(factors, fmt.Sprintf("key level %.5f (%s)", b.KeyLevel, b.Timeframe))
			break
		}
	}

	if level, ratio, ok := a.nearFibonacci(entry, want, htf); ok {
		factors = append(factors, fmt.Sprintf("fibonacci %.1f%% at %.5f", ratio*100, level))
	}

	if len(factors) < a.cfg.MinFactors {
		return models.ConfluenceSignal{}, fmt.Sprintf("%d confluence factors, need %d", len(factors), a.cfg.MinFactors)
	}

	return models.ConfluenceSignal{
		Signal:    signal,
		Timeframe: tf,
		Factors:   factors,
		Score:     signal.Confidence * float64(len(factors)),
	}, ""
}

func (a *TopDownAnalyzer) near(price, level float64) bool {
	return math.Abs(price-level) <= price*a.cfg.ProximityTolerance
}

// nearFibonacci checks the entry against retracements of the HTF swing range,
// measured from the high for longs and from the low for shorts
func (a *TopDownAnalyzer) nearFibonacci(entry float64, dir models.Direction, htf models.Bias) (float64, float64, bool) {
	span := htf.SwingHigh - htf.SwingLow
	if span <= 0 {
		return 0, 0, false
	}
	for _, ratio := range fibLevels {
		level := htf.SwingHigh - span*ratio
		if dir == models.Bearish {
			level = htf.SwingLow + span*ratio
		}
		if a.near(entry, level) {
			return level, ratio, true
		}
	}
	return 0, 0, false
}

func (a *TopDownAnalyzer) recommend(signals []models.ConfluenceSignal, htf, ltf models.Bias) (models.Recommendation, float64) {
	if len(signals) == 0 {
		return models.RecommendNeutral, 0
	}

	best := signals[0]
	aligned := htf.Direction == ltf.Direction
	confidence := math.Min(100, best.Signal.Confidence+5*float64(len(best.Factors)-a.cfg.MinFactors))
	if !aligned {
		confidence *= a.cfg.DisagreementPenalty
	}
	confidence = math.Round(confidence*100) / 100

	strong := aligned && best.Score >= a.cfg.StrongScore
	if best.Signal.Direction == models.Buy {
		if strong {
			return models.RecommendStrongBuy, confidence
		}
		return models.RecommendBuy, confidence
	}
	if strong {
		return models.RecommendStrongSell, confidence
	}
	return models.RecommendSell, confidence
}

func patternKinds(found []models.Pattern) string {
	seen := make(map[models.PatternKind]bool)
	var kinds []string
	for _, p := range found {
		if !seen[p.Kind] {
			seen[p.Kind] = true
			kinds = append(kinds, p.Kind.String())
		}
	}
	return strings.Join(kinds, ", ")
}
