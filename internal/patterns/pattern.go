package patterns

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

// DetectorConfig holds the detection thresholds
type DetectorConfig struct {
	MinCandles          int     // shorter windows yield no patterns
	BOSLookback         int     // candles a break must clear
	OrderBlockBodyRatio float64 // body/range of a strong candle
	OrderBlockWindow    int     // candles allowed for the breach
	SweepLookback       int     // candles searched for equal highs/lows
	SweepTolerance      float64 // 0 means one pip of the current price
	CHoCHWindow         int
	CHoCHThreshold      float64 // net % change separating a trend from sideways
	MaxConfidence       float64
}

// DefaultDetectorConfig returns the standard SMC thresholds
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MinCandles:          20,
		BOSLookback:         10,
		OrderBlockBodyRatio: 0.7,
		OrderBlockWindow:    5,
		SweepLookback:       20,
		CHoCHWindow:         15,
		CHoCHThreshold:      0.2,
		MaxConfidence:       0.95,
	}
}

type detectFunc func(candles []models.Candle) []models.Pattern

// Detector scans candle windows for SMC structure patterns. It holds no
// state between calls and is safe for concurrent use.
type Detector struct {
	cfg       DetectorConfig
	logger    zerolog.Logger
	detectors []namedDetector
}

type namedDetector struct {
	kind   models.PatternKind
	detect detectFunc
}

// NewDetector creates a detector
func NewDetector(cfg DetectorConfig, logger zerolog.Logger) *Detector {
	d := &Detector{
		cfg:    cfg,
		logger: logger.With().Str("component", "smc_detector").Logger(),
	}
	d.detectors = []namedDetector{
		{models.PatternBOS, d.detectBOS},
		{models.PatternCHoCH, d.detectCHoCH},
		{models.PatternFVG, d.detectFVG},
		{models.PatternOrderBlock, d.detectOrderBlocks},
		{models.PatternLiquiditySweep, d.detectLiquiditySweeps},
	}
	return d
}

// Detect returns the patterns found in the window sorted by confidence,
// highest first. Windows shorter than MinCandles yield an empty list.
func (d *Detector) Detect(candles []models.Candle, pair, timeframe string) []models.Pattern {
	found := []models.Pattern{}
	if len(candles) < d.cfg.MinCandles {
		return found
	}

	for _, nd := range d.detectors {
		patterns, err := d.safeDetect(nd, candles)
		if err != nil {
			d.logger.Warn().Err(err).
				Str("kind", nd.kind.String()).
				Str("pair", pair).
				Str("timeframe", timeframe).
				Msg("Pattern detection failed, skipping kind")
			continue
		}
		found = append(found, patterns...)
	}

	for i := range found {
		found[i].Pair = pair
		found[i].Timeframe = timeframe
		found[i].Confidence = d.clampConfidence(found[i].Confidence)
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Confidence > found[j].Confidence
	})

	d.logger.Debug().Str("pair", pair).Str("timeframe", timeframe).
		Int("candles", len(candles)).Int("patterns", len(found)).Msg("Detected patterns")
	return found
}

// safeDetect isolates a single pattern kind so one failure does not abort the scan
func (d *Detector) safeDetect(nd namedDetector, candles []models.Candle) (patterns []models.Pattern, err error) {
	defer func() {
		if r := recover(); r != nil {
			patterns = nil
			err = fmt.Errorf("%s detector panicked: %v", nd.kind, r)
		}
	}()
	return nd.detect(candles), nil
}

func (d *Detector) clampConfidence(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	c = math.Min(c, d.cfg.MaxConfidence)
	return math.Round(c*1e4) / 1e4
}

func (d *Detector) tolerance(price float64) float64 {
	if d.cfg.SweepTolerance > 0 {
		return d.cfg.SweepTolerance
	}
	return models.PipSize(price)
}

func bodyRatio(c models.Candle) float64 {
	r := c.Range()
	if r <= 0 {
		return 0
	}
	return c.Body() / r
}
