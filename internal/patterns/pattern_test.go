package patterns

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

var t0 = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

func newTestDetector() *Detector {
	return NewDetector(DefaultDetectorConfig(), zerolog.Nop())
}

func ohlc(o, h, l, c float64) models.Candle {
	return models.Candle{Open: o, High: h, Low: l, Close: c, Volume: 100}
}

func stamp(candles []models.Candle) []models.Candle {
	for i := range candles {
		candles[i].Timestamp = t0.Add(time.Duration(i) * 15 * time.Minute)
	}
	return candles
}

func flatCandles(n int, price float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = ohlc(price, price, price, price)
	}
	return out
}

func wave(n int) []models.Candle {
	out := make([]models.Candle, n)
	prev := 1.1
	for i := range out {
		c := 1.1 + 0.004*math.Sin(float64(i)/3) + 0.0015*math.Sin(float64(i)*1.7) + 0.00005*float64(i)
		hi := math.Max(prev, c) + 0.0003 + 0.0002*math.Abs(math.Cos(float64(i)))
		lo := math.Min(prev, c) - 0.0003 - 0.0002*math.Abs(math.Sin(float64(i)))
		out[i] = models.Candle{Open: prev, High: hi, Low: lo, Close: c, Volume: 100 + float64(i%7)*40}
		prev = c
	}
	return stamp(out)
}

func fvgFixture() []models.Candle {
	candles := flatCandles(20, 1.0995)
	candles = append(candles,
		ohlc(1.0995, 1.1000, 1.0990, 1.0998), // c1
		ohlc(1.0998, 1.1060, 1.0994, 1.1055), // c2, bullish
		ohlc(1.1055, 1.1070, 1.1050, 1.1065), // c3
	)
	return stamp(candles)
}

func ofKind(patterns []models.Pattern, kind models.PatternKind) []models.Pattern {
	var out []models.Pattern
	for _, p := range patterns {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

func TestDetectShortWindowIsEmpty(t *testing.T) {
	d := newTestDetector()
	candles := wave(40)
	for n := 0; n < 20; n++ {
		got := d.Detect(candles[:n], "EUR/USD", "15m")
		assert.NotNil(t, got)
		assert.Empty(t, got, "n=%d", n)
	}
}

func TestDetectSortedByConfidence(t *testing.T) {
	d := newTestDetector()
	for _, n := range []int{20, 35, 80, 150} {
		got := d.Detect(wave(n), "EUR/USD", "1h")
		for i, p := range got {
			assert.GreaterOrEqual(t, p.Confidence, 0.0)
			assert.LessOrEqual(t, p.Confidence, 0.95)
			assert.Equal(t, "EUR/USD", p.Pair)
			assert.Equal(t, "1h", p.Timeframe)
			if i > 0 {
				assert.GreaterOrEqual(t, got[i-1].Confidence, p.Confidence, "n=%d index %d", n, i)
			}
		}
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	d := newTestDetector()
	candles := wave(120)
	assert.Equal(t, d.Detect(candles, "GBP/USD", "15m"), d.Detect(candles, "GBP/USD", "15m"))
}

func TestDetectBullishFVG(t *testing.T) {
	got := ofKind(newTestDetector().Detect(fvgFixture(), "EUR/USD", "15m"), models.PatternFVG)
	require.Len(t, got, 1)
	assert.Equal(t, models.Bullish, got[0].Direction)
	assert.InDelta(t, 1.1025, got[0].ReferencePrice, 1e-9)
	// gap of 0.0050 on 1.1025 is ~0.45%: every threshold applies
	assert.InDelta(t, 0.85, got[0].Confidence, 1e-9)
}

func TestFVGConfidenceThresholds(t *testing.T) {
	assert.InDelta(t, 0.4, fvgConfidence(0.01), 1e-12)
	assert.InDelta(t, 0.6, fvgConfidence(0.05), 1e-12)
	assert.InDelta(t, 0.75, fvgConfidence(0.15), 1e-12)
	assert.InDelta(t, 0.85, fvgConfidence(5), 1e-12)
}

func TestDetectBullishBOS(t *testing.T) {
	candles := flatCandles(25, 1.1)
	breakout := ohlc(1.1000, 1.1030, 1.1000, 1.1028)
	breakout.Volume = 300
	candles = stamp(append(candles, breakout))

	got := newTestDetector().Detect(candles, "EUR/USD", "15m")
	require.Len(t, got, 1)
	p := got[0]
	assert.Equal(t, models.PatternBOS, p.Kind)
	assert.Equal(t, models.Bullish, p.Direction)
	assert.Equal(t, 1.1, p.ReferencePrice)
	assert.Equal(t, candles[25].Timestamp, p.Timestamp)
	// 0.5 base + 0.2*body ratio + 0.15 volume, no continuation candles yet
	assert.InDelta(t, 0.5+0.2*(0.0028/0.003)+0.15, p.Confidence, 1e-3)
}

func TestDetectBearishLiquiditySweep(t *testing.T) {
	var candles []models.Candle
	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			candles = append(candles, ohlc(1.1020, 1.1050, 1.1000, 1.1030))
		} else {
			candles = append(candles, ohlc(1.1030, 1.1040, 1.1010, 1.1020))
		}
	}
	candles = append(candles,
		ohlc(1.1030, 1.1062, 1.1025, 1.1035), // wick through 1.1050, close back below
		ohlc(1.1035, 1.1038, 1.1012, 1.1015), // bearish follow-through
	)
	candles = stamp(candles)

	got := ofKind(newTestDetector().Detect(candles, "EUR/USD", "15m"), models.PatternLiquiditySweep)
	require.Len(t, got, 1)
	assert.Equal(t, models.Bearish, got[0].Direction)
	assert.InDelta(t, 1.1050, got[0].ReferencePrice, 1e-9)
	assert.InDelta(t, 0.9, got[0].Confidence, 1e-9)
	assert.Equal(t, candles[20].Timestamp, got[0].Timestamp)
}

func TestDetectBullishOrderBlock(t *testing.T) {
	candles := flatCandles(20, 1.1050)
	candles = append(candles,
		ohlc(1.1050, 1.1052, 1.1000, 1.1002), // strong bearish candle
		ohlc(1.1002, 1.1030, 1.1001, 1.1028),
		ohlc(1.1028, 1.1070, 1.1027, 1.1066), // closes above the block's high
	)
	candles = stamp(candles)

	got := ofKind(newTestDetector().Detect(candles, "EUR/USD", "15m"), models.PatternOrderBlock)
	require.NotEmpty(t, got)
	p := got[0]
	assert.Equal(t, models.Bullish, p.Direction)
	assert.InDelta(t, 1.1000, p.ReferencePrice, 1e-9)
	assert.Equal(t, candles[20].Timestamp, p.Timestamp)
	// block low is the range low: full placement score
	assert.InDelta(t, 0.5+0.2*math.Min(1, 0.0014/0.0052)+0.2, p.Confidence, 1e-3)
}

func chochFixture() []models.Candle {
	var candles []models.Candle
	prev := 1.1
	for i := 0; i < 30; i++ {
		c := 1.1 + 0.001*float64(i)
		if i >= 15 {
			c = 1.114 - 0.001*float64(i-14)
		}
		candles = append(candles, ohlc(prev, math.Max(prev, c)+0.0002, math.Min(prev, c)-0.0002, c))
		prev = c
	}
	return stamp(candles)
}

func TestDetectCHoCH(t *testing.T) {
	d := newTestDetector()
	candles := chochFixture()

	got := ofKind(d.Detect(candles, "EUR/USD", "1h"), models.PatternCHoCH)
	require.Len(t, got, 1)
	assert.Equal(t, models.Bearish, got[0].Direction)
	assert.Equal(t, candles[29].Close, got[0].ReferencePrice)
	assert.InDelta(t, 0.95, got[0].Confidence, 1e-9)

	again := ofKind(d.Detect(candles, "EUR/USD", "1h"), models.PatternCHoCH)
	assert.Equal(t, got, again)

	// a continuing trend is not a change of character
	up := make([]models.Candle, 30)
	for i := range up {
		c := 1.1 + 0.001*float64(i)
		up[i] = ohlc(c-0.001, c+0.0002, c-0.0012, c)
	}
	assert.Empty(t, ofKind(d.Detect(stamp(up), "EUR/USD", "1h"), models.PatternCHoCH))
}

func TestClassifyTrend(t *testing.T) {
	window := stamp([]models.Candle{ohlc(1, 1, 1, 1.0), ohlc(1, 1.01, 1, 1.001)})
	dir, pct := ClassifyTrend(window, 0.2)
	assert.Equal(t, models.Neutral, dir)
	assert.InDelta(t, 0.1, pct, 1e-9)

	window[1].Close = 1.003
	dir, _ = ClassifyTrend(window, 0.2)
	assert.Equal(t, models.Bullish, dir)
}

func TestDetectSurvivesPanickingKind(t *testing.T) {
	d := newTestDetector()
	d.detectors[0].detect = func([]models.Candle) []models.Pattern { panic("broken detector") }

	got := d.Detect(fvgFixture(), "EUR/USD", "15m")
	assert.Empty(t, ofKind(got, models.PatternBOS))
	assert.Len(t, ofKind(got, models.PatternFVG), 1)
}
