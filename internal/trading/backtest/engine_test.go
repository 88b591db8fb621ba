package backtest

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

var t0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

// scriptedDetector returns fixed patterns keyed by the window's last candle
type scriptedDetector struct {
	script map[time.Time][]models.Pattern
}

func (d scriptedDetector) Detect(candles []models.Candle, pair, timeframe string) []models.Pattern {
	if len(candles) == 0 {
		return nil
	}
	return d.script[candles[len(candles)-1].Timestamp]
}

func flatSeries(n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Timestamp: t0.Add(time.Duration(i) * 15 * time.Minute),
			Open:      1.1, High: 1.1002, Low: 1.0998, Close: 1.1,
		}
	}
	return out
}

func waveSeries(n int) []models.Candle {
	out := make([]models.Candle, n)
	prev := 1.1
	for i := range out {
		c := 1.1 + 0.004*math.Sin(float64(i)/4) + 0.002*math.Sin(float64(i)*1.3) + 0.00002*float64(i)
		out[i] = models.Candle{
			Timestamp: t0.Add(time.Duration(i) * time.Hour),
			Open:      prev,
			High:      math.Max(prev, c) + 0.0004,
			Low:       math.Min(prev, c) - 0.0004,
			Close:     c,
			Volume:    100 + float64(i%5)*50,
		}
		prev = c
	}
	return out
}

func pattern(kind models.PatternKind, dir models.Direction, conf float64, at time.Time) models.Pattern {
	return models.Pattern{Kind: kind, Direction: dir, Confidence: conf, Timestamp: at}
}

func TestSimulatorScriptedTrades(t *testing.T) {
	candles := flatSeries(40)
	candles[30].High = 1.1045

	fvg := pattern(models.PatternFVG, models.Bullish, 0.8, candles[25].Timestamp)
	sweep := pattern(models.PatternLiquiditySweep, models.Bearish, 0.9, candles[27].Timestamp)
	script := map[time.Time][]models.Pattern{
		candles[25].Timestamp: {fvg},
		candles[26].Timestamp: {fvg, pattern(models.PatternCHoCH, models.Bearish, 0.95, candles[26].Timestamp)},
		candles[27].Timestamp: {sweep, fvg, pattern(models.PatternOrderBlock, models.Bullish, 0.5, candles[27].Timestamp)},
		candles[28].Timestamp: {sweep},
	}

	sim := NewSimulator(models.DefaultStrategyConfig(), 10000, WithDetector(scriptedDetector{script}))
	res, err := sim.Run(candles)
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	buy, sell := res.Trades[0], res.Trades[1]

	assert.Equal(t, models.Buy, buy.Type)
	assert.Equal(t, models.PatternFVG, buy.Pattern)
	assert.InDelta(t, 1.098, buy.StopLoss, 1e-12)
	assert.InDelta(t, 1.104, buy.TakeProfit, 1e-12)
	assert.InDelta(t, 100000, buy.Size, 1e-3)
	assert.Equal(t, "Take Profit", buy.Reason)
	assert.InDelta(t, 400, *buy.PnL, 1e-6)
	assert.Equal(t, candles[30].Timestamp, *buy.ExitTime)

	assert.Equal(t, models.Sell, sell.Type)
	assert.Equal(t, "Stop Loss", sell.Reason)
	assert.InDelta(t, 1.102, *sell.ExitPrice, 1e-12)
	assert.InDelta(t, -200, *sell.PnL, 1e-6)

	assert.Equal(t, 2, res.TotalTrades)
	assert.Equal(t, 1, res.WinningTrades)
	assert.Equal(t, 1, res.LosingTrades)
	assert.Equal(t, 0.5, res.WinRate)
	assert.InDelta(t, 2.0, res.ProfitFactor, 1e-9)
	assert.InDelta(t, 200, res.TotalPnL, 1e-6)
	assert.InDelta(t, 10200, res.FinalBalance, 1e-6)
	assert.InDelta(t, 400, res.AverageWin, 1e-6)
	assert.InDelta(t, 200, res.AverageLoss, 1e-6)
	assert.InDelta(t, 1.0/3, res.SharpeRatio, 1e-9)
	assert.Equal(t, 1, res.MaxConsecutiveWins)
	assert.Equal(t, 1, res.MaxConsecutiveLosses)

	require.Len(t, res.EquityCurve, 20)
	assert.InDelta(t, 10200, res.EquityCurve[10].Equity, 1e-6)
	assert.Equal(t, 0.0, res.MaxDrawdown)
	assert.NotEqual(t, buy.ID, sell.ID)
}

func TestSimulatorCapsOpenPositions(t *testing.T) {
	candles := flatSeries(30)
	var burst []models.Pattern
	for k := 0; k < 7; k++ {
		burst = append(burst, pattern(models.PatternBOS, models.Bullish, 0.9, candles[k].Timestamp))
	}

	sim := NewSimulator(models.DefaultStrategyConfig(), 5000,
		WithDetector(scriptedDetector{map[time.Time][]models.Pattern{candles[22].Timestamp: burst}}))
	res, err := sim.Run(candles)
	require.NoError(t, err)

	require.Len(t, res.Trades, maxOpenPositions)
	for _, tr := range res.Trades {
		assert.Equal(t, "End of Backtest", tr.Reason)
		assert.Equal(t, candles[22].Timestamp, tr.EntryTime)
		assert.Equal(t, candles[22].Close, tr.EntryPrice)
		assert.Equal(t, candles[29].Timestamp, *tr.ExitTime)
		assert.Zero(t, *tr.PnL)
	}
	assert.Equal(t, 0.0, res.WinRate)
	assert.Equal(t, 0.0, res.ProfitFactor)
	assert.Equal(t, 5000.0, res.FinalBalance)
}

func TestSimulatorDisabledKinds(t *testing.T) {
	candles := flatSeries(30)
	cfg := models.DefaultStrategyConfig()
	cfg.FVGTrading = false
	cfg.MinConfidence = 80

	script := map[time.Time][]models.Pattern{
		candles[21].Timestamp: {
			pattern(models.PatternFVG, models.Bullish, 0.9, candles[21].Timestamp),
			pattern(models.PatternBOS, models.Bullish, 0.75, candles[21].Timestamp),
			pattern(models.PatternOrderBlock, models.Bearish, 0.8, candles[21].Timestamp),
		},
	}
	res, err := NewSimulator(cfg, 10000, WithDetector(scriptedDetector{script})).Run(candles)
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, models.PatternOrderBlock, res.Trades[0].Pattern)
	assert.Equal(t, models.Sell, res.Trades[0].Type)
}

func TestRunBacktestDeterministic(t *testing.T) {
	candles := waveSeries(300)

	first, err := RunBacktest(candles, models.DefaultStrategyConfig(), 10000)
	require.NoError(t, err)
	second, err := RunBacktest(candles, models.DefaultStrategyConfig(), 10000)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

// expectedEquity rebuilds an equity point from the trade list: closed P&L up
// to and including the candle plus trades still open, marked at its close
func expectedEquity(res *models.BacktestResult, c models.Candle) float64 {
	equity := res.InitialBalance
	for i := range res.Trades {
		tr := &res.Trades[i]
		switch {
		case !tr.ExitTime.After(c.Timestamp):
			equity += *tr.PnL
		case tr.EntryTime.Before(c.Timestamp):
			equity += tr.UnrealizedPnL(c.Close)
		}
	}
	return equity
}

func TestRunBacktestInvariants(t *testing.T) {
	for _, n := range []int{21, 60, 200, 400} {
		candles := waveSeries(n)
		res, err := RunBacktest(candles, models.DefaultStrategyConfig(), 10000)
		require.NoError(t, err)

		for k, p := range res.EquityCurve {
			c := candles[warmupCandles+k]
			require.Equal(t, c.Timestamp, p.Timestamp)
			assert.InDelta(t, expectedEquity(res, c), p.Equity, 1e-6, "n=%d point=%d", n, k)
		}

		assert.InDelta(t, res.InitialBalance+res.TotalPnL, res.FinalBalance, 1e-6, "n=%d", n)
		require.Len(t, res.EquityCurve, n-warmupCandles)
		assert.InDelta(t, res.FinalBalance, res.EquityCurve[len(res.EquityCurve)-1].Equity, 1e-6, "n=%d", n)

		assert.GreaterOrEqual(t, res.WinRate, 0.0)
		assert.LessOrEqual(t, res.WinRate, 1.0)
		assert.GreaterOrEqual(t, res.MaxDrawdown, 0.0)
		assert.Less(t, res.MaxDrawdown, 1.0)
		assert.LessOrEqual(t, res.WinningTrades+res.LosingTrades, res.TotalTrades)

		for _, tr := range res.Trades {
			assert.False(t, tr.IsOpen())
			assert.NotEqual(t, models.PatternCHoCH, tr.Pattern)
			assert.GreaterOrEqual(t, tr.Confidence, 0.7)
		}
	}
}

func TestRunBacktestShortInput(t *testing.T) {
	for _, n := range []int{0, 1, 20} {
		res, err := RunBacktest(waveSeries(n), models.DefaultStrategyConfig(), 10000)
		require.NoError(t, err)
		assert.Zero(t, res.TotalTrades)
		assert.Equal(t, 0.0, res.WinRate)
		assert.Empty(t, res.EquityCurve)
		assert.Equal(t, 10000.0, res.FinalBalance)
	}
}

func TestSimulatorRunsOnce(t *testing.T) {
	sim := NewSimulator(models.DefaultStrategyConfig(), 10000)
	_, err := sim.Run(waveSeries(40))
	require.NoError(t, err)

	_, err = sim.Run(waveSeries(40))
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestRunBacktestRejectsBadConfig(t *testing.T) {
	cfg := models.DefaultStrategyConfig()
	cfg.StopLossPips = 0
	_, err := RunBacktest(waveSeries(40), cfg, 10000)
	assert.ErrorIs(t, err, models.ErrInvalidStrategy)

	_, err = RunBacktest(waveSeries(40), models.DefaultStrategyConfig(), 0)
	assert.ErrorIs(t, err, models.ErrInvalidStrategy)
}
