package backtest

import (
	"math"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

// profitFactorCap is reported when there are winning trades but no losses
const profitFactorCap = 99.0

// CalculatePerformanceMetrics fills the trade statistics of a result from its
// closed trades. Balances, drawdown and the equity curve are left as is.
func CalculatePerformanceMetrics(results *models.BacktestResult) {
	pnls := make([]float64, 0, len(results.Trades))
	for _, t := range results.Trades {
		if t.PnL != nil {
			pnls = append(pnls, *t.PnL)
		}
	}

	results.TotalTrades = len(pnls)
	var grossProfit, grossLoss float64
	results.WinningTrades, results.LosingTrades = 0, 0
	results.TotalPnL = 0
	for _, p := range pnls {
		results.TotalPnL += p
		switch {
		case p > 0:
			results.WinningTrades++
			grossProfit += p
		case p < 0:
			results.LosingTrades++
			grossLoss -= p
		}
	}

	results.WinRate = 0
	if results.TotalTrades > 0 {
		results.WinRate = float64(results.WinningTrades) / float64(results.TotalTrades)
	}
	results.ProfitFactor = profitFactor(grossProfit, grossLoss)

	results.AverageWin, results.AverageLoss = 0, 0
	if results.WinningTrades > 0 {
		results.AverageWin = grossProfit / float64(results.WinningTrades)
	}
	if results.LosingTrades > 0 {
		results.AverageLoss = grossLoss / float64(results.LosingTrades)
	}

	results.SharpeRatio = sharpeRatio(pnls)
	results.MaxConsecutiveWins, results.MaxConsecutiveLosses = streaks(pnls)
}

func profitFactor(grossProfit, grossLoss float64) float64 {
	switch {
	case grossProfit <= 0:
		return 0
	case grossLoss <= 0:
		return profitFactorCap
	}
	return math.Min(grossProfit/grossLoss, profitFactorCap)
}

// sharpeRatio is the per-trade mean over the population standard deviation
// of trade P&L, with a zero risk-free rate
func sharpeRatio(pnls []float64) float64 {
	if len(pnls) < 2 {
		return 0
	}
	m := mean(pnls)
	sd := stdDev(pnls, m)
	if sd == 0 {
		return 0
	}
	return m / sd
}

func streaks(pnls []float64) (wins, losses int) {
	var curWins, curLosses int
	for _, p := range pnls {
		switch {
		case p > 0:
			curWins++
			curLosses = 0
		case p < 0:
			curLosses++
			curWins = 0
		default:
			curWins, curLosses = 0, 0
		}
		wins = max(wins, curWins)
		losses = max(losses, curLosses)
	}
	return wins, losses
}

// MaxDrawdown returns the largest peak-to-trough fall of an equity curve as a
// fraction of the peak
func MaxDrawdown(curve []models.EquityPoint, initial float64) float64 {
	peak := initial
	worst := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			worst = math.Max(worst, (peak-p.Equity)/peak)
		}
	}
	return worst
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func stdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}

	return math.Sqrt(sumSquaredDiff / float64(len(values)))
}
