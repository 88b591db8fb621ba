package risk

import (
	"math"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

// fallbackRiskShare is the position size, as a share of balance, used when
// the stop distance is zero
const fallbackRiskShare = 0.01

// PositionSizingResult holds position sizing calculation results
type PositionSizingResult struct {
	PositionSize    float64 `json:"position_size"`
	StopLoss        float64 `json:"stop_loss"`
	TakeProfit      float64 `json:"take_profit"`
	RiskRewardRatio float64 `json:"risk_reward_ratio"`
	AccountRisk     float64 `json:"account_risk"`
}

// DetermineStopLoss places the stop atrMultiplier ATRs behind the entry
func DetermineStopLoss(entry, atr float64, side models.SignalType, atrMultiplier float64) float64 {
	if side == models.Sell {
		return entry + atr*atrMultiplier
	}
	return entry - atr*atrMultiplier
}

// DetermineTakeProfit places the target rewardMultiple stop distances past the entry
func DetermineTakeProfit(entry, stopLoss float64, side models.SignalType, rewardMultiple float64) float64 {
	distance := math.Abs(entry-stopLoss) * rewardMultiple
	if side == models.Sell {
		return entry - distance
	}
	return entry + distance
}

// FixedLevels returns stop and target at fixed pip offsets from the entry
func FixedLevels(entry float64, side models.SignalType, stopPips, targetPips float64) (stopLoss, takeProfit float64) {
	pip := models.PipSize(entry)
	if side == models.Sell {
		return entry + stopPips*pip, entry - targetPips*pip
	}
	return entry - stopPips*pip, entry + targetPips*pip
}

// RiskRewardRatio returns |target-entry| / |entry-stop|, or 0 for a zero stop distance
func RiskRewardRatio(entry, stopLoss, takeProfit float64) float64 {
	stopDistance := math.Abs(entry - stopLoss)
	if stopDistance == 0 {
		return 0
	}
	return math.Abs(takeProfit-entry) / stopDistance
}

// CalculatePositionSize sizes a position so hitting the stop loses
// riskPercent of the account
func CalculatePositionSize(entry, stopLoss, takeProfit, accountSize, riskPercent float64) *PositionSizingResult {
	stopSizePoints := math.Abs(entry - stopLoss)
	riskAmount := accountSize * riskPercent / 100

	positionSize := accountSize * fallbackRiskShare
	if stopSizePoints > 0 {
		positionSize = riskAmount / stopSizePoints
	}

	return &PositionSizingResult{
		PositionSize:    positionSize,
		StopLoss:        stopLoss,
		TakeProfit:      takeProfit,
		RiskRewardRatio: RiskRewardRatio(entry, stopLoss, takeProfit),
		AccountRisk:     riskPercent,
	}
}
