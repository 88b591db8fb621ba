package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidStrategy is returned when a strategy configuration is unusable
var ErrInvalidStrategy = errors.New("invalid strategy config")

// StrategyConfig holds the recognised strategy options of a backtest run
type StrategyConfig struct {
	RiskPercentage   float64 `yaml:"risk_percentage" json:"risk_percentage"` // % of balance risked per trade
	StopLossPips     float64 `yaml:"stop_loss_pips" json:"stop_loss_pips"`
	TakeProfitPips   float64 `yaml:"take_profit_pips" json:"take_profit_pips"`
	BOSConfirmation  bool    `yaml:"bos_confirmation" json:"bos_confirmation"`
	FVGTrading       bool    `yaml:"fvg_trading" json:"fvg_trading"`
	LiquiditySweeps  bool    `yaml:"liquidity_sweeps" json:"liquidity_sweeps"`
	OrderBlockFilter bool    `yaml:"order_block_filter" json:"order_block_filter"`
	MinConfidence    float64 `yaml:"min_confidence" json:"min_confidence"` // 0-1, values above 1 are read as percent
}

// DefaultStrategyConfig returns the strategy used when none is supplied
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		RiskPercentage:   2,
		StopLossPips:     20,
		TakeProfitPips:   40,
		BOSConfirmation:  true,
		FVGTrading:       true,
		LiquiditySweeps:  true,
		OrderBlockFilter: true,
		MinConfidence:    0.7,
	}
}

// Validate rejects configurations the simulator cannot run
func (s StrategyConfig) Validate() error {
	switch {
	case s.RiskPercentage <= 0 || s.RiskPercentage > 100:
		return fmt.Errorf("%w: risk_percentage must be in (0, 100], got %v", ErrInvalidStrategy, s.RiskPercentage)
	case s.StopLossPips <= 0:
		return fmt.Errorf("%w: stop_loss_pips must be positive, got %v", ErrInvalidStrategy, s.StopLossPips)
	case s.TakeProfitPips <= 0:
		return fmt.Errorf("%w: take_profit_pips must be positive, got %v", ErrInvalidStrategy, s.TakeProfitPips)
	case s.MinConfidence < 0 || s.MinConfidence > 100:
		return fmt.Errorf("%w: min_confidence out of range: %v", ErrInvalidStrategy, s.MinConfidence)
	}
	return nil
}

// ConfidenceFloor returns MinConfidence on the 0-1 scale
func (s StrategyConfig) ConfidenceFloor() float64 {
	if s.MinConfidence > 1 {
		return s.MinConfidence / 100
	}
	return s.MinConfidence
}

// Enabled reports whether the strategy trades the given pattern kind
func (s StrategyConfig) Enabled(kind PatternKind) bool {
	switch kind {
	case PatternBOS:
		return s.BOSConfirmation
	case PatternFVG:
		return s.FVGTrading
	case PatternLiquiditySweep:
		return s.LiquiditySweeps
	case PatternOrderBlock:
		return s.OrderBlockFilter
	}
	return false
}

// BacktestTrade is a simulated position. It is open while ExitTime is nil.
type BacktestTrade struct {
	ID         string      `json:"id"`
	EntryTime  time.Time   `json:"entry_time"`
	EntryPrice float64     `json:"entry_price"`
	Type       SignalType  `json:"type"`
	Size       float64     `json:"size"`
	StopLoss   float64     `json:"stop_loss"`
	TakeProfit float64     `json:"take_profit"`
	ExitTime   *time.Time  `json:"exit_time,omitempty"`
	ExitPrice  *float64    `json:"exit_price,omitempty"`
	PnL        *float64    `json:"pnl,omitempty"`
	Pattern    PatternKind `json:"pattern"`
	Confidence float64     `json:"confidence"`
	Reason     string      `json:"reason,omitempty"`
}

// IsOpen reports whether the trade has not been closed yet
func (t *BacktestTrade) IsOpen() bool { return t.ExitTime == nil }

// UnrealizedPnL returns the P&L of the trade marked at price
func (t *BacktestTrade) UnrealizedPnL(price float64) float64 {
	if t.Type == Sell {
		return (t.EntryPrice - price) * t.Size
	}
	return (price - t.EntryPrice) * t.Size
}

// EquityPoint is one sample of the equity curve
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
}

// BacktestResult stores backtesting results
type BacktestResult struct {
	TotalTrades          int             `json:"total_trades"`
	WinningTrades        int             `json:"winning_trades"`
	LosingTrades         int             `json:"losing_trades"`
	WinRate              float64         `json:"win_rate"` // 0-1
	ProfitFactor         float64         `json:"profit_factor"`
	MaxDrawdown          float64         `json:"max_drawdown"` // fraction of peak equity
	TotalPnL             float64         `json:"total_pnl"`
	InitialBalance       float64         `json:"initial_balance"`
	FinalBalance         float64         `json:"final_balance"`
	AverageWin           float64         `json:"average_win"`
	AverageLoss          float64         `json:"average_loss"`
	SharpeRatio          float64         `json:"sharpe_ratio"`
	MaxConsecutiveWins   int             `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int             `json:"max_consecutive_losses"`
	Trades               []BacktestTrade `json:"trades"`
	EquityCurve          []EquityPoint   `json:"equity_curve"`
}
