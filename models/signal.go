package models

import (
	"fmt"
	"time"
)

// SignalType is the trade side of a signal or a backtest trade
type SignalType uint8

const (
	Buy SignalType = iota + 1
	Sell
)

func (s SignalType) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "NONE"
	}
}

func (s SignalType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SignalType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "BUY":
		*s = Buy
	case "SELL":
		*s = Sell
	default:
		return fmt.Errorf("unknown signal type %q", string(text))
	}
	return nil
}

// SignalTypeFor maps a pattern direction to the side that trades it
func SignalTypeFor(d Direction) (SignalType, bool) {
	switch d {
	case Bullish:
		return Buy, true
	case Bearish:
		return Sell, true
	}
	return 0, false
}

// TradingSignal is a confirmed trade idea. Confidence and Confirmations are
// derived from the inputs of the evaluation that produced it.
type TradingSignal struct {
	ID              string     `json:"id"`
	Pair            string     `json:"pair"`
	Timeframe       string     `json:"timeframe"`
	Direction       SignalType `json:"direction"`
	EntryPrice      float64    `json:"entry_price"`
	StopLossPrice   float64    `json:"stop_loss_price"`
	TakeProfitPrice float64    `json:"take_profit_price"`
	Confidence      float64    `json:"confidence"` // 0-100
	Confirmations   []string   `json:"confirmations"`
	Patterns        []Pattern  `json:"patterns"`
	RiskRewardRatio float64    `json:"risk_reward_ratio"`
	Timestamp       time.Time  `json:"timestamp"`
}

// Bias is the trend read of a single timeframe
type Bias struct {
	Timeframe  string    `json:"timeframe"`
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"` // 0-1
	KeyLevel   float64   `json:"key_level"`
	SwingHigh  float64   `json:"swing_high"`
	SwingLow   float64   `json:"swing_low"`
}

// Recommendation is the overall call of a top-down analysis
type Recommendation uint8

const (
	RecommendNeutral Recommendation = iota
	RecommendStrongBuy
	RecommendBuy
	RecommendSell
	RecommendStrongSell
)

func (r Recommendation) String() string {
	switch r {
	case RecommendStrongBuy:
		return "STRONG_BUY"
	case RecommendBuy:
		return "BUY"
	case RecommendSell:
		return "SELL"
	case RecommendStrongSell:
		return "STRONG_SELL"
	default:
		return "NEUTRAL"
	}
}

func (r Recommendation) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ConfluenceSignal is an entry signal that passed the top-down gates
type ConfluenceSignal struct {
	Signal    TradingSignal `json:"signal"`
	Timeframe string        `json:"timeframe"`
	Factors   []string      `json:"factors"`
	Score     float64       `json:"score"`
}

// TopDownAnalysis is the result of a multi-timeframe analysis of one pair
type TopDownAnalysis struct {
	Pair              string             `json:"pair"`
	HTFBias           Bias               `json:"htf_bias"`
	LTFBias           Bias               `json:"ltf_bias"`
	ConfluenceSignals []ConfluenceSignal `json:"confluence_signals"`
	Recommendation    Recommendation     `json:"recommendation"`
	Confidence        float64            `json:"confidence"` // 0-100
}
