package models

import (
	"fmt"
	"time"
)

// PatternKind identifies an SMC structure pattern
type PatternKind uint8

const (
	PatternBOS PatternKind = iota + 1
	PatternCHoCH
	PatternFVG
	PatternOrderBlock
	PatternLiquiditySweep
)

var patternKindNames = map[PatternKind]string{
	PatternBOS:            "BOS",
	PatternCHoCH:          "CHoCH",
	PatternFVG:            "FVG",
	PatternOrderBlock:     "OrderBlock",
	PatternLiquiditySweep: "LiquiditySweep",
}

func (k PatternKind) String() string {
	if name, ok := patternKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("PatternKind(%d)", uint8(k))
}

func (k PatternKind) MarshalText() ([]byte, error) {
	if _, ok := patternKindNames[k]; !ok {
		return nil, fmt.Errorf("unknown pattern kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *PatternKind) UnmarshalText(text []byte) error {
	for kind, name := range patternKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown pattern kind %q", string(text))
}

// Direction of a pattern or a timeframe bias
type Direction uint8

const (
	Neutral Direction = iota
	Bullish
	Bearish
)

func (d Direction) String() string {
	switch d {
	case Bullish:
		return "Bullish"
	case Bearish:
		return "Bearish"
	default:
		return "Neutral"
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Bullish":
		*d = Bullish
	case "Bearish":
		*d = Bearish
	case "Neutral":
		*d = Neutral
	default:
		return fmt.Errorf("unknown direction %q", string(text))
	}
	return nil
}

// Pattern is a detected market structure event
type Pattern struct {
	Kind           PatternKind `json:"kind"`
	Direction      Direction   `json:"direction"`
	ReferencePrice float64     `json:"reference_price"`
	Confidence     float64     `json:"confidence"` // 0-0.95
	Description    string      `json:"description"`
	Timestamp      time.Time   `json:"timestamp"`
	Pair           string      `json:"pair,omitempty"`
	Timeframe      string      `json:"timeframe,omitempty"`
}
