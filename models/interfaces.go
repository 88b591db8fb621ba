package models

import "context"

// CandleClient is the market-data collaborator the analysis core is fed from.
// Implementations return validated candles ordered oldest first.
type CandleClient interface {
	GetCandles(ctx context.Context, pair, timeframe string, count int) ([]Candle, error)
	GetHistoricalCandles(ctx context.Context, pair, timeframe string, days int) ([]Candle, error)
}
