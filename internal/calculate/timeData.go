package calculate

import (
	"context"
	"fmt"
	"sync"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

// GetMultiTimeframeData fetches candle data for multiple timeframes in parallel
func GetMultiTimeframeData(ctx context.Context, client models.CandleClient, pair string, timeframes []string, count int) (map[string][]models.Candle, error) {
	result := make(map[string][]models.Candle, len(timeframes))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	seen := make(map[string]bool, len(timeframes))
	for _, tf := range timeframes {
		if seen[tf] {
			continue
		}
		seen[tf] = true
		wg.Add(1)

		go func(tf string) {
			defer wg.Done()

			candles, err := client.GetCandles(ctx, pair, tf, count)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to fetch %s candles for %s: %w", tf, pair, err)
				}
				return
			}
			result[tf] = candles
		}(tf)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return result, nil
}
