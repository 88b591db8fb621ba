package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

const defaultBaseURL = "https://api.twelvedata.com"

// ErrEmptySeries is returned when the API answers with no candles
var ErrEmptySeries = errors.New("empty data returned")

// ClientOptions holds options for creating a new TwelveData client
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  float64
	MaxRetryTimeout time.Duration
	Logger          zerolog.Logger
}

// Client is a rate-limited Twelve Data time series client. It implements
// models.CandleClient.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetry   time.Duration
	logger     zerolog.Logger
}

var _ models.CandleClient = (*Client)(nil)

// NewClient creates a new TwelveData API client
func NewClient(opts ClientOptions) *Client {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetryTimeout <= 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: opts.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
		maxRetry:   opts.MaxRetryTimeout,
		logger:     opts.Logger.With().Str("component", "twelvedata_client").Logger(),
	}
}

// GetCandles fetches the latest count candles, oldest first
func (c *Client) GetCandles(ctx context.Context, pair, timeframe string, count int) ([]models.Candle, error) {
	return c.timeSeries(ctx, pair, timeframe, count)
}

// GetHistoricalCandles fetches enough candles to cover the given number of days
func (c *Client) GetHistoricalCandles(ctx context.Context, pair, timeframe string, days int) ([]models.Candle, error) {
	outputSize := models.CalculateCandlesForBacktest(timeframe, days)
	if outputSize == 0 {
		return nil, fmt.Errorf("unsupported timeframe %q", timeframe)
	}
	// Twelve Data caps a single request at 5000 values
	outputSize = min(outputSize, 5000)

	c.logger.Debug().Str("pair", pair).Str("timeframe", timeframe).
		Int("days", days).Int("outputSize", outputSize).
		Msg("Fetching historical candles for backtesting")
	return c.timeSeries(ctx, pair, timeframe, outputSize)
}

func (c *Client) timeSeries(ctx context.Context, pair, timeframe string, count int) ([]models.Candle, error) {
	interval, err := Interval(timeframe)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	q := url.Values{}
	q.Set("symbol", pair)
	q.Set("interval", interval)
	q.Set("outputsize", strconv.Itoa(count))
	q.Set("timezone", "UTC")
	q.Set("apikey", c.apiKey)
	endpoint := c.baseURL + "/time_series?" + q.Encode()

	c.logger.Debug().Str("pair", pair).Str("interval", interval).Int("count", count).Msg("Fetching candles")

	body, err := c.fetch(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var data models.TwelveResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if data.Status == "error" {
		c.logger.Error().Str("message", data.Message).Msg("Twelve Data API error")
		return nil, fmt.Errorf("Twelve Data API error: %s", data.Message)
	}
	if len(data.Values) == 0 {
		c.logger.Warn().Str("pair", pair).Str("interval", interval).Msg("No candles in response")
		return nil, ErrEmptySeries
	}

	candles := make([]models.Candle, 0, len(data.Values))
	for _, v := range data.Values {
		ts, err := parseDatetime(v.Datetime)
		if err != nil {
			return nil, err
		}
		candles = append(candles, models.Candle{
			Timestamp: ts,
			Open:      v.Open,
			High:      v.High,
			Low:       v.Low,
			Close:     v.Close,
			Volume:    v.Volume,
		})
	}

	// The API returns newest first
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})

	if err := models.ValidateCandles(candles); err != nil {
		return nil, fmt.Errorf("%s %s: %w", pair, timeframe, err)
	}

	c.logger.Debug().Str("pair", pair).Int("count", len(candles)).Msg("Fetched candles")
	return candles, nil
}

// fetch performs the GET with exponential backoff. Client errors other than
// 429 are not retried.
func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("non-200 status code: %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = 200 * time.Millisecond
	strategy.MaxElapsedTime = c.maxRetry

	notify := func(err error, wait time.Duration) {
		c.logger.Warn().Err(err).Dur("retry_in", wait).Msg("Request failed, retrying")
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(strategy, ctx), notify); err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}
	return body, nil
}

// Interval maps a timeframe label to the Twelve Data interval name
func Interval(timeframe string) (string, error) {
	switch timeframe {
	case "1m", "1min":
		return "1min", nil
	case "5m", "5min":
		return "5min", nil
	case "15m", "15min":
		return "15min", nil
	case "30m", "30min":
		return "30min", nil
	case "45m", "45min":
		return "45min", nil
	case "1h":
		return "1h", nil
	case "2h":
		return "2h", nil
	case "4h":
		return "4h", nil
	case "8h":
		return "8h", nil
	case "1d", "1day":
		return "1day", nil
	case "1w", "1week":
		return "1week", nil
	}
	return "", fmt.Errorf("unsupported timeframe %q", timeframe)
}

func parseDatetime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing datetime %q", s)
}
