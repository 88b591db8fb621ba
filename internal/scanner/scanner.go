package scanner

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/analyze"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/calculate"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/metrics"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

// Config controls what a scan fetches per pair
type Config struct {
	Timeframe   string
	CandleCount int
	Workers     int  // <= 0 uses runtime.NumCPU()
	TopDown     bool // also run the multi-timeframe analysis
}

// Result is the outcome of scanning one pair. Err is set when a candle fetch
// failed and the analysis stopped there.
type Result struct {
	Pair       string                   `json:"pair"`
	Candles    int                      `json:"candles"`
	Indicators models.IndicatorSnapshot `json:"indicators"`
	Patterns   []models.Pattern         `json:"patterns"`
	Signal     *models.TradingSignal    `json:"signal,omitempty"`
	TopDown    *models.TopDownAnalysis  `json:"top_down,omitempty"`
	Err        error                    `json:"-"`
	Error      string                   `json:"error,omitempty"`
}

// Scanner fans pair analysis out over a worker pool
type Scanner struct {
	cfg        Config
	client     models.CandleClient
	detector   analyze.PatternDetector
	engine     *analyze.SignalEngine
	topDown    *analyze.TopDownAnalyzer
	topDownTFs []string
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// Option customises a Scanner
type Option func(*Scanner)

// WithTopDown sets the analyzer used when Config.TopDown is on and the
// timeframes it is fed
func WithTopDown(a *analyze.TopDownAnalyzer, timeframes []string) Option {
	return func(s *Scanner) {
		s.topDown = a
		s.topDownTFs = timeframes
	}
}

// WithMetrics records scan metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// WithLogger sets the scanner logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger.With().Str("component", "scanner").Logger()
	}
}

// New creates a scanner
func New(cfg Config, client models.CandleClient, detector analyze.PatternDetector, engine *analyze.SignalEngine, opts ...Option) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	s := &Scanner{
		cfg:      cfg,
		client:   client,
		detector: detector,
		engine:   engine,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan analyses every pair concurrently. Results keep the order of pairs.
func (s *Scanner) Scan(ctx context.Context, pairs []string) []Result {
	results := make([]Result, len(pairs))
	workers := min(s.cfg.Workers, len(pairs))

	type work struct {
		idx  int
		pair string
	}
	workCh := make(chan work, len(pairs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range workCh {
				results[w.idx] = s.scanPair(ctx, w.pair)
			}
		}()
	}

	for i, pair := range pairs {
		workCh <- work{idx: i, pair: pair}
	}
	close(workCh)
	wg.Wait()

	failed := 0
	signals := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
		if r.Signal != nil {
			signals++
		}
	}
	s.logger.Info().
		Int("pairs", len(pairs)).
		Int("signals", signals).
		Int("failed", failed).
		Int("workers", workers).
		Msg("Scan complete")

	return results
}

func (s *Scanner) scanPair(ctx context.Context, pair string) Result {
	start := time.Now()
	defer func() { s.metrics.ObserveScan(time.Since(start)) }()

	res := Result{Pair: pair}
	candles, err := s.client.GetCandles(ctx, pair, s.cfg.Timeframe, s.cfg.CandleCount)
	if err != nil {
		s.metrics.FetchFailed(s.cfg.Timeframe)
		s.logger.Warn().Err(err).Str("pair", pair).Msg("Candle fetch failed")
		res.Err = fmt.Errorf("fetching %s %s: %w", pair, s.cfg.Timeframe, err)
		res.Error = res.Err.Error()
		return res
	}

	res.Candles = len(candles)
	res.Indicators = calculate.ComputeIndicators(candles)
	res.Patterns = s.detector.Detect(candles, pair, s.cfg.Timeframe)
	res.Signal = s.engine.Evaluate(candles, res.Patterns, res.Indicators, pair, s.cfg.Timeframe)
	s.metrics.ObservePatterns(res.Patterns)
	s.metrics.ObserveSignal(res.Signal)

	if s.cfg.TopDown && s.topDown != nil {
		data, err := calculate.GetMultiTimeframeData(ctx, s.client, pair, s.topDownTFs, s.cfg.CandleCount)
		if err != nil {
			s.metrics.FetchFailed("multi")
			s.logger.Warn().Err(err).Str("pair", pair).Msg("Multi-timeframe fetch failed")
			res.Err = err
			res.Error = err.Error()
			return res
		}
		analysis := s.topDown.Analyze(data, pair)
		res.TopDown = &analysis
		s.metrics.ObserveRecommendation(analysis.Recommendation)
	}

	ev := s.logger.Debug().Str("pair", pair).Int("patterns", len(res.Patterns))
	if res.Signal != nil {
		ev = ev.Str("signal", res.Signal.Direction.String()).Float64("confidence", res.Signal.Confidence)
	}
	ev.Msg("Pair analysed")
	return res
}
