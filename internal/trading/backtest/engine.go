package backtest

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/patterns"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/trading/risk"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

const (
	defaultWindow    = 50
	warmupCandles    = 20
	maxOpenPositions = 5
)

// ErrAlreadyRun is returned when Run is called on a simulator that has
// already replayed its candles
var ErrAlreadyRun = errors.New("backtest already run")

type state uint8

const (
	stateIdle state = iota
	stateReplaying
	stateFinished
)

// PatternDetector finds SMC patterns in a candle window
type PatternDetector interface {
	Detect(candles []models.Candle, pair, timeframe string) []models.Pattern
}

// Option customises a Simulator
type Option func(*Simulator)

// WithLogger sets the simulator logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger.With().Str("component", "backtest").Logger()
	}
}

// WithDetector replaces the default pattern detector
func WithDetector(d PatternDetector) Option {
	return func(s *Simulator) { s.detector = d }
}

// WithWindow sets the number of trailing candles handed to the detector
func WithWindow(n int) Option {
	return func(s *Simulator) {
		if n >= warmupCandles {
			s.window = n
		}
	}
}

type patternKey struct {
	kind      models.PatternKind
	direction models.Direction
	at        int64
}

// Simulator replays a candle series once, opening trades on detected
// patterns and closing them on fixed pip stops and targets
type Simulator struct {
	cfg            models.StrategyConfig
	initialBalance float64
	detector       PatternDetector
	window         int
	logger         zerolog.Logger

	mu    sync.Mutex
	state state

	balance  float64
	trades   []models.BacktestTrade // arena, indexed by open and closed
	open     []int
	closed   []int
	consumed map[patternKey]struct{}
	equity   []models.EquityPoint
}

// NewSimulator creates a simulator for one run
func NewSimulator(cfg models.StrategyConfig, initialBalance float64, opts ...Option) *Simulator {
	s := &Simulator{
		cfg:            cfg,
		initialBalance: initialBalance,
		window:         defaultWindow,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.detector == nil {
		s.detector = patterns.NewDetector(patterns.DefaultDetectorConfig(), s.logger)
	}
	return s
}

// RunBacktest replays candles with the default detector
func RunBacktest(candles []models.Candle, cfg models.StrategyConfig, initialBalance float64) (*models.BacktestResult, error) {
	return NewSimulator(cfg, initialBalance).Run(candles)
}

// Run replays the candles and returns the trade list, equity curve and
// performance metrics. A simulator can only run once.
//
// Every pattern found in the trailing window is eligible when it is first
// seen, whatever its age, and enters at the current candle's close. The first
// evaluation at candle 20 can therefore open trades on structure formed
// earlier in the window. Each pattern opens at most one trade.
func (s *Simulator) Run(candles []models.Candle) (*models.BacktestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateIdle {
		return nil, ErrAlreadyRun
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	if s.initialBalance <= 0 {
		return nil, fmt.Errorf("%w: initial balance must be positive, got %v", models.ErrInvalidStrategy, s.initialBalance)
	}

	s.state = stateReplaying
	defer func() { s.state = stateFinished }()

	s.balance = s.initialBalance
	s.consumed = make(map[patternKey]struct{})
	s.trades = []models.BacktestTrade{}
	s.equity = []models.EquityPoint{}

	if len(candles) <= warmupCandles {
		s.logger.Info().Int("candles", len(candles)).Msg("Not enough candles to backtest")
		return s.result(), nil
	}

	for i := warmupCandles; i < len(candles); i++ {
		c := candles[i]
		s.checkExits(c)
		s.markEquity(c)

		start := max(0, i-s.window+1)
		found := s.detector.Detect(candles[start:i+1], "", "")
		s.openPositions(c, found)
	}

	last := candles[len(candles)-1]
	for len(s.open) > 0 {
		s.closeTrade(0, last.Timestamp, last.Close, "End of Backtest")
	}

	res := s.result()
	s.logger.Info().
		Int("trades", res.TotalTrades).
		Float64("win_rate", res.WinRate).
		Float64("total_pnl", res.TotalPnL).
		Float64("max_drawdown", res.MaxDrawdown).
		Msg("Backtest finished")
	return res, nil
}

func (s *Simulator) checkExits(c models.Candle) {
	for k := 0; k < len(s.open); {
		t := &s.trades[s.open[k]]

		var price float64
		var reason string
		if t.Type == models.Buy {
			switch {
			case c.Low <= t.StopLoss:
				price, reason = t.StopLoss, "Stop Loss"
			case c.High >= t.TakeProfit:
				price, reason = t.TakeProfit, "Take Profit"
			}
		} else {
			switch {
			case c.High >= t.StopLoss:
				price, reason = t.StopLoss, "Stop Loss"
			case c.Low <= t.TakeProfit:
				price, reason = t.TakeProfit, "Take Profit"
			}
		}

		if reason == "" {
			k++
			continue
		}
		s.closeTrade(k, c.Timestamp, price, reason)
	}
}

// closeTrade closes the k-th open trade and moves it to the closed list
func (s *Simulator) closeTrade(k int, at time.Time, price float64, reason string) {
	idx := s.open[k]
	t := &s.trades[idx]

	pnl := t.UnrealizedPnL(price)
	exitTime, exitPrice := at, price
	t.ExitTime = &exitTime
	t.ExitPrice = &exitPrice
	t.PnL = &pnl
	t.Reason = reason
	s.balance += pnl

	s.open = append(s.open[:k], s.open[k+1:]...)
	s.closed = append(s.closed, idx)

	s.logger.Debug().Str("trade_id", t.ID).Str("reason", reason).
		Float64("exit_price", price).Float64("pnl", pnl).Msg("Trade closed")
}

func (s *Simulator) markEquity(c models.Candle) {
	equity := s.balance
	for _, idx := range s.open {
		equity += s.trades[idx].UnrealizedPnL(c.Close)
	}
	s.equity = append(s.equity, models.EquityPoint{Timestamp: c.Timestamp, Equity: equity})
}

func (s *Simulator) openPositions(c models.Candle, found []models.Pattern) {
	floor := s.cfg.ConfidenceFloor()
	for _, p := range found {
		if p.Kind == models.PatternCHoCH || !s.cfg.Enabled(p.Kind) || p.Confidence < floor {
			continue
		}
		side, ok := models.SignalTypeFor(p.Direction)
		if !ok {
			continue
		}
		key := patternKey{kind: p.Kind, direction: p.Direction, at: p.Timestamp.UnixNano()}
		if _, seen := s.consumed[key]; seen {
			continue
		}
		if len(s.open) >= maxOpenPositions {
			return
		}
		s.consumed[key] = struct{}{}

		entry := c.Close
		stop, target := risk.FixedLevels(entry, side, s.cfg.StopLossPips, s.cfg.TakeProfitPips)
		sizing := risk.CalculatePositionSize(entry, stop, target, s.balance, s.cfg.RiskPercentage)

		seq := strconv.Itoa(len(s.trades))
		s.trades = append(s.trades, models.BacktestTrade{
			ID:         models.DeterministicID("trade", seq, p.Kind.String(), c.Timestamp.UTC().Format(time.RFC3339Nano)),
			EntryTime:  c.Timestamp,
			EntryPrice: entry,
			Type:       side,
			Size:       sizing.PositionSize,
			StopLoss:   stop,
			TakeProfit: target,
			Pattern:    p.Kind,
			Confidence: p.Confidence,
		})
		s.open = append(s.open, len(s.trades)-1)

		s.logger.Debug().Str("pattern", p.Kind.String()).Str("side", side.String()).
			Float64("entry", entry).Float64("size", sizing.PositionSize).Msg("Trade opened")
	}
}

func (s *Simulator) result() *models.BacktestResult {
	closed := make([]models.BacktestTrade, len(s.closed))
	for i, idx := range s.closed {
		closed[i] = s.trades[idx]
	}

	res := &models.BacktestResult{
		InitialBalance: s.initialBalance,
		FinalBalance:   s.balance,
		MaxDrawdown:    MaxDrawdown(s.equity, s.initialBalance),
		Trades:         closed,
		EquityCurve:    s.equity,
	}
	CalculatePerformanceMetrics(res)
	return res
}
