package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/analyze"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/api/twelvedata"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/calculate"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/config"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/feed"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/metrics"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/patterns"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/report"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/scanner"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/trading/backtest"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

type app struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	cliApp := &cli.App{
		Name:  "smctrader",
		Usage: "Smart Money Concepts signal scanner and backtester",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file loaded before the environment is read"},
			&cli.StringFlag{Name: "log-level", Usage: "overrides LOG_LEVEL"},
		},
		Before: a.setup,
		Commands: []*cli.Command{
			{
				Name:  "scan",
				Usage: "scan pairs for SMC patterns and trading signals",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "pair", Aliases: []string{"p"}, Usage: "pair to scan, repeatable (default PAIRS)"},
					&cli.StringFlag{Name: "timeframe", Aliases: []string{"t"}, Usage: "entry timeframe (default TIMEFRAME)"},
					&cli.BoolFlag{Name: "top-down", Usage: "also run the multi-timeframe analysis"},
					&cli.DurationFlag{Name: "interval", Usage: "repeat the scan at this interval until interrupted"},
					&cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address (default METRICS_ADDR)"},
					&cli.BoolFlag{Name: "json", Usage: "print results as JSON"},
				},
				Action: a.scan,
			},
			{
				Name:  "topdown",
				Usage: "run the multi-timeframe top-down analysis for one pair",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "pair", Aliases: []string{"p"}, Value: "EUR/USD"},
					&cli.BoolFlag{Name: "json", Usage: "print the analysis as JSON"},
				},
				Action: a.topDown,
			},
			{
				Name:  "backtest",
				Usage: "replay historical candles through the SMC strategy",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "pair", Aliases: []string{"p"}, Value: "EUR/USD"},
					&cli.StringFlag{Name: "timeframe", Aliases: []string{"t"}, Usage: "candle timeframe (default TIMEFRAME)"},
					&cli.IntFlag{Name: "days", Usage: "days of history to fetch (default BACKTEST_DAYS)"},
					&cli.StringFlag{Name: "csv", Usage: "read candles from a CSV file instead of the API"},
					&cli.StringFlag{Name: "strategy", Usage: "YAML strategy file (default STRATEGY_FILE)"},
					&cli.Float64Flag{Name: "balance", Usage: "initial balance (default INITIAL_BALANCE)"},
					&cli.IntFlag{Name: "trades", Value: 20, Usage: "number of trades listed, 0 for all"},
					&cli.BoolFlag{Name: "json", Usage: "print the result as JSON"},
				},
				Action: a.backtest,
			},
		},
	}

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("smctrader failed")
	}
}

// setup loads the configuration and configures logging
func (a *app) setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	a.cfg = cfg
	a.logger = setupLogging(cfg.LogLevel, cfg.LogJSON)
	return nil
}

// setupLogging configures the global logger and returns it
func setupLogging(logLevel string, jsonOutput bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if jsonOutput {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.Logger.Level(level)
	return log.Logger
}

func (a *app) client() (*twelvedata.Client, error) {
	if a.cfg.TwelveAPIKey == "" {
		return nil, errors.New("TWELVE_API_KEY is not set")
	}
	return twelvedata.NewClient(twelvedata.ClientOptions{
		APIKey:         a.cfg.TwelveAPIKey,
		RequestTimeout: a.cfg.RequestTimeout,
		RequestsPerSec: a.cfg.RequestsPerSecond,
		Logger:         a.logger,
	}), nil
}

func (a *app) topDownConfig() analyze.TopDownConfig {
	cfg := analyze.DefaultTopDownConfig()
	cfg.HTF = a.cfg.HTFTimeframe
	cfg.LTF = a.cfg.LTFTimeframe
	cfg.EntryTimeframes = a.cfg.EntryTimeframes
	return cfg
}

func (a *app) scan(c *cli.Context) error {
	client, err := a.client()
	if err != nil {
		return err
	}

	pairs := c.StringSlice("pair")
	if len(pairs) == 0 {
		pairs = a.cfg.Pairs
	}
	timeframe := c.String("timeframe")
	if timeframe == "" {
		timeframe = a.cfg.Timeframe
	}

	detector := patterns.NewDetector(patterns.DefaultDetectorConfig(), a.logger)
	engine := analyze.NewSignalEngine(analyze.DefaultSignalConfig())
	tdCfg := a.topDownConfig()
	opts := []scanner.Option{
		scanner.WithLogger(a.logger),
		scanner.WithTopDown(analyze.NewTopDownAnalyzer(tdCfg, detector, engine, a.logger), tdCfg.Timeframes()),
	}

	metricsAddr := c.String("metrics-addr")
	if metricsAddr == "" {
		metricsAddr = a.cfg.MetricsAddr
	}
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, scanner.WithMetrics(metrics.NewMetrics(reg)))
		srv := serveMetrics(metricsAddr, reg, a.logger)
		defer srv.Close()
	}

	s := scanner.New(scanner.Config{
		Timeframe:   timeframe,
		CandleCount: a.cfg.CandleCount,
		Workers:     a.cfg.ScanWorkers,
		TopDown:     c.Bool("top-down"),
	}, client, detector, engine, opts...)

	interval := c.Duration("interval")
	for {
		results := s.Scan(c.Context, pairs)
		if err := a.printScan(c, results); err != nil {
			return err
		}
		if interval <= 0 {
			return nil
		}

		select {
		case <-c.Context.Done():
			a.logger.Info().Msg("Shutdown signal received, exiting...")
			return nil
		case <-time.After(interval):
		}
	}
}

func (a *app) printScan(c *cli.Context, results []scanner.Result) error {
	if c.Bool("json") {
		return printJSON(results)
	}
	report.ScanResults(os.Stdout, results)
	for _, r := range results {
		if r.TopDown != nil {
			report.TopDown(os.Stdout, *r.TopDown)
		}
	}
	return nil
}

func serveMetrics(addr string, g prometheus.Gatherer, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
	return srv
}

func (a *app) topDown(c *cli.Context) error {
	client, err := a.client()
	if err != nil {
		return err
	}

	pair := c.String("pair")
	cfg := a.topDownConfig()
	data, err := calculate.GetMultiTimeframeData(c.Context, client, pair, cfg.Timeframes(), a.cfg.CandleCount)
	if err != nil {
		return err
	}

	detector := patterns.NewDetector(patterns.DefaultDetectorConfig(), a.logger)
	analyzer := analyze.NewTopDownAnalyzer(cfg, detector, analyze.NewSignalEngine(analyze.DefaultSignalConfig()), a.logger)
	analysis := analyzer.Analyze(data, pair)

	if c.Bool("json") {
		return printJSON(analysis)
	}
	report.TopDown(os.Stdout, analysis)
	return nil
}

func (a *app) backtest(c *cli.Context) error {
	strategyPath := c.String("strategy")
	if strategyPath == "" {
		strategyPath = a.cfg.StrategyFile
	}
	strategy, err := config.LoadStrategy(strategyPath)
	if err != nil {
		return err
	}

	balance := c.Float64("balance")
	if balance == 0 {
		balance = a.cfg.InitialBalance
	}

	candles, err := a.backtestCandles(c)
	if err != nil {
		return err
	}
	a.logger.Info().Int("candles", len(candles)).Str("pair", c.String("pair")).Msg("Running backtest")

	res, err := backtest.NewSimulator(strategy, balance, backtest.WithLogger(a.logger)).Run(candles)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	if c.Bool("json") {
		return printJSON(res)
	}
	report.Backtest(os.Stdout, res, c.Int("trades"))
	return nil
}

func (a *app) backtestCandles(c *cli.Context) ([]models.Candle, error) {
	if path := c.String("csv"); path != "" {
		return feed.LoadCSV(path)
	}

	client, err := a.client()
	if err != nil {
		return nil, err
	}
	timeframe := c.String("timeframe")
	if timeframe == "" {
		timeframe = a.cfg.Timeframe
	}
	days := c.Int("days")
	if days <= 0 {
		days = a.cfg.BacktestDays
	}
	return client.GetHistoricalCandles(c.Context, c.String("pair"), timeframe, days)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
