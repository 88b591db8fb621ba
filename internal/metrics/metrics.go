package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

// Metrics holds the Prometheus metrics of the scanner. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	ScansTotal       prometheus.Counter
	FetchErrorsTotal *prometheus.CounterVec
	ScanDuration     prometheus.Histogram
	PatternsTotal    *prometheus.CounterVec
	SignalsTotal     *prometheus.CounterVec
	Recommendations  *prometheus.CounterVec
	LastConfidence   *prometheus.GaugeVec
}

// NewMetrics creates the scanner metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smctrader_scans_total",
			Help: "Total pair scans attempted",
		}),
		FetchErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smctrader_fetch_errors_total",
			Help: "Candle fetches that failed",
		}, []string{"timeframe"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "smctrader_scan_duration_seconds",
			Help:    "Time to fetch and analyse one pair",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		PatternsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smctrader_patterns_total",
			Help: "SMC patterns detected",
		}, []string{"kind", "direction"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smctrader_signals_total",
			Help: "Trading signals emitted",
		}, []string{"pair", "direction"}),
		Recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smctrader_topdown_recommendations_total",
			Help: "Top-down recommendations by outcome",
		}, []string{"recommendation"}),
		LastConfidence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "smctrader_signal_confidence",
			Help: "Confidence of the last signal emitted per pair",
		}, []string{"pair"}),
	}

	reg.MustRegister(
		m.ScansTotal,
		m.FetchErrorsTotal,
		m.ScanDuration,
		m.PatternsTotal,
		m.SignalsTotal,
		m.Recommendations,
		m.LastConfidence,
	)
	return m
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveScan records one finished pair scan
func (m *Metrics) ObserveScan(d time.Duration) {
	if m == nil {
		return
	}
	m.ScansTotal.Inc()
	m.ScanDuration.Observe(d.Seconds())
}

// FetchFailed counts a failed candle fetch
func (m *Metrics) FetchFailed(timeframe string) {
	if m == nil {
		return
	}
	m.FetchErrorsTotal.WithLabelValues(timeframe).Inc()
}

// ObservePatterns counts detected patterns by kind and direction
func (m *Metrics) ObservePatterns(found []models.Pattern) {
	if m == nil {
		return
	}
	for _, p := range found {
		m.PatternsTotal.WithLabelValues(p.Kind.String(), p.Direction.String()).Inc()
	}
}

// ObserveSignal counts an emitted signal
func (m *Metrics) ObserveSignal(s *models.TradingSignal) {
	if m == nil || s == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(s.Pair, s.Direction.String()).Inc()
	m.LastConfidence.WithLabelValues(s.Pair).Set(s.Confidence)
}

// ObserveRecommendation counts a top-down outcome
func (m *Metrics) ObserveRecommendation(r models.Recommendation) {
	if m == nil {
		return
	}
	m.Recommendations.WithLabelValues(r.String()).Inc()
}
