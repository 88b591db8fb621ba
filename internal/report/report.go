package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/internal/scanner"
	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

// ScanResults prints one row per scanned pair
func ScanResults(w io.Writer, results []scanner.Result) {
	table := tablewriter.NewWriter(w)
	table.Header("Pair", "Candles", "Patterns", "RSI", "ATR", "Signal", "Conf", "Entry", "Stop", "Target", "Note")

	for _, r := range results {
		if r.Err != nil {
			table.Append(r.Pair, "-", "-", "-", "-", "-", "-", "-", "-", "-", r.Err.Error())
			continue
		}

		row := []any{
			r.Pair,
			fmt.Sprintf("%d", r.Candles),
			fmt.Sprintf("%d", len(r.Patterns)),
			fmt.Sprintf("%.1f", r.Indicators.RSI),
			price(r.Indicators.ATR),
		}
		if s := r.Signal; s != nil {
			row = append(row, s.Direction.String(), fmt.Sprintf("%.0f", s.Confidence),
				price(s.EntryPrice), price(s.StopLossPrice), price(s.TakeProfitPrice),
				strings.Join(s.Confirmations, "; "))
		} else {
			row = append(row, "NONE", "-", "-", "-", "-", topPattern(r.Patterns))
		}
		table.Append(row...)
	}

	table.Render()
}

// TopDown prints the biases, accepted entries and the final call of a
// multi-timeframe analysis
func TopDown(w io.Writer, a models.TopDownAnalysis) {
	fmt.Fprintf(w, "\n%s: %s (confidence %.1f)\n", a.Pair, a.Recommendation, a.Confidence)

	biases := tablewriter.NewWriter(w)
	biases.Header("Timeframe", "Bias", "Confidence", "Key level", "Swing high", "Swing low")
	for _, b := range []models.Bias{a.HTFBias, a.LTFBias} {
		biases.Append(b.Timeframe, b.Direction.String(), fmt.Sprintf("%.2f", b.Confidence),
			price(b.KeyLevel), price(b.SwingHigh), price(b.SwingLow))
	}
	biases.Render()

	if len(a.ConfluenceSignals) == 0 {
		fmt.Fprintln(w, "  no entry aligned with the higher timeframe")
		return
	}

	entries := tablewriter.NewWriter(w)
	entries.Header("Timeframe", "Signal", "Conf", "RR", "Score", "Factors")
	for _, cs := range a.ConfluenceSignals {
		entries.Append(cs.Timeframe, cs.Signal.Direction.String(), fmt.Sprintf("%.0f", cs.Signal.Confidence),
			fmt.Sprintf("%.2f", cs.Signal.RiskRewardRatio), fmt.Sprintf("%.0f", cs.Score),
			strings.Join(cs.Factors, "; "))
	}
	entries.Render()
}

// Backtest prints the summary metrics and the last maxTrades trades.
// maxTrades <= 0 prints every trade.
func Backtest(w io.Writer, res *models.BacktestResult, maxTrades int) {
	summary := tablewriter.NewWriter(w)
	summary.Header("Metric", "Value")
	summary.Append("Trades", fmt.Sprintf("%d (%d won / %d lost)", res.TotalTrades, res.WinningTrades, res.LosingTrades))
	summary.Append("Win rate", fmt.Sprintf("%.1f%%", res.WinRate*100))
	summary.Append("Profit factor", fmt.Sprintf("%.2f", res.ProfitFactor))
	summary.Append("Total P&L", fmt.Sprintf("%.2f", res.TotalPnL))
	summary.Append("Balance", fmt.Sprintf("%.2f -> %.2f", res.InitialBalance, res.FinalBalance))
	summary.Append("Max drawdown", fmt.Sprintf("%.2f%%", res.MaxDrawdown*100))
	summary.Append("Avg win / loss", fmt.Sprintf("%.2f / %.2f", res.AverageWin, res.AverageLoss))
	summary.Append("Sharpe (per trade)", fmt.Sprintf("%.2f", res.SharpeRatio))
	summary.Append("Max streak", fmt.Sprintf("%d wins / %d losses", res.MaxConsecutiveWins, res.MaxConsecutiveLosses))
	summary.Render()

	trades := res.Trades
	if maxTrades > 0 && len(trades) > maxTrades {
		trades = trades[len(trades)-maxTrades:]
	}
	if len(trades) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("Entry time", "Side", "Pattern", "Entry", "Exit", "P&L", "Reason")
	for _, t := range trades {
		exit, pnl := "-", "-"
		if t.ExitPrice != nil {
			exit = price(*t.ExitPrice)
		}
		if t.PnL != nil {
			pnl = fmt.Sprintf("%.2f", *t.PnL)
		}
		table.Append(t.EntryTime.Format("2006-01-02 15:04"), t.Type.String(), t.Pattern.String(),
			price(t.EntryPrice), exit, pnl, t.Reason)
	}
	table.Render()
}

func price(v float64) string {
	if v > 20 {
		return fmt.Sprintf("%.3f", v)
	}
	return fmt.Sprintf("%.5f", v)
}

func topPattern(found []models.Pattern) string {
	if len(found) == 0 {
		return ""
	}
	p := found[0]
	return fmt.Sprintf("top: %s %s %.2f", p.Direction, p.Kind, p.Confidence)
}
