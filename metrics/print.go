package metrics

import (
	"fmt"
	"io"
)

// Write renders the report as a plain-text summary suitable for stdout
// or a results file.
func (r Report) Write(w io.Writer) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Results")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Total Trades:    %d\n", r.TotalTrades)
	fmt.Fprintf(w, "Winning Trades:  %d\n", r.WinningTrades)
	fmt.Fprintf(w, "Losing Trades:   %d\n", r.LosingTrades)
	fmt.Fprintf(w, "Win Rate:        %.2f%%\n", r.WinRate)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Initial Balance: %.2f\n", r.InitialBalance)
	fmt.Fprintf(w, "Final Balance:   %.2f\n", r.FinalBalance)
	fmt.Fprintf(w, "Total P&L:       %.2f\n", r.TotalPnL)
	fmt.Fprintf(w, "ROI:             %.2f%%\n", r.ROI)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Risk")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Average Win:     %.2f\n", r.AvgWin)
	fmt.Fprintf(w, "Average Loss:    %.2f\n", r.AvgLoss)
	fmt.Fprintf(w, "Profit Factor:   %.2f\n", r.ProfitFactor)
	fmt.Fprintf(w, "Max Drawdown:    %.2f%%\n", r.MaxDrawdown)
	fmt.Fprintf(w, "Sharpe Ratio:    %.2f\n", r.SharpeRatio)
	fmt.Fprintln(w)
}
