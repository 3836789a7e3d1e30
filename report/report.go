// Package report formats simulation results for people and for the
// REST surface.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/forecast-trader/journal"
	"github.com/rustyeddy/forecast-trader/sim"
)

// Payload is the response body of a simulation request.
type Payload struct {
	FinalBalance float64         `json:"Final Balance"`
	TotalProfit  float64         `json:"Total Profit"`
	TradeLog     []journal.Entry `json:"Trade Log"`
	Decision     journal.Action  `json:"Decision,omitempty"`
}

// NewPayload converts res. The trade log is never null.
func NewPayload(res sim.Result) Payload {
	log := res.Log
	if log == nil {
		log = []journal.Entry{}
	}
	return Payload{
		FinalBalance: res.FinalBalance,
		TotalProfit:  res.Profit,
		TradeLog:     log,
		Decision:     Decision(log),
	}
}

// Decision is the latest trading action in log, or HOLD when nothing
// was traded. End of run liquidations are not decisions and are skipped.
func Decision(log []journal.Entry) journal.Action {
	for i := len(log) - 1; i >= 0; i-- {
		if a := log[i].Action; a != journal.Hold && !a.IsFinal() {
			return log[i].Action
		}
	}
	return journal.Hold
}

// WriteJSON encodes p to w followed by a newline.
func WriteJSON(w io.Writer, p Payload) error {
	data, err := sonic.ConfigStd.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// PrintSummary writes a human readable run summary.
func PrintSummary(w io.Writer, rec journal.RunRecord, log []journal.Entry) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Simulation Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", rec.RunID)
	if !rec.Created.IsZero() {
		fmt.Fprintf(w, "Created:       %s\n", rec.Created.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Instruments:   %s\n", strings.Join(rec.Instruments, ", "))
	fmt.Fprintf(w, "Days:          %d\n", rec.Days)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Parameters")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Lookahead:     %d\n", rec.Lookahead)
	fmt.Fprintf(w, "Threshold:     %.2f%%\n", rec.Threshold*100)

	counts := map[journal.Action]int{}
	for _, e := range log {
		counts[e.Action]++
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Entries:       %d\n", len(log))
	for _, a := range []journal.Action{journal.Buy, journal.Sell, journal.Short, journal.Cover, journal.FinalSell, journal.FinalCover} {
		if counts[a] > 0 {
			fmt.Fprintf(w, "%-14s %d\n", string(a)+":", counts[a])
		}
	}
	fmt.Fprintf(w, "Decision:      %s\n", Decision(log))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %s\n", money(rec.InitialBalance))
	fmt.Fprintf(w, "End Balance:   %s\n", money(rec.FinalBalance))
	fmt.Fprintf(w, "Net P/L:       %s\n", money(rec.Profit))
	if rec.InitialBalance > 0 {
		ret := decimal.NewFromFloat(rec.Profit).Div(decimal.NewFromFloat(rec.InitialBalance)).Mul(decimal.NewFromInt(100))
		fmt.Fprintf(w, "Return:        %s%%\n", ret.StringFixed(2))
	}
}
