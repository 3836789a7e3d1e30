package explain

import (
	"fmt"
	"strconv"
	"strings"
)

// historyInPrompt is how many recent actual prices the prompt shows.
const historyInPrompt = 5

// Prompt renders the question sent to a language model for c.
func Prompt(c Context) string {
	history := c.History
	if len(history) > historyInPrompt {
		history = history[len(history)-historyInPrompt:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert trading bot. Analyze the following stock data and explain why taking the action '%s' on %s is a good move.\n\n", c.Action, c.Instrument)
	fmt.Fprintf(&b, "Current price: %s\n", formatPrice(c.Price))
	fmt.Fprintf(&b, "Recent actual prices: %s\n", formatPrices(history))
	fmt.Fprintf(&b, "Predicted future prices: %s\n\n", formatPrices(c.Forecast))
	b.WriteString("Try to include patterns, trends, or candlestick behavior (if visible), and keep it to one sentence.\n")
	return b.String()
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPrices(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatPrice(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
