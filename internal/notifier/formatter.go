package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"MarketPulse/internal/model"
)

// FormatThresholdAlert renders a price-alert message: ticker, current
// price, the breached target, and how far below the base price we are.
func FormatThresholdAlert(symbol string, price, target, belowBasePct float64, label string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚨 <b>%s buy alert!</b> 🚨\n\n", symbol))
	b.WriteString(fmt.Sprintf("Current: <b>$%.2f</b>\n", price))
	b.WriteString(fmt.Sprintf("Target (%s): $%.2f\n", label, target))
	b.WriteString(fmt.Sprintf("Below base: -%.2f%%", belowBasePct))
	return b.String()
}

// FormatDigest renders the daily signal summary across all instruments.
func FormatDigest(instruments []model.Instrument, quotes map[string]model.Quote, signals map[string]model.Signal, simulation bool) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>MarketPulse daily digest</b> | %s\n\n", time.Now().Format("2006-01-02")))
	if simulation {
		b.WriteString("⚠️ running on simulated data (all sources down)\n\n")
	}

	sorted := make([]model.Instrument, len(instruments))
	copy(sorted, instruments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Symbol < sorted[j].Symbol })

	for _, inst := range sorted {
		q, ok := quotes[inst.Symbol]
		if !ok {
			continue
		}
		sig := signals[inst.Symbol]
		b.WriteString(fmt.Sprintf("<b>%s</b> $%.2f (%+.2f%%) %s\n", inst.Symbol, q.Price, q.ChangePercent, sig.Action))
		b.WriteString(fmt.Sprintf("  %s\n", sig.Reason))
	}
	return b.String()
}

// FormatStatus renders the pipeline status for the /status command.
func FormatStatus(quoteCount int, simulation bool, lastFetch time.Time, interval time.Duration) string {
	var b strings.Builder
	b.WriteString("📦 <b>Pipeline status</b>\n\n")
	b.WriteString(fmt.Sprintf("Tracked quotes: %d\n", quoteCount))
	b.WriteString(fmt.Sprintf("Simulation mode: %v\n", simulation))
	if lastFetch.IsZero() {
		b.WriteString("Last real fetch: never\n")
	} else {
		b.WriteString(fmt.Sprintf("Last real fetch: %s\n", lastFetch.Format("2006-01-02 15:04:05")))
	}
	b.WriteString(fmt.Sprintf("Polling interval: %s\n", interval))
	return b.String()
}

// FormatQuotes renders the latest quotes for the /quotes command.
func FormatQuotes(quotes map[string]model.Quote) string {
	if len(quotes) == 0 {
		return "no quotes cached yet"
	}
	symbols := make([]string, 0, len(quotes))
	for sym := range quotes {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var b strings.Builder
	b.WriteString("💹 <b>Latest quotes</b>\n\n")
	for _, sym := range symbols {
		q := quotes[sym]
		line := fmt.Sprintf("<b>%s</b> $%.2f (%+.2f%%) [%s]", sym, q.Price, q.ChangePercent, q.Session)
		if q.RSI14 != nil {
			line += fmt.Sprintf(" RSI %d", *q.RSI14)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
