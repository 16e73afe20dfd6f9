package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/tracker"
)

// GainsMarkdown renders the realized events of a snapshot, in date order,
// with the running cumulative profit.
func GainsMarkdown(s tracker.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Realized Gains (%s)\n\n", s.Currency)
	if len(s.RealizedEvents) == 0 {
		fmt.Fprintln(&b, "No realized gains yet.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Date | Symbol | Quantity | Sell Price | Avg. Cost | Profit | Cumulative |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|---:|")
	for i, e := range s.RealizedEvents {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			e.Date,
			e.Key,
			e.Quantity,
			e.Price,
			e.AverageCost,
			e.Profit.SignedString(),
			s.CumulativeRealizedProfit[i].SignedString(),
		)
	}
	fmt.Fprintf(&b, "| **%s** | | | | | **%s** | |\n", "Total", s.TotalRealizedPnL.SignedString())
	return b.String()
}

// SnapshotMarkdown renders the holdings followed by the realized gains.
func SnapshotMarkdown(s tracker.Snapshot) string {
	holding := RenderHolding(NewHolding(s))
	if s.IsEmpty() {
		return holding
	}
	return holding + "\n" + GainsMarkdown(s)
}
