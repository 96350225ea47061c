package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Index Rebalancing Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Portfolio notional: $%.0f\n\n", r.PortfolioNotionalUSD))

	sb.WriteString("## Overall\n\n")
	writeSegmentTable(&sb, []SegmentRow{r.Combined})

	sb.WriteString("## By Strategy\n\n")
	if len(r.Strategies) > 0 {
		writeSegmentTable(&sb, r.Strategies)
	} else {
		sb.WriteString("No results available.\n\n")
	}

	sb.WriteString("## By Index\n\n")
	if len(r.Indexes) > 0 {
		writeSegmentTable(&sb, r.Indexes)
	} else {
		sb.WriteString("No results available.\n\n")
	}

	sb.WriteString("## Skipped Events\n\n")
	if len(r.Skips) > 0 {
		sb.WriteString("| Strategy | Reason | Count |\n")
		sb.WriteString("|----------|--------|-------|\n")
		for _, s := range r.Skips {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d |\n", s.Strategy, s.Reason, s.Count))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No events were skipped.\n\n")
	}

	return sb.String()
}

func writeSegmentTable(sb *strings.Builder, rows []SegmentRow) {
	sb.WriteString("| Segment | Strategy | Trades | Skipped | WinRate | Gross | Costs | Net | AnnRet | AnnVol | Sharpe | Sortino | MaxDD | Calmar |\n")
	sb.WriteString("|---------|----------|--------|---------|---------|-------|-------|-----|--------|--------|--------|---------|-------|--------|\n")
	for _, m := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %.4f | %.2f | %.2f | %.2f | %.4f | %.4f | %.4f | %.4f | %.4f | %.4f |\n",
			m.Segment, m.Strategy, m.Trades, m.Skipped, m.WinRate,
			m.GrossPnL, m.TotalCosts, m.NetPnL,
			m.Perf.AnnualizedReturn, m.Perf.AnnualizedVolatility,
			m.Perf.Sharpe, m.Perf.Sortino, m.Perf.MaxDrawdown, m.Perf.Calmar))
	}
	sb.WriteString("\n")
}
