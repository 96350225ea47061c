package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders segment rows as a CSV string.
func RenderCSV(rows []SegmentRow) string {
	var sb strings.Builder

	sb.WriteString("segment,strategy,trades,skipped,wins,losses,win_rate,")
	sb.WriteString("gross_pnl,total_costs,net_pnl,avg_net_pnl,nights_held,")
	sb.WriteString("annualized_return,annualized_volatility,sharpe,sortino,max_drawdown,calmar\n")

	for _, m := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%d,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			m.Segment,
			m.Strategy,
			m.Trades,
			m.Skipped,
			m.Wins,
			m.Losses,
			m.WinRate,
			m.GrossPnL,
			m.TotalCosts,
			m.NetPnL,
			m.AvgNetPnL,
			m.NightsHeld,
			m.Perf.AnnualizedReturn,
			m.Perf.AnnualizedVolatility,
			m.Perf.Sharpe,
			m.Perf.Sortino,
			m.Perf.MaxDrawdown,
			m.Perf.Calmar,
		))
	}

	return sb.String()
}
