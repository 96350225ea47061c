// Package liquidity computes the maximum tradeable position size per
// ticker from a trailing average-volume window.
package liquidity

import (
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/marketdata"
)

// CapShares returns the liquidity cap for entering ticker on entryDate:
// trailing average volume over cfg.VolumeWindowDays ending strictly
// before entryDate, times cfg.ParticipationFraction.
//
// When fewer than the required window of observations exists (e.g. a
// recent IPO) the cap is undefined and ok is false; the caller must skip
// the event rather than trade uncapped.
func CapShares(ds *marketdata.Dataset, ticker string, entryDate time.Time, cfg domain.Config) (float64, bool) {
	volumes, ok := ds.TrailingVolumes(ticker, entryDate, cfg.VolumeWindowDays)
	if !ok {
		return 0, false
	}

	var sum float64
	for _, v := range volumes {
		sum += v
	}
	avg := sum / float64(len(volumes))

	return avg * cfg.ParticipationFraction, true
}
