package planning

import (
	"math"
	"sort"
	"time"

	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
)

// DefaultLiquidationWindowDays is how close to expiry a lot must be to be considered
const DefaultLiquidationWindowDays = 7

// LiquidationCandidate is a near-expiry lot holding more than demand will absorb
type LiquidationCandidate struct {
	Lot             inventory.Lot
	DaysLeft        int
	ProjectedDemand float64
	Excess          float64
}

// AdviseLiquidation flags active lots expiring within windowDays whose
// quantity exceeds mean_daily * max(0, days_left). Products without demand
// stats count as zero demand. Results are sorted by excess, largest first.
func AdviseLiquidation(lots []inventory.Lot, demand DemandTable, now time.Time, windowDays int) []LiquidationCandidate {
	if windowDays < 0 {
		windowDays = DefaultLiquidationWindowDays
	}
	out := make([]LiquidationCandidate, 0)
	for _, lot := range lots {
		if !lot.IsActive() {
			continue
		}
		daysLeft, dated := lot.DaysUntilExpiry(now)
		if !dated || daysLeft > windowDays {
			continue
		}
		projected := demand.Lookup(lot.ProductID).MeanDaily * math.Max(0, float64(daysLeft))
		excess := float64(lot.QtyCurrent) - projected
		if excess <= 0 {
			continue
		}
		out = append(out, LiquidationCandidate{
			Lot:             lot,
			DaysLeft:        daysLeft,
			ProjectedDemand: projected,
			Excess:          excess,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Excess > out[j].Excess
	})
	return out
}
