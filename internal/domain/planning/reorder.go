package planning

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
)

// ReorderParams configure the safety-stock model
type ReorderParams struct {
	LeadTimeDays float64
	CoverDays    float64
	ServiceZ     float64
}

// DefaultReorderParams returns lead time 3 days, cover 7 days and z = 1.28
func DefaultReorderParams() ReorderParams {
	return ReorderParams{LeadTimeDays: 3, CoverDays: 7, ServiceZ: 1.28}
}

// ReorderAdvice is the reorder point and replenishment suggestion for a product
type ReorderAdvice struct {
	ROP          float64
	SuggestedQty int
	NeedsReorder bool
}

// AdviseReorder applies
//
//	ROP       = mean*lead + z*std
//	suggested = max(0, round(mean*cover + z*std - stock))
//	needs     = stock < ROP
//
// Rounding is half-to-even.
func AdviseReorder(stock int, meanDaily, stdDaily float64, p ReorderParams) ReorderAdvice {
	rop := meanDaily*p.LeadTimeDays + p.ServiceZ*stdDaily
	target := meanDaily*p.CoverDays + p.ServiceZ*stdDaily - float64(stock)
	suggested := int(math.RoundToEven(math.Max(0, target)))
	return ReorderAdvice{
		ROP:          rop,
		SuggestedQty: suggested,
		NeedsReorder: float64(stock) < rop,
	}
}

// ReorderLine is the reorder advice for one catalog product
type ReorderLine struct {
	ProductID uuid.UUID
	SKU       string
	Name      string
	Category  string
	Stock     int
	Demand    DemandStats
	Advice    ReorderAdvice
}

// BuildReorderReport evaluates every product and returns those that need a
// reorder, largest suggested quantity first. Products without stock or sales
// count as zero.
func BuildReorderReport(products []catalog.Product, stock map[uuid.UUID]int, demand DemandTable, p ReorderParams) []ReorderLine {
	lines := make([]ReorderLine, 0)
	for _, product := range products {
		stats := demand.Lookup(product.ID)
		onHand := stock[product.ID]
		advice := AdviseReorder(onHand, stats.MeanDaily, stats.StdDaily, p)
		if !advice.NeedsReorder {
			continue
		}
		lines = append(lines, ReorderLine{
			ProductID: product.ID,
			SKU:       product.SKU,
			Name:      product.Name,
			Category:  product.Category,
			Stock:     onHand,
			Demand:    stats,
			Advice:    advice,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Advice.SuggestedQty > lines[j].Advice.SuggestedQty
	})
	return lines
}
