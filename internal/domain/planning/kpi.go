package planning

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/trade"
)

// KPISummary is the headline figures of the dashboard
type KPISummary struct {
	SalesCount      int
	SalesTotal      decimal.Decimal
	COGS            decimal.Decimal
	EstimatedMargin decimal.Decimal
	WasteUnits      int
	WasteCost       decimal.Decimal
}

// SummarizeKPIs computes sales total, cost of goods sold at current product
// cost, estimated margin and waste cost. Items whose product no longer
// exists contribute no cost.
func SummarizeKPIs(sales []trade.Sale, items []trade.SaleItem, products []catalog.Product, waste []inventory.Waste) KPISummary {
	cost := make(map[uuid.UUID]decimal.Decimal, len(products))
	for _, p := range products {
		cost[p.ID] = p.UnitCost
	}

	k := KPISummary{
		SalesCount: len(sales),
		SalesTotal: decimal.Zero,
		COGS:       decimal.Zero,
		WasteCost:  decimal.Zero,
	}
	for _, s := range sales {
		k.SalesTotal = k.SalesTotal.Add(s.Total)
	}
	for _, item := range items {
		if c, ok := cost[item.ProductID]; ok {
			k.COGS = k.COGS.Add(c.Mul(decimal.NewFromInt(int64(item.Qty))))
		}
	}
	for _, w := range waste {
		k.WasteUnits += w.Qty
		k.WasteCost = k.WasteCost.Add(w.Cost())
	}
	k.EstimatedMargin = k.SalesTotal.Sub(k.COGS)
	return k
}

// Granularity of a sales period aggregation
type Granularity string

const (
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// PeriodTotal is the sales total of one week or month
type PeriodTotal struct {
	Period string
	Start  time.Time
	Count  int
	Total  decimal.Decimal
}

// SalesByPeriod groups sale totals into ISO weeks or calendar months in loc,
// oldest period first.
func SalesByPeriod(sales []trade.Sale, g Granularity, loc *time.Location) []PeriodTotal {
	if loc == nil {
		loc = time.Local
	}
	buckets := make(map[string]*PeriodTotal)
	for _, s := range sales {
		label, start := periodOf(s.SoldAt.In(loc), g)
		b, ok := buckets[label]
		if !ok {
			b = &PeriodTotal{Period: label, Start: start, Total: decimal.Zero}
			buckets[label] = b
		}
		b.Count++
		b.Total = b.Total.Add(s.Total)
	}
	out := make([]PeriodTotal, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

func periodOf(t time.Time, g Granularity) (string, time.Time) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if g == GranularityMonth {
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		return start.Format("2006-01"), start
	}
	offset := (int(day.Weekday()) + 6) % 7 // days since Monday
	start := day.AddDate(0, 0, -offset)
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week), start
}
