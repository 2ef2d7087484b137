// Package planning turns sales history and lot stock into reorder and
// liquidation advice. Everything here is a pure computation over its inputs.
package planning

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/trade"
)

// DefaultDemandWindowDays is the trailing window used for demand statistics
const DefaultDemandWindowDays = 28

// SaleLine is a sold quantity of one product at a point in time
type SaleLine struct {
	ProductID uuid.UUID
	SoldAt    time.Time
	Qty       int
}

// LinesFromSales joins sale items to their parent sale timestamp
func LinesFromSales(sales []trade.Sale, items []trade.SaleItem) []SaleLine {
	soldAt := make(map[uuid.UUID]time.Time, len(sales))
	for _, s := range sales {
		soldAt[s.ID] = s.SoldAt
	}
	lines := make([]SaleLine, 0, len(items))
	for _, item := range items {
		ts, ok := soldAt[item.SaleID]
		if !ok {
			continue
		}
		lines = append(lines, SaleLine{ProductID: item.ProductID, SoldAt: ts, Qty: item.Qty})
	}
	return lines
}

// DemandStats are the daily demand statistics of one product
type DemandStats struct {
	ProductID     uuid.UUID
	MeanDaily     float64
	StdDaily      float64
	DaysWithSales int
	TotalQty      int
}

// DemandTable maps product id to its demand statistics
type DemandTable map[uuid.UUID]DemandStats

// Lookup returns the stats of a product, or zero mean and std when the
// product had no sales in the window.
func (t DemandTable) Lookup(productID uuid.UUID) DemandStats {
	if s, ok := t[productID]; ok {
		return s
	}
	return DemandStats{ProductID: productID}
}

// DemandEstimator computes per-product daily demand over a trailing window.
// Only calendar days with at least one sale contribute; days without sales
// are not filled in as zeros.
type DemandEstimator struct {
	windowDays int
	location   *time.Location
}

// NewDemandEstimator creates an estimator. Days are cut in loc (time.Local when nil).
func NewDemandEstimator(windowDays int, loc *time.Location) *DemandEstimator {
	if windowDays <= 0 {
		windowDays = DefaultDemandWindowDays
	}
	if loc == nil {
		loc = time.Local
	}
	return &DemandEstimator{windowDays: windowDays, location: loc}
}

// WindowDays returns the trailing window length
func (e *DemandEstimator) WindowDays() int {
	return e.windowDays
}

// WindowStart returns the earliest sale time that falls in the window ending at now
func (e *DemandEstimator) WindowStart(now time.Time) time.Time {
	return now.Add(-time.Duration(e.windowDays) * 24 * time.Hour)
}

type productDay struct {
	product uuid.UUID
	day     string
}

// Estimate computes the sample mean and sample standard deviation of daily
// quantity per product. A single-day series has a standard deviation of 0.
func (e *DemandEstimator) Estimate(lines []SaleLine, now time.Time) DemandTable {
	start := e.WindowStart(now)

	daily := make(map[productDay]int)
	for _, line := range lines {
		if line.SoldAt.Before(start) || line.SoldAt.After(now) {
			continue
		}
		key := productDay{product: line.ProductID, day: line.SoldAt.In(e.location).Format(time.DateOnly)}
		daily[key] += line.Qty
	}

	series := make(map[uuid.UUID][]float64)
	for key, qty := range daily {
		series[key.product] = append(series[key.product], float64(qty))
	}

	table := make(DemandTable, len(series))
	for productID, values := range series {
		mean, std := meanStd(values)
		total := 0
		for _, v := range values {
			total += int(v)
		}
		table[productID] = DemandStats{
			ProductID:     productID,
			MeanDaily:     mean,
			StdDaily:      std,
			DaysWithSales: len(values),
			TotalQty:      total,
		}
	}
	return table
}

// meanStd returns the mean and the sample (n-1) standard deviation
func meanStd(values []float64) (float64, float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	if n < 2 {
		return mean, 0
	}
	sq := 0.0
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / (n - 1))
}
