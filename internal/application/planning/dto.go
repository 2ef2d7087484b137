package planning

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DemandResponse is the daily demand of one product over the trailing window
type DemandResponse struct {
	ProductID     uuid.UUID `json:"product_id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	MeanDaily     float64   `json:"mean_daily"`
	StdDaily      float64   `json:"std_daily"`
	DaysWithSales int       `json:"days_with_sales"`
	TotalQty      int       `json:"total_qty"`
}

// DemandReport wraps the demand table with the window it covers
type DemandReport struct {
	WindowDays int              `json:"window_days"`
	From       time.Time        `json:"from"`
	To         time.Time        `json:"to"`
	Products   []DemandResponse `json:"products"`
}

// ReorderFilter carries the caller-chosen reorder model inputs. Nil fields
// fall back to the configured parameters.
type ReorderFilter struct {
	LeadTimeDays *float64 `form:"lead_time_days"`
	CoverDays    *float64 `form:"cover_days"`
	Z            *float64 `form:"z"`
}

// ReorderResponse is a product that should be reordered
type ReorderResponse struct {
	ProductID    uuid.UUID `json:"product_id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Stock        int       `json:"stock"`
	MeanDaily    float64   `json:"mean_daily"`
	StdDaily     float64   `json:"std_daily"`
	ROP          float64   `json:"rop"`
	SuggestedQty int       `json:"suggested_qty"`
}

// LiquidationResponse is a near-expiry lot that demand will not absorb in time
type LiquidationResponse struct {
	LotID           uuid.UUID  `json:"lot_id"`
	LotCode         string     `json:"lot_code"`
	ProductID       uuid.UUID  `json:"product_id"`
	SKU             string     `json:"sku,omitempty"`
	Name            string     `json:"name,omitempty"`
	Expiration      *time.Time `json:"expiration"`
	QtyCurrent      int        `json:"qty_current"`
	DaysLeft        int        `json:"days_left"`
	ProjectedDemand float64    `json:"projected_demand"`
	Excess          float64    `json:"excess"`
}

// KPIFilter bounds the KPI summary. Nil bounds default to the last 30 days.
type KPIFilter struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

// Amount is a money figure with its display form
type Amount struct {
	Value     decimal.Decimal `json:"value"`
	Formatted string          `json:"formatted"`
}

// KPIResponse is the dashboard summary
type KPIResponse struct {
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	Currency        string    `json:"currency"`
	SalesCount      int       `json:"sales_count"`
	SalesTotal      Amount    `json:"sales_total"`
	COGS            Amount    `json:"cogs"`
	EstimatedMargin Amount    `json:"estimated_margin"`
	WasteUnits      int       `json:"waste_units"`
	WasteCost       Amount    `json:"waste_cost"`
}

// SalesPeriodFilter selects the sales periods chart data
type SalesPeriodFilter struct {
	Granularity string     `form:"granularity" binding:"omitempty,oneof=week month"`
	From        *time.Time `form:"from" time_format:"2006-01-02"`
	To          *time.Time `form:"to" time_format:"2006-01-02"`
}

// PeriodResponse is the sales total of one week or month
type PeriodResponse struct {
	Period string          `json:"period"`
	Start  time.Time       `json:"start"`
	Count  int             `json:"count"`
	Total  decimal.Decimal `json:"total"`
}
