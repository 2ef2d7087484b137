package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// InventoryMetrics tracks sales allocation, lot lifecycle and margin guard activity.
type InventoryMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	salesTotal        *Counter
	salesAmountTotal  *Counter
	unitsAllocated    *Counter
	shortfallUnits    *Counter
	lotsExpiredTotal  *Counter
	wasteUnitsTotal   *Counter
	promoRejectsTotal *Counter

	// Histogram metrics
	lotsPerSale *Histogram

	// Gauge metrics (point-in-time values)
	activeStockUnits  *Gauge
	expiringLotsCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	stockProvider StockMetricsProvider
}

// StockMetricsProvider supplies lot ledger aggregates for periodic collection.
// It keeps the telemetry layer independent from the inventory domain.
type StockMetricsProvider interface {
	// ActiveStockUnits returns qty_current summed over vigente lots
	ActiveStockUnits(ctx context.Context) (int64, error)

	// ExpiringLotCount returns the number of vigente lots expiring before t
	ExpiringLotCount(ctx context.Context, before time.Time) (int64, error)
}

// InventoryMetricsConfig holds configuration for inventory metrics.
type InventoryMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	ExpiryHorizon   time.Duration // Default: 7 days
	StockProvider   StockMetricsProvider
}

// NewInventoryMetrics creates a new InventoryMetrics instance.
func NewInventoryMetrics(cfg InventoryMetricsConfig) (*InventoryMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	im := &InventoryMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		stockProvider: cfg.StockProvider,
	}

	counters := []struct {
		dst              **Counter
		name, desc, unit string
	}{
		{&im.salesTotal, "psi_sales_total", "Total number of registered sales", "{sales}"},
		{&im.salesAmountTotal, "psi_sales_amount_total", "Total sales amount in whole currency units", "{CLP}"},
		{&im.unitsAllocated, "psi_units_allocated_total", "Units allocated from lots to sales", "{units}"},
		{&im.shortfallUnits, "psi_allocation_shortfall_units_total", "Requested units that no lot could serve", "{units}"},
		{&im.lotsExpiredTotal, "psi_lots_expired_total", "Lots moved to vencido by the expiry sweep", "{lots}"},
		{&im.wasteUnitsTotal, "psi_waste_units_total", "Units registered as waste", "{units}"},
		{&im.promoRejectsTotal, "psi_promo_rejected_total", "Promotions rejected by the margin guard", "{promos}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	im.lotsPerSale, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "psi_sale_lots_consumed",
		Description: "Number of lots consumed by a single sale",
		Unit:        "{lots}",
		Buckets:     []float64{1, 2, 3, 5, 8, 13},
	})
	if err != nil {
		return nil, err
	}

	im.activeStockUnits, err = NewGauge(cfg.Meter,
		"psi_active_stock_units",
		"Units held by vigente lots",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	im.expiringLotsCount, err = NewGauge(cfg.Meter,
		"psi_expiring_lots",
		"Vigente lots expiring within the alert horizon",
		"{lots}",
	)
	if err != nil {
		return nil, err
	}

	return im, nil
}

// RecordSale records a registered sale, its amount and how many lots served it.
func (im *InventoryMetrics) RecordSale(ctx context.Context, channel string, total decimal.Decimal, units, lots int, fullySatisfied bool) {
	if im == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrChannel.String(channel),
		AttrFullySatisfied.Bool(fullySatisfied),
	}
	im.salesTotal.Inc(ctx, attrs...)
	im.salesAmountTotal.Add(ctx, total.Round(0).IntPart(), AttrChannel.String(channel))
	im.unitsAllocated.Add(ctx, int64(units), AttrChannel.String(channel))
	im.lotsPerSale.Record(ctx, float64(lots), AttrChannel.String(channel))
}

// RecordShortfall records units of a product that could not be allocated.
func (im *InventoryMetrics) RecordShortfall(ctx context.Context, productID string, units int) {
	if im == nil || units <= 0 {
		return
	}
	im.shortfallUnits.Add(ctx, int64(units), AttrProductID.String(productID))
}

// RecordLotsExpired records lots moved to vencido by a sweep.
func (im *InventoryMetrics) RecordLotsExpired(ctx context.Context, count int) {
	if im == nil || count <= 0 {
		return
	}
	im.lotsExpiredTotal.Add(ctx, int64(count))
}

// RecordWaste records wasted units by reason.
func (im *InventoryMetrics) RecordWaste(ctx context.Context, reason string, units int) {
	if im == nil {
		return
	}
	im.wasteUnitsTotal.Add(ctx, int64(units), AttrWasteReason.String(reason))
}

// RecordPromoRejected records a promotion rejected by the margin guard.
func (im *InventoryMetrics) RecordPromoRejected(ctx context.Context, violations int) {
	if im == nil {
		return
	}
	im.promoRejectsTotal.Inc(ctx, AttrViolations.Int(violations))
}

// StartPeriodicCollection starts periodic collection of the stock gauges.
// This is non-blocking - use Stop() to stop collection.
func (im *InventoryMetrics) StartPeriodicCollection(ctx context.Context, interval, expiryHorizon time.Duration) {
	im.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		if expiryHorizon <= 0 {
			expiryHorizon = 7 * 24 * time.Hour
		}

		go im.runPeriodicCollection(ctx, interval, expiryHorizon)
	})
}

func (im *InventoryMetrics) runPeriodicCollection(ctx context.Context, interval, expiryHorizon time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	im.collectStockMetrics(ctx, expiryHorizon)

	for {
		select {
		case <-im.stopChan:
			im.logger.Info("Stopping periodic inventory metrics collection")
			return
		case <-ctx.Done():
			im.logger.Info("Context cancelled, stopping periodic inventory metrics collection")
			return
		case <-ticker.C:
			im.collectStockMetrics(ctx, expiryHorizon)
		}
	}
}

func (im *InventoryMetrics) collectStockMetrics(ctx context.Context, expiryHorizon time.Duration) {
	if im.stockProvider == nil {
		im.logger.Debug("No stock provider configured, skipping stock metrics collection")
		return
	}

	units, err := im.stockProvider.ActiveStockUnits(ctx)
	if err != nil {
		im.logger.Warn("Failed to get active stock units", zap.Error(err))
	} else {
		im.activeStockUnits.Record(ctx, units)
	}

	expiring, err := im.stockProvider.ExpiringLotCount(ctx, time.Now().Add(expiryHorizon))
	if err != nil {
		im.logger.Warn("Failed to get expiring lot count", zap.Error(err))
	} else {
		im.expiringLotsCount.Record(ctx, expiring)
	}
}

// Stop stops the periodic collection.
func (im *InventoryMetrics) Stop() {
	if im == nil {
		return
	}
	im.stopOnce.Do(func() {
		close(im.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewInventoryMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
