package planning

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/planning"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/setting"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/trade"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const defaultKPIWindowDays = 30

// Bounds on caller-chosen reorder inputs
const (
	maxLeadTimeDays = 30
	maxCoverDays    = 60
	maxServiceZ     = 3
)

// Config holds the advisory windows and reorder model parameters
type Config struct {
	DemandWindowDays      int
	LiquidationWindowDays int
	Reorder               planning.ReorderParams
	Location              *time.Location
}

// DefaultConfig returns a 28 day demand window, a 7 day liquidation window
// and the default reorder parameters.
func DefaultConfig() Config {
	return Config{
		DemandWindowDays:      planning.DefaultDemandWindowDays,
		LiquidationWindowDays: planning.DefaultLiquidationWindowDays,
		Reorder:               planning.DefaultReorderParams(),
		Location:              time.Local,
	}
}

// AdvisoryService computes demand, reorder, liquidation and KPI reports.
// Reads run without locks.
type AdvisoryService struct {
	productRepo catalog.ProductRepository
	lotRepo     inventory.LotRepository
	saleRepo    trade.SaleRepository
	wasteRepo   inventory.WasteRepository
	settings    setting.Repository
	estimator   *planning.DemandEstimator
	cfg         Config
	printer     *message.Printer
	logger      *zap.Logger
	now         func() time.Time
}

// NewAdvisoryService creates a new AdvisoryService
func NewAdvisoryService(
	productRepo catalog.ProductRepository,
	lotRepo inventory.LotRepository,
	saleRepo trade.SaleRepository,
	wasteRepo inventory.WasteRepository,
	settings setting.Repository,
	cfg Config,
	logger *zap.Logger,
) *AdvisoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.LiquidationWindowDays < 0 {
		cfg.LiquidationWindowDays = planning.DefaultLiquidationWindowDays
	}
	return &AdvisoryService{
		productRepo: productRepo,
		lotRepo:     lotRepo,
		saleRepo:    saleRepo,
		wasteRepo:   wasteRepo,
		settings:    settings,
		estimator:   planning.NewDemandEstimator(cfg.DemandWindowDays, cfg.Location),
		cfg:         cfg,
		printer:     message.NewPrinter(language.MustParse("es-CL")),
		logger:      logger,
		now:         time.Now,
	}
}

func (s *AdvisoryService) demandAt(ctx context.Context, now time.Time) (planning.DemandTable, error) {
	sales, err := s.saleRepo.ListInWindow(ctx, s.estimator.WindowStart(now), now)
	if err != nil {
		return nil, err
	}
	items, err := s.itemsOf(ctx, sales)
	if err != nil {
		return nil, err
	}
	return s.estimator.Estimate(planning.LinesFromSales(sales, items), now), nil
}

func (s *AdvisoryService) itemsOf(ctx context.Context, sales []trade.Sale) ([]trade.SaleItem, error) {
	if len(sales) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(sales))
	for i, sale := range sales {
		ids[i] = sale.ID
	}
	return s.saleRepo.ListItemsForSales(ctx, ids)
}

// Demand returns per-product daily demand over the trailing window, highest mean first
func (s *AdvisoryService) Demand(ctx context.Context) (*DemandReport, error) {
	now := s.now()
	table, err := s.demandAt(ctx, now)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	names, err := s.productNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	report := &DemandReport{
		WindowDays: s.estimator.WindowDays(),
		From:       s.estimator.WindowStart(now),
		To:         now,
		Products:   make([]DemandResponse, 0, len(table)),
	}
	for id, stats := range table {
		p := names[id]
		report.Products = append(report.Products, DemandResponse{
			ProductID:     id,
			SKU:           p.SKU,
			Name:          p.Name,
			MeanDaily:     stats.MeanDaily,
			StdDaily:      stats.StdDaily,
			DaysWithSales: stats.DaysWithSales,
			TotalQty:      stats.TotalQty,
		})
	}
	sort.Slice(report.Products, func(i, j int) bool {
		a, b := report.Products[i], report.Products[j]
		if a.MeanDaily != b.MeanDaily {
			return a.MeanDaily > b.MeanDaily
		}
		return a.SKU < b.SKU
	})
	return report, nil
}

// Reorder lists products whose stock is under the reorder point. Lead time,
// cover and z come from the filter when given, else from the configuration.
func (s *AdvisoryService) Reorder(ctx context.Context, filter ReorderFilter) ([]ReorderResponse, error) {
	params, err := s.reorderParams(filter)
	if err != nil {
		return nil, err
	}

	table, err := s.demandAt(ctx, s.now())
	if err != nil {
		return nil, err
	}
	stock, err := s.lotRepo.SumActiveStockByProduct(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.productRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	lines := planning.BuildReorderReport(products, stock, table, params)
	out := make([]ReorderResponse, len(lines))
	for i, line := range lines {
		out[i] = ReorderResponse{
			ProductID:    line.ProductID,
			SKU:          line.SKU,
			Name:         line.Name,
			Category:     line.Category,
			Stock:        line.Stock,
			MeanDaily:    line.Demand.MeanDaily,
			StdDaily:     line.Demand.StdDaily,
			ROP:          line.Advice.ROP,
			SuggestedQty: line.Advice.SuggestedQty,
		}
	}
	return out, nil
}

func (s *AdvisoryService) reorderParams(filter ReorderFilter) (planning.ReorderParams, error) {
	params := s.cfg.Reorder
	if filter.LeadTimeDays != nil {
		if *filter.LeadTimeDays < 0 || *filter.LeadTimeDays > maxLeadTimeDays {
			return params, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Lead time must be between 0 and %d days", maxLeadTimeDays))
		}
		params.LeadTimeDays = *filter.LeadTimeDays
	}
	if filter.CoverDays != nil {
		if *filter.CoverDays < 1 || *filter.CoverDays > maxCoverDays {
			return params, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Cover must be between 1 and %d days", maxCoverDays))
		}
		params.CoverDays = *filter.CoverDays
	}
	if filter.Z != nil {
		if *filter.Z < 0 || *filter.Z > maxServiceZ {
			return params, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("z must be between 0 and %d", maxServiceZ))
		}
		params.ServiceZ = *filter.Z
	}
	return params, nil
}

// Liquidation lists near-expiry lots holding more than demand will absorb.
// windowDays overrides the configured window when not nil.
func (s *AdvisoryService) Liquidation(ctx context.Context, windowDays *int) ([]LiquidationResponse, error) {
	window := s.cfg.LiquidationWindowDays
	if windowDays != nil {
		if *windowDays < 0 {
			return nil, shared.NewDomainError("INVALID_INPUT", "Window days cannot be negative")
		}
		window = *windowDays
	}

	now := s.now()
	table, err := s.demandAt(ctx, now)
	if err != nil {
		return nil, err
	}
	lots, err := s.lotRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	candidates := planning.AdviseLiquidation(lots, table, now, window)
	ids := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Lot.ProductID)
	}
	names, err := s.productNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]LiquidationResponse, len(candidates))
	for i, c := range candidates {
		p := names[c.Lot.ProductID]
		out[i] = LiquidationResponse{
			LotID:           c.Lot.ID,
			LotCode:         c.Lot.LotCode,
			ProductID:       c.Lot.ProductID,
			SKU:             p.SKU,
			Name:            p.Name,
			Expiration:      c.Lot.Expiration,
			QtyCurrent:      c.Lot.QtyCurrent,
			DaysLeft:        c.DaysLeft,
			ProjectedDemand: c.ProjectedDemand,
			Excess:          c.Excess,
		}
	}
	return out, nil
}

// KPIs summarizes sales, cost of goods sold, margin and waste for a period
func (s *AdvisoryService) KPIs(ctx context.Context, filter KPIFilter) (*KPIResponse, error) {
	from, to, err := s.period(filter.From, filter.To)
	if err != nil {
		return nil, err
	}

	sales, err := s.saleRepo.ListInWindow(ctx, from, to)
	if err != nil {
		return nil, err
	}
	items, err := s.itemsOf(ctx, sales)
	if err != nil {
		return nil, err
	}
	products, err := s.productRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	allWaste, err := s.wasteRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	waste := make([]inventory.Waste, 0, len(allWaste))
	for _, w := range allWaste {
		if !w.OccurredAt.Before(from) && !w.OccurredAt.After(to) {
			waste = append(waste, w)
		}
	}

	k := planning.SummarizeKPIs(sales, items, products, waste)
	return &KPIResponse{
		From:            from,
		To:              to,
		Currency:        s.currency(ctx),
		SalesCount:      k.SalesCount,
		SalesTotal:      s.amount(k.SalesTotal),
		COGS:            s.amount(k.COGS),
		EstimatedMargin: s.amount(k.EstimatedMargin),
		WasteUnits:      k.WasteUnits,
		WasteCost:       s.amount(k.WasteCost),
	}, nil
}

// SalesPeriods returns weekly or monthly sales totals, oldest first
func (s *AdvisoryService) SalesPeriods(ctx context.Context, filter SalesPeriodFilter) ([]PeriodResponse, error) {
	g := planning.GranularityWeek
	switch filter.Granularity {
	case "", string(planning.GranularityWeek):
	case string(planning.GranularityMonth):
		g = planning.GranularityMonth
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "Granularity must be week or month")
	}

	from, to, err := s.period(filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	if filter.From == nil {
		// charts look further back than the KPI cards
		from = to.AddDate(0, -6, 0)
	}

	sales, err := s.saleRepo.ListInWindow(ctx, from, to)
	if err != nil {
		return nil, err
	}

	periods := planning.SalesByPeriod(sales, g, s.cfg.Location)
	out := make([]PeriodResponse, len(periods))
	for i, p := range periods {
		out[i] = PeriodResponse{Period: p.Period, Start: p.Start, Count: p.Count, Total: p.Total}
	}
	return out, nil
}

// FormatAmount renders a money amount as whole units with "." thousands separators
func (s *AdvisoryService) FormatAmount(d decimal.Decimal) string {
	return s.printer.Sprintf("%d", d.Round(0).IntPart())
}

func (s *AdvisoryService) amount(d decimal.Decimal) Amount {
	return Amount{Value: d, Formatted: s.FormatAmount(d)}
}

func (s *AdvisoryService) period(from, to *time.Time) (time.Time, time.Time, error) {
	end := s.now()
	if to != nil {
		// a date-only upper bound covers the whole day
		end = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	start := end.AddDate(0, 0, -defaultKPIWindowDays)
	if from != nil {
		start = *from
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, shared.NewDomainError("INVALID_INPUT", "Period start must not be after its end")
	}
	return start, end, nil
}

func (s *AdvisoryService) currency(ctx context.Context) string {
	if s.settings == nil {
		return setting.Defaults[setting.KeyCurrency]
	}
	v, found, err := s.settings.Get(ctx, setting.KeyCurrency)
	if err != nil {
		s.logger.Warn("Failed to read currency setting", zap.Error(err))
	}
	if err != nil || !found || v == "" {
		return setting.Defaults[setting.KeyCurrency]
	}
	return v
}

func (s *AdvisoryService) productNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.Product, error) {
	out := make(map[uuid.UUID]catalog.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}
