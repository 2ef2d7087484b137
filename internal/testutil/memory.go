package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/pricing"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/setting"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/trade"
)

// Store is an in-memory implementation of every repository, used by
// application and handler tests. Transaction snapshots the mutable state and
// restores it when the callback fails.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	Products  map[uuid.UUID]catalog.Product
	Suppliers map[uuid.UUID]catalog.Supplier
	Lots      map[uuid.UUID]inventory.Lot
	Purchases map[uuid.UUID]inventory.Purchase
	Sales     map[uuid.UUID]trade.Sale
	Waste     []inventory.Waste
	Settings  map[string]string
	Rules     map[string]pricing.MarginRule
	Promos    map[uuid.UUID]pricing.Promo
	Audit     []audit.Entry

	// Failure injection
	ErrSaleCreate  error
	ErrSettingGet  error
	ErrRuleLookup  error
	ErrAuditAppend error
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		Products:  make(map[uuid.UUID]catalog.Product),
		Suppliers: make(map[uuid.UUID]catalog.Supplier),
		Lots:      make(map[uuid.UUID]inventory.Lot),
		Purchases: make(map[uuid.UUID]inventory.Purchase),
		Sales:     make(map[uuid.UUID]trade.Sale),
		Settings:  make(map[string]string),
		Rules:     make(map[string]pricing.MarginRule),
		Promos:    make(map[uuid.UUID]pricing.Promo),
	}
}

type snapshot struct {
	lots      map[uuid.UUID]inventory.Lot
	purchases map[uuid.UUID]inventory.Purchase
	sales     map[uuid.UUID]trade.Sale
}

// Transaction runs fn serialized against other transactions and rolls back
// lots, purchases and sales when fn fails.
func (s *Store) Transaction(fn func() error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := snapshot{
		lots:      cloneMap(s.Lots),
		purchases: cloneMap(s.Purchases),
		sales:     cloneMap(s.Sales),
	}
	s.mu.Unlock()

	if err := fn(); err != nil {
		s.mu.Lock()
		s.Lots, s.Purchases, s.Sales = snap.lots, snap.purchases, snap.sales
		s.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// AddProduct stores a product
func (s *Store) AddProduct(p *catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Products[p.ID] = *p
}

// AddLot stores a lot
func (s *Store) AddLot(l *inventory.Lot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Lots[l.ID] = *l
}

// Lot returns a copy of a stored lot
func (s *Store) Lot(id uuid.UUID) inventory.Lot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Lots[id]
}

// SaleCount returns the number of stored sales
func (s *Store) SaleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Sales)
}

// ProductRepo returns a catalog.ProductRepository view
func (s *Store) ProductRepo() catalog.ProductRepository { return &productRepo{s} }

// SupplierRepo returns a catalog.SupplierRepository view
func (s *Store) SupplierRepo() catalog.SupplierRepository { return &supplierRepo{s} }

// LotRepo returns an inventory.LotRepository view
func (s *Store) LotRepo() inventory.LotRepository { return &lotRepo{s} }

// PurchaseRepo returns an inventory.PurchaseRepository view
func (s *Store) PurchaseRepo() inventory.PurchaseRepository { return &purchaseRepo{s} }

// WasteRepo returns an inventory.WasteRepository view
func (s *Store) WasteRepo() inventory.WasteRepository { return &wasteRepo{s} }

// SaleRepo returns a trade.SaleRepository view
func (s *Store) SaleRepo() trade.SaleRepository { return &saleRepo{s} }

// SettingRepo returns a setting.Repository view
func (s *Store) SettingRepo() setting.Repository { return &settingRepo{s} }

// MarginRuleRepo returns a pricing.MarginRuleRepository view
func (s *Store) MarginRuleRepo() pricing.MarginRuleRepository { return &ruleRepo{s} }

// PromoRepo returns a pricing.PromoRepository view
func (s *Store) PromoRepo() pricing.PromoRepository { return &promoRepo{s} }

// AuditLog returns an audit sink and reader
func (s *Store) AuditLog() *AuditLog { return &AuditLog{s} }

func paginate[T any](items []T, f shared.Filter) []T {
	f = f.Normalize()
	start := f.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + f.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// --- products ---

type productRepo struct{ s *Store }

func (r *productRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.Products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *productRepo) FindBySKU(_ context.Context, sku string) (*catalog.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.Products {
		if strings.EqualFold(p.SKU, sku) {
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *productRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.Products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *productRepo) sorted() []catalog.Product {
	out := make([]catalog.Product, 0, len(r.s.Products))
	for _, p := range r.s.Products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

func (r *productRepo) FindAll(_ context.Context, filter shared.Filter) ([]catalog.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.sorted()
	if filter.Search != "" {
		q := strings.ToLower(filter.Search)
		matched := all[:0]
		for _, p := range all {
			if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.SKU), q) {
				matched = append(matched, p)
			}
		}
		all = matched
	}
	return paginate(all, filter), nil
}

func (r *productRepo) ListAll(_ context.Context) ([]catalog.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(), nil
}

func (r *productRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	_, err := r.FindBySKU(ctx, sku)
	return err == nil, nil
}

func (r *productRepo) Save(_ context.Context, p *catalog.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Products[p.ID] = *p
	return nil
}

func (r *productRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.s.Products, id)
	return nil
}

// --- suppliers ---

type supplierRepo struct{ s *Store }

func (r *supplierRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sup, ok := r.s.Suppliers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &sup, nil
}

func (r *supplierRepo) FindAll(_ context.Context, filter shared.Filter) ([]catalog.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]catalog.Supplier, 0, len(r.s.Suppliers))
	for _, sup := range r.s.Suppliers {
		out = append(out, sup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, filter), nil
}

func (r *supplierRepo) Save(_ context.Context, sup *catalog.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Suppliers[sup.ID] = *sup
	return nil
}

func (r *supplierRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Suppliers[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.s.Suppliers, id)
	return nil
}

// --- lots ---

type lotRepo struct{ s *Store }

// activeOrder sorts by expiration ascending with undated lots last, then received_at
func activeOrder(lots []inventory.Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		switch {
		case a.Expiration == nil && b.Expiration != nil:
			return false
		case a.Expiration != nil && b.Expiration == nil:
			return true
		case a.Expiration != nil && !a.Expiration.Equal(*b.Expiration):
			return a.Expiration.Before(*b.Expiration)
		}
		return a.ReceivedAt.Before(b.ReceivedAt)
	})
}

func (r *lotRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Lot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.Lots[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &l, nil
}

func (r *lotRepo) FindAll(_ context.Context, filter inventory.LotFilter) ([]inventory.Lot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]inventory.Lot, 0)
	for _, l := range r.s.Lots {
		if filter.ProductID != nil && l.ProductID != *filter.ProductID {
			continue
		}
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	return paginate(out, filter.Filter), nil
}

func (r *lotRepo) active(match func(inventory.Lot) bool) []inventory.Lot {
	out := make([]inventory.Lot, 0)
	for _, l := range r.s.Lots {
		if l.Status == inventory.LotStatusActive && match(l) {
			out = append(out, l)
		}
	}
	activeOrder(out)
	return out
}

func (r *lotRepo) ListActiveByProduct(_ context.Context, productID uuid.UUID) ([]inventory.Lot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.active(func(l inventory.Lot) bool { return l.ProductID == productID }), nil
}

func (r *lotRepo) ListActiveByProductForUpdate(ctx context.Context, productID uuid.UUID) ([]inventory.Lot, error) {
	return r.ListActiveByProduct(ctx, productID)
}

func (r *lotRepo) ListActive(_ context.Context) ([]inventory.Lot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.active(func(inventory.Lot) bool { return true }), nil
}

func (r *lotRepo) ListActiveExpiringBefore(_ context.Context, t time.Time) ([]inventory.Lot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.active(func(l inventory.Lot) bool {
		return l.Expiration != nil && l.Expiration.Before(t)
	}), nil
}

func (r *lotRepo) SumActiveStockByProduct(_ context.Context) (map[uuid.UUID]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uuid.UUID]int)
	for _, l := range r.s.Lots {
		if l.Status == inventory.LotStatusActive {
			out[l.ProductID] += l.QtyCurrent
		}
	}
	return out, nil
}

func (r *lotRepo) Decrement(_ context.Context, lotID uuid.UUID, amount int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.Lots[lotID]
	if !ok {
		return shared.ErrNotFound
	}
	if l.Status != inventory.LotStatusActive {
		return shared.ErrInvalidState
	}
	if l.QtyCurrent < amount {
		return shared.ErrNegativeQuantity
	}
	l.QtyCurrent -= amount
	if l.QtyCurrent == 0 {
		l.Status = inventory.LotStatusSoldOut
	}
	r.s.Lots[lotID] = l
	return nil
}

func (r *lotRepo) TransitionStatus(_ context.Context, lotID uuid.UUID, from, to inventory.LotStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.Lots[lotID]
	if !ok {
		return shared.ErrNotFound
	}
	if l.Status != from {
		return shared.ErrInvalidState
	}
	l.Status = to
	l.Touch()
	r.s.Lots[lotID] = l
	return nil
}

func (r *lotRepo) Save(_ context.Context, lot *inventory.Lot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Lots[lot.ID] = *lot
	return nil
}

func (r *lotRepo) SaveBatch(ctx context.Context, lots []*inventory.Lot) error {
	for _, l := range lots {
		if err := r.Save(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func (r *lotRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Lots[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.s.Lots, id)
	return nil
}

// --- purchases ---

type purchaseRepo struct{ s *Store }

func (r *purchaseRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Purchase, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.Purchases[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *purchaseRepo) Save(_ context.Context, p *inventory.Purchase) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Purchases[p.ID] = *p
	return nil
}

// --- waste ---

type wasteRepo struct{ s *Store }

func (r *wasteRepo) FindAll(_ context.Context, filter inventory.WasteFilter) ([]inventory.Waste, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]inventory.Waste, 0)
	for i := len(r.s.Waste) - 1; i >= 0; i-- {
		w := r.s.Waste[i]
		if filter.ProductID != nil && w.ProductID != *filter.ProductID {
			continue
		}
		if filter.From != nil && w.OccurredAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && w.OccurredAt.After(*filter.To) {
			continue
		}
		out = append(out, w)
	}
	return paginate(out, filter.Filter), nil
}

func (r *wasteRepo) ListAll(_ context.Context) ([]inventory.Waste, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]inventory.Waste(nil), r.s.Waste...), nil
}

func (r *wasteRepo) Save(_ context.Context, w *inventory.Waste) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Waste = append(r.s.Waste, *w)
	return nil
}

// --- sales ---

type saleRepo struct{ s *Store }

func (r *saleRepo) Create(_ context.Context, sale *trade.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ErrSaleCreate != nil {
		return r.s.ErrSaleCreate
	}
	stored := *sale
	stored.Items = append([]trade.SaleItem(nil), sale.Items...)
	r.s.Sales[sale.ID] = stored
	return nil
}

func (r *saleRepo) FindByID(_ context.Context, id uuid.UUID) (*trade.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sale, ok := r.s.Sales[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &sale, nil
}

func (r *saleRepo) newestFirst(match func(trade.Sale) bool) []trade.Sale {
	out := make([]trade.Sale, 0)
	for _, sale := range r.s.Sales {
		if match(sale) {
			sale.Items = nil
			out = append(out, sale)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SoldAt.After(out[j].SoldAt) })
	return out
}

func (r *saleRepo) FindAll(_ context.Context, filter shared.Filter) ([]trade.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return paginate(r.newestFirst(func(trade.Sale) bool { return true }), filter), nil
}

func (r *saleRepo) ListInWindow(_ context.Context, start, end time.Time) ([]trade.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.newestFirst(func(sale trade.Sale) bool {
		return !sale.SoldAt.Before(start) && !sale.SoldAt.After(end)
	}), nil
}

func (r *saleRepo) ListItemsForSales(_ context.Context, saleIDs []uuid.UUID) ([]trade.SaleItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]trade.SaleItem, 0)
	for _, id := range saleIDs {
		out = append(out, r.s.Sales[id].Items...)
	}
	return out, nil
}

func (r *saleRepo) UpdatePaymentMethod(_ context.Context, sale *trade.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.Sales[sale.ID]
	if !ok {
		return shared.ErrNotFound
	}
	stored.PaymentMethod = sale.PaymentMethod
	r.s.Sales[sale.ID] = stored
	return nil
}

// --- settings ---

type settingRepo struct{ s *Store }

func (r *settingRepo) Get(_ context.Context, key string) (string, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ErrSettingGet != nil {
		return "", false, r.s.ErrSettingGet
	}
	v, ok := r.s.Settings[key]
	return v, ok, nil
}

func (r *settingRepo) Set(_ context.Context, key, value string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Settings[key] = value
	return nil
}

func (r *settingRepo) All(_ context.Context) ([]setting.Setting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]setting.Setting, 0, len(r.s.Settings))
	for k, v := range r.s.Settings {
		out = append(out, setting.Setting{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// --- margin rules ---

type ruleRepo struct{ s *Store }

func scopeKey(scope pricing.MarginScope) string {
	return string(scope.Kind()) + ":" + scope.Ref()
}

func (r *ruleRepo) FindRate(_ context.Context, scope pricing.MarginScope) (decimal.Decimal, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ErrRuleLookup != nil {
		return decimal.Zero, false, r.s.ErrRuleLookup
	}
	rule, ok := r.s.Rules[scopeKey(scope)]
	if !ok {
		return decimal.Zero, false, nil
	}
	return rule.MinPercent, true, nil
}

func (r *ruleRepo) FindAll(_ context.Context) ([]pricing.MarginRule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]pricing.MarginRule, 0, len(r.s.Rules))
	for _, rule := range r.s.Rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return scopeKey(out[i].Scope) < scopeKey(out[j].Scope) })
	return out, nil
}

func (r *ruleRepo) Upsert(_ context.Context, rule *pricing.MarginRule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Rules[scopeKey(rule.Scope)] = *rule
	return nil
}

func (r *ruleRepo) DeleteByScope(_ context.Context, scope pricing.MarginScope) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.Rules, scopeKey(scope))
	return nil
}

// --- promos ---

type promoRepo struct{ s *Store }

func (r *promoRepo) FindByID(_ context.Context, id uuid.UUID) (*pricing.Promo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.Promos[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *promoRepo) FindAll(_ context.Context, filter shared.Filter) ([]pricing.Promo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]pricing.Promo, 0, len(r.s.Promos))
	for _, p := range r.s.Promos {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.After(out[j].StartsAt) })
	return paginate(out, filter), nil
}

func (r *promoRepo) Save(_ context.Context, p *pricing.Promo) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Promos[p.ID] = *p
	return nil
}

func (r *promoRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Promos[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.s.Promos, id)
	return nil
}

// --- audit ---

// AuditLog implements audit.Sink and audit.Reader on the store
type AuditLog struct{ s *Store }

// Append implements audit.Sink
func (a *AuditLog) Append(_ context.Context, entry audit.Entry) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if a.s.ErrAuditAppend != nil {
		return a.s.ErrAuditAppend
	}
	a.s.Audit = append(a.s.Audit, entry)
	return nil
}

// List implements audit.Reader
func (a *AuditLog) List(_ context.Context, filter audit.Filter) ([]audit.Entry, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	out := make([]audit.Entry, 0)
	for i := len(a.s.Audit) - 1; i >= 0; i-- {
		e := a.s.Audit[i]
		if filter.Entity != "" && e.Entity != filter.Entity {
			continue
		}
		if filter.EntityID != nil && (e.EntityID == nil || *e.EntityID != *filter.EntityID) {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// Entries returns a copy of every recorded audit entry, oldest first
func (a *AuditLog) Entries() []audit.Entry {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	return append([]audit.Entry(nil), a.s.Audit...)
}
